package jucer

import (
	"fmt"
	"strings"
)

// Project is the information taken from a .jucer file.
type Project struct {
	Name    string
	Type    string   // projectType attribute, e.g. "guiapp" or "audioplug"
	Sources []string // FILE@file values relative to the descriptor, in document order
	Modules []string // MODULES/MODULE@id values
}

// SourceList returns the sources joined by newlines.
func (p *Project) SourceList() string {
	return strings.Join(p.Sources, "\n")
}

// ExtractProject reads the project name, source files and modules from a
// parsed descriptor.
func ExtractProject(doc *Node) (*Project, error) {
	name, ok := doc.Attr("name")
	if !ok {
		return nil, fmt.Errorf("%w: <%s> has no %q attribute", ErrMissingAttribute, doc.Name, "name")
	}

	mainGroup := doc.Child("MAINGROUP")
	if mainGroup == nil {
		return nil, fmt.Errorf("%w: <%s> has no MAINGROUP", ErrFormat, doc.Name)
	}

	p := &Project{Name: name}
	p.Type, _ = doc.Attr("projectType")
	collectSources(mainGroup, &p.Sources)

	if modules := doc.Child("MODULES"); modules != nil {
		for _, m := range modules.ChildrenNamed("MODULE") {
			if id, ok := m.Attr("id"); ok && id != "" {
				p.Modules = append(p.Modules, id)
			}
		}
	}

	return p, nil
}

// collectSources walks a file-group tree depth-first, keeping document order
func collectSources(group *Node, sources *[]string) {
	for _, child := range group.Children {
		switch child.Name {
		case "GROUP":
			collectSources(child, sources)
		case "FILE":
			if file, ok := child.Attr("file"); ok {
				*sources = append(*sources, file)
			}
		}
	}
}
