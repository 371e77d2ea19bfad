package jucer

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

const DefaultPattern = "**/*.jucer"

var (
	ErrParse            = errors.New("malformed descriptor")
	ErrFormat           = errors.New("unexpected descriptor structure")
	ErrMissingAttribute = errors.New("missing attribute")
)

// Node is an element of a parsed descriptor document.
type Node struct {
	Name     string
	Attrs    []xml.Attr
	Children []*Node
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Child returns the first child element with the given name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns all direct child elements with the given name, in
// document order.
func (n *Node) ChildrenNamed(name string) []*Node {
	var nodes []*Node
	for _, c := range n.Children {
		if c.Name == name {
			nodes = append(nodes, c)
		}
	}
	return nodes
}

// ParseDocument reads an XML document into a tree of nodes. Text, comments
// and processing instructions are dropped.
func ParseDocument(rdr io.Reader) (*Node, error) {
	dec := xml.NewDecoder(rdr)

	var root *Node
	var stack []*Node
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			node := &Node{Name: t.Name.Local, Attrs: slices.Clone(t.Attr)}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: multiple root elements", ErrParse)
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrParse)
	}
	return root, nil
}

// ParseDocumentFromFile parses the descriptor at path
func ParseDocumentFromFile(path string) (*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := ParseDocument(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Discover finds descriptor files below root matching the doublestar pattern,
// skipping any path that matches one of the exclude patterns. Paths are
// returned sorted and joined onto root.
func Discover(root, pattern string, exclude []string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	matches, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}

	var files []string
	for _, match := range matches {
		excluded, err := matchesAny(exclude, match)
		if err != nil {
			return nil, err
		}
		if !excluded {
			files = append(files, filepath.Join(root, filepath.FromSlash(match)))
		}
	}
	slices.Sort(files)
	return files, nil
}

func matchesAny(patterns []string, path string) (bool, error) {
	for _, pat := range patterns {
		ok, err := doublestar.Match(pat, path)
		if err != nil {
			return false, fmt.Errorf("bad exclude pattern %q: %w", pat, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
