package juce

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// Module is a JUCE module directory: <name>/<name>.h plus an optional
// <name>.cpp and an optional Apple-only <name>.mm.
type Module struct {
	Name        string
	Dir         string
	Header      string
	Source      string // empty if <name>.cpp does not exist
	AppleSource string // empty if <name>.mm does not exist

	Dependencies []string
	// DeclaresDependencies is false when the declaration has no
	// dependencies key at all, as opposed to an empty one.
	DeclaresDependencies bool
	Declaration          *Declaration
}

// HeaderOnly reports whether the module has no compiled source at all.
func (m *Module) HeaderOnly() bool {
	return m.Source == "" && m.AppleSource == ""
}

// HasAppleVariant reports whether the module ships a separate .mm source.
func (m *Module) HasAppleVariant() bool {
	return m.AppleSource != ""
}

// ID returns the declared module ID, falling back to the directory name.
func (m *Module) ID() string {
	if m.Declaration != nil {
		if id, ok := m.Declaration.Lookup("ID"); ok && id != "" {
			return id
		}
	}
	return m.Name
}

// Frameworks and libraries the module asks to link on specific platforms.
func (m *Module) OSXFrameworks() []string { return m.list("OSXFrameworks") }
func (m *Module) IOSFrameworks() []string { return m.list("iOSFrameworks") }
func (m *Module) LinuxLibs() []string     { return m.list("linuxLibs") }
func (m *Module) LinuxPackages() []string { return m.list("linuxPackages") }
func (m *Module) MingwLibs() []string     { return m.list("mingwLibs") }
func (m *Module) WindowsLibs() []string   { return m.list("windowsLibs") }

func (m *Module) list(key string) []string {
	if m.Declaration == nil {
		return nil
	}
	return m.Declaration.List(key)
}

// LoadModule reads the module in dir. The module name is the directory's
// basename and the header must be named after it.
func LoadModule(dir string) (*Module, error) {
	dir = filepath.Clean(dir)
	name := filepath.Base(dir)
	if name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("cannot derive a module name from %q", dir)
	}

	m := &Module{
		Name:   name,
		Dir:    dir,
		Header: filepath.Join(dir, name+".h"),
	}

	data, err := os.ReadFile(m.Header)
	if err != nil {
		return nil, err
	}

	m.Declaration, err = ParseDeclaration(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Header, err)
	}
	if deps, ok := m.Declaration.Lookup("dependencies"); ok {
		m.Dependencies = SplitList(deps)
		m.DeclaresDependencies = true
	}

	if m.Source, err = existingFile(filepath.Join(dir, name+".cpp")); err != nil {
		return nil, err
	}
	if m.AppleSource, err = existingFile(filepath.Join(dir, name+".mm")); err != nil {
		return nil, err
	}

	return m, nil
}

func existingFile(path string) (string, error) {
	stat, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if stat.IsDir() {
		return "", nil
	}
	return path, nil
}

// DiscoverModules lists the module directories directly below modulesDir,
// sorted by name. Names in exclude are skipped.
func DiscoverModules(modulesDir string, exclude []string) ([]string, error) {
	entries, err := os.ReadDir(modulesDir)
	if err != nil {
		return nil, err
	}

	var dirs []string
	for _, entry := range entries {
		if slices.Contains(exclude, entry.Name()) {
			continue
		}
		path := filepath.Join(modulesDir, entry.Name())
		if !entry.IsDir() {
			// symlinked module directories
			if entry.Type()&os.ModeSymlink == 0 {
				continue
			}
			if stat, err := os.Stat(path); err != nil || !stat.IsDir() {
				continue
			}
		}
		dirs = append(dirs, path)
	}
	slices.Sort(dirs)
	return dirs, nil
}
