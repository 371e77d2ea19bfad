package gen

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/qobs-build/juce2cmake/internal/juce"
)

const (
	DefaultModulesFile  = "juce_modules.cmake"
	DefaultSourcePrefix = "${PROJECT_SOURCE_DIR}"
	DefaultCxxStandard  = 14
)

var modulesPreamble = MustTemplate("modules-preamble", `###############################################################################
#
#   JUCE
#
###############################################################################


set(CMAKE_CXX_STANDARD %{cxx_standard})
set(CMAKE_CXX_STANDARD_REQUIRED ON)
set(JUCE_INCLUDES PUBLIC %{include_dir})


`,
	Slot{"cxx_standard", Scalar},
	Slot{"include_dir", Scalar},
)

var moduleTemplate = MustTemplate("module", `###############################################################################
# %{module_name}
###############################################################################


set(%{module_name}_DEPENDENCIES
    %{module_dependencies}
)

%{module_sources}

add_library(%{module_name} ${%{module_name}_SOURCES})
target_link_libraries(%{module_name} ${%{module_name}_DEPENDENCIES})
%{module_platform_links}
target_compile_definitions(%{module_name} PUBLIC %{module_definitions})
target_include_directories(%{module_name} PUBLIC ${JUCE_INCLUDES})
source_group(%{module_name} FILES ${%{module_name}_SOURCES})


`,
	Slot{"module_name", Scalar},
	Slot{"module_dependencies", List},
	Slot{"module_sources", Scalar},
	Slot{"module_platform_links", List},
	Slot{"module_definitions", List},
)

var moduleSourcesTemplate = MustTemplate("module-sources", `set(%{module_name}_SOURCES
    %{module_sources}
)`,
	Slot{"module_name", Scalar},
	Slot{"module_sources", List},
)

var moduleAppleSourcesTemplate = MustTemplate("module-sources-apple", `if(APPLE)
    set(%{module_name}_SOURCES
        %{module_sources_apple}
    )
else()
    set(%{module_name}_SOURCES
        %{module_sources}
    )
endif()`,
	Slot{"module_name", Scalar},
	Slot{"module_sources_apple", List},
	Slot{"module_sources", List},
)

// ModuleSettings controls how module paths and flags are written.
type ModuleSettings struct {
	// SourcePrefix is prepended to relative source paths.
	SourcePrefix string
	// RelativeTo, if set, makes module paths relative to this directory
	// before SourcePrefix is applied.
	RelativeTo string
	// ModulesDir is the directory holding the modules. IncludeDir defaults
	// to it, written the same way as source paths.
	ModulesDir    string
	IncludeDir    string
	CxxStandard   int
	Definitions   []string
	PlatformLinks bool
}

// DanglingDependency is a dependency that has no library target in the
// generated file.
type DanglingDependency struct {
	Module     string
	Dependency string
	HeaderOnly bool // false means the module was not found at all
}

func (d DanglingDependency) String() string {
	if d.HeaderOnly {
		return fmt.Sprintf("%s depends on header-only module %s", d.Module, d.Dependency)
	}
	return fmt.Sprintf("%s depends on unknown module %s", d.Module, d.Dependency)
}

// ModulesGen accumulates modules and renders them into one consolidated
// CMake file, in the order they were added.
type ModulesGen struct {
	output   string
	settings ModuleSettings
	modules  []*juce.Module
}

func NewModulesGen(output string, settings ModuleSettings) *ModulesGen {
	if output == "" {
		output = DefaultModulesFile
	}
	if settings.CxxStandard == 0 {
		settings.CxxStandard = DefaultCxxStandard
	}
	g := &ModulesGen{output: output, settings: settings}
	if g.settings.IncludeDir == "" && g.settings.ModulesDir != "" {
		g.settings.IncludeDir = strings.TrimSuffix(g.outputPath(g.settings.ModulesDir), "/") + "/"
	}
	return g
}

// IncludeDir is the directory written into JUCE_INCLUDES.
func (g *ModulesGen) IncludeDir() string { return g.settings.IncludeDir }

func (g *ModulesGen) BuildFile() string { return g.output }

// AddModule appends a module. Header-only modules are remembered for
// dependency checks but get no library target.
func (g *ModulesGen) AddModule(m *juce.Module) {
	g.modules = append(g.modules, m)
}

// Targets returns the names of the modules that get a library target.
func (g *ModulesGen) Targets() []string {
	var names []string
	for _, m := range g.modules {
		if !m.HeaderOnly() {
			names = append(names, m.Name)
		}
	}
	return names
}

// DanglingDependencies lists dependencies on modules that have no library
// target, either because they are header-only or were never added.
func (g *ModulesGen) DanglingDependencies() []DanglingDependency {
	known := make(map[string]*juce.Module, len(g.modules))
	for _, m := range g.modules {
		known[m.Name] = m
	}

	var dangling []DanglingDependency
	for _, m := range g.modules {
		if m.HeaderOnly() {
			continue
		}
		for _, dep := range m.Dependencies {
			target, ok := known[dep]
			if ok && !target.HeaderOnly() {
				continue
			}
			dangling = append(dangling, DanglingDependency{Module: m.Name, Dependency: dep, HeaderOnly: ok})
		}
	}
	return dangling
}

func (g *ModulesGen) Generate() (string, error) {
	var sb strings.Builder

	preamble, err := modulesPreamble.Execute(Values{
		"cxx_standard": strconv.Itoa(g.settings.CxxStandard),
		"include_dir":  quote(g.settings.IncludeDir),
	})
	if err != nil {
		return "", err
	}
	write(&sb, preamble)

	for _, m := range g.modules {
		if m.HeaderOnly() {
			continue
		}
		block, err := g.renderModule(m)
		if err != nil {
			return "", fmt.Errorf("module %s: %w", m.Name, err)
		}
		write(&sb, block)
	}

	return sb.String(), nil
}

func (g *ModulesGen) renderModule(m *juce.Module) (string, error) {
	header := g.sourcePath(m.Header)

	sources := []string{header}
	if m.Source != "" {
		sources = append(sources, g.sourcePath(m.Source))
	}

	var sourcesBlock string
	var err error
	if m.HasAppleVariant() {
		sourcesBlock, err = moduleAppleSourcesTemplate.Execute(Values{
			"module_name":          m.Name,
			"module_sources_apple": []string{header, g.sourcePath(m.AppleSource)},
			"module_sources":       sources,
		})
	} else {
		sourcesBlock, err = moduleSourcesTemplate.Execute(Values{
			"module_name":    m.Name,
			"module_sources": sources,
		})
	}
	if err != nil {
		return "", err
	}

	var links []string
	if g.settings.PlatformLinks {
		links = platformLinks(m)
	}

	definitions := make([]string, len(g.settings.Definitions))
	for i, def := range g.settings.Definitions {
		definitions[i] = quote("-D" + strings.TrimPrefix(def, "-D"))
	}

	return moduleTemplate.Execute(Values{
		"module_name":           m.Name,
		"module_dependencies":   quoteAll(m.Dependencies),
		"module_sources":        sourcesBlock,
		"module_platform_links": links,
		"module_definitions":    definitions,
	})
}

// sourcePath turns a module file path into the quoted form used in the
// output, e.g. ${PROJECT_SOURCE_DIR}/../JUCE/modules/juce_core/juce_core.h
func (g *ModulesGen) sourcePath(path string) string {
	return quote(g.outputPath(path))
}

func (g *ModulesGen) outputPath(path string) string {
	if g.settings.RelativeTo != "" {
		if rel, err := filepath.Rel(g.settings.RelativeTo, path); err == nil {
			path = rel
		}
	}
	path = filepath.ToSlash(path)
	if g.settings.SourcePrefix != "" && !filepath.IsAbs(path) && !strings.HasPrefix(path, "/") {
		path = strings.TrimSuffix(g.settings.SourcePrefix, "/") + "/" + path
	}
	return path
}

// platformLinks renders the frameworks and system libraries a module
// declares as platform-conditional link lines.
func platformLinks(m *juce.Module) []string {
	var blocks []string

	osx := frameworkArgs(m.OSXFrameworks())
	ios := frameworkArgs(m.IOSFrameworks())
	if len(osx) > 0 || len(ios) > 0 {
		var sb strings.Builder
		if len(ios) > 0 {
			writeln(&sb, "if(IOS)")
			writeln(&sb, "    target_link_libraries(", m.Name, " ", strings.Join(ios, " "), ")")
			if len(osx) > 0 {
				writeln(&sb, "elseif(APPLE)")
				writeln(&sb, "    target_link_libraries(", m.Name, " ", strings.Join(osx, " "), ")")
			}
		} else {
			writeln(&sb, "if(APPLE AND NOT IOS)")
			writeln(&sb, "    target_link_libraries(", m.Name, " ", strings.Join(osx, " "), ")")
		}
		write(&sb, "endif()")
		blocks = append(blocks, sb.String())
	}

	linuxLibs := m.LinuxLibs()
	linuxPackages := m.LinuxPackages()
	if len(linuxLibs) > 0 || len(linuxPackages) > 0 {
		var sb strings.Builder
		writeln(&sb, "if(UNIX AND NOT APPLE)")
		if len(linuxLibs) > 0 {
			writeln(&sb, "    target_link_libraries(", m.Name, " ", strings.Join(quoteAll(linuxLibs), " "), ")")
		}
		if len(linuxPackages) > 0 {
			pkgVar := m.Name + "_PACKAGES"
			writeln(&sb, "    find_package(PkgConfig REQUIRED)")
			writeln(&sb, "    pkg_check_modules(", pkgVar, " REQUIRED IMPORTED_TARGET ", strings.Join(quoteAll(linuxPackages), " "), ")")
			writeln(&sb, "    target_link_libraries(", m.Name, " PkgConfig::", pkgVar, ")")
		}
		write(&sb, "endif()")
		blocks = append(blocks, sb.String())
	}

	for _, win := range []struct {
		cond string
		libs []string
	}{
		{"MINGW", m.MingwLibs()},
		{"MSVC", m.WindowsLibs()},
	} {
		if len(win.libs) == 0 {
			continue
		}
		var sb strings.Builder
		writeln(&sb, "if(", win.cond, ")")
		writeln(&sb, "    target_link_libraries(", m.Name, " ", strings.Join(quoteAll(win.libs), " "), ")")
		write(&sb, "endif()")
		blocks = append(blocks, sb.String())
	}

	return blocks
}

func frameworkArgs(frameworks []string) []string {
	args := make([]string, 0, len(frameworks))
	for _, fw := range slices.Compact(slices.Clone(frameworks)) {
		args = append(args, quote("-framework "+fw))
	}
	return args
}
