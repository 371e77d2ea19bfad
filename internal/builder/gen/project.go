package gen

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/qobs-build/juce2cmake/internal/jucer"
)

const (
	DefaultProjectFile = "CMakeLists.txt"
	DefaultJuceDir     = "${PROJECT_SOURCE_DIR}/../../"
)

var projectTemplate = MustTemplate("project", `# %{project_title} (generated from %{descriptor})

cmake_minimum_required(VERSION 3.0)

set(ProjectName %{project_name})
project(${ProjectName})

set(CMAKE_CXX_STANDARD %{cxx_standard})
set(CMAKE_CXX_STANDARD_REQUIRED ON)

set(SOURCES
%{project_sources}
)

set(JUCE_PROJECT_NAME ${ProjectName})
add_subdirectory(%{juce_dir} "${PROJECT_BINARY_DIR}/juce")
add_executable(${ProjectName} ${SOURCES})
source_group(Source FILES ${SOURCES})
target_link_libraries(${ProjectName} %{project_modules})
set_target_properties(${ProjectName} PROPERTIES MACOSX_BUNDLE true)
target_compile_features(${ProjectName} INTERFACE cxx_auto_type cxx_constexpr)
`,
	Slot{"project_title", Scalar},
	Slot{"descriptor", Scalar},
	Slot{"project_name", Scalar},
	Slot{"cxx_standard", Scalar},
	Slot{"project_sources", List},
	Slot{"juce_dir", Scalar},
	Slot{"project_modules", List},
)

type ProjectSettings struct {
	Output      string
	JuceDir     string
	CxxStandard int
}

// ProjectGen renders the executable target for one .jucer project. The
// output file lives next to the descriptor.
type ProjectGen struct {
	project    *jucer.Project
	descriptor string
	settings   ProjectSettings
}

func NewProjectGen(project *jucer.Project, descriptor string, settings ProjectSettings) *ProjectGen {
	if settings.Output == "" {
		settings.Output = DefaultProjectFile
	}
	if settings.JuceDir == "" {
		settings.JuceDir = DefaultJuceDir
	}
	if settings.CxxStandard == 0 {
		settings.CxxStandard = DefaultCxxStandard
	}
	return &ProjectGen{project: project, descriptor: descriptor, settings: settings}
}

func (g *ProjectGen) BuildFile() string {
	return filepath.Join(filepath.Dir(g.descriptor), g.settings.Output)
}

func (g *ProjectGen) Generate() (string, error) {
	sources := make([]string, len(g.project.Sources))
	for i, src := range g.project.Sources {
		sources[i] = quote(filepath.ToSlash(src))
	}

	modules := quoteAll(g.project.Modules)
	if len(modules) == 0 {
		modules = []string{`""`}
	}

	return projectTemplate.Execute(Values{
		"project_title":   strings.ReplaceAll(g.project.Name, "\n", " "),
		"descriptor":      filepath.Base(g.descriptor),
		"project_name":    TargetName(g.project.Name),
		"cxx_standard":    strconv.Itoa(g.settings.CxxStandard),
		"project_sources": sources,
		"juce_dir":        quote(g.settings.JuceDir),
		"project_modules": modules,
	})
}

// TargetName maps a project name onto the characters CMake allows in
// target names.
func TargetName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '_', r == '.', r == '+', r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "project"
	}
	return sb.String()
}
