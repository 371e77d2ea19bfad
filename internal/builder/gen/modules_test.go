package gen

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qobs-build/juce2cmake/internal/juce"
)

var (
	workDir    = filepath.FromSlash("/work/app")
	modulesDir = filepath.FromSlash("/work/JUCE/modules")
)

func testModule(name string, deps []string, cpp, mm bool) *juce.Module {
	dir := filepath.Join(modulesDir, name)
	m := &juce.Module{
		Name:         name,
		Dir:          dir,
		Header:       filepath.Join(dir, name+".h"),
		Dependencies: deps,
	}
	if cpp {
		m.Source = filepath.Join(dir, name+".cpp")
	}
	if mm {
		m.AppleSource = filepath.Join(dir, name+".mm")
	}
	return m
}

func testSettings() ModuleSettings {
	return ModuleSettings{
		SourcePrefix: DefaultSourcePrefix,
		RelativeTo:   workDir,
		IncludeDir:   "${PROJECT_SOURCE_DIR}/../JUCE/modules/",
		Definitions:  []string{"JUCE_GLOBAL_MODULE_SETTINGS_INCLUDED"},
	}
}

func TestModulesGenSingleSourceList(t *testing.T) {
	g := NewModulesGen("", testSettings())
	g.AddModule(testModule("juce_events", []string{"juce_core"}, true, false))

	out, err := g.Generate()
	require.NoError(t, err)

	assert.Equal(t, `###############################################################################
#
#   JUCE
#
###############################################################################


set(CMAKE_CXX_STANDARD 14)
set(CMAKE_CXX_STANDARD_REQUIRED ON)
set(JUCE_INCLUDES PUBLIC ${PROJECT_SOURCE_DIR}/../JUCE/modules/)


###############################################################################
# juce_events
###############################################################################


set(juce_events_DEPENDENCIES
    juce_core
)

set(juce_events_SOURCES
    ${PROJECT_SOURCE_DIR}/../JUCE/modules/juce_events/juce_events.h
    ${PROJECT_SOURCE_DIR}/../JUCE/modules/juce_events/juce_events.cpp
)

add_library(juce_events ${juce_events_SOURCES})
target_link_libraries(juce_events ${juce_events_DEPENDENCIES})
target_compile_definitions(juce_events PUBLIC -DJUCE_GLOBAL_MODULE_SETTINGS_INCLUDED)
target_include_directories(juce_events PUBLIC ${JUCE_INCLUDES})
source_group(juce_events FILES ${juce_events_SOURCES})


`, out)
	assert.Equal(t, DefaultModulesFile, g.BuildFile())
	assert.NotContains(t, out, "if(APPLE)")
}

func TestModulesGenAppleVariant(t *testing.T) {
	g := NewModulesGen("juce.cmake", testSettings())
	g.AddModule(testModule("juce_gui_basics", []string{"juce_core", "juce_data_structures"}, true, true))

	out, err := g.Generate()
	require.NoError(t, err)

	assert.Contains(t, out, `if(APPLE)
    set(juce_gui_basics_SOURCES
        ${PROJECT_SOURCE_DIR}/../JUCE/modules/juce_gui_basics/juce_gui_basics.h
        ${PROJECT_SOURCE_DIR}/../JUCE/modules/juce_gui_basics/juce_gui_basics.mm
    )
else()
    set(juce_gui_basics_SOURCES
        ${PROJECT_SOURCE_DIR}/../JUCE/modules/juce_gui_basics/juce_gui_basics.h
        ${PROJECT_SOURCE_DIR}/../JUCE/modules/juce_gui_basics/juce_gui_basics.cpp
    )
endif()

add_library(juce_gui_basics ${juce_gui_basics_SOURCES})`)
	assert.Contains(t, out, "set(juce_gui_basics_DEPENDENCIES\n    juce_core\n    juce_data_structures\n)")
	assert.Equal(t, 1, strings.Count(out, "if(APPLE)"))
	assert.Equal(t, "juce.cmake", g.BuildFile())
}

func TestModulesGenAppleOnlySource(t *testing.T) {
	g := NewModulesGen("", testSettings())
	g.AddModule(testModule("juce_video", nil, false, true))

	out, err := g.Generate()
	require.NoError(t, err)

	assert.Contains(t, out, "else()\n    set(juce_video_SOURCES\n        ${PROJECT_SOURCE_DIR}/../JUCE/modules/juce_video/juce_video.h\n    )\nendif()")
	assert.NotContains(t, out, "juce_video.cpp")
	assert.Contains(t, out, "set(juce_video_DEPENDENCIES\n)")
}

func TestModulesGenSkipsHeaderOnly(t *testing.T) {
	g := NewModulesGen("", testSettings())
	g.AddModule(testModule("juce_core", nil, true, true))
	g.AddModule(testModule("juce_blocks_basics", []string{"juce_core"}, false, false))
	g.AddModule(testModule("juce_events", []string{"juce_core"}, true, false))

	out, err := g.Generate()
	require.NoError(t, err)

	assert.NotContains(t, out, "juce_blocks_basics")
	assert.Equal(t, []string{"juce_core", "juce_events"}, g.Targets())
	assert.Less(t, strings.Index(out, "# juce_core\n"), strings.Index(out, "# juce_events\n"))
	assert.Equal(t, 2, strings.Count(out, "add_library("))
}

func TestModulesGenDanglingDependencies(t *testing.T) {
	g := NewModulesGen("", testSettings())
	g.AddModule(testModule("juce_core", nil, true, false))
	g.AddModule(testModule("juce_blocks_basics", []string{"juce_core"}, false, false))
	g.AddModule(testModule("juce_box2d", []string{"juce_blocks_basics", "juce_graphics", "juce_core"}, true, false))

	dangling := g.DanglingDependencies()
	assert.Equal(t, []DanglingDependency{
		{Module: "juce_box2d", Dependency: "juce_blocks_basics", HeaderOnly: true},
		{Module: "juce_box2d", Dependency: "juce_graphics", HeaderOnly: false},
	}, dangling)
	assert.Equal(t, "juce_box2d depends on header-only module juce_blocks_basics", dangling[0].String())
	assert.Equal(t, "juce_box2d depends on unknown module juce_graphics", dangling[1].String())
}

func TestModulesGenPlatformLinks(t *testing.T) {
	decl, err := juce.ParseDeclaration(`BEGIN_JUCE_MODULE_DECLARATION
  ID:               juce_core
  OSXFrameworks:    Cocoa IOKit
  iOSFrameworks:    Foundation
  linuxLibs:        rt dl pthread
  linuxPackages:    libcurl
  mingwLibs:        uuid wsock32
END_JUCE_MODULE_DECLARATION`)
	require.NoError(t, err)

	m := testModule("juce_core", nil, true, true)
	m.Declaration = decl

	settings := testSettings()
	settings.PlatformLinks = true
	g := NewModulesGen("", settings)
	g.AddModule(m)

	out, err := g.Generate()
	require.NoError(t, err)

	assert.Contains(t, out, `target_link_libraries(juce_core ${juce_core_DEPENDENCIES})
if(IOS)
    target_link_libraries(juce_core "-framework Foundation")
elseif(APPLE)
    target_link_libraries(juce_core "-framework Cocoa" "-framework IOKit")
endif()
if(UNIX AND NOT APPLE)
    target_link_libraries(juce_core rt dl pthread)
    find_package(PkgConfig REQUIRED)
    pkg_check_modules(juce_core_PACKAGES REQUIRED IMPORTED_TARGET libcurl)
    target_link_libraries(juce_core PkgConfig::juce_core_PACKAGES)
endif()
if(MINGW)
    target_link_libraries(juce_core uuid wsock32)
endif()
target_compile_definitions(juce_core PUBLIC -DJUCE_GLOBAL_MODULE_SETTINGS_INCLUDED)`)

	settings.PlatformLinks = false
	g = NewModulesGen("", settings)
	g.AddModule(m)
	out, err = g.Generate()
	require.NoError(t, err)
	assert.NotContains(t, out, "-framework")
}

func TestModulesGenOSXOnlyFrameworks(t *testing.T) {
	decl, err := juce.ParseDeclaration("BEGIN_JUCE_MODULE_DECLARATION\n OSXFrameworks: WebKit\nEND_JUCE_MODULE_DECLARATION")
	require.NoError(t, err)

	m := testModule("juce_gui_extra", nil, true, true)
	m.Declaration = decl

	settings := testSettings()
	settings.PlatformLinks = true
	g := NewModulesGen("", settings)
	g.AddModule(m)

	out, err := g.Generate()
	require.NoError(t, err)
	assert.Contains(t, out, "if(APPLE AND NOT IOS)\n    target_link_libraries(juce_gui_extra \"-framework WebKit\")\nendif()\n")
}

func TestModulesGenAbsoluteAndQuotedPaths(t *testing.T) {
	g := NewModulesGen("", ModuleSettings{SourcePrefix: DefaultSourcePrefix})
	m := &juce.Module{
		Name:   "juce_core",
		Header: "/opt/My JUCE/modules/juce_core/juce_core.h",
		Source: "/opt/My JUCE/modules/juce_core/juce_core.cpp",
	}
	g.AddModule(m)

	out, err := g.Generate()
	require.NoError(t, err)
	assert.Contains(t, out, `    "/opt/My JUCE/modules/juce_core/juce_core.h"`)
	assert.Contains(t, out, "set(JUCE_INCLUDES PUBLIC \"\")")
}

func TestModulesGenIncludeDirFollowsModulesDir(t *testing.T) {
	settings := testSettings()
	settings.IncludeDir = ""
	settings.ModulesDir = filepath.Join(workDir, "vendor", "JUCE", "modules")

	g := NewModulesGen("", settings)
	assert.Equal(t, "${PROJECT_SOURCE_DIR}/vendor/JUCE/modules/", g.IncludeDir())

	dir := filepath.Join(settings.ModulesDir, "juce_core")
	g.AddModule(&juce.Module{Name: "juce_core", Dir: dir, Header: filepath.Join(dir, "juce_core.h"), Source: filepath.Join(dir, "juce_core.cpp")})
	out, err := g.Generate()
	require.NoError(t, err)
	assert.Contains(t, out, "set(JUCE_INCLUDES PUBLIC ${PROJECT_SOURCE_DIR}/vendor/JUCE/modules/)")
	assert.Contains(t, out, "    ${PROJECT_SOURCE_DIR}/vendor/JUCE/modules/juce_core/juce_core.h\n")

	t.Run("explicit include dir wins", func(t *testing.T) {
		settings.IncludeDir = "/usr/include/JUCE/modules"
		assert.Equal(t, "/usr/include/JUCE/modules", NewModulesGen("", settings).IncludeDir())
	})
}
