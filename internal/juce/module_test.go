package juce

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModule(t *testing.T, root, name, deps string, sources ...string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	header := "/*\n BEGIN_JUCE_MODULE_DECLARATION\n  ID: " + name + "\n"
	if deps != "" {
		header += "  dependencies: " + deps + "\n"
	}
	header += " END_JUCE_MODULE_DECLARATION\n*/\n#pragma once\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".h"), []byte(header), 0o644))

	for _, ext := range sources {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+ext), []byte("// "+name), 0o644))
	}
	return dir
}

func TestLoadModule(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name       string
		deps       string
		sources    []string
		wantDeps   []string
		headerOnly bool
		apple      bool
		undeclared bool
	}{
		{
			name:     "juce_events",
			deps:     "juce_core",
			sources:  []string{".cpp"},
			wantDeps: []string{"juce_core"},
		},
		{
			name:     "juce_gui_basics",
			deps:     "juce_core juce_data_structures,",
			sources:  []string{".cpp", ".mm"},
			wantDeps: []string{"juce_core", "juce_data_structures"},
			apple:    true,
		},
		{
			name:       "juce_blocks_basics",
			deps:       "juce_events juce_audio_devices",
			wantDeps:   []string{"juce_events", "juce_audio_devices"},
			headerOnly: true,
		},
		{
			name:       "juce_core",
			sources:    []string{".cpp", ".mm"},
			apple:      true,
			undeclared: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeModule(t, root, tt.name, tt.deps, tt.sources...)

			m, err := LoadModule(dir)
			require.NoError(t, err)

			assert.Equal(t, tt.name, m.Name)
			assert.Equal(t, tt.name, m.ID())
			assert.Equal(t, filepath.Join(dir, tt.name+".h"), m.Header)
			assert.Equal(t, tt.wantDeps, m.Dependencies)
			assert.Equal(t, tt.headerOnly, m.HeaderOnly())
			assert.Equal(t, tt.apple, m.HasAppleVariant())
			assert.Equal(t, !tt.undeclared, m.DeclaresDependencies)
		})
	}
}

func TestLoadModuleKeepsSelfReferencesAndDuplicates(t *testing.T) {
	dir := writeModule(t, t.TempDir(), "juce_dsp", "juce_dsp, juce_core juce_core", ".cpp")

	m, err := LoadModule(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"juce_dsp", "juce_core", "juce_core"}, m.Dependencies)
}

func TestLoadModuleMisspelledDependenciesKey(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "juce_events")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	header := "BEGIN_JUCE_MODULE_DECLARATION\n  ID: juce_events\n  dependancies: juce_core\nEND_JUCE_MODULE_DECLARATION\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "juce_events.h"), []byte(header), 0o644))

	m, err := LoadModule(dir)
	require.NoError(t, err)
	assert.False(t, m.DeclaresDependencies)
	assert.Empty(t, m.Dependencies)

	_, err = m.Declaration.Require("dependencies")
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestLoadModuleEmptyDependenciesKey(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "juce_core")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	header := "BEGIN_JUCE_MODULE_DECLARATION\n  ID: juce_core\n  dependencies:\nEND_JUCE_MODULE_DECLARATION\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "juce_core.h"), []byte(header), 0o644))

	m, err := LoadModule(dir)
	require.NoError(t, err)
	assert.True(t, m.DeclaresDependencies)
	assert.Empty(t, m.Dependencies)
}

func TestLoadModuleErrors(t *testing.T) {
	root := t.TempDir()

	t.Run("missing header", func(t *testing.T) {
		dir := filepath.Join(root, "juce_missing")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		_, err := LoadModule(dir)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("missing declaration", func(t *testing.T) {
		dir := filepath.Join(root, "juce_plain")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "juce_plain.h"), []byte("#pragma once\n"), 0o644))
		_, err := LoadModule(dir)
		assert.ErrorIs(t, err, ErrFormat)
	})
}

func TestModulePlatformLists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "juce_core")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	header := `BEGIN_JUCE_MODULE_DECLARATION
  ID:               juce_core
  OSXFrameworks:    Cocoa IOKit
  iOSFrameworks:    Foundation
  linuxLibs:        rt dl pthread
  mingwLibs:        uuid wsock32 wininet version ole32 ws2_32 oleaut32 imm32 comdlg32 shlwapi rpcrt4 winmm
END_JUCE_MODULE_DECLARATION`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "juce_core.h"), []byte(header), 0o644))

	m, err := LoadModule(dir)
	require.NoError(t, err)
	assert.Empty(t, m.Dependencies)
	assert.Equal(t, []string{"Cocoa", "IOKit"}, m.OSXFrameworks())
	assert.Equal(t, []string{"Foundation"}, m.IOSFrameworks())
	assert.Equal(t, []string{"rt", "dl", "pthread"}, m.LinuxLibs())
	assert.Len(t, m.MingwLibs(), 12)
	assert.Nil(t, m.WindowsLibs())
	assert.Nil(t, m.LinuxPackages())
}

func TestDiscoverModules(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"juce_gui_basics", "juce_core", "juce_events", "juce_opengl"} {
		writeModule(t, root, name, "", ".cpp")
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "JUCE_README.md"), []byte("readme"), 0o644))

	dirs, err := DiscoverModules(root, []string{"juce_opengl"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "juce_core"),
		filepath.Join(root, "juce_events"),
		filepath.Join(root, "juce_gui_basics"),
	}, dirs)

	_, err = DiscoverModules(filepath.Join(root, "nope"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
