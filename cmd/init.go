// juce2cmake init
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/qobs-build/juce2cmake/internal/builder"
	"github.com/qobs-build/juce2cmake/internal/msg"
)

const defaultConfig = `[modules]
dir = "../JUCE/modules"
output = "juce_modules.cmake"
source_prefix = "${PROJECT_SOURCE_DIR}"
# include_dir defaults to dir, written like the module source paths
# include_dir = "${PROJECT_SOURCE_DIR}/../JUCE/modules/"
cxx_standard = 14
definitions = ["JUCE_GLOBAL_MODULE_SETTINGS_INCLUDED"]
exclude = []
# link the frameworks and system libraries each module declares
platform_links = false

# sub-tables keyed by an expression are merged in when it is true
# [modules.'target_os == "linux"']
# exclude = ["juce_audio_plugin_client"]

[projects]
root = "."
pattern = "**/*.jucer"
exclude = []
output = "CMakeLists.txt"
# juce_dir defaults to the directory of modules.output, relative to each project
# juce_dir = "${PROJECT_SOURCE_DIR}/../../"
cxx_standard = 14

[fetch]
source = "gh:juce-framework/JUCE"
`

func writefile(content string, elem ...string) {
	path := filepath.Join(elem...)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err = os.WriteFile(path, []byte(content), 0o644); err != nil {
			msg.Fatal("create file %s: %v", path, err)
		}
		fmt.Printf("%s file: %s\n", color.HiGreenString("Created"), filepath.ToSlash(path))
	} else {
		msg.Warn("%s already exists, leaving it alone", filepath.ToSlash(path))
	}
}

func getProgramName() string {
	if len(os.Args) == 0 {
		return "juce2cmake"
	}
	basename := filepath.Base(os.Args[0])
	return strings.TrimSuffix(basename, filepath.Ext(basename))
}

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a default juce2cmake.toml",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := flagDir
		if len(args) > 0 {
			dir = args[0]
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			msg.Fatal("mkdir %s: %v", dir, err)
		}
		writefile(defaultConfig, dir, builder.ConfigFilename)

		programName := getProgramName()
		fmt.Printf("You can now do %s to generate everything, or %s to preview.\n", color.HiCyanString(programName+" "+dir), color.HiCyanString(programName+" --diff "+dir))
	},
}

func init() {
	// juce2cmake init subcommand
	rootCmd.AddCommand(initCmd)
}
