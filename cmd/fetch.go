// juce2cmake fetch [source]
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/qobs-build/juce2cmake/internal/msg"
)

func doFetch(cmd *cobra.Command, args []string) {
	b := newBuilder(nil)
	source := b.Config().Fetch.Source
	if len(args) > 0 {
		source = args[0]
	}
	dest, err := b.Fetch(source)
	if err != nil {
		msg.Fatal("fetch into %s: %v", dest, err)
	}
	msg.Info("JUCE is now in %s", dest)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [source]",
	Short: "Clone JUCE next to the working directory",
	Long: `Clone JUCE into the parent directory of modules.dir (../JUCE by default).

The source uses the same shortcuts as fetch.source in juce2cmake.toml:
  gh:juce-framework/JUCE
  gh:juce-framework/JUCE@develop
  gh:juce-framework/JUCE#8.0.0
  git:https://example.com/JUCE.git`,
	Args: cobra.MaximumNArgs(1),
	Run:  doFetch,
}

func init() {
	// juce2cmake fetch subcommand
	rootCmd.AddCommand(fetchCmd)
}
