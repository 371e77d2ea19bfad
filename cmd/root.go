// juce2cmake [dir], juce2cmake all [dir]
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qobs-build/juce2cmake/internal/builder"
	"github.com/qobs-build/juce2cmake/internal/msg"
)

var (
	flagDir     string
	flagDiff    bool
	flagOnError EnumValue = NewEnumValue(builder.OnErrorAbort, map[string]string{
		builder.OnErrorAbort:    "Stop at the first module or project that fails (default)",
		builder.OnErrorContinue: "Skip failing modules and projects and report them at the end",
	})
)

func newBuilder(args []string) *builder.Builder {
	dir := flagDir
	if len(args) > 0 {
		dir = args[0]
	}
	b, err := builder.NewBuilderInDirectory(dir, builder.Options{
		OnError: flagOnError.Value(),
		Diff:    flagDiff,
	})
	if err != nil {
		msg.Fatal("%v", err)
	}
	return b
}

// summarize prints the outcome of a run. It exits on a hard error and
// returns false if some units failed under --on-error continue.
func summarize(what string, report *builder.Report, err error) bool {
	if err != nil {
		msg.Fatal("%v", err)
	}
	if len(report.Failures) > 0 {
		msg.Error("%d of %d %s failed:\n%v", len(report.Failures), len(report.Failures)+len(report.Processed), what, report.Err())
		return false
	}
	if flagDiff {
		msg.Info("%d of %d files would change", len(report.Changed), len(report.Outputs))
	} else {
		msg.Info("processed %d %s, wrote %d files", len(report.Processed), what, len(report.Outputs))
	}
	if len(report.Targets) > 0 {
		msg.Info("%d library targets: %s", len(report.Targets), strings.Join(report.Targets, " "))
	}
	return true
}

func doModules(cmd *cobra.Command, args []string) {
	report, err := newBuilder(args).GenerateModules()
	if !summarize("modules", report, err) {
		os.Exit(1)
	}
}

func doProjects(cmd *cobra.Command, args []string) {
	report, err := newBuilder(args).GenerateProjects()
	if !summarize("projects", report, err) {
		os.Exit(1)
	}
}

func doAll(cmd *cobra.Command, args []string) {
	b := newBuilder(args)
	report, err := b.GenerateModules()
	ok := summarize("modules", report, err)
	report, err = b.GenerateProjects()
	if !summarize("projects", report, err) || !ok {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "juce2cmake [dir]",
	Short: "Generate CMake files from JUCE modules and .jucer projects",
	Long: `Generate CMake files from JUCE modules and .jucer projects.

Reads the module declarations of every JUCE module into one consolidated
juce_modules.cmake, and writes a CMakeLists.txt next to every .jucer file.
Settings are read from juce2cmake.toml in [dir] if present.`,
	Args: cobra.MaximumNArgs(1),
	Run:  doAll,
}

var allCmd = &cobra.Command{
	Use:   "all [dir]",
	Short: "Generate both the module file and the project files",
	Args:  cobra.MaximumNArgs(1),
	Run:   doAll,
}

var modulesCmd = &cobra.Command{
	Use:   "modules [dir]",
	Short: "Generate the consolidated JUCE module file",
	Args:  cobra.MaximumNArgs(1),
	Run:   doModules,
}

var projectsCmd = &cobra.Command{
	Use:   "projects [dir]",
	Short: "Generate a CMakeLists.txt next to every .jucer file",
	Args:  cobra.MaximumNArgs(1),
	Run:   doProjects,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDir, "dir", "C", ".", "Directory to run in (holds juce2cmake.toml)")

	for _, cmd := range []*cobra.Command{rootCmd, allCmd, modulesCmd, projectsCmd} {
		addGenerateFlags(cmd)
	}
	rootCmd.AddCommand(allCmd)
	rootCmd.AddCommand(modulesCmd)
	rootCmd.AddCommand(projectsCmd)
}

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&flagDiff, "diff", "d", false, "Print what would change instead of writing files")
	cmd.Flags().Var(&flagOnError, "on-error", "What to do when a module or project fails, one of "+flagOnError.HelpString())
	cmd.RegisterFlagCompletionFunc("on-error", flagOnError.CompletionFunc())
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
