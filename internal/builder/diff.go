package builder

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// writeDiff prints a line diff between the current and the regenerated
// content of path. It returns false if they are identical.
func writeDiff(w io.Writer, path, current, generated string) bool {
	if current == generated {
		fmt.Fprintf(w, "%s %s\n", color.HiBlackString("unchanged"), path)
		return false
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(current, generated)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	fmt.Fprintf(w, "%s\n%s\n", color.RedString("--- %s", path), color.GreenString("+++ %s (generated)", path))
	for _, d := range diffs {
		var prefix string
		var paint func(format string, a ...any) string
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix, paint = "+", color.GreenString
		case diffmatchpatch.DiffDelete:
			prefix, paint = "-", color.RedString
		default:
			prefix, paint = " ", fmt.Sprintf
		}
		for _, line := range splitLines(d.Text) {
			fmt.Fprintln(w, paint("%s%s", prefix, line))
		}
	}
	return true
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
