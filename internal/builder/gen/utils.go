package gen

import "strings"

func write(sb *strings.Builder, s ...string) {
	for _, str := range s {
		sb.WriteString(str)
	}
}

func writeln(sb *strings.Builder, s ...string) {
	for _, str := range s {
		sb.WriteString(str)
	}
	sb.WriteByte('\n')
}

// cmakeSpecial are the characters that split or reinterpret an unquoted argument
const cmakeSpecial = " \t\n\"#();\\"

var cmakeQuoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// quote returns s as a CMake argument, quoting it only when needed. Variable
// references like ${X} are left alone.
func quote(s string) string {
	if s != "" && !strings.ContainsAny(s, cmakeSpecial) {
		return s
	}
	return `"` + cmakeQuoteEscaper.Replace(s) + `"`
}

func quoteAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = quote(s)
	}
	return out
}
