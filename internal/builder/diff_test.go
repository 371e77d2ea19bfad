package builder

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteDiff(t *testing.T) {
	var buf bytes.Buffer

	assert.False(t, writeDiff(&buf, "CMakeLists.txt", "a\nb\n", "a\nb\n"))
	assert.Contains(t, buf.String(), "unchanged CMakeLists.txt")

	buf.Reset()
	assert.True(t, writeDiff(&buf, "CMakeLists.txt", "a\nb\n\nc\n", "a\nB\n\nc\n"))
	out := buf.String()
	assert.Contains(t, out, "--- CMakeLists.txt\n+++ CMakeLists.txt (generated)\n")
	assert.Contains(t, out, " a\n-b\n+B\n \n c\n")
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, splitLines(""))
	assert.Equal(t, []string{""}, splitLines("\n"))
	assert.Equal(t, []string{"a", "b"}, splitLines("a\nb\n"))
	assert.Equal(t, []string{"a", "b"}, splitLines("a\nb"))
}
