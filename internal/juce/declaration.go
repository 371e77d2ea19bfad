package juce

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const (
	BeginMarker = "BEGIN_JUCE_MODULE_DECLARATION"
	EndMarker   = "END_JUCE_MODULE_DECLARATION"
)

var (
	ErrFormat     = errors.New("malformed module declaration")
	ErrMissingKey = errors.New("missing declaration key")
)

// Field is a single `key: value` line of a module declaration.
type Field struct {
	Key   string
	Value string
	Line  int // 1-based, relative to the start of the block
}

// Declaration is the machine-readable block embedded in a module header.
type Declaration struct {
	Fields []Field
}

// ParseDeclaration extracts the block between the first begin marker and the
// first end marker after it, and scans it for `key: value` lines.
func ParseDeclaration(text string) (*Declaration, error) {
	_, rest, ok := strings.Cut(text, BeginMarker)
	if !ok {
		return nil, fmt.Errorf("%w: %s not found", ErrFormat, BeginMarker)
	}
	block, _, ok := strings.Cut(rest, EndMarker)
	if !ok {
		return nil, fmt.Errorf("%w: %s not found after %s", ErrFormat, EndMarker, BeginMarker)
	}

	decl := &Declaration{}
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(strings.NewReader(block))
	line := 0
	for scanner.Scan() {
		line++
		key, value, ok := splitField(scanner.Text())
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		decl.Fields = append(decl.Fields, Field{Key: key, Value: value, Line: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	return decl, nil
}

// splitField splits `  key:   value` into its parts. The key must be a single
// token; lines like "this module: is nice" are not fields.
func splitField(line string) (key, value string, ok bool) {
	key, value, ok = strings.Cut(strings.TrimSpace(line), ":")
	if !ok || key == "" || strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}

func (d *Declaration) Lookup(key string) (string, bool) {
	for _, f := range d.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Require is Lookup that fails with ErrMissingKey.
func (d *Declaration) Require(key string) (string, error) {
	if v, ok := d.Lookup(key); ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrMissingKey, key)
}

// List returns the tokenized value of key, or nil if the key is absent.
func (d *Declaration) List(key string) []string {
	v, ok := d.Lookup(key)
	if !ok {
		return nil
	}
	return SplitList(v)
}

// SplitList tokenizes a declaration list value such as
// "juce_core juce_data_structures," or "juce_core, juce_events".
// Order, duplicates and self references are preserved.
func SplitList(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}
