package gen

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var (
	ErrUnresolvedPlaceholder = errors.New("unresolved placeholder")
	ErrUnknownSlot           = errors.New("unknown template slot")
	ErrSlotType              = errors.New("wrong value type for template slot")
)

// SlotKind is the type of value a template slot accepts.
type SlotKind int

const (
	Scalar SlotKind = iota // string
	List                   // []string
)

func (k SlotKind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case List:
		return "list"
	default:
		return fmt.Sprintf("SlotKind(%d)", int(k))
	}
}

type Slot struct {
	Name string
	Kind SlotKind
}

// Values maps slot names to a string (Scalar) or a []string (List).
type Values map[string]any

// Template is a text template with a fixed, typed set of %{name} slots.
// CMake's own ${VAR} references pass through untouched.
type Template struct {
	name  string
	text  string
	slots map[string]SlotKind
}

var placeholderRegex = regexp.MustCompile(`%\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// NewTemplate checks that text uses exactly the declared slots.
func NewTemplate(name, text string, slots ...Slot) (*Template, error) {
	t := &Template{name: name, text: text, slots: make(map[string]SlotKind, len(slots))}
	for _, s := range slots {
		if _, dup := t.slots[s.Name]; dup {
			return nil, fmt.Errorf("template %s: slot %q declared twice", name, s.Name)
		}
		t.slots[s.Name] = s.Kind
	}

	used := make(map[string]bool)
	for _, m := range placeholderRegex.FindAllStringSubmatch(text, -1) {
		if _, ok := t.slots[m[1]]; !ok {
			return nil, fmt.Errorf("template %s: %w: %%{%s} is not declared", name, ErrUnknownSlot, m[1])
		}
		used[m[1]] = true
	}
	for slot := range t.slots {
		if !used[slot] {
			return nil, fmt.Errorf("template %s: slot %q is never used", name, slot)
		}
	}

	return t, nil
}

// MustTemplate is NewTemplate for package-level templates.
func MustTemplate(name, text string, slots ...Slot) *Template {
	t, err := NewTemplate(name, text, slots...)
	if err != nil {
		panic(err)
	}
	return t
}

// Slots returns the declared slot names, sorted.
func (t *Template) Slots() []string {
	names := make([]string, 0, len(t.slots))
	for name := range t.slots {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (t *Template) check(values Values) error {
	for _, name := range t.Slots() {
		v, ok := values[name]
		if !ok {
			return fmt.Errorf("template %s: %w: %%{%s}", t.name, ErrUnresolvedPlaceholder, name)
		}
		kind := t.slots[name]
		switch v.(type) {
		case string:
			if kind == Scalar {
				continue
			}
		case []string:
			if kind == List {
				continue
			}
		}
		return fmt.Errorf("template %s: %w: %%{%s} wants a %s, got %T", t.name, ErrSlotType, name, kind, v)
	}

	for name := range values {
		if _, ok := t.slots[name]; !ok {
			return fmt.Errorf("template %s: %w: %q", t.name, ErrUnknownSlot, name)
		}
	}
	return nil
}

// Execute substitutes values into the template. Every slot must be given a
// value of its kind and no other values are accepted.
//
// A List placeholder that stands alone on its line is expanded one item per
// line at that line's indentation, and an empty list drops the line. A List
// placeholder inside other text is joined with spaces.
func (t *Template) Execute(values Values) (string, error) {
	if err := t.check(values); err != nil {
		return "", err
	}

	s := t.text
	var sb strings.Builder
	lastIndex := 0

	for _, m := range placeholderRegex.FindAllStringSubmatchIndex(s, -1) {
		start, end := m[0], m[1]
		name := s[m[2]:m[3]]

		items, isList := values[name].([]string)
		if !isList {
			sb.WriteString(s[lastIndex:start])
			sb.WriteString(values[name].(string))
			lastIndex = end
			continue
		}

		lineStart := strings.LastIndexByte(s[:start], '\n') + 1
		lineEnd := len(s)
		if i := strings.IndexByte(s[end:], '\n'); i >= 0 {
			lineEnd = end + i
		}
		indent := s[lineStart:start]
		alone := lineStart >= lastIndex &&
			strings.TrimSpace(indent) == "" &&
			strings.TrimSpace(s[end:lineEnd]) == ""

		switch {
		case alone && len(items) == 0:
			sb.WriteString(s[lastIndex:lineStart])
			lastIndex = min(lineEnd+1, len(s))
		case alone:
			sb.WriteString(s[lastIndex:start])
			sb.WriteString(strings.Join(items, "\n"+indent))
			lastIndex = end
		default:
			sb.WriteString(s[lastIndex:start])
			sb.WriteString(strings.Join(items, " "))
			lastIndex = end
		}
	}

	sb.WriteString(s[lastIndex:])
	return sb.String(), nil
}
