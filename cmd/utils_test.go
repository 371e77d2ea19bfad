package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumValue(t *testing.T) {
	e := NewEnumValue("abort", map[string]string{
		"abort":    "stop",
		"continue": "",
	})
	assert.Equal(t, "abort", e.Value())
	assert.Equal(t, "[abort, continue]", e.HelpString())

	require.NoError(t, e.Set("continue"))
	assert.Equal(t, "continue", e.String())

	assert.Error(t, e.Set("retry"))
	assert.Equal(t, "continue", e.Value())

	items, _ := e.CompletionFunc()(nil, nil, "")
	assert.Equal(t, []string{"abort\tstop", "continue"}, items)
}

func TestNewEnumValueRejectsUnknownDefault(t *testing.T) {
	assert.Panics(t, func() {
		NewEnumValue("retry", map[string]string{"abort": ""})
	})
}
