package respparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_FencedJSON(t *testing.T) {
	p := NewParser()
	raw := "Here is my result:\n```json\n{\"success\": true, \"summary\": \"done\"}\n```\n"
	ok, data, errMsg := p.Parse(raw)
	require.True(t, ok)
	assert.Empty(t, errMsg)
	assert.True(t, data.Success)
	assert.Equal(t, "done", data.Summary)
}

func TestParser_BareJSON(t *testing.T) {
	p := NewParser()
	raw := `{"success": false, "errors": ["compile failed"]}`
	ok, data, _ := p.Parse(raw)
	require.True(t, ok)
	assert.False(t, data.Success)
	assert.Equal(t, []string{"compile failed"}, data.Errors)
}

func TestParser_PlainTextWithErrorLine(t *testing.T) {
	p := NewParser()
	raw := "Ran the build.\nError: missing import\nSee log above."
	ok, data, _ := p.Parse(raw)
	require.True(t, ok)
	assert.False(t, data.Success)
	assert.Equal(t, []string{"missing import"}, data.Errors)
}

func TestParser_PlainTextSuccess(t *testing.T) {
	p := NewParser()
	raw := "All changes applied successfully."
	ok, data, _ := p.Parse(raw)
	require.True(t, ok)
	assert.True(t, data.Success)
	assert.Equal(t, raw, data.Summary)
}

func TestParser_EmptyInput(t *testing.T) {
	p := NewParser()
	ok, data, errMsg := p.Parse("   ")
	assert.False(t, ok)
	assert.Nil(t, data)
	assert.NotEmpty(t, errMsg)
}

func TestParser_MalformedFenceFallsBackToPlainText(t *testing.T) {
	p := NewParser()
	raw := "```json\n{not valid json\n```"
	ok, data, _ := p.Parse(raw)
	require.True(t, ok)
	assert.True(t, data.Success)
}
