package corelog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWaveSummaryBox_WritesBorderedBlock(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, "info")

	c.WaveSummaryBox("run summary", []string{"wave 1: 3 succeeded, 0 failed", "wave 2: 2 succeeded, 1 failed"})

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.GreaterOrEqual(t, len(lines), 4)
	assert.True(t, strings.HasPrefix(lines[0], boxTopLeft))
	assert.True(t, strings.HasSuffix(lines[0], boxTopRight))
	assert.True(t, strings.HasSuffix(lines[len(lines)-1], boxBottomRight))
	assert.Contains(t, out, "run summary")
	assert.Contains(t, out, "wave 1: 3 succeeded, 0 failed")
}

func TestTruncateVisible_ShortensLongContent(t *testing.T) {
	s := strings.Repeat("x", 50)
	got := truncateVisible(s, 10)
	assert.LessOrEqual(t, visibleWidth(got), 10)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestTruncateVisible_LeavesShortContentUnchanged(t *testing.T) {
	assert.Equal(t, "short", truncateVisible("short", 40))
}
