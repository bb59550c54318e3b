package corelog

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const (
	boxTopLeft     = "┌"
	boxTopRight    = "┐"
	boxBottomLeft  = "└"
	boxBottomRight = "┘"
	boxHorizontal  = "─"
	boxVertical    = "│"
)

var ansiRegexp = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// terminalWidth returns the current terminal width, clamped to a readable
// range. Falls back to 80 columns when stdout isn't a TTY or size
// detection fails.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < 60 {
		return 80
	}
	if width > 120 {
		return 120
	}
	return width
}

// visibleWidth measures a string's terminal column width, ignoring ANSI
// escapes and accounting for wide runes.
func visibleWidth(s string) int {
	return runewidth.StringWidth(ansiRegexp.ReplaceAllString(s, ""))
}

// truncateVisible shortens s to fit within maxWidth visible columns,
// appending an ellipsis when truncation occurs. ANSI codes are stripped
// in the process, matching the teacher's simple-truncation tradeoff.
func truncateVisible(s string, maxWidth int) string {
	if visibleWidth(s) <= maxWidth || maxWidth <= 3 {
		return s
	}
	clean := ansiRegexp.ReplaceAllString(s, "")
	return runewidth.Truncate(clean, maxWidth-3, "...")
}

func boxLine(content string, width int) string {
	padding := width - 4 - visibleWidth(content)
	if padding < 0 {
		padding = 0
		content = truncateVisible(content, width-4)
	}
	return boxVertical + " " + content + strings.Repeat(" ", padding) + " " + boxVertical
}

// WaveSummaryBox renders a run's wave-by-wave outcome as a fixed-width box,
// sized to the detected terminal width. Intended for an end-of-run summary
// printed after the last wave completes.
func (c *Console) WaveSummaryBox(title string, lines []string) {
	if c.writer == nil {
		return
	}
	width := terminalWidth()

	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.writer, boxTopLeft+strings.Repeat(boxHorizontal, width-2)+boxTopRight)
	fmt.Fprintln(c.writer, boxLine(title, width))
	for _, l := range lines {
		fmt.Fprintln(c.writer, boxLine(l, width))
	}
	fmt.Fprintln(c.writer, boxBottomLeft+strings.Repeat(boxHorizontal, width-2)+boxBottomRight)
}
