// Package corelog provides structured logging for execution-core runs:
// wave starts/completions, retry attempts, circuit transitions, and
// checkpoint activity, written with level filtering and optional color.
//
// Grounded in the teacher's internal/logger/console.go: a mutex-protected
// writer with a normalized log level, TTY-detected color output via
// fatih/color and mattn/go-isatty, and a "[HH:MM:SS] [LEVEL] message"
// line format.
package corelog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const (
	levelTrace int = iota
	levelDebug
	levelInfo
	levelWarn
	levelError
)

// Logger is the interface components depend on; corelog.Console is the
// reference implementation. The wave orchestrator takes a logger; the
// retry and recovery layers do not log.
type Logger interface {
	Trace(msg string)
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

// Console writes level-filtered, optionally colored lines to a writer.
type Console struct {
	writer   io.Writer
	level    string
	mu       sync.Mutex
	useColor bool
}

// NewConsole creates a Console writing to w at the given minimum level
// (trace/debug/info/warn/error, case-insensitive; invalid or empty
// defaults to "info"). Color is enabled automatically when w is a TTY.
func NewConsole(w io.Writer, level string) *Console {
	return &Console{writer: w, level: normalizeLevel(level), useColor: isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	if w == os.Stdout {
		return isatty.IsTerminal(os.Stdout.Fd())
	}
	if w == os.Stderr {
		return isatty.IsTerminal(os.Stderr.Fd())
	}
	return false
}

func normalizeLevel(level string) string {
	l := strings.ToLower(strings.TrimSpace(level))
	switch l {
	case "trace", "debug", "info", "warn", "error":
		return l
	default:
		return "info"
	}
}

func levelRank(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (c *Console) shouldLog(level string) bool {
	return levelRank(level) >= levelRank(c.level)
}

func (c *Console) Trace(msg string) { c.write("TRACE", msg) }
func (c *Console) Debug(msg string) { c.write("DEBUG", msg) }
func (c *Console) Info(msg string)  { c.write("INFO", msg) }
func (c *Console) Warn(msg string)  { c.write("WARN", msg) }
func (c *Console) Error(msg string) { c.write("ERROR", msg) }

func (c *Console) write(level, msg string) {
	if c.writer == nil || !c.shouldLog(strings.ToLower(level)) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ts := time.Now().Format("15:04:05")
	var line string
	if c.useColor {
		line = fmt.Sprintf("[%s] [%s] %s\n", ts, colorizeLevel(level), msg)
	} else {
		line = fmt.Sprintf("[%s] [%s] %s\n", ts, level, msg)
	}
	c.writer.Write([]byte(line))
}

func colorizeLevel(level string) string {
	switch level {
	case "TRACE":
		return color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(level)
	case "INFO":
		return color.New(color.FgBlue).Sprint(level)
	case "WARN":
		return color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		return color.New(color.FgRed).Sprint(level)
	default:
		return level
	}
}

// WaveStart logs the start of one wave at info level.
func (c *Console) WaveStart(waveNumber, taskCount int) {
	c.Info(fmt.Sprintf("wave %d starting: %d tasks", waveNumber, taskCount))
}

// WaveComplete logs a wave's outcome at info level.
func (c *Console) WaveComplete(waveNumber int, duration time.Duration, succeeded, failed int) {
	c.Info(fmt.Sprintf("wave %d complete (%s): %d succeeded, %d failed", waveNumber, duration.Round(time.Millisecond), succeeded, failed))
}

// RetryAttempt logs one retry attempt at debug level.
func (c *Console) RetryAttempt(attempt, maxAttempts int, err error) {
	c.Debug(fmt.Sprintf("retry attempt %d/%d failed: %v", attempt, maxAttempts, err))
}

// CircuitStateChange logs a circuit breaker transition at warn level.
func (c *Console) CircuitStateChange(serviceKey, from, to string) {
	c.Warn(fmt.Sprintf("circuit %q: %s -> %s", serviceKey, from, to))
}

// CheckpointSaved logs a successful checkpoint write at debug level.
func (c *Console) CheckpointSaved(name string, completed, failed int) {
	c.Debug(fmt.Sprintf("checkpoint %q saved: %d completed, %d failed", name, completed, failed))
}
