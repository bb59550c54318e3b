package corelog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// File writes level-filtered log lines to a timestamped run file under a
// log directory, maintaining a "latest.log" symlink to the current run.
// Grounded in the teacher's internal/logger/file.go.
type File struct {
	dir   string
	file  *os.File
	level string
	mu    sync.Mutex
}

// NewFile creates the log directory if needed, opens a new
// run-YYYYMMDD-HHMMSS.log file, and repoints latest.log at it.
func NewFile(dir, level string) (*File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("corelog: create log directory: %w", err)
	}

	runPath := filepath.Join(dir, fmt.Sprintf("run-%s.log", time.Now().Format("20060102-150405")))
	f, err := os.OpenFile(runPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("corelog: open run log file: %w", err)
	}

	symlinkPath := filepath.Join(dir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		os.Remove(symlinkPath)
	}
	if err := os.Symlink(filepath.Base(runPath), symlinkPath); err != nil {
		f.Close()
		return nil, fmt.Errorf("corelog: create latest.log symlink: %w", err)
	}

	return &File{dir: dir, file: f, level: normalizeLevel(level)}, nil
}

func (f *File) Close() error {
	return f.file.Close()
}

func (f *File) shouldLog(level string) bool {
	return levelRank(level) >= levelRank(f.level)
}

func (f *File) Trace(msg string) { f.write("TRACE", msg) }
func (f *File) Debug(msg string) { f.write("DEBUG", msg) }
func (f *File) Info(msg string)  { f.write("INFO", msg) }
func (f *File) Warn(msg string)  { f.write("WARN", msg) }
func (f *File) Error(msg string) { f.write("ERROR", msg) }

func (f *File) write(level, msg string) {
	if !f.shouldLog(strings.ToLower(level)) {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ts := time.Now().Format("15:04:05")
	fmt.Fprintf(f.file, "[%s] [%s] %s\n", ts, level, msg)
}
