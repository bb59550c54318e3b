package corelog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFile_CreatesRunFileAndLatestSymlink(t *testing.T) {
	dir := t.TempDir()

	f, err := NewFile(dir, "info")
	require.NoError(t, err)
	defer f.Close()

	f.Info("wave 1 starting: 3 tasks")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var runFile string
	for _, e := range entries {
		if e.Name() != "latest.log" {
			runFile = e.Name()
		}
	}
	require.NotEmpty(t, runFile, "expected a run-*.log file in %s", dir)

	target, err := os.Readlink(filepath.Join(dir, "latest.log"))
	require.NoError(t, err)
	assert.Equal(t, runFile, target)

	contents, err := os.ReadFile(filepath.Join(dir, "latest.log"))
	require.NoError(t, err)
	assert.Contains(t, string(contents), "wave 1 starting: 3 tasks")
}

func TestFile_LevelFiltering(t *testing.T) {
	dir := t.TempDir()

	f, err := NewFile(dir, "warn")
	require.NoError(t, err)
	defer f.Close()

	f.Debug("should not appear")
	f.Warn("should appear")

	contents, err := os.ReadFile(filepath.Join(dir, "latest.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(contents), "should not appear")
	assert.Contains(t, string(contents), "should appear")
}

func TestNewFile_SecondRunRepointsSymlink(t *testing.T) {
	dir := t.TempDir()

	f1, err := NewFile(dir, "info")
	require.NoError(t, err)
	f1.Info("first run")
	f1.Close()

	f2, err := NewFile(dir, "info")
	require.NoError(t, err)
	defer f2.Close()
	f2.Info("second run")

	target, err := os.Readlink(filepath.Join(dir, "latest.log"))
	require.NoError(t, err)

	contents, err := os.ReadFile(filepath.Join(dir, target))
	require.NoError(t, err)
	assert.Contains(t, string(contents), "second run")
}
