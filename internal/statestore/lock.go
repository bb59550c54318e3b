package statestore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// checkpointLock guards one checkpoint file against concurrent
// readers/writers, including across separate processes sharing Dir.
// The lock file lives alongside the checkpoint as a ".lock" sidecar.
type checkpointLock struct {
	flock *flock.Flock
	path  string
}

func newCheckpointLock(checkpointPath string) *checkpointLock {
	return &checkpointLock{flock: flock.New(checkpointPath + ".lock"), path: checkpointPath}
}

// withLock acquires an exclusive lock on the checkpoint, runs fn, and
// always releases the lock before returning.
func (l *checkpointLock) withLock(fn func() error) error {
	if err := l.flock.Lock(); err != nil {
		return fmt.Errorf("lock checkpoint %s: %w", l.path, err)
	}
	defer l.flock.Unlock()
	return fn()
}

// atomicWriteCheckpoint writes data to path via a temp-file-then-rename so a
// concurrent Load never observes a partially written checkpoint.
func atomicWriteCheckpoint(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create checkpoint directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".checkpoint-*")
	if err != nil {
		return fmt.Errorf("create temp checkpoint file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp checkpoint file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp checkpoint file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp checkpoint file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("set checkpoint file permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp checkpoint file to %s: %w", path, err)
	}
	tmp = nil
	return nil
}
