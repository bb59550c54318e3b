// Package statestore implements the reference StateStore (spec.md §6):
// durable persistence of a named model.WaveState between runs.
//
// FileStore's locking and atomic-write mechanics (lock.go) are adapted
// from the teacher's internal/filelock package (gofrs/flock locking plus
// a temp-file-then-rename atomic write), folded directly into this
// package and renamed around checkpoints rather than kept as a
// general-purpose file-locking utility.
package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wavecore/execore/internal/model"
)

// FileStore persists one JSON file per checkpoint name under Dir.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) pathFor(name string) string {
	return filepath.Join(s.Dir, name+".json")
}

// Load returns nil, nil when no checkpoint has ever been saved under name.
func (s *FileStore) Load(ctx context.Context, name string) (*model.WaveState, error) {
	path := s.pathFor(name)
	lock := newCheckpointLock(path)

	var data []byte
	err := lock.withLock(func() error {
		var readErr error
		data, readErr = os.ReadFile(path)
		return readErr
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("statestore: read %s: %w", name, err)
	}

	var state model.WaveState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("statestore: decode %s: %w", name, err)
	}
	return &state, nil
}

// Save atomically overwrites the checkpoint file for name.
func (s *FileStore) Save(ctx context.Context, name string, state model.WaveState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("statestore: encode %s: %w", name, err)
	}

	path := s.pathFor(name)
	lock := newCheckpointLock(path)
	err = lock.withLock(func() error {
		return atomicWriteCheckpoint(path, data)
	})
	if err != nil {
		return fmt.Errorf("statestore: write %s: %w", name, err)
	}
	return nil
}
