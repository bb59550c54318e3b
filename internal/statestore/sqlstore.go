package statestore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/wavecore/execore/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// SQLStore persists WaveState history in SQLite, keeping every save as a
// new row instead of overwriting, so callers can query checkpoint history
// for a name rather than only the latest snapshot. Grounded in the
// teacher's internal/learning/store.go append-only execution log.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(dbPath string) (*SQLStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("statestore: create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("statestore: open database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("statestore: init schema: %w", err)
	}

	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Load returns the most recently saved checkpoint for name, or nil, nil
// if none has ever been saved.
func (s *SQLStore) Load(ctx context.Context, name string) (*model.WaveState, error) {
	query := `SELECT wave_number, completed_tasks, failed_tasks, saved_at
		FROM checkpoints WHERE name = ? ORDER BY id DESC LIMIT 1`

	var waveNumber int
	var completedJSON, failedJSON string
	var savedAt time.Time

	err := s.db.QueryRowContext(ctx, query, name).Scan(&waveNumber, &completedJSON, &failedJSON, &savedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("statestore: query checkpoint %q: %w", name, err)
	}

	state := &model.WaveState{WaveNumber: waveNumber, Timestamp: savedAt}
	if err := json.Unmarshal([]byte(completedJSON), &state.CompletedTasks); err != nil {
		return nil, fmt.Errorf("statestore: decode completed tasks for %q: %w", name, err)
	}
	if err := json.Unmarshal([]byte(failedJSON), &state.FailedTasks); err != nil {
		return nil, fmt.Errorf("statestore: decode failed tasks for %q: %w", name, err)
	}
	return state, nil
}

// Save appends a new checkpoint row for name.
func (s *SQLStore) Save(ctx context.Context, name string, state model.WaveState) error {
	completedJSON, err := json.Marshal(state.CompletedTasks)
	if err != nil {
		return fmt.Errorf("statestore: encode completed tasks: %w", err)
	}
	failedJSON, err := json.Marshal(state.FailedTasks)
	if err != nil {
		return fmt.Errorf("statestore: encode failed tasks: %w", err)
	}

	savedAt := state.Timestamp
	if savedAt.IsZero() {
		savedAt = time.Now()
	}

	query := `INSERT INTO checkpoints (name, wave_number, completed_tasks, failed_tasks, saved_at)
		VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, name, state.WaveNumber, string(completedJSON), string(failedJSON), savedAt); err != nil {
		return fmt.Errorf("statestore: insert checkpoint %q: %w", name, err)
	}
	return nil
}

// History returns every checkpoint ever saved for name, oldest first.
func (s *SQLStore) History(ctx context.Context, name string) ([]model.WaveState, error) {
	query := `SELECT wave_number, completed_tasks, failed_tasks, saved_at
		FROM checkpoints WHERE name = ? ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("statestore: query history %q: %w", name, err)
	}
	defer rows.Close()

	var out []model.WaveState
	for rows.Next() {
		var state model.WaveState
		var completedJSON, failedJSON string
		if err := rows.Scan(&state.WaveNumber, &completedJSON, &failedJSON, &state.Timestamp); err != nil {
			return nil, fmt.Errorf("statestore: scan history row: %w", err)
		}
		json.Unmarshal([]byte(completedJSON), &state.CompletedTasks)
		json.Unmarshal([]byte(failedJSON), &state.FailedTasks)
		out = append(out, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("statestore: iterate history %q: %w", name, err)
	}
	return out, nil
}
