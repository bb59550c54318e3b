package statestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecore/execore/internal/model"
)

func TestFileStore_LoadMissingReturnsNil(t *testing.T) {
	s := NewFileStore(t.TempDir())
	state, err := s.Load(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestFileStore_SaveThenLoadRoundTrips(t *testing.T) {
	s := NewFileStore(t.TempDir())
	state := model.WaveState{
		WaveNumber:     2,
		CompletedTasks: []string{"t1", "t2"},
		FailedTasks:    []string{"t3"},
		Timestamp:      time.Now().Truncate(time.Second),
	}

	require.NoError(t, s.Save(context.Background(), "run-a", state))

	loaded, err := s.Load(context.Background(), "run-a")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, state.WaveNumber, loaded.WaveNumber)
	assert.ElementsMatch(t, state.CompletedTasks, loaded.CompletedTasks)
	assert.ElementsMatch(t, state.FailedTasks, loaded.FailedTasks)
}

func TestFileStore_SaveOverwritesPreviousCheckpoint(t *testing.T) {
	s := NewFileStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "run-b", model.WaveState{WaveNumber: 1, CompletedTasks: []string{"t1"}}))
	require.NoError(t, s.Save(ctx, "run-b", model.WaveState{WaveNumber: 2, CompletedTasks: []string{"t1", "t2"}}))

	loaded, err := s.Load(ctx, "run-b")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.WaveNumber)
	assert.Len(t, loaded.CompletedTasks, 2)
}
