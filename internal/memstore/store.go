// Package memstore implements the reference MemoryStore (spec.md §6): an
// in-process hierarchical store of GLOBAL/TASK/LOCAL scopes, each holding
// an ordered event log and a key/value artifact map, plus a running
// budget-utilization estimate the resource manager can poll.
//
// Grounded in the teacher's scope/event vocabulary from internal/learning
// and the logging-hook shape of internal/executor, adapted to a single
// mutex-protected tree rather than a database-backed log, since scopes
// here are transient (one per orchestrator run) rather than durable
// history.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wavecore/execore/internal/wave"
)

// scope is one node in the hierarchy.
type scope struct {
	id        string
	goal      string
	level     wave.ScopeLevel
	parent    string
	events    []wave.Event
	artifacts map[string]interface{}
	closed    bool
	summary   string
	openedAt  time.Time
	closedAt  time.Time
}

// Store is a mutex-protected in-memory implementation of wave.MemoryStore
// that also exposes resource.MemoryMetricsProvider.
type Store struct {
	mu sync.RWMutex

	scopes map[string]*scope

	// MaxBudgetEvents, when positive, is the event count per TASK scope
	// beyond which TaskBudgetUtilization reports 1.0 (fully saturated).
	// Zero disables memory-budget reporting (ok=false).
	MaxBudgetEvents int
}

func NewStore() *Store {
	return &Store{scopes: make(map[string]*scope), MaxBudgetEvents: 200}
}

func (s *Store) CreateScope(ctx context.Context, goal string, level wave.ScopeLevel) (string, error) {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes[id] = &scope{
		id:        id,
		goal:      goal,
		level:     level,
		artifacts: make(map[string]interface{}),
		openedAt:  time.Now(),
	}
	return id, nil
}

func (s *Store) AddEvent(ctx context.Context, scopeID string, ev wave.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.scopes[scopeID]
	if !ok {
		return fmt.Errorf("memstore: unknown scope %q", scopeID)
	}
	if sc.closed {
		return fmt.Errorf("memstore: scope %q is already closed", scopeID)
	}
	sc.events = append(sc.events, ev)
	return nil
}

func (s *Store) SetArtifact(ctx context.Context, scopeID, key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.scopes[scopeID]
	if !ok {
		return fmt.Errorf("memstore: unknown scope %q", scopeID)
	}
	if sc.closed {
		return fmt.Errorf("memstore: scope %q is already closed", scopeID)
	}
	sc.artifacts[key] = value
	return nil
}

func (s *Store) CloseScope(ctx context.Context, scopeID string, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.scopes[scopeID]
	if !ok {
		return fmt.Errorf("memstore: unknown scope %q", scopeID)
	}
	sc.closed = true
	sc.summary = summary
	sc.closedAt = time.Now()
	return nil
}

// TaskBudgetUtilization reports the fraction of MaxBudgetEvents consumed
// by the busiest currently-open TASK scope, matching
// resource.MemoryMetricsProvider. Returns ok=false when budget tracking
// is disabled or no TASK scope is open.
func (s *Store) TaskBudgetUtilization() (percent float64, ok bool) {
	if s.MaxBudgetEvents <= 0 {
		return 0, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	found := false
	var busiest int
	for _, sc := range s.scopes {
		if sc.level != wave.ScopeTask || sc.closed {
			continue
		}
		found = true
		if len(sc.events) > busiest {
			busiest = len(sc.events)
		}
	}
	if !found {
		return 0, false
	}

	utilization := float64(busiest) / float64(s.MaxBudgetEvents)
	if utilization > 1 {
		utilization = 1
	}
	return utilization, true
}

// EventsFor returns a copy of the event log for scopeID, for tests and
// diagnostics.
func (s *Store) EventsFor(scopeID string) []wave.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sc, ok := s.scopes[scopeID]
	if !ok {
		return nil
	}
	out := make([]wave.Event, len(sc.events))
	copy(out, sc.events)
	return out
}

// ArtifactsFor returns a copy of the artifact map for scopeID.
func (s *Store) ArtifactsFor(scopeID string) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sc, ok := s.scopes[scopeID]
	if !ok {
		return nil
	}
	out := make(map[string]interface{}, len(sc.artifacts))
	for k, v := range sc.artifacts {
		out[k] = v
	}
	return out
}

// IsClosed reports whether scopeID has been closed, for tests asserting
// the orchestrator always closes what it opens.
func (s *Store) IsClosed(scopeID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sc, ok := s.scopes[scopeID]
	return ok && sc.closed
}
