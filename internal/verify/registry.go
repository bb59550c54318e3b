package verify

import (
	"fmt"
	"sync"

	"github.com/wavecore/execore/internal/model"
)

// Registry holds AgentContracts keyed by ID and supports lookup by task
// type or tag, mirroring the teacher's learning.Store lookup-by-key shape
// but for in-memory contract registration rather than SQLite rows.
type Registry struct {
	mu        sync.RWMutex
	contracts map[string]model.AgentContract
}

func NewRegistry() *Registry {
	return &Registry{contracts: make(map[string]model.AgentContract)}
}

// Register adds a contract, rejecting a duplicate ID.
func (r *Registry) Register(contract model.AgentContract) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.contracts[contract.ID]; exists {
		return fmt.Errorf("contract %q already registered", contract.ID)
	}
	r.contracts[contract.ID] = contract
	return nil
}

// Get returns the contract for id, if any.
func (r *Registry) Get(id string) (model.AgentContract, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contracts[id]
	return c, ok
}

// ByTaskType returns all enabled contracts registered for taskType.
func (r *Registry) ByTaskType(taskType string) []model.AgentContract {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.AgentContract
	for _, c := range r.contracts {
		if c.Enabled && c.TaskType == taskType {
			out = append(out, c)
		}
	}
	return out
}

// ByTag returns all enabled contracts carrying tag.
func (r *Registry) ByTag(tag string) []model.AgentContract {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.AgentContract
	for _, c := range r.contracts {
		if !c.Enabled {
			continue
		}
		for _, t := range c.Tags {
			if t == tag {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// All returns every registered contract regardless of Enabled.
func (r *Registry) All() []model.AgentContract {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.AgentContract, 0, len(r.contracts))
	for _, c := range r.contracts {
		out = append(out, c)
	}
	return out
}
