package authflowrepo

import (
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/graph-kpi-dashboard/internal/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu     sync.RWMutex
	states map[string]*AuthFlowState
}

// NewInMemoryRepo creates a new in-memory auth flow state repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		states: make(map[string]*AuthFlowState),
	}
}

// Upsert stores or updates an auth flow state
func (r *InMemoryRepo) Upsert(state string, authState *AuthFlowState) error {
	if state == "" {
		return fmt.Errorf("[authflowrepo Upsert] %w: state cannot be empty", errors.ErrInvalidState)
	}
	if authState == nil {
		return fmt.Errorf("[authflowrepo Upsert] authState cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to prevent external modifications
	stored := *authState
	r.states[state] = &stored

	return nil
}

// Get retrieves an auth flow state by state parameter
func (r *InMemoryRepo) Get(state string) (*AuthFlowState, error) {
	if state == "" {
		return nil, fmt.Errorf("[authflowrepo Get] %w: state cannot be empty", errors.ErrInvalidState)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	authState, exists := r.states[state]
	if !exists {
		return nil, fmt.Errorf("[authflowrepo Get] %w: state not found", errors.ErrInvalidState)
	}

	found := *authState
	return &found, nil
}

// Delete removes an auth flow state
func (r *InMemoryRepo) Delete(state string) error {
	if state == "" {
		return fmt.Errorf("[authflowrepo Delete] %w: state cannot be empty", errors.ErrInvalidState)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.states, state)
	return nil
}

// PurgeOlderThan drops logins that were started before cutoff and never completed.
func (r *InMemoryRepo) PurgeOlderThan(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	purged := 0
	for state, authState := range r.states {
		if authState.CreatedAt.Before(cutoff) {
			delete(r.states, state)
			purged++
		}
	}
	return purged
}
