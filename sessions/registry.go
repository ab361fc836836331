package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/graph-kpi-dashboard/internal/errors"
	"github.com/rs/zerolog/log"
)

// DefaultCleanupInterval is how often the janitor purges expired sessions.
const DefaultCleanupInterval = 1 * time.Minute

// Registry is the process-wide store of active sessions.
type Registry interface {
	// Insert stores s, replacing any session with the same id
	Insert(s *Session) error

	// Add stores s only if its id is free, otherwise returns ErrSessionExists
	Add(s *Session) error

	// Get returns ErrSessionNotFound for unknown ids and evicts and returns
	// ErrSessionExpired for sessions that are no longer valid
	Get(id string) (*Session, error)

	// Delete removes a session; unknown ids are not an error
	Delete(id string) error

	// PurgeExpired removes every invalid session and reports how many were removed
	PurgeExpired() int

	// Len is the number of stored sessions, valid or not
	Len() int
}

var _ Registry = (*InMemoryRegistry)(nil)

// InMemoryRegistry is a thread-safe in-memory Registry with an optional background janitor.
type InMemoryRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cleanupInterval time.Duration
	stop            chan struct{}
	stopOnce        sync.Once
	wg              sync.WaitGroup
}

// NewInMemoryRegistry creates a registry. A non-positive interval uses DefaultCleanupInterval.
func NewInMemoryRegistry(cleanupInterval time.Duration) *InMemoryRegistry {
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	return &InMemoryRegistry{
		sessions:        make(map[string]*Session),
		cleanupInterval: cleanupInterval,
		stop:            make(chan struct{}),
	}
}

func (r *InMemoryRegistry) Insert(s *Session) error {
	if err := checkSession(s); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[s.ID] = s
	return nil
}

func (r *InMemoryRegistry) Add(s *Session) error {
	if err := checkSession(s); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.ID]; exists {
		return errors.ErrSessionExists
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *InMemoryRegistry) Get(id string) (*Session, error) {
	if id == "" {
		return nil, errors.ErrSessionNotFound
	}

	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return nil, errors.ErrSessionNotFound
	}

	if !s.IsValid() {
		r.mu.Lock()
		// Only evict if the session was not replaced in the meantime
		if current, ok := r.sessions[id]; ok && current == s {
			delete(r.sessions, id)
		}
		r.mu.Unlock()
		return nil, errors.ErrSessionExpired
	}

	return s, nil
}

func (r *InMemoryRegistry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

func (r *InMemoryRegistry) PurgeExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	purged := 0
	for id, s := range r.sessions {
		if !s.IsValid() {
			delete(r.sessions, id)
			purged++
		}
	}
	return purged
}

func (r *InMemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// StartCleanup runs PurgeExpired every cleanup interval until ctx is done or Stop is called.
func (r *InMemoryRegistry) StartCleanup(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stop:
				return
			case <-ticker.C:
				if purged := r.PurgeExpired(); purged > 0 {
					log.Debug().Int("count", purged).Msg("purged expired sessions")
				}
			}
		}
	}()
}

// Stop ends the janitor and waits for it to exit. Safe to call more than once.
func (r *InMemoryRegistry) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
	r.wg.Wait()
}

func checkSession(s *Session) error {
	if s == nil {
		return fmt.Errorf("session cannot be nil")
	}
	if s.ID == "" {
		return fmt.Errorf("session id is required")
	}
	return nil
}
