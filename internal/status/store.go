package status

import (
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/blobbi/island/internal/model"
)

// Store owns the base status and the pending queue for one session. It is
// constructed per session (or per test); there is no package-level state.
// Only the action orchestrator enqueues or retires entries; readers get
// derived snapshots.
type Store struct {
	mu      sync.RWMutex
	base    Base
	pending []PendingUpdate
}

// NewStore returns an empty store.
func NewStore() *Store { return &Store{} }

// SetBase installs a fresh server-confirmed base. Confirmed entries are
// superseded by the refresh and retired; still-pending entries survive so
// in-flight publishes stay visible in creation order.
func (s *Store) SetBase(base Base) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = base

	kept := s.pending[:0]
	for _, e := range s.pending {
		if e.State == StatePending {
			kept = append(kept, e)
		}
	}
	s.pending = kept
}

// Enqueue appends a pending update and returns its ID.
func (s *Store) Enqueue(targetID string, patch model.Patch, now time.Time) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.Must(uuid.NewV4())
	s.pending = append(s.pending, PendingUpdate{
		ID:        id,
		TargetID:  targetID,
		Patch:     patch,
		CreatedAt: now,
		State:     StatePending,
	})
	return id
}

// Confirm marks an entry confirmed. The entry keeps applying in its original
// position until a base refresh supersedes it, so out-of-order publish
// completion never reorders what the UI shows.
func (s *Store) Confirm(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pending {
		if s.pending[i].ID == id {
			s.pending[i].State = StateConfirmed
			return
		}
	}
}

// Drop removes an entry immediately (rollback after a failed publish).
func (s *Store) Drop(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pending {
		if s.pending[i].ID == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

// PendingCount returns the number of queued entries (any state).
func (s *Store) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}

// Merged returns the derived status: base with all queued entries applied.
func (s *Store) Merged() model.MergedStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Merge(s.base, s.pending)
}
