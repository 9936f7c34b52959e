package checkpoint

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used in tests and local development.
type MemoryStore struct {
	mu   sync.Mutex
	data map[uuid.UUID]Checkpoint

	// SaveErr, when set, is returned from Save. Lets tests exercise the
	// best-effort write path.
	SaveErr error
	// LoadErr, when set, is returned from Load.
	LoadErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[uuid.UUID]Checkpoint)}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Save(_ context.Context, cp Checkpoint) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[cp.JobID] = cp
	return nil
}

func (s *MemoryStore) Load(_ context.Context, jobID uuid.UUID) (Checkpoint, bool, error) {
	if s.LoadErr != nil {
		return Checkpoint{}, false, s.LoadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp, ok := s.data[jobID]
	return cp, ok, nil
}

func (s *MemoryStore) Delete(_ context.Context, jobID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, jobID)
	return nil
}

var _ Store = (*MemoryStore)(nil)
