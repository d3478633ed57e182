package runs

import (
	"context"
	"sync"
)

// MemoryStore keeps runs in a map.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*Run)}
}

func (s *MemoryStore) Save(ctx context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *run
	s.runs[run.ID] = &c
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *run
	return &c, nil
}

func (s *MemoryStore) List(ctx context.Context, opts ListOptions) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Run, 0, len(s.runs))
	for _, r := range s.runs {
		if opts.match(r) {
			out = append(out, summary(r))
		}
	}
	return newestFirst(out, opts.limit()), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)

// NullStore discards runs.
type NullStore struct{}

func (NullStore) Save(context.Context, *Run) error                  { return nil }
func (NullStore) Get(context.Context, string) (*Run, error)         { return nil, ErrNotFound }
func (NullStore) List(context.Context, ListOptions) ([]*Run, error) { return nil, nil }
func (NullStore) Delete(context.Context, string) error              { return nil }
func (NullStore) Close() error                                      { return nil }

var _ Store = NullStore{}
