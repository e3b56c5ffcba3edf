package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"finelytics/internal/jobs"
)

// Store is an in-memory implementation of jobs.RunStore. It keeps at most
// capacity runs and drops the oldest ones first. Data is lost on restart.
type Store struct {
	mu       sync.RWMutex
	runs     map[string]*jobs.Run
	order    []string
	capacity int
}

// NewStore creates a new in-memory run store.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Store{
		runs:     make(map[string]*jobs.Run),
		capacity: capacity,
	}
}

// SaveRun saves or updates a copy of run.
func (s *Store) SaveRun(ctx context.Context, run *jobs.Run) error {
	if run.ID == "" {
		return fmt.Errorf("run ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; !exists {
		s.order = append(s.order, run.ID)
		if len(s.order) > s.capacity {
			oldest := s.order[0]
			s.order = s.order[1:]
			delete(s.runs, oldest)
		}
	}

	runCopy := *run
	s.runs[run.ID] = &runCopy
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*jobs.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.runs[id]
	if !exists {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	runCopy := *run
	return &runCopy, nil
}

// ListRuns returns matching runs, newest first.
func (s *Store) ListRuns(ctx context.Context, filter jobs.RunFilter) ([]*jobs.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*jobs.Run
	for _, run := range s.runs {
		if filter.Job != "" && run.Job != filter.Job {
			continue
		}
		if filter.Status != "" && run.Status != filter.Status {
			continue
		}
		runCopy := *run
		result = append(result, &runCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

var _ jobs.RunStore = (*Store)(nil)
