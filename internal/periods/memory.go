package periods

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/antoniostano/cadence/internal/cycle"
)

// MemorySource is an in-process source for local/dev use and tests.
type MemorySource struct {
	mu      sync.RWMutex
	history map[string][]cycle.Interval
}

func NewMemorySource() *MemorySource {
	return &MemorySource{history: make(map[string][]cycle.Interval)}
}

// Replace installs a user's history. Blank IDs are filled in.
func (s *MemorySource) Replace(userID string, intervals []cycle.Interval) {
	arr := make([]cycle.Interval, len(intervals))
	copy(arr, intervals)
	for i := range arr {
		if arr[i].ID == "" {
			arr[i].ID = uuid.NewString()
		}
	}
	sort.SliceStable(arr, func(i, j int) bool {
		return arr[i].Start.Before(arr[j].Start)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[userID] = arr
}

func (s *MemorySource) Snapshot(_ context.Context, userID string) ([]cycle.Interval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr, ok := s.history[userID]
	if !ok {
		return nil, ErrUnknownUser
	}
	out := make([]cycle.Interval, len(arr))
	copy(out, arr)
	return out, nil
}

func (s *MemorySource) Mode() string { return "in-memory" }

func (s *MemorySource) Close() error { return nil }
