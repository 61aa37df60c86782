package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps one sliding window of request timestamps per key. It is
// not shared between processes.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stamps := expire(s.windows[key], now.Add(-window))
	res := &Result{Limit: limit}
	if len(stamps) < limit {
		stamps = append(stamps, now)
		res.Allowed = true
	}
	s.windows[key] = stamps
	res.Remaining = max(limit-len(stamps), 0)
	res.ResetAt = now.Add(window)
	if len(stamps) > 0 {
		res.ResetAt = stamps[0].Add(window)
	}
	return res, nil
}

// expire drops timestamps at or before cutoff. stamps is kept in arrival
// order.
func expire(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	return stamps[i:]
}
