package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"tokenregistry/internal/chain"
	"tokenregistry/internal/events"
)

type key struct {
	chainID uint64
	block   uint64
	index   uint
}

type InMemoryStore struct {
	mu      sync.RWMutex
	seen    map[key]bool
	records []events.Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{seen: make(map[key]bool)}
}

func (s *InMemoryStore) Append(_ context.Context, records []events.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		k := key{r.ChainID, r.Block, r.LogIndex}
		if s.seen[k] {
			continue
		}
		s.seen[k] = true
		s.records = append(s.records, r)
	}
	return nil
}

func (s *InMemoryStore) ListByToken(_ context.Context, chainID uint64, registry chain.Address, tokenID chain.TokenID) ([]events.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []events.Record
	for _, r := range s.records {
		if r.ChainID == chainID && r.Registry == registry && r.TokenID != nil && *r.TokenID == tokenID {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b events.Record) int {
		return cmp.Or(cmp.Compare(a.Block, b.Block), cmp.Compare(a.LogIndex, b.LogIndex))
	})
	return out, nil
}

// Clear drops every record.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = make(map[key]bool)
	s.records = nil
}
