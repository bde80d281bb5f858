// Package visits keeps a running tally of how many times each room of the
// house has been entered, across all explorers.
package visits

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/cory-johannsen/hauntedhouse/internal/game/house"
)

// Store records room visits.
// Implementations must be safe for concurrent use.
type Store interface {
	// Record adds one visit to room.
	Record(ctx context.Context, room string) error
	// Counts returns the tally of every visited room, keyed by display name.
	Counts(ctx context.Context) (map[string]int64, error)
	// Close releases the store's resources.
	Close() error
}

// Tally is one room's visit count.
type Tally struct {
	Room   string
	Visits int64
}

// Top returns up to n tallies ordered by visits, most visited first, ties by
// room name. A non-positive n returns every tally.
func Top(counts map[string]int64, n int) []Tally {
	tallies := make([]Tally, 0, len(counts))
	for room, visits := range counts {
		tallies = append(tallies, Tally{Room: room, Visits: visits})
	}
	slices.SortFunc(tallies, func(a, b Tally) int {
		if c := cmp.Compare(b.Visits, a.Visits); c != 0 {
			return c
		}
		return cmp.Compare(a.Room, b.Room)
	})
	if n > 0 && len(tallies) > n {
		tallies = tallies[:n]
	}
	return tallies
}

// MemoryStore keeps tallies in process memory. They are lost on restart.
type MemoryStore struct {
	mu     sync.Mutex
	counts map[string]int64 // normalized room → visits
	names  map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counts: make(map[string]int64),
		names:  make(map[string]string),
	}
}

// Record adds one visit to room. Spellings that normalize alike share a tally.
func (s *MemoryStore) Record(_ context.Context, room string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := house.Normalize(room)
	if _, ok := s.names[key]; !ok {
		s.names[key] = room
	}
	s.counts[key]++
	return nil
}

// Counts returns a copy of the tallies.
func (s *MemoryStore) Counts(_ context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.counts))
	for key, n := range s.counts {
		out[s.names[key]] = n
	}
	return out, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
