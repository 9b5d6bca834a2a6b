package usecase

import (
	"sort"
	"strings"
	"sync"
)

// BlocklistStore is the process-wide set of blocked application names.
// Names are lowercased on every operation.
type BlocklistStore struct {
	mu    sync.Mutex
	names map[string]struct{}
}

// NewBlocklistStore creates a store seeded with initial names.
func NewBlocklistStore(initial ...string) *BlocklistStore {
	s := &BlocklistStore{names: make(map[string]struct{})}
	for _, n := range initial {
		s.Block(n)
	}
	return s
}

// Block adds name. Always succeeds.
func (s *BlocklistStore) Block(name string) bool {
	s.mu.Lock()
	s.names[strings.ToLower(name)] = struct{}{}
	s.mu.Unlock()
	return true
}

// Unblock removes name if present. Always succeeds.
func (s *BlocklistStore) Unblock(name string) bool {
	s.mu.Lock()
	delete(s.names, strings.ToLower(name))
	s.mu.Unlock()
	return true
}

// Replace swaps the whole set for names in one step.
func (s *BlocklistStore) Replace(names []string) {
	next := make(map[string]struct{}, len(names))
	for _, n := range names {
		next[strings.ToLower(n)] = struct{}{}
	}
	s.mu.Lock()
	s.names = next
	s.mu.Unlock()
}

// IsBlocked reports whether name is blocked.
func (s *BlocklistStore) IsBlocked(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.names[strings.ToLower(name)]
	return ok
}

// ListBlocked returns the blocked names, sorted.
func (s *BlocklistStore) ListBlocked() []string {
	s.mu.Lock()
	names := make([]string, 0, len(s.names))
	for n := range s.names {
		names = append(names, n)
	}
	s.mu.Unlock()

	sort.Strings(names)
	return names
}
