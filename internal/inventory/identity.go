package inventory

import (
	"path/filepath"
	"sync"
)

// IdentityFunc resolves the identity of the entry at path.
type IdentityFunc func(path string) (Identity, error)

// SequentialIdentities hands out increasing identities, one per distinct path.
// It stands in for inode numbers where the platform has none to offer.
type SequentialIdentities struct {
	mu   sync.Mutex
	next Identity
	seen map[string]Identity
}

// NewSequentialIdentities creates an allocator whose first identity is start.
func NewSequentialIdentities(start Identity) *SequentialIdentities {
	return &SequentialIdentities{
		next: start,
		seen: make(map[string]Identity),
	}
}

// Identify returns the identity for path, allocating one on first sight.
func (s *SequentialIdentities) Identify(path string) (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path = filepath.Clean(path)
	if id, ok := s.seen[path]; ok {
		return id, nil
	}
	id := s.next
	s.next++
	s.seen[path] = id
	return id, nil
}
