// Package ids provides injected identifier generation for the placement
// aggregates. Id assignment is a dependency of the orchestration layer, not
// hidden global state, so storage can own the sequence when persistence is
// wired in.
package ids

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Generator yields unique, never-reused identifiers.
type Generator interface {
	Next() string
}

// Sequence issues prefixed fixed-width monotonic ids such as INT00001.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	width  int
	next   int
}

// NewSequence creates a sequence generator starting at 1.
func NewSequence(prefix string, width int) *Sequence {
	return &Sequence{prefix: prefix, width: width, next: 1}
}

// NewSequenceFrom resumes a sequence after the highest id already issued,
// for rehydration from storage.
func NewSequenceFrom(prefix string, width, lastIssued int) *Sequence {
	return &Sequence{prefix: prefix, width: width, next: lastIssued + 1}
}

func (s *Sequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("%s%0*d", s.prefix, s.width, s.next)
	s.next++
	return id
}

// UUID issues random UUID identifiers.
type UUID struct{}

func NewUUID() UUID { return UUID{} }

func (UUID) Next() string { return uuid.New().String() }
