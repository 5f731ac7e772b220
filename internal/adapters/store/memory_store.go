package store

import (
	"context"
	"sync"

	"github.com/mikey/scam-sentinel/internal/core"
)

// MemoryStore is an in-memory implementation of the VerdictStore interface,
// intended for tests and local runs
type MemoryStore struct {
	mu       sync.Mutex
	verdicts []*core.Verdict
}

// NewMemoryStore creates a new in-memory verdict store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Insert stores a verdict. Duplicate message IDs are accepted: a re-check
// produces a new verdict rather than updating one in place.
func (s *MemoryStore) Insert(_ context.Context, verdict *core.Verdict, _ *core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.verdicts = append(s.verdicts, verdict)
	return nil
}

// Verdicts returns a snapshot of everything inserted so far
func (s *MemoryStore) Verdicts() []*core.Verdict {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*core.Verdict, len(s.verdicts))
	copy(out, s.verdicts)
	return out
}
