package testutil

import (
	"fmt"
	"sync"
)

// SequentialFlowIDs hands out predictable flow ids ("test-flow-0001",
// "test-flow-0002", ...) so logs, journal rows and golden files are stable
// across runs.
//
// Thread-safety: safe for concurrent use.
type SequentialFlowIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialFlowIDs creates a generator. An empty prefix defaults to
// "test-flow".
func NewSequentialFlowIDs(prefix string) *SequentialFlowIDs {
	if prefix == "" {
		prefix = "test-flow"
	}
	return &SequentialFlowIDs{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialFlowIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
