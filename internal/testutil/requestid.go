package testutil

import (
	"fmt"
	"sync"
)

// FixedRequestIDGenerator returns the same request ID every time.
//
// Compiled operations embed their request ID, so golden snapshots need a
// fixed one to be byte-identical across runs.
//
// Thread-safety: FixedRequestIDGenerator is stateless and safe for concurrent use.
type FixedRequestIDGenerator struct {
	id string
}

// NewFixedRequestIDGenerator creates a fixed generator. An empty id yields
// "test-request-default".
func NewFixedRequestIDGenerator(id string) *FixedRequestIDGenerator {
	if id == "" {
		id = "test-request-default"
	}
	return &FixedRequestIDGenerator{id: id}
}

// Generate returns the fixed ID.
//
// Implements query.RequestIDGenerator.
func (g *FixedRequestIDGenerator) Generate() string {
	return g.id
}

// SequenceRequestIDGenerator returns "test-request-1", "test-request-2", ...
//
// Thread-safety: all methods are safe for concurrent use.
type SequenceRequestIDGenerator struct {
	mu  sync.Mutex
	seq int64
}

// NewSequenceRequestIDGenerator creates a generator whose first ID ends in 1.
func NewSequenceRequestIDGenerator() *SequenceRequestIDGenerator {
	return &SequenceRequestIDGenerator{}
}

// Generate returns the next ID in sequence.
func (g *SequenceRequestIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("test-request-%d", g.seq)
}

// Reset restarts the sequence. The next ID ends in 1.
func (g *SequenceRequestIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
