package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/fieldir/internal/ir"
	"github.com/roach88/fieldir/internal/metadata"
	"github.com/roach88/fieldir/internal/query"
	"github.com/roach88/fieldir/internal/usage"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestOperation creates a compiled operation referencing models.
func createTestOperation(requestID, fingerprint string, models ...string) *query.CompiledOperation {
	counts := usage.New()
	for _, m := range models {
		counts.CountModel(metadata.ModelName(m))
	}
	return &query.CompiledOperation{
		RequestID:       requestID,
		OperationName:   "Feed",
		Pipeline:        ir.PipelineLegacy,
		Fields:          []*query.ModelSelection{},
		UsageCounts:     counts,
		Fingerprint:     fingerprint,
		IRVersion:       ir.IRVersion,
		CompilerVersion: ir.CompilerVersion,
	}
}
