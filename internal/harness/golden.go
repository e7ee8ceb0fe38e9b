package harness

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/fieldir/internal/ir"
	"github.com/roach88/fieldir/internal/query"
)

// Snapshot renders the pipeline and fields of a compiled operation as
// canonical JSON. Request id, fingerprint and versions are left out so
// snapshots survive compiler releases. Results without an operation have no
// snapshot.
func Snapshot(result *Result) ([]byte, error) {
	op := result.Operation
	if op == nil {
		return nil, fmt.Errorf("no compiled operation to snapshot")
	}
	return ir.CanonicalJSON(struct {
		Pipeline ir.Pipeline             `json:"pipeline"`
		Fields   []*query.ModelSelection `json:"fields"`
	}{op.Pipeline, op.Fields})
}

// GoldenFilePath returns the golden file of a scenario file:
// <dir>/golden/<name>.golden.
func GoldenFilePath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// UpdateGolden writes the snapshot of result as the golden file at path.
func UpdateGolden(path string, result *Result) error {
	data, err := Snapshot(result)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// CompareGolden reports whether the snapshot of result matches the golden
// file at path.
func CompareGolden(path string, result *Result) (bool, error) {
	want, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	got, err := Snapshot(result)
	if err != nil {
		return false, err
	}
	return bytes.Equal(want, got), nil
}

// RunWithGolden runs a scenario and compares its IR against
// testdata/golden/{scenario.Name}.golden. The scenario must compile.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, h *Harness, sc *Scenario) *Result {
	t.Helper()

	result, err := h.Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("scenario %s: %v", sc.Name, err)
	}
	if !result.Pass {
		t.Fatalf("scenario %s failed:\n%s", sc.Name, strings.Join(result.Errors, "\n"))
	}

	data, err := Snapshot(result)
	if err != nil {
		t.Fatalf("scenario %s: %v", sc.Name, err)
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, sc.Name, data)
	return result
}
