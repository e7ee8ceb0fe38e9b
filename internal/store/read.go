package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/fieldir/internal/metadata"
)

// ErrNotFound is returned when no operation has the requested id.
var ErrNotFound = errors.New("operation not found")

// OperationRecord is one row of the compiled operation log.
type OperationRecord struct {
	Seq             int64           `json:"seq"`
	RequestID       string          `json:"request_id"`
	OperationName   string          `json:"operation_name,omitempty"`
	Role            metadata.Role   `json:"role"`
	Pipeline        string          `json:"pipeline"`
	Fingerprint     string          `json:"fingerprint"`
	IRVersion       string          `json:"ir_version"`
	CompilerVersion string          `json:"compiler_version"`
	IR              json.RawMessage `json:"ir,omitempty"`
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Fingerprint string
	Model       metadata.ModelName // operations referencing this model
	Limit       int                // most recent N, still returned in seq order
	WithIR      bool               // include the canonical IR
}

const recordColumns = "seq, request_id, operation_name, role, pipeline, fingerprint, ir_version, compiler_version"

// Get returns the operation recorded under requestID, including its IR.
func (s *Store) Get(ctx context.Context, requestID string) (*OperationRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`, ir
		FROM compiled_operations
		WHERE request_id = ?
	`, requestID)

	rec, err := scanRecord(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, requestID)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns matching operations ordered by seq ASC.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) List(ctx context.Context, f Filter) ([]OperationRecord, error) {
	cols := recordColumns
	if f.WithIR {
		cols += ", ir"
	}

	var where []string
	var args []any
	if f.Fingerprint != "" {
		where = append(where, "fingerprint = ?")
		args = append(args, f.Fingerprint)
	}
	if f.Model != "" {
		where = append(where, "request_id IN (SELECT request_id FROM model_usage WHERE model = ?)")
		args = append(args, string(f.Model))
	}

	q := "SELECT " + cols + " FROM compiled_operations"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	if f.Limit > 0 {
		// Newest N, re-sorted oldest first.
		q = "SELECT * FROM (" + q + " ORDER BY seq DESC LIMIT ?) ORDER BY seq ASC"
		args = append(args, f.Limit)
	} else {
		q += " ORDER BY seq ASC"
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	records := []OperationRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows, f.WithIR)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}
	return records, nil
}

// ModelUsage returns the total references per model across the log.
func (s *Store) ModelUsage(ctx context.Context) (map[metadata.ModelName]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT model, SUM(uses)
		FROM model_usage
		GROUP BY model
		ORDER BY model COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query model usage: %w", err)
	}
	defer rows.Close()

	usage := make(map[metadata.ModelName]int)
	for rows.Next() {
		var model string
		var uses int
		if err := rows.Scan(&model, &uses); err != nil {
			return nil, fmt.Errorf("scan model usage: %w", err)
		}
		usage[metadata.ModelName(model)] = uses
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate model usage: %w", err)
	}
	return usage, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner, withIR bool) (*OperationRecord, error) {
	var rec OperationRecord
	var role string
	dest := []any{
		&rec.Seq,
		&rec.RequestID,
		&rec.OperationName,
		&role,
		&rec.Pipeline,
		&rec.Fingerprint,
		&rec.IRVersion,
		&rec.CompilerVersion,
	}
	var irJSON string
	if withIR {
		dest = append(dest, &irJSON)
	}
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan operation: %w", err)
	}
	rec.Role = metadata.Role(role)
	if withIR {
		rec.IR = json.RawMessage(irJSON)
	}
	return &rec, nil
}
