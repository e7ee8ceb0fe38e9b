package store

import (
	"context"
	"fmt"

	"github.com/roach88/fieldir/internal/ir"
	"github.com/roach88/fieldir/internal/metadata"
	"github.com/roach88/fieldir/internal/query"
)

// Record appends a compiled operation to the log together with its model
// usage. It uses ON CONFLICT(request_id) DO NOTHING, so recording the same
// request id twice keeps the first row and reports inserted = false.
//
// The operation is stored as canonical JSON per RFC 8785.
func (s *Store) Record(ctx context.Context, role metadata.Role, op *query.CompiledOperation) (inserted bool, err error) {
	if op == nil || op.RequestID == "" {
		return false, fmt.Errorf("record operation: request id is required")
	}
	irJSON, err := ir.CanonicalJSON(op)
	if err != nil {
		return false, fmt.Errorf("record operation: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("record operation: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO compiled_operations
		(request_id, operation_name, role, pipeline, fingerprint, ir_version, compiler_version, ir)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(request_id) DO NOTHING
	`,
		op.RequestID,
		op.OperationName,
		string(role),
		op.Pipeline.String(),
		op.Fingerprint,
		op.IRVersion,
		op.CompilerVersion,
		string(irJSON),
	)
	if err != nil {
		return false, fmt.Errorf("record operation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record operation: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if op.UsageCounts != nil {
		for _, model := range op.UsageCounts.ModelNames() {
			uses := op.UsageCounts.Model(model)
			if uses == 0 {
				continue
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO model_usage (request_id, model, uses) VALUES (?, ?, ?)
			`, op.RequestID, string(model), uses); err != nil {
				return false, fmt.Errorf("record model usage %s: %w", model, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("record operation: %w", err)
	}
	return true, nil
}
