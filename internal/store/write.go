package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/comet-hive/comet/internal/axiom"
	"github.com/comet-hive/comet/internal/engine"
)

// Append inserts an execution record.
// Implements engine.AuditSink.
//
// Uses ON CONFLICT(record_id) DO NOTHING for idempotency - replaying the
// same record is a no-op, never an error. The context snapshot is stored as
// canonical JSON so persisted bytes are reproducible.
func (s *Store) Append(ctx context.Context, rec engine.Record) error {
	contextJSON, err := axiom.MarshalCanonical(rec.Context)
	if err != nil {
		return fmt.Errorf("append record %s: marshal context: %w", rec.RecordID, err)
	}

	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("append record %s: marshal result: %w", rec.RecordID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO executions
		(record_id, seq, node_id, context_hash, context, result, result_id, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(record_id) DO NOTHING
	`,
		rec.RecordID,
		rec.Seq,
		rec.NodeID,
		rec.ContextHash,
		string(contextJSON),
		string(resultJSON),
		rec.Result.ResultID,
		rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append record %s: %w", rec.RecordID, err)
	}

	return nil
}

var _ engine.AuditSink = (*Store)(nil)
