package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/comet-hive/comet/internal/engine"
)

// ReadAll returns every persisted execution record.
// Deterministic ordering: ORDER BY seq ASC, record_id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) for an empty store.
func (s *Store) ReadAll(ctx context.Context) ([]engine.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record_id, seq, node_id, context_hash, context, result, ts
		FROM executions
		ORDER BY seq ASC, record_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query executions: %w", err)
	}
	defer rows.Close()

	records := []engine.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate executions: %w", err)
	}

	return records, nil
}

// ReadByNode returns the persisted records for one node_id, in seq order.
func (s *Store) ReadByNode(ctx context.Context, nodeID string) ([]engine.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record_id, seq, node_id, context_hash, context, result, ts
		FROM executions
		WHERE node_id = ?
		ORDER BY seq ASC, record_id COLLATE BINARY ASC
	`, nodeID)
	if err != nil {
		return nil, fmt.Errorf("query executions for node %s: %w", nodeID, err)
	}
	defer rows.Close()

	records := []engine.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate executions: %w", err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (engine.Record, error) {
	var rec engine.Record
	var contextJSON, resultJSON string

	if err := row.Scan(
		&rec.RecordID,
		&rec.Seq,
		&rec.NodeID,
		&rec.ContextHash,
		&contextJSON,
		&resultJSON,
		&rec.Timestamp,
	); err != nil {
		return engine.Record{}, fmt.Errorf("scan execution: %w", err)
	}

	if err := json.Unmarshal([]byte(contextJSON), &rec.Context); err != nil {
		return engine.Record{}, fmt.Errorf("unmarshal context for %s: %w", rec.RecordID, err)
	}
	if err := json.Unmarshal([]byte(resultJSON), &rec.Result); err != nil {
		return engine.Record{}, fmt.Errorf("unmarshal result for %s: %w", rec.RecordID, err)
	}

	return rec, nil
}
