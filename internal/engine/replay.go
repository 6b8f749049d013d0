package engine

// Replay verification.
//
// Determinism makes the audit log checkable after the fact: every record
// holds the context snapshot and the content-addressed result it produced,
// so re-executing the same (node, context) pair against the same registry
// must reproduce the same result_id. A mismatch means the registry changed
// since the record was written, the record was tampered with, or the
// engine's result computation regressed.
//
// Verification is read-only - it never appends to the log and never
// mutates the registry. The same code path that executes shortcuts
// (computeResult) recomputes results here; there is no special replay mode.

import "fmt"

// VerifyIssue describes one record that failed replay verification.
type VerifyIssue struct {
	// RecordID identifies the failing record.
	RecordID string `json:"record_id"`

	// Seq is the record's logical clock stamp.
	Seq int64 `json:"seq"`

	// Code categorizes the failure.
	Code VerifyIssueCode `json:"code"`

	// Message is a human-readable description.
	Message string `json:"message"`
}

// VerifyIssueCode categorizes replay verification failures.
type VerifyIssueCode string

const (
	// IssueUnknownNode means the record references a node_id that is not
	// registered in the verifying engine.
	IssueUnknownNode VerifyIssueCode = "UNKNOWN_NODE"

	// IssueResultMismatch means recomputing the result produced a
	// different result_id than the record holds.
	IssueResultMismatch VerifyIssueCode = "RESULT_MISMATCH"

	// IssueContextMismatch means the stored context hash does not match
	// the stored context snapshot.
	IssueContextMismatch VerifyIssueCode = "CONTEXT_MISMATCH"

	// IssueSeqRegression means seq values are not strictly increasing
	// in record order.
	IssueSeqRegression VerifyIssueCode = "SEQ_REGRESSION"
)

// VerifyReport summarizes a replay verification pass.
type VerifyReport struct {
	Records       int           `json:"records"`
	Deterministic bool          `json:"deterministic"`
	Issues        []VerifyIssue `json:"issues,omitempty"`
}

// VerifyRecords replays each record's (node, context) pair against the
// current registry and checks that the recomputed result matches.
//
// Records must be supplied in append order; seq ordering is verified too.
func (e *Engine) VerifyRecords(recs []Record) *VerifyReport {
	report := &VerifyReport{Records: len(recs), Deterministic: true}

	// Engine seqs start at 1, so a leading record with seq <= 0 is a
	// regression too, not just later out-of-order records.
	var prevSeq int64
	for _, rec := range recs {
		if rec.Seq <= prevSeq {
			report.add(rec, IssueSeqRegression,
				fmt.Sprintf("seq %d follows %d", rec.Seq, prevSeq))
		}
		prevSeq = rec.Seq

		node, ok := e.Lookup(rec.NodeID)
		if !ok {
			report.add(rec, IssueUnknownNode,
				fmt.Sprintf("node %q is not registered", rec.NodeID))
			continue
		}

		recomputed, err := computeResult(node, rec.Context)
		if err != nil {
			report.add(rec, IssueResultMismatch,
				fmt.Sprintf("recompute failed: %v", err))
			continue
		}

		if recomputed.ContextHash != rec.ContextHash {
			report.add(rec, IssueContextMismatch,
				fmt.Sprintf("stored context hash %s, recomputed %s",
					rec.ContextHash, recomputed.ContextHash))
			continue
		}

		if recomputed.ResultID != rec.Result.ResultID {
			report.add(rec, IssueResultMismatch,
				fmt.Sprintf("stored result_id %s, recomputed %s",
					rec.Result.ResultID, recomputed.ResultID))
		}
	}

	return report
}

func (r *VerifyReport) add(rec Record, code VerifyIssueCode, msg string) {
	r.Deterministic = false
	r.Issues = append(r.Issues, VerifyIssue{
		RecordID: rec.RecordID,
		Seq:      rec.Seq,
		Code:     code,
		Message:  msg,
	})
}
