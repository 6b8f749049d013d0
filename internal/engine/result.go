package engine

import (
	"fmt"

	"github.com/comet-hive/comet/internal/axiom"
	"github.com/comet-hive/comet/internal/shortcut"
)

// CitationRef is the citation descriptor embedded in execution results.
//
// It deliberately omits the citation timestamp: results must be a pure
// function of (pattern, action, confidence, context), and creation
// timestamps vary run to run.
type CitationRef struct {
	SourceID           string `json:"source_id"`
	ContentHash        string `json:"content_hash"`
	VerificationMethod string `json:"verification_method"`
}

// Result is the deterministic outcome of executing a shortcut.
//
// No wall-clock field appears here - executing the same node against the
// same context twice yields byte-identical results, including ResultID.
// Timestamps live on the audit log record only.
type Result struct {
	// ResultID is the content-addressed identity of this result payload.
	ResultID string `json:"result_id"`

	NodeID     string  `json:"node_id"`
	Pattern    string  `json:"pattern"`
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`

	// ContextHash fingerprints the caller-supplied context.
	ContextHash string `json:"context_hash"`

	// Citations carries the node's citation descriptors.
	Citations []CitationRef `json:"verified_citations"`

	// DesignImplications is the node's metadata, passed through unmodified.
	DesignImplications axiom.Object `json:"design_implications,omitempty"`

	// Context is the snapshot of the execution context.
	Context axiom.Object `json:"context"`
}

// computeResult derives the execution result for a node and context.
//
// Pure function: no clock reads, no ID generation, no engine state. This is
// the system's central correctness property - identical (node, context)
// inputs always produce an identical Result.
func computeResult(node shortcut.Node, context axiom.Object) (Result, error) {
	ctxHash, err := axiom.ContextHash(context)
	if err != nil {
		return Result{}, fmt.Errorf("fingerprint context: %w", err)
	}

	refs := make([]CitationRef, len(node.Citations))
	for i, c := range node.Citations {
		refs[i] = CitationRef{
			SourceID:           c.SourceID,
			ContentHash:        c.ContentHash,
			VerificationMethod: c.VerificationMethod,
		}
	}

	id, err := resultID(node, ctxHash, refs)
	if err != nil {
		return Result{}, err
	}

	return Result{
		ResultID:           id,
		NodeID:             node.NodeID,
		Pattern:            node.Pattern,
		Action:             node.Action,
		Confidence:         node.Confidence,
		ContextHash:        ctxHash,
		Citations:          refs,
		DesignImplications: axiom.CopyObject(node.DesignImplications),
		Context:            axiom.CopyObject(context),
	}, nil
}

// resultID computes the content-addressed result identity over the full
// deterministic payload via canonical JSON.
func resultID(node shortcut.Node, ctxHash string, refs []CitationRef) (string, error) {
	citations := make(axiom.Array, len(refs))
	for i, r := range refs {
		citations[i] = axiom.Object{
			"source_id":           axiom.String(r.SourceID),
			"content_hash":        axiom.String(r.ContentHash),
			"verification_method": axiom.String(r.VerificationMethod),
		}
	}

	implications := node.DesignImplications
	if implications == nil {
		implications = axiom.Object{}
	}

	payload := axiom.Object{
		"node_id":             axiom.String(node.NodeID),
		"pattern":             axiom.String(node.Pattern),
		"action":              axiom.String(node.Action),
		"confidence":          axiom.Float(node.Confidence),
		"context_hash":        axiom.String(ctxHash),
		"verified_citations":  citations,
		"design_implications": implications,
	}

	id, err := axiom.ResultID(payload)
	if err != nil {
		return "", fmt.Errorf("compute result id: %w", err)
	}
	return id, nil
}

// Clone returns a copy of the result with its maps and slices detached at
// every depth, so audit-log snapshots cannot be mutated through a returned
// value even via nested objects.
func (r Result) Clone() Result {
	r.Citations = append([]CitationRef(nil), r.Citations...)
	r.DesignImplications = axiom.CopyObject(r.DesignImplications)
	r.Context = axiom.CopyObject(r.Context)
	return r
}
