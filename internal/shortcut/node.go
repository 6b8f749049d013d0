package shortcut

import (
	"fmt"

	"github.com/comet-hive/comet/internal/axiom"
)

// Node describes one browser automation shortcut: a match pattern bound to
// an action, with a confidence score and the citations that justify it.
//
// Pattern and Action are opaque to this system - no matching logic runs here
// and no real executor is dispatched. The engine records intent and computes
// a deterministic result descriptor.
type Node struct {
	// NodeID is the unique registry key.
	NodeID string `json:"node_id"`

	// Pattern describes the URL/DOM match target.
	Pattern string `json:"pattern"`

	// Action names the automation action.
	Action string `json:"action"`

	// Confidence is constrained to the closed interval [0.0, 1.0].
	Confidence float64 `json:"confidence"`

	// Citations backs the shortcut's existence. At least one required,
	// insertion order preserved.
	Citations []Citation `json:"verified_citations"`

	// DesignImplications is open-ended metadata, passed through unmodified.
	DesignImplications axiom.Object `json:"design_implications,omitempty"`
}

// NewNode constructs a validated Node. Fail-fast: invalid inputs return a
// ValidationError and no Node is produced. The citations slice is copied to
// keep the node immutable against later caller mutation.
func NewNode(nodeID, pattern, action string, confidence float64, citations []Citation, implications axiom.Object) (Node, error) {
	n := Node{
		NodeID:             nodeID,
		Pattern:            pattern,
		Action:             action,
		Confidence:         confidence,
		Citations:          append([]Citation(nil), citations...),
		DesignImplications: axiom.CopyObject(implications),
	}
	if err := n.Validate(); err != nil {
		return Node{}, err
	}
	return n, nil
}

// Validate checks the node invariants in a fixed order:
// confidence range, citation presence, node_id, pattern.
//
// Out-of-range confidence is rejected, never clamped.
func (n Node) Validate() error {
	if n.Confidence < 0.0 || n.Confidence > 1.0 {
		return &ValidationError{
			Field:   "confidence",
			Message: fmt.Sprintf("must be within [0.0, 1.0], got %v", n.Confidence),
		}
	}
	if len(n.Citations) == 0 {
		return &ValidationError{
			Field:   "verified_citations",
			Message: "at least one citation is required",
		}
	}
	if n.NodeID == "" {
		return &ValidationError{Field: "node_id", Message: "must not be empty"}
	}
	if n.Pattern == "" {
		return &ValidationError{Field: "pattern", Message: "must not be empty"}
	}
	return nil
}

// Clone returns a deep copy of the node: the citations slice is copied and
// the implications tree is copied recursively, so registry-held nodes cannot
// be mutated through a caller-retained reference at any nesting depth.
func (n Node) Clone() Node {
	n.Citations = append([]Citation(nil), n.Citations...)
	n.DesignImplications = axiom.CopyObject(n.DesignImplications)
	return n
}
