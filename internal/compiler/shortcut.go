// Package compiler turns CUE shortcut declarations into validated
// shortcut nodes.
//
// Shortcut registries are authored as CUE files of the form:
//
//	shortcuts: {
//		github_notifications: {
//			pattern:    "github.com/notifications"
//			action:     "bulk_mark_done"
//			confidence: 0.95
//			citations: [
//				{source_id: "gh_docs", content: "notification batching guide"},
//			]
//			design_implications: {efficiency: "high"}
//		}
//	}
//
// The struct label becomes the node_id. Compilation uses the CUE SDK's Go
// API directly, not a CLI subprocess.
package compiler

import (
	"fmt"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/comet-hive/comet/internal/axiom"
	"github.com/comet-hive/comet/internal/shortcut"
)

// Compiler compiles CUE shortcut declarations.
//
// Now supplies citation timestamps; tests pin it for reproducible output.
type Compiler struct {
	Now func() time.Time
}

// New creates a Compiler using the wall clock.
func New() *Compiler {
	return &Compiler{Now: time.Now}
}

// CompileShortcut parses one CUE shortcut struct into a Node.
// The struct's label (the last path selector) becomes the node_id.
func (c *Compiler) CompileShortcut(v cue.Value) (shortcut.Node, error) {
	if err := v.Err(); err != nil {
		return shortcut.Node{}, formatCUEError(err)
	}

	var nodeID string
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		nodeID = labels[len(labels)-1].String()
	}

	pattern, err := requiredString(v, "pattern")
	if err != nil {
		return shortcut.Node{}, err
	}

	action, err := requiredString(v, "action")
	if err != nil {
		return shortcut.Node{}, err
	}

	confVal := v.LookupPath(cue.ParsePath("confidence"))
	if !confVal.Exists() {
		return shortcut.Node{}, &CompileError{
			Field:   "confidence",
			Message: "confidence is required",
			Pos:     v.Pos(),
		}
	}
	confidence, err := confVal.Float64()
	if err != nil {
		return shortcut.Node{}, formatCUEError(err)
	}

	citations, err := c.parseCitations(v)
	if err != nil {
		return shortcut.Node{}, err
	}

	implications, err := parseImplications(v)
	if err != nil {
		return shortcut.Node{}, err
	}

	node, err := shortcut.NewNode(nodeID, pattern, action, confidence, citations, implications)
	if err != nil {
		return shortcut.Node{}, &CompileError{
			Field:   nodeID,
			Message: err.Error(),
			Pos:     v.Pos(),
		}
	}
	return node, nil
}

// CompileAll parses every entry under the top-level "shortcuts" struct,
// in declaration order.
func (c *Compiler) CompileAll(v cue.Value) ([]shortcut.Node, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	root := v.LookupPath(cue.ParsePath("shortcuts"))
	if !root.Exists() {
		return nil, &CompileError{
			Field:   "shortcuts",
			Message: "top-level shortcuts struct is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := root.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var nodes []shortcut.Node
	for iter.Next() {
		node, err := c.CompileShortcut(iter.Value())
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	return nodes, nil
}

// parseCitations reads the citations list and verifies each entry through
// the citation factory, so content hashes are computed here, never authored.
func (c *Compiler) parseCitations(v cue.Value) ([]shortcut.Citation, error) {
	citVal := v.LookupPath(cue.ParsePath("citations"))
	if !citVal.Exists() {
		return nil, &CompileError{
			Field:   "citations",
			Message: "at least one citation is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := citVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	at := c.Now()
	var citations []shortcut.Citation
	for iter.Next() {
		entry := iter.Value()

		sourceID, err := requiredString(entry, "source_id")
		if err != nil {
			return nil, err
		}
		content, err := requiredString(entry, "content")
		if err != nil {
			return nil, err
		}

		cit, err := shortcut.NewCitationAt(sourceID, content, at)
		if err != nil {
			return nil, &CompileError{
				Field:   "citations",
				Message: err.Error(),
				Pos:     entry.Pos(),
			}
		}
		citations = append(citations, cit)
	}

	return citations, nil
}

// parseImplications decodes the optional design_implications struct.
func parseImplications(v cue.Value) (axiom.Object, error) {
	implVal := v.LookupPath(cue.ParsePath("design_implications"))
	if !implVal.Exists() {
		return nil, nil
	}

	var raw map[string]any
	if err := implVal.Decode(&raw); err != nil {
		return nil, formatCUEError(err)
	}

	obj, err := axiom.ObjectFromGo(raw)
	if err != nil {
		return nil, &CompileError{
			Field:   "design_implications",
			Message: err.Error(),
			Pos:     implVal.Pos(),
		}
	}
	return obj, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fieldVal := v.LookupPath(cue.ParsePath(field))
	if !fieldVal.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: fmt.Sprintf("%s is required", field),
			Pos:     v.Pos(),
		}
	}
	s, err := fieldVal.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// CompileError represents a shortcut declaration error with CUE position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from a CUE SDK error.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
