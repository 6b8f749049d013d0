package engine

import (
	"bytes"
	"fmt"

	"github.com/comet-hive/comet/internal/axiom"
	"github.com/comet-hive/comet/internal/shortcut"
)

// CitationDescriptor is the citation entry in an exported schema document.
// Unlike result citation refs, export keeps the creation timestamp - the
// schema describes registered capability, including when evidence was taken.
type CitationDescriptor struct {
	SourceID           string `json:"source_id"`
	ContentHash        string `json:"content_hash"`
	Timestamp          string `json:"timestamp"`
	VerificationMethod string `json:"verification_method"`
}

// NodeDescriptor is one shortcut entry in an exported schema document.
type NodeDescriptor struct {
	NodeID             string               `json:"node_id"`
	Pattern            string               `json:"pattern"`
	Action             string               `json:"action"`
	Confidence         float64              `json:"confidence"`
	DesignImplications axiom.Object         `json:"design_implications"`
	VerifiedCitations  []CitationDescriptor `json:"verified_citations"`
}

// SchemaDocument is the Axiom JSON Schema snapshot of the full registry.
//
// Shortcuts appear in first-registration order, NOT map iteration order, so
// consecutive exports are byte-identical. Execution-log data never appears
// here - the schema describes registered capability, not history.
type SchemaDocument struct {
	SchemaVersion string           `json:"schema_version"`
	Shortcuts     []NodeDescriptor `json:"shortcuts"`
}

// ExportSchema produces the schema document for every registered shortcut.
//
// Exporting twice without intervening registration changes yields equal
// documents; EncodeCanonical renders them as byte-identical JSON.
func (e *Engine) ExportSchema() *SchemaDocument {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc := &SchemaDocument{
		SchemaVersion: SchemaVersion,
		Shortcuts:     make([]NodeDescriptor, 0, len(e.order)),
	}

	for _, id := range e.order {
		node := e.registry[id]
		doc.Shortcuts = append(doc.Shortcuts, describeNode(node))
	}

	return doc
}

func describeNode(node shortcut.Node) NodeDescriptor {
	citations := make([]CitationDescriptor, len(node.Citations))
	for i, c := range node.Citations {
		citations[i] = CitationDescriptor{
			SourceID:           c.SourceID,
			ContentHash:        c.ContentHash,
			Timestamp:          c.Timestamp,
			VerificationMethod: c.VerificationMethod,
		}
	}

	// Deep copy so mutating the exported document cannot reach the registry.
	implications := axiom.CopyObject(node.DesignImplications)
	if implications == nil {
		implications = axiom.Object{}
	}

	return NodeDescriptor{
		NodeID:             node.NodeID,
		Pattern:            node.Pattern,
		Action:             node.Action,
		Confidence:         node.Confidence,
		DesignImplications: implications,
		VerifiedCitations:  citations,
	}
}

// EncodeCanonical renders the document as deterministic JSON: fixed field
// order for descriptors, canonical string/number forms, design_implications
// in canonical key order. Two encodes of equal documents are byte-identical.
func (d *SchemaDocument) EncodeCanonical() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(`{"schema_version":`)
	if err := writeCanonical(&buf, axiom.String(d.SchemaVersion)); err != nil {
		return nil, err
	}
	buf.WriteString(`,"shortcuts":[`)

	for i, n := range d.Shortcuts {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeNodeDescriptor(&buf, n); err != nil {
			return nil, fmt.Errorf("shortcut %q: %w", n.NodeID, err)
		}
	}

	buf.WriteString("]}")
	return buf.Bytes(), nil
}

func encodeNodeDescriptor(buf *bytes.Buffer, n NodeDescriptor) error {
	buf.WriteString(`{"node_id":`)
	if err := writeCanonical(buf, axiom.String(n.NodeID)); err != nil {
		return err
	}
	buf.WriteString(`,"pattern":`)
	if err := writeCanonical(buf, axiom.String(n.Pattern)); err != nil {
		return err
	}
	buf.WriteString(`,"action":`)
	if err := writeCanonical(buf, axiom.String(n.Action)); err != nil {
		return err
	}
	buf.WriteString(`,"confidence":`)
	if err := writeCanonical(buf, axiom.Float(n.Confidence)); err != nil {
		return err
	}
	buf.WriteString(`,"design_implications":`)
	if err := writeCanonical(buf, n.DesignImplications); err != nil {
		return err
	}
	buf.WriteString(`,"verified_citations":[`)
	for i, c := range n.VerifiedCitations {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeCitationDescriptor(buf, c); err != nil {
			return err
		}
	}
	buf.WriteString("]}")
	return nil
}

func encodeCitationDescriptor(buf *bytes.Buffer, c CitationDescriptor) error {
	buf.WriteString(`{"source_id":`)
	if err := writeCanonical(buf, axiom.String(c.SourceID)); err != nil {
		return err
	}
	buf.WriteString(`,"content_hash":`)
	if err := writeCanonical(buf, axiom.String(c.ContentHash)); err != nil {
		return err
	}
	buf.WriteString(`,"timestamp":`)
	if err := writeCanonical(buf, axiom.String(c.Timestamp)); err != nil {
		return err
	}
	buf.WriteString(`,"verification_method":`)
	if err := writeCanonical(buf, axiom.String(c.VerificationMethod)); err != nil {
		return err
	}
	buf.WriteByte('}')
	return nil
}

func writeCanonical(buf *bytes.Buffer, v axiom.Value) error {
	b, err := axiom.MarshalCanonical(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
