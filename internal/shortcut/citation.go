package shortcut

import (
	"time"

	"github.com/comet-hive/comet/internal/axiom"
)

// Citation is an immutable, hash-verified reference to the source material
// justifying a shortcut's existence.
//
// ContentHash is a pure function of the cited content: recomputing the hash
// of the same content always reproduces it, across calls and across
// processes. Timestamp is the only field that varies run to run.
//
// Citations are value types. They are copied on node construction and on
// registration, so no caller can mutate one after the fact.
type Citation struct {
	// SourceID is an opaque provenance identifier. Non-empty.
	SourceID string `json:"source_id"`

	// ContentHash is the SHA-256 hex digest of the cited content,
	// computed at creation time.
	ContentHash string `json:"content_hash"`

	// Timestamp is the creation time in RFC 3339 UTC form.
	Timestamp string `json:"timestamp"`

	// VerificationMethod names the digest algorithm ("sha256").
	VerificationMethod string `json:"verification_method"`
}

// NewCitation creates a verified citation for the given content.
// The digest is computed here; callers never supply hashes directly.
//
// Returns a ValidationError if sourceID or content is empty.
func NewCitation(sourceID, content string) (Citation, error) {
	return NewCitationAt(sourceID, content, time.Now())
}

// NewCitationAt is like NewCitation with an explicit creation time.
// Used by loaders and tests that need reproducible timestamps.
func NewCitationAt(sourceID, content string, at time.Time) (Citation, error) {
	if sourceID == "" {
		return Citation{}, &ValidationError{Field: "source_id", Message: "must not be empty"}
	}
	if content == "" {
		return Citation{}, &ValidationError{Field: "content", Message: "must not be empty"}
	}

	return Citation{
		SourceID:           sourceID,
		ContentHash:        axiom.ContentHash(content),
		Timestamp:          at.UTC().Format(time.RFC3339Nano),
		VerificationMethod: axiom.VerificationMethod,
	}, nil
}

// MustCitation is like NewCitation but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustCitation(sourceID, content string) Citation {
	c, err := NewCitation(sourceID, content)
	if err != nil {
		panic(err)
	}
	return c
}
