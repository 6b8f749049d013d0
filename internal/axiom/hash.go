package axiom

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// VerificationMethod names the digest algorithm used for citation
// verification. Fixed to one algorithm for this schema version.
const VerificationMethod = "sha256"

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainContext = "comet/context/v1"
	DomainResult  = "comet/result/v1"
)

// ContentHash computes the SHA-256 hex digest of raw cited content.
//
// This is a plain digest of the UTF-8 bytes, NOT domain-separated: citation
// hashes must be reproducible by third parties holding only the content,
// with no knowledge of this engine's domain prefixes.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ContextHash computes the content-addressed fingerprint of an execution
// context. Stable across restarts and replays given equal context values.
// Returns an error if the context cannot be canonically marshaled.
func ContextHash(context Object) (string, error) {
	canonical, err := MarshalCanonical(context)
	if err != nil {
		return "", fmt.Errorf("ContextHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainContext, canonical), nil
}

// ResultID computes the content-addressed identity of an execution result.
// The ID is a pure function of the result payload: identical (node, context)
// pairs always yield identical result IDs.
func ResultID(payload Object) (string, error) {
	canonical, err := MarshalCanonical(payload)
	if err != nil {
		return "", fmt.Errorf("ResultID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainResult, canonical), nil
}

// MustContextHash is like ContextHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustContextHash(context Object) string {
	h, err := ContextHash(context)
	if err != nil {
		panic(err)
	}
	return h
}
