// Package axiom provides the canonical value representation for the Comet
// shortcut engine.
//
// This package contains the sealed value union, canonical JSON serialization,
// and content-addressed hashing. All other internal packages import axiom;
// axiom imports nothing internal. This keeps it the foundational layer with
// no circular dependencies.
//
// Key design constraints:
//   - Canonical JSON follows RFC 8785 for key ordering (UTF-16 code units)
//     and string escaping (NFC-normalized, no HTML escaping). Number
//     rendering uses Go's shortest round-trip form instead of the RFC's
//     ECMAScript rules; see MarshalCanonical.
//   - All content-addressed hashes are SHA-256 with domain separation.
//   - NaN and Inf are rejected because they have no JSON representation.
//   - All JSON tags use snake_case.
package axiom
