// Package ir provides the value types grammar parsers produce.
//
// Grammars build their results from ir values so that every grammar's output
// can be compared, hashed, stored, and snapshotted the same way. ir imports
// nothing internal.
//
// Key design constraints:
//   - NO float types: non-integer literals stay as source text
//   - Canonical JSON (RFC 8785 key order, NFC strings) for all hashes
//   - JSON tags use snake_case
package ir
