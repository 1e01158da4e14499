package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed hashes.
// The version suffix leaves room for algorithm migration.
const (
	DomainInput  = "picoparse/input/v1"
	DomainResult = "picoparse/result/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// InputHash identifies a (grammar, input) pair. Replays of the same input
// under the same grammar share a hash.
func InputHash(grammar, input string) (string, error) {
	obj := Object{
		"grammar": String(grammar),
		"input":   String(input),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("InputHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainInput, canonical), nil
}

// ResultHash identifies the observable outcome of a parse: the value and the
// remainder on success, or the failure offset and description.
func ResultHash(ok bool, value Value, remaining string, offset int, description string) (string, error) {
	obj := Object{
		"ok":        Bool(ok),
		"remaining": String(remaining),
	}
	if ok {
		obj["value"] = value
	} else {
		obj["offset"] = Int(offset)
		obj["description"] = String(description)
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("ResultHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainResult, canonical), nil
}

// MustInputHash is like InputHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustInputHash(grammar, input string) string {
	h, err := InputHash(grammar, input)
	if err != nil {
		panic(err)
	}
	return h
}
