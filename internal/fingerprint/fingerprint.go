// Package fingerprint computes the content-addressed hashes used throughout
// the snapshot store: one hash per artifact, and one aggregate fingerprint
// for the top-level index. Every hash is 16 hex characters of SHA-256,
// matching the teacher's own schema-fingerprint convention.
package fingerprint

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
)

// hashLen is the truncation length for every fingerprint in the store:
// 16 hex characters (64 bits) of the full SHA-256 digest.
const hashLen = 16

// HashBytes returns the 16-hex-character content hash of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum)[:hashLen]
}

// HashJSON marshals obj with encoding/json and returns its content hash.
// Callers that need byte-identical hashes across runs must marshal obj
// through the same stable-key-order path the snapshot writer uses before
// calling this (schemamodel types declare their fields in a fixed order,
// so Go's struct marshaling is already deterministic).
func HashJSON(obj interface{}) (string, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("marshal for fingerprint: %w", err)
	}
	return HashBytes(data), nil
}

// IndexFingerprint computes the stable, order-independent fingerprint of an
// index from its artifacts' own content hashes: the hashes are sorted, then
// hashed again, so adding or removing an unrelated artifact changes the
// result but the on-disk ordering of entries never does.
func IndexFingerprint(artifactHashes []string) string {
	sorted := make([]string, len(artifactHashes))
	copy(sorted, artifactHashes)
	sort.Strings(sorted)

	h := sha256.New()
	for _, hash := range sorted {
		h.Write([]byte(hash))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:hashLen]
}
