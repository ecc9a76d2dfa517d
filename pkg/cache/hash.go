package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashKey hashes the ordered key components.
// JSON encoding keeps component boundaries unambiguous ("ab","c" never
// collides with "a","bc").
func hashKey(parts []string) string {
	data, _ := json.Marshal(parts)
	return Hash(data)
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
