// Package checksum computes the content digests used for change detection
// and optimistic concurrency.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Matches reports whether data hashes to want. An empty want always matches,
// so callers can pass an absent If-Match header straight through.
func Matches(data []byte, want string) bool {
	return want == "" || Sum(data) == want
}
