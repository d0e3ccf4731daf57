// Package digest is the single content-checksum primitive shared by the
// chunker, the integrity verifier and the retrieval end-to-end check.
package digest

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"hash"
)

// Size is the length of a hex-encoded digest.
const Size = sha256.Size * 2

// Sum returns the hex-encoded sha256 digest of b.
func Sum(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// New returns an incremental hasher for streaming content. Use Hex to
// finalize it.
func New() hash.Hash {
	return sha256.New()
}

// Hex finalizes an incremental hasher into a hex-encoded digest.
func Hex(h hash.Hash) string {
	return hex.EncodeToString(h.Sum(nil))
}

// Verify reports whether b hashes to expected. All digest comparisons in
// the system go through here.
func Verify(b []byte, expected string) bool {
	sum := Sum(b)
	if len(sum) != len(expected) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sum), []byte(expected)) == 1
}
