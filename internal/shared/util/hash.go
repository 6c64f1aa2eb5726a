package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashKey returns a fixed-length, key-safe identifier for arbitrary input such as a client address.
func HashKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
