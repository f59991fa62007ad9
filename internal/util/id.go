package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a random 128-bit hex identifier, optionally tagged
// with a row-kind prefix ("idea", "msg", "fnd", "feat", "score",
// "tech", "exp", "ver") or a token prefix ("jti", "rft"). An empty
// prefix yields the bare hex form used for refresh token secrets.
func NewID(prefix string) string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}
