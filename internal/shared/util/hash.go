package util

import (
	"crypto/sha256"
	"encoding/hex"
)

const userKeyLen = 32

// HashUserKey maps a user ID to the path segment that prefixes every file and
// object the user owns. Equal IDs map to equal segments.
func HashUserKey(userID string) string {
	sum := sha256.Sum256([]byte("letterhead-user:" + userID))
	return "u" + hex.EncodeToString(sum[:])[:userKeyLen]
}
