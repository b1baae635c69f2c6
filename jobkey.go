package biaslens

import (
	"crypto/sha256"
	"encoding/hex"
)

// ComputeJobKey derives the content-addressed job hash for a piece of text
// given its submitter-generated identity. The same (identity, text) pair
// always yields the same key, which serves as the idempotency key for
// classification; there is no separate surrogate job ID.
func ComputeJobKey(identity string, text string) string {
	h := sha256.New()
	h.Write([]byte(identity))
	h.Write([]byte("_"))
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
