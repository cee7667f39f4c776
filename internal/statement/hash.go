package statement

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashContent computes the SHA-256 digest of the raw import payload as a hex
// string. Callers use it for file-level idempotency and audit, so it must be
// a pure function of the exact bytes.
func HashContent(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
