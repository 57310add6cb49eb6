package crypto

import (
	"crypto/sha256"
	"fmt"
)

// Checksum computes the SHA-256 hex digest of the final artifact bytes. It is
// stored on the backup record as an integrity fingerprint.
func Checksum(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h)
}
