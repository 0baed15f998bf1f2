// Package fileid generates the short public identifiers files are addressed
// by. Ids are 5 cryptographically random bytes in base58, giving ~2^40
// distinct values in 7 URL-safe characters or fewer.
package fileid

import (
	"crypto/rand"
	"fmt"

	"github.com/mr-tron/base58"
)

const rawLen = 5

// New draws a fresh random identifier. No collision check happens here;
// the metadata store's primary key is the detector of record.
func New() (string, error) {
	buf := make([]byte, rawLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("draw id entropy: %w", err)
	}
	return base58.Encode(buf), nil
}
