package program

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

// Fingerprint returns a short stable digest of the row sequence, useful as a
// cache key and as a storage label for structurally identical programs.
func Fingerprint(p Program) string {
	parts := make([]string, 0, len(p))
	for _, cmd := range p {
		parts = append(parts, fmt.Sprintf("%d:%d:%d", int(cmd.Op), cmd.Arg1, cmd.Arg2))
	}
	digest := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(digest[:8])
}
