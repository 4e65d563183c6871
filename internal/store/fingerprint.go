package store

import (
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"
)

// Fingerprint returns a stable 64-bit hex digest of q with whitespace runs
// collapsed, so the same query logs under the same key regardless of layout.
func Fingerprint(q string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(strings.Join(strings.Fields(q), " ")))
}
