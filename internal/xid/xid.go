// Package xid generates prefixed identifiers such as "rcpt-…" or "shift-…".
// The prefix keeps IDs self-describing in logs and audit entries.
package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// New returns a unique ID of the form <prefix>-<unixnano>-<random hex>.
// The timestamp keeps IDs roughly sortable by creation time.
func New(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// Timestamp-only fallback; collisions need two IDs in the same nanosecond.
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixNano(), hex.EncodeToString(buf))
}
