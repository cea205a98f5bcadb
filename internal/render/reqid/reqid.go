// Package reqid provides unique per-request identifiers used to prefix
// scratch and output filenames so concurrent requests never collide.
package reqid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// New creates a new request ID.
// Format: req-<timestamp>-<random>
// Example: req-1701432000-a1b2c3d4
func New() string {
	timestamp := time.Now().UnixNano()
	random := make([]byte, 4)
	if _, err := rand.Read(random); err != nil {
		// Fallback to timestamp only if crypto/rand fails
		return fmt.Sprintf("req-%d", timestamp)
	}
	return fmt.Sprintf("req-%d-%s", timestamp, hex.EncodeToString(random))
}
