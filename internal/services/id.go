package services

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

// newRecordID returns a compact unique id: the creation instant in base36
// followed by a random hex suffix. The nanosecond component separates
// sequential adds and the random suffix covers clock collisions, so no
// counter has to survive restarts.
func newRecordID() string {
	ts := strconv.FormatInt(time.Now().UnixNano(), 36)
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		// Fall back to the timestamp alone if the random source fails.
		return ts
	}
	return ts + hex.EncodeToString(b[:])
}
