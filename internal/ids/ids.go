// Package ids generates the opaque string identifiers used for every
// TaskFlow entity (tasks, notes, comments, versions).
package ids

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
	"time"
)

// suffixLen is the number of base36 characters after the timestamp.
const suffixLen = 9

// New returns a fresh identifier of the form id_<unix-millis>_<random>.
//
// The format matches the documents produced by existing TaskFlow clients,
// so identifiers from imported or remotely synced state and locally
// generated ones are indistinguishable. Uniqueness comes from the random
// suffix; the embedded timestamp is informational only and must not be
// parsed back out.
func New() string {
	return fmt.Sprintf("id_%d_%s", time.Now().UnixMilli(), randomSuffix())
}

// randomSuffix returns suffixLen base36 characters of randomness.
func randomSuffix() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand is effectively infallible; fall back to the clock
		// rather than failing id generation.
		binary.BigEndian.PutUint64(buf[:], uint64(time.Now().UnixNano()))
	}
	s := strconv.FormatUint(binary.BigEndian.Uint64(buf[:]), 36)
	for len(s) < suffixLen {
		s = "0" + s
	}
	return s[:suffixLen]
}
