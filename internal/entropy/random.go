// Package entropy supplies seeds for runs that do not fix one.
// A run is reproducible only from its seed, so a drawn seed is always
// reported back to the caller for logging and archiving.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// Seed returns a non-zero random seed from crypto/rand. If the system
// source fails it falls back to the wall clock.
func Seed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return nonZero(time.Now().UnixNano())
	}
	// Clear the sign bit so seeds print as positive numbers.
	return nonZero(int64(binary.LittleEndian.Uint64(buf[:]) >> 1))
}

// Resolve returns seed unchanged when it is non-zero, and a fresh Seed otherwise.
// drawn reports whether a new seed was generated.
func Resolve(seed int64) (resolved int64, drawn bool) {
	if seed != 0 {
		return seed, false
	}
	return Seed(), true
}

func nonZero(v int64) int64 {
	if v == 0 {
		return 1
	}
	return v
}
