package utils

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"sync/atomic"
	"time"
)

var runIDCounter uint32

// GenerateRunID generates a 12-byte ObjectID-like string (24 hex characters)
// used to tag one engine run in logs and debug dump file names.
func GenerateRunID() string {
	var b [12]byte
	binary.BigEndian.PutUint32(b[0:4], uint32(time.Now().Unix()))
	_, _ = rand.Read(b[4:9])
	c := atomic.AddUint32(&runIDCounter, 1) % 0xFFFFFF
	b[9] = byte(c >> 16)
	b[10] = byte(c >> 8)
	b[11] = byte(c)
	return hex.EncodeToString(b[:])
}

// TimestampPrefix returns an 8-char hex timestamp followed by an underscore.
// Example: "65cfda3f_". Debug dump files sort chronologically by name.
func TimestampPrefix() string {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(time.Now().Unix()))
	return hex.EncodeToString(b) + "_"
}
