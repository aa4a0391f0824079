// Package progress owns the resumable job state: the content fingerprint,
// the persisted progress record, the append-only target writer, and the
// single-writer lock file.
package progress

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Normalize canonicalizes source text before hashing: CRLF and bare CR
// become LF, and trailing newlines are stripped. Two sources that differ
// only in line-ending convention or a final newline map to the same job.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.TrimRight(text, "\n")
}

// Fingerprint hashes the normalized text into the job key used for the
// record, lock, and target bookkeeping.
func Fingerprint(text string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(Normalize(text)))
}
