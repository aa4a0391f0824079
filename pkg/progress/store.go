package progress

import (
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"textflux/pkg/faults"
	"textflux/pkg/options"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Record is the persisted job state. The embedded options flatten into the
// same JSON object, so the record alone reconstructs the full configuration
// of a resumed job; freshly supplied options are ignored on resume.
type Record struct {
	FileName   string `json:"fileName"`
	ChunkIndex int    `json:"chunkIndex"`
	options.Options
}

// Store reads and writes progress records keyed by fingerprint under one
// state directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) recordPath(fingerprint string) string {
	return filepath.Join(s.dir, fingerprint+".json")
}

// Load returns the record for the fingerprint, or nil when the file is
// missing or does not parse. A corrupt record means a fresh start, not a
// fatal error.
func (s *Store) Load(fingerprint string) *Record {
	raw, err := os.ReadFile(s.recordPath(fingerprint))
	if err != nil {
		return nil
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil
	}
	return &rec
}

// Save commits one batch: append pendingBatch to the target file, then
// write the record. The order matters. A crash between the two leaves the
// record behind the file, and the rerun re-does the last batch; the
// inverse order would silently lose output.
func (s *Store) Save(fingerprint string, rec *Record, pendingBatch, targetPath string) error {
	if pendingBatch != "" {
		if err := appendWithSeparator(targetPath, pendingBatch); err != nil {
			return err
		}
	}

	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.recordPath(fingerprint), raw, 0644)
}

// Delete removes the record. A missing record is reported with a distinct
// kind so callers can tell "nothing to clear" from an IO failure.
func (s *Store) Delete(fingerprint string) error {
	err := os.Remove(s.recordPath(fingerprint))
	if os.IsNotExist(err) {
		return faults.Wrap(faults.KindNotFound, err, "no progress record for %s", fingerprint)
	}
	return err
}

// appendWithSeparator appends content to the target, prefixed by whatever
// separator makes the new content sit exactly one blank line after the
// existing bytes. The target's last two bytes decide: already blank-line
// terminated needs nothing, a single trailing LF needs one more, anything
// else needs both.
func appendWithSeparator(targetPath, content string) error {
	sep, err := separatorFor(targetPath)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(targetPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(sep + content); err != nil {
		return err
	}
	return f.Sync()
}

func separatorFor(targetPath string) (string, error) {
	info, err := os.Stat(targetPath)
	if os.IsNotExist(err) || (err == nil && info.Size() == 0) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	f, err := os.Open(targetPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	tail := make([]byte, 2)
	offset := info.Size() - 2
	if offset < 0 {
		offset = 0
		tail = tail[:info.Size()]
	}
	if _, err := f.ReadAt(tail, offset); err != nil {
		return "", err
	}

	switch {
	case len(tail) == 2 && tail[0] == '\n' && tail[1] == '\n':
		return "", nil
	case tail[len(tail)-1] == '\n':
		return "\n", nil
	default:
		return "\n\n", nil
	}
}
