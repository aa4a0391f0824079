package progress

import (
	"os"
	"path/filepath"

	"textflux/pkg/faults"
)

// Lock is the per-job exclusivity sentinel. Holding the file means owning
// the job; there is no staleness detection, an orphan from a crash must be
// removed by hand.
type Lock struct {
	path string
}

// AcquireLock creates <fingerprint>.lock with exclusive-create semantics.
// An existing lock means another run owns this source.
func AcquireLock(dir, fingerprint string) (*Lock, error) {
	path := filepath.Join(dir, fingerprint+".lock")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if os.IsExist(err) {
		return nil, faults.New(faults.KindAnotherInstance,
			"another instance is processing this source (lock: %s)", path)
	}
	if err != nil {
		return nil, err
	}
	f.Close()
	return &Lock{path: path}, nil
}

// Release removes the lock file. Safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	err := os.Remove(l.path)
	l.path = ""
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
