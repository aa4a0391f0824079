package tokenizer

import (
	"os"
	"path/filepath"
	"sync"

	"textflux/pkg/faults"
)

// Artifacts is the pair of serialized buffers for one tokenizer name.
// Loaded once, shared read-only with every pool worker.
type Artifacts struct {
	Name       string
	Definition []byte
	Config     []byte
}

// Loader reads tokenizer artifacts from a models directory and memoizes
// the raw buffers per name.
type Loader struct {
	dir string

	mu    sync.Mutex
	cache map[string]*Artifacts
}

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir, cache: make(map[string]*Artifacts)}
}

// Load returns the serialized artifacts for name, reading
// <name>.json and <name>_config.json on first use. The config file is
// optional; the definition is not.
func (l *Loader) Load(name string) (*Artifacts, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if a, ok := l.cache[name]; ok {
		return a, nil
	}

	defRaw, err := os.ReadFile(filepath.Join(l.dir, name+".json"))
	if os.IsNotExist(err) {
		return nil, faults.New(faults.KindTokenizerNotFound, "no tokenizer named %q in %s", name, l.dir)
	}
	if err != nil {
		return nil, err
	}

	cfgRaw, err := os.ReadFile(filepath.Join(l.dir, name+"_config.json"))
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	a := &Artifacts{Name: name, Definition: defRaw, Config: cfgRaw}
	l.cache[name] = a
	return a, nil
}
