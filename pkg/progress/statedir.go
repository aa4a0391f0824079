package progress

import (
	"os"
	"path/filepath"
)

const appDirName = "textflux"

// StateDir resolves the directory holding progress records and lock files,
// creating it if needed. An explicit override wins; otherwise the
// per-user config directory is used.
func StateDir(override string) (string, error) {
	dir := override
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(base, appDirName)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// ModelsDir resolves the tokenizer definition directory under the state
// directory, creating it if needed.
func ModelsDir(override string) (string, error) {
	dir, err := StateDir(override)
	if err != nil {
		return "", err
	}
	models := filepath.Join(dir, "models")
	if err := os.MkdirAll(models, 0755); err != nil {
		return "", err
	}
	return models, nil
}
