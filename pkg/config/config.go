package config

import (
	"os"

	jsoniter "github.com/json-iterator/go"
)

// SystemConfig defines engine-level technical parameters.
// These settings are stored in system.json and control reliability and
// diagnostics rather than per-job behavior; per-job options travel in the
// progress record instead.
type SystemConfig struct {
	// TimeoutMinutes is the default per-request timer for LLM calls.
	// Hard wall-clock limit in quiet mode, idle limit in verbose mode.
	TimeoutMinutes int `json:"timeout_minutes"`
	// DisableKeepAlive adds "Connection: close" to every LLM request.
	DisableKeepAlive bool `json:"disable_keep_alive"`
	// DebugChunks enables saving every raw SSE frame to the /debug
	// folder for inspection and troubleshooting purposes. It also
	// unredacts the API key in request dumps.
	DebugChunks bool `json:"debug_chunks"`
	// LogLevel sets the minimum severity for log output.
	// Accepted values: "debug", "info", "warn", "error". Default: "info".
	LogLevel string `json:"log_level"`
	// StateDir overrides the platform application-data directory used
	// for progress records, lock files and tokenizer artifacts.
	StateDir string `json:"state_dir,omitempty"`
}

// DefaultSystemConfig returns a SystemConfig pointer initialized with
// hardcoded safe default values. This is used as a fallback when the
// system.json file is missing or corrupt, ensuring the engine can always start.
func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		TimeoutMinutes: 30,
		LogLevel:       "info",
	}
}

// LoadSystemConfig attempts to load system settings, returns defaults if it fails
func LoadSystemConfig(path string) *SystemConfig {
	cfg := DefaultSystemConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		return cfg // File not found, use defaults
	}

	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(file, cfg); err != nil {
		return cfg // Parse failed, use defaults
	}

	if cfg.TimeoutMinutes <= 0 {
		cfg.TimeoutMinutes = DefaultSystemConfig().TimeoutMinutes
	}

	return cfg
}
