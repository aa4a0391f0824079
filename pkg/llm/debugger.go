package llm

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"textflux/pkg/utils"
)

// StreamDebugger handles the creation and writing of debug logs for LLM
// streams. It centralizes the logic for directory creation, file naming,
// and safe writing. One debugger per request; raw SSE event payloads are
// appended line by line.
type StreamDebugger struct {
	file    *os.File
	enabled bool
}

// NewStreamDebugger creates a new debugger instance. It attempts to open
// the debug file immediately if enabled.
func NewStreamDebugger(dialect string, enabled bool) *StreamDebugger {
	if !enabled {
		return &StreamDebugger{enabled: false}
	}

	debugDir := filepath.Join("debug", "chunks", dialect)
	if err := os.MkdirAll(debugDir, 0755); err != nil {
		slog.Error("Failed to create debug directory", "dir", debugDir, "error", err)
		return &StreamDebugger{enabled: false}
	}

	filename := filepath.Join(debugDir, fmt.Sprintf("%s%s.log", utils.TimestampPrefix(), utils.GenerateRunID()))

	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		slog.Error("Failed to open debug file", "file", filename, "error", err)
		return &StreamDebugger{enabled: false}
	}

	slog.Debug("Debug mode ON", "dialect", dialect, "file", filename)
	return &StreamDebugger{
		file:    f,
		enabled: true,
	}
}

// WriteString appends a string to the debug file if enabled.
func (d *StreamDebugger) WriteString(s string) {
	if !d.enabled || d.file == nil {
		return
	}
	if _, err := d.file.WriteString(s); err != nil {
		slog.Warn("Failed to write to debug file", "error", err)
	}
	d.file.WriteString("\n")
}

// Close closes the debug file handle.
func (d *StreamDebugger) Close() {
	if d.file != nil {
		d.file.Close()
		d.file = nil
	}
}
