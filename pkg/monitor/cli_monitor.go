package monitor

import (
	"fmt"
	"io"
	"os"
	"time"
)

// CLIMonitor implements the Monitor interface, printing a line per
// committed batch so long runs stay observable from the terminal.
type CLIMonitor struct {
	writer io.Writer // The output destination, typically os.Stdout.
}

// NewCLIMonitor creates a new CLI monitor
func NewCLIMonitor() *CLIMonitor {
	return &CLIMonitor{
		writer: os.Stdout,
	}
}

// Start starts the CLI monitor
func (m *CLIMonitor) Start() error {
	fmt.Fprintln(m.writer, "----------------------------------------------------------------")
	fmt.Fprintln(m.writer, "Batch progress will appear here")
	fmt.Fprintln(m.writer, "----------------------------------------------------------------")
	return nil
}

// Stop stops the CLI monitor
func (m *CLIMonitor) Stop() error {
	return nil
}

// OnProgress prints one line per committed batch.
func (m *CLIMonitor) OnProgress(ev ProgressEvent) {
	timestamp := ev.Timestamp.Format("2006-01-02 15:04:05")

	// Use gray color for timestamp
	fmt.Fprintf(m.writer, "\033[90m[%s]\033[0m %s: chunk %d/%d (+%d in %s)\n",
		timestamp, ev.SourceName, ev.ChunkIndex, ev.ChunkTotal, ev.BatchChunks, ev.Elapsed.Round(10*time.Millisecond))
}
