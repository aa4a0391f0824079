package monitor

import "time"

// ProgressEvent describes the state of a job after one batch commits.
type ProgressEvent struct {
	Timestamp   time.Time
	SourceName  string
	ChunkIndex  int
	ChunkTotal  int
	BatchChunks int
	Elapsed     time.Duration
}

// Monitor receives batch progress as the processor advances.
type Monitor interface {
	Start() error
	Stop() error

	// OnProgress is called after every committed batch.
	OnProgress(ev ProgressEvent)
}
