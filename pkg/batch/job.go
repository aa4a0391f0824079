package batch

import (
	"os"
	"path/filepath"

	"textflux/pkg/faults"
	"textflux/pkg/progress"
)

// MaxSourceBytes bounds the source file size. The whole file is held in
// memory for the lifetime of the job.
const MaxSourceBytes = 100 << 20

// SourceJob is one source file being driven through the endpoint. Chunks
// and ChunkIndex are seeded by the processor once the progress record has
// been consulted; until then they are empty.
type SourceJob struct {
	SourcePath  string
	TargetPath  string
	Fingerprint string
	// Text is the normalized source (LF newlines, no trailing newline).
	Text       string
	Chunks     []string
	ChunkIndex int
	// Resumed is set when a progress record reconstructed this job.
	Resumed bool
}

// NewSourceJob reads and validates the source file and computes its
// fingerprint. An empty targetPath derives "<source>.out".
func NewSourceJob(sourcePath, targetPath string) (*SourceJob, error) {
	src, err := filepath.Abs(sourcePath)
	if err != nil {
		return nil, err
	}
	if targetPath == "" {
		targetPath = sourcePath + ".out"
	}
	tgt, err := filepath.Abs(targetPath)
	if err != nil {
		return nil, err
	}
	if src == tgt {
		return nil, faults.New(faults.KindSourceTargetSame,
			"source and target are the same file: %s", src)
	}

	info, err := os.Stat(src)
	if os.IsNotExist(err) {
		return nil, faults.Wrap(faults.KindNotFound, err, "source file not found: %s", src)
	}
	if err != nil {
		return nil, err
	}
	if info.Size() > MaxSourceBytes {
		return nil, faults.New(faults.KindFileTooLarge,
			"source is %d bytes, limit is %d", info.Size(), MaxSourceBytes)
	}

	raw, err := os.ReadFile(src)
	if err != nil {
		return nil, err
	}
	text := progress.Normalize(string(raw))
	if text == "" {
		return nil, faults.New(faults.KindEmptyFile, "source file is empty: %s", src)
	}

	return &SourceJob{
		SourcePath:  src,
		TargetPath:  tgt,
		Fingerprint: progress.Fingerprint(text),
		Text:        text,
	}, nil
}

// Complete reports whether every chunk has been processed.
func (j *SourceJob) Complete() bool {
	return len(j.Chunks) > 0 && j.ChunkIndex >= len(j.Chunks)
}
