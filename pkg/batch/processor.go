package batch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"textflux/pkg/chunker"
	"textflux/pkg/config"
	"textflux/pkg/faults"
	"textflux/pkg/llm"
	"textflux/pkg/monitor"
	"textflux/pkg/options"
	"textflux/pkg/progress"
)

// BatchResult is yielded to the consumer after each committed batch.
type BatchResult struct {
	// Results are the chunk outputs of this batch, in source order.
	Results []string
	// ChunkIndex is the index of the next chunk to process.
	ChunkIndex int
}

// ProcessorConfig wires a processor together.
type ProcessorConfig struct {
	Job      *SourceJob
	Opts     *options.Options
	System   *config.SystemConfig
	StateDir string
	Store    *progress.Store

	Interrupt *Interrupt
	Monitor   monitor.Monitor
	// Verbose receives streamed fragments live. Only honored with
	// parallel=1; interleaved streams are useless to a terminal.
	Verbose func(string)
}

// Processor drives a SourceJob through the endpoint in paced, parallel,
// retried batches. The state machine runs in a single producer goroutine;
// consumers drain the results channel.
type Processor struct {
	job       *SourceJob
	opts      *options.Options
	sys       *config.SystemConfig
	stateDir  string
	store     *progress.Store
	interrupt *Interrupt
	mon       monitor.Monitor
	verbose   func(string)

	// backoff computes the retry wait; replaceable in tests.
	backoff func(attempt int, configuredDelayMs float64) time.Duration

	client *llm.Client
}

func NewProcessor(cfg ProcessorConfig) *Processor {
	interrupt := cfg.Interrupt
	if interrupt == nil {
		interrupt = NewInterrupt()
	}
	return &Processor{
		job:       cfg.Job,
		opts:      cfg.Opts,
		sys:       cfg.System,
		stateDir:  cfg.StateDir,
		store:     cfg.Store,
		interrupt: interrupt,
		mon:       cfg.Monitor,
		verbose:   cfg.Verbose,
		backoff:   backoffDelay,
	}
}

// Run starts the producer goroutine. The results channel is closed when
// the job ends; the error channel then carries exactly one value, nil on
// success.
func (p *Processor) Run(ctx context.Context) (<-chan BatchResult, <-chan error) {
	results := make(chan BatchResult)
	errCh := make(chan error, 1)
	go func() {
		defer close(results)
		errCh <- p.run(ctx, results)
	}()
	return results, errCh
}

func (p *Processor) run(ctx context.Context, results chan<- BatchResult) error {
	lock, err := progress.AcquireLock(p.stateDir, p.job.Fingerprint)
	if err != nil {
		return err
	}
	defer lock.Release()

	if err := p.loadOrSeed(); err != nil {
		return err
	}

	timeoutMin := p.opts.TimeoutMinutes
	if timeoutMin <= 0 {
		timeoutMin = float64(p.sys.TimeoutMinutes)
	}
	client, err := llm.NewClient(llm.ClientConfig{
		Options:          p.opts,
		Timeout:          time.Duration(timeoutMin * float64(time.Minute)),
		DisableKeepAlive: p.sys.DisableKeepAlive,
		DebugChunks:      p.sys.DebugChunks,
	})
	if err != nil {
		return err
	}
	p.client = client

	slog.Info("Job started",
		"source", p.job.SourcePath,
		"fingerprint", p.job.Fingerprint,
		"chunks", len(p.job.Chunks),
		"from", p.job.ChunkIndex,
		"resumed", p.job.Resumed,
		"dialect", client.Dialect(),
	)

	var lastBatchStart time.Time
	for !p.job.Complete() {
		if p.interrupt.Phase() != InterruptNone {
			return faults.New(faults.KindAborted, "processing interrupted, progress saved")
		}
		if ctx.Err() != nil {
			return faults.Wrap(faults.KindAborted, context.Cause(ctx), "processing aborted")
		}

		if !lastBatchStart.IsZero() {
			pause := time.Duration(p.opts.DelayMs)*time.Millisecond - time.Since(lastBatchStart)
			if pause > 0 {
				if err := p.pace(ctx, pause); err != nil {
					return err
				}
				continue // re-check interrupt before dispatching
			}
		}
		lastBatchStart = time.Now()

		outs, err := p.runBatch(ctx)
		if err != nil {
			return err
		}

		batchSize := len(outs)
		p.job.ChunkIndex += batchSize
		if err := p.store.Save(p.job.Fingerprint, p.record(), strings.Join(outs, "\n\n"), p.job.TargetPath); err != nil {
			p.job.ChunkIndex -= batchSize
			return err
		}

		if p.mon != nil {
			p.mon.OnProgress(monitor.ProgressEvent{
				Timestamp:   time.Now(),
				SourceName:  filepath.Base(p.job.SourcePath),
				ChunkIndex:  p.job.ChunkIndex,
				ChunkTotal:  len(p.job.Chunks),
				BatchChunks: batchSize,
				Elapsed:     time.Since(lastBatchStart),
			})
		}

		select {
		case results <- BatchResult{Results: outs, ChunkIndex: p.job.ChunkIndex}:
		case <-ctx.Done():
			return faults.Wrap(faults.KindAborted, context.Cause(ctx), "processing aborted")
		}
	}

	slog.Info("Job complete", "source", p.job.SourcePath, "chunks", len(p.job.Chunks))
	return nil
}

// loadOrSeed consults the progress record. A record wins wholesale over
// the supplied options so a resumed job replays the original
// configuration; a fresh job must not clobber an existing target.
func (p *Processor) loadOrSeed() error {
	if rec := p.store.Load(p.job.Fingerprint); rec != nil {
		p.opts = &rec.Options
		p.job.Chunks = chunker.Split(p.job.Text, p.opts.ChunkSize)
		p.job.ChunkIndex = rec.ChunkIndex
		if p.job.ChunkIndex > len(p.job.Chunks) {
			p.job.ChunkIndex = len(p.job.Chunks)
		}
		p.job.Resumed = true
		if p.job.Complete() {
			return faults.New(faults.KindAlreadyComplete,
				"source already fully processed: %s", p.job.SourcePath)
		}
		return nil
	}

	if info, err := os.Stat(p.job.TargetPath); err == nil && info.Size() > 0 {
		return faults.New(faults.KindTargetExists,
			"target exists and no progress record matches it: %s", p.job.TargetPath)
	}
	p.job.Chunks = chunker.Split(p.job.Text, p.opts.ChunkSize)
	p.job.ChunkIndex = 0
	return nil
}

// runBatch dispatches the next batchSize chunks with bounded parallelism
// and collects results in chunk order. Any terminal failure cancels the
// group, so in-flight siblings unwind.
func (p *Processor) runBatch(ctx context.Context) ([]string, error) {
	end := p.job.ChunkIndex + p.opts.BatchSize
	if end > len(p.job.Chunks) {
		end = len(p.job.Chunks)
	}
	chunks := p.job.Chunks[p.job.ChunkIndex:end]
	outs := make([]string, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Parallel)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			out, err := p.callChunk(gctx, chunk)
			if err != nil {
				return err
			}
			outs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outs, nil
}

// callChunk runs the per-chunk retry loop: exponential backoff with
// jitter, temperature escalation from the third failed attempt, exactly
// MaxAttempts calls before giving up. Cancellation is surfaced as-is,
// never retried.
func (p *Processor) callChunk(ctx context.Context, chunk string) (string, error) {
	messages := p.buildMessages(chunk)

	temp := defaultTemperature
	if v, ok := p.opts.Temperature.Get(); ok {
		temp = v
	}

	verbose := p.verbose
	if p.opts.Parallel > 1 {
		verbose = nil
	}

	var override *float64
	for attempt := 1; ; attempt++ {
		out, err := p.client.Complete(ctx, messages, llm.CallOptions{
			Verbose:             verbose,
			TemperatureOverride: override,
		})
		if err == nil {
			return out, nil
		}
		if faults.Is(err, faults.KindAborted) || ctx.Err() != nil {
			return "", err
		}
		if attempt >= p.opts.MaxAttempts {
			slog.Error("Chunk failed permanently", "attempts", attempt, "error", err)
			return "", err
		}

		wait := p.backoff(attempt, p.opts.DelayMs)
		temp = nextTemperature(attempt, temp, p.opts.TempIncrement)
		t := temp
		override = &t

		slog.Warn("Chunk attempt failed, retrying",
			"attempt", attempt,
			"max", p.opts.MaxAttempts,
			"wait", wait,
			"next_temperature", temp,
			"error", err,
		)
		if err := sleepCtx(ctx, wait); err != nil {
			return "", err
		}
	}
}

// buildMessages assembles the outgoing conversation for one chunk: the
// optional system and prepend prompts, then the chunk itself with any
// configured images attached. Prefill stays an options concern; the
// strategies append it.
func (p *Processor) buildMessages(chunk string) []llm.Message {
	var msgs []llm.Message
	if sp := p.opts.SystemPrompt; sp.Enabled {
		msgs = append(msgs, llm.NewTextMessage(sp.Role, sp.Text))
	}
	if pp := p.opts.PrependPrompt; pp.Enabled {
		msgs = append(msgs, llm.NewTextMessage(pp.Role, pp.Text))
	}

	parts := []llm.Part{llm.NewTextPart(chunk)}
	for _, img := range p.opts.Images {
		parts = append(parts, llm.NewImagePart(img))
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Parts: parts})
	return msgs
}

func (p *Processor) record() *progress.Record {
	return &progress.Record{
		FileName:   filepath.Base(p.job.SourcePath),
		ChunkIndex: p.job.ChunkIndex,
		Options:    *p.opts,
	}
}

// pace sleeps the inter-batch gap; a graceful stop request ends the sleep
// early so the loop can notice it.
func (p *Processor) pace(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-p.interrupt.RequestedC():
		return nil
	case <-ctx.Done():
		return faults.Wrap(faults.KindAborted, context.Cause(ctx), "processing aborted")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return faults.Wrap(faults.KindAborted, context.Cause(ctx), "retry wait aborted")
	}
}
