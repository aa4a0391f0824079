package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	jsoniter "github.com/json-iterator/go"

	"textflux/pkg/batch"
	"textflux/pkg/config"
	"textflux/pkg/faults"
	_ "textflux/pkg/llm/autoload" // register dialect strategies
	"textflux/pkg/monitor"
	"textflux/pkg/options"
	"textflux/pkg/progress"
	"textflux/pkg/tokenizer"
	"textflux/pkg/tokenizer/pool"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	os.Exit(run())
}

func run() int {
	var (
		optionsPath = flag.String("options", "", "path to a JSON options file")
		targetPath  = flag.String("target", "", "target file (default: <source>.out)")
		configPath  = flag.String("config", "system.json", "engine config file")
		countWith   = flag.String("count", "", "count tokens with the named tokenizer instead of processing")
		quiet       = flag.Bool("quiet", false, "suppress live response streaming")
		clear       = flag.Bool("clear", false, "delete the progress record for the source and exit")
	)
	flag.Parse()

	source := flag.Arg(0)
	if source == "" {
		fmt.Fprintln(os.Stderr, "usage: textflux [flags] <source file>")
		flag.PrintDefaults()
		return 1
	}

	sys := config.LoadSystemConfig(*configPath)
	monitor.SetupSlog(sys.LogLevel)

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	// Log level follows config edits while a long job runs.
	events := config.WatchConfig(ctx, *configPath)
	go func() {
		for range events {
			sys := config.LoadSystemConfig(*configPath)
			monitor.SetupSlog(sys.LogLevel)
			slog.Info("Config reloaded", "log_level", sys.LogLevel)
		}
	}()

	if *countWith != "" {
		return runCount(ctx, sys, *countWith, source)
	}

	opts := options.Defaults()
	if *optionsPath != "" {
		raw, err := readOptionsFile(*optionsPath)
		if err != nil {
			return fail(err, sys)
		}
		opts, err = options.Resolve(raw)
		if err != nil {
			return fail(err, sys)
		}
	}

	stateDir, err := progress.StateDir(sys.StateDir)
	if err != nil {
		return fail(err, sys)
	}
	store := progress.NewStore(stateDir)

	job, err := batch.NewSourceJob(source, *targetPath)
	if err != nil {
		return fail(err, sys)
	}

	if *clear {
		if err := store.Delete(job.Fingerprint); err != nil {
			return fail(err, sys)
		}
		fmt.Println("Progress record cleared.")
		return 0
	}

	interrupt := batch.NewInterrupt()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		for range sigs {
			switch interrupt.Signal() {
			case batch.InterruptRequested:
				fmt.Fprintln(os.Stderr, "\nStopping after the current batch saves. Press Ctrl-C again to quit without saving.")
			case batch.InterruptForceful:
				fmt.Fprintln(os.Stderr, "\nQuitting without saving.")
				cancel(faults.New(faults.KindAborted, "forceful interrupt"))
			}
		}
	}()

	mon := monitor.NewCLIMonitor()
	if err := mon.Start(); err != nil {
		return fail(err, sys)
	}
	defer mon.Stop()

	var verbose func(string)
	if !*quiet && opts.Parallel == 1 {
		verbose = func(fragment string) { fmt.Print(fragment) }
	}

	proc := batch.NewProcessor(batch.ProcessorConfig{
		Job:       job,
		Opts:      opts,
		System:    sys,
		StateDir:  stateDir,
		Store:     store,
		Interrupt: interrupt,
		Monitor:   mon,
		Verbose:   verbose,
	})

	results, errCh := proc.Run(ctx)
	for range results {
		if verbose != nil {
			fmt.Println()
		}
	}

	return finish(<-errCh, interrupt, sys)
}

// finish maps the processor's terminal error to an exit code. Only a nil
// error and an already-complete rerun exit 0; kindless errors (failed
// target append, client construction) are failures like any other.
func finish(err error, interrupt *batch.Interrupt, sys *config.SystemConfig) int {
	switch {
	case err == nil:
		fmt.Println("Done.")
		return 0
	case faults.Is(err, faults.KindAlreadyComplete):
		fmt.Println("Source already fully processed.")
		return 0
	case faults.Is(err, faults.KindAborted):
		if interrupt.Phase() == batch.InterruptRequested {
			fmt.Fprintln(os.Stderr, "Interrupted; progress saved. Rerun to resume.")
		}
		return 1
	default:
		return fail(err, sys)
	}
}

// runCount counts the tokens of the source file with a named tokenizer,
// spreading the lines over the worker pool.
func runCount(ctx context.Context, sys *config.SystemConfig, name, source string) int {
	raw, err := os.ReadFile(source)
	if err != nil {
		return fail(err, sys)
	}

	modelsDir, err := progress.ModelsDir(sys.StateDir)
	if err != nil {
		return fail(err, sys)
	}
	artifacts, err := tokenizer.NewLoader(modelsDir).Load(name)
	if err != nil {
		return fail(err, sys)
	}

	p := pool.Get()
	defer p.Shutdown()

	lines := strings.Split(strings.TrimSuffix(string(raw), "\n"), "\n")
	counts, err := p.Count(ctx, artifacts, lines, true)
	if err != nil {
		return fail(err, sys)
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	fmt.Printf("%s: %d tokens (%d lines, tokenizer %s)\n", source, total, len(lines), name)
	return 0
}

func readOptionsFile(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("options file %s: %w", path, err)
	}
	return m, nil
}

func fail(err error, sys *config.SystemConfig) int {
	fmt.Fprintln(os.Stderr, "Error:", err)
	var fe *faults.Error
	if errors.As(err, &fe) && fe.Cause != nil {
		fmt.Fprintln(os.Stderr, "Cause:", fe.Cause)
	}
	if sys != nil && sys.LogLevel == "debug" {
		slog.Debug("Terminal failure", "error", err)
	}
	return 1
}
