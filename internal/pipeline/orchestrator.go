package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/stx-x/li-domain-checker/internal/generator"
	"github.com/stx-x/li-domain-checker/internal/models"
	"github.com/stx-x/li-domain-checker/internal/registry"
	"github.com/stx-x/li-domain-checker/internal/report"
	"github.com/stx-x/li-domain-checker/internal/scanner"
	"github.com/stx-x/li-domain-checker/internal/storage"
)

// StoreInterface is the minimal bbolt contract required by the orchestrator.
// Using an interface keeps the package testable without a real database.
type StoreInterface interface {
	ListScans(target string) ([]*models.ScanMeta, error)
	BeginRun(meta *models.ScanMeta, total int) error
	FinishRun(id string, status models.ScanStatus, p storage.RunProgress) (*models.ScanMeta, error)
}

// RunConfig controls how Run behaves for a single scan.
type RunConfig struct {
	// Mode selects the candidates. Together with TLD it forms the scan target
	// used to find resumable scans.
	Mode generator.ScanMode
	TLD  string

	// OutputDir is the base directory new scan directories are created in.
	OutputDir string

	// ScanDir is the directory to use for all scan I/O.
	// If empty, a new directory is created via storage.CreateScanDir, unless
	// Resume finds an unfinished scan to continue.
	ScanDir string

	// Resume continues the most recent unfinished scan for the same target.
	Resume bool

	// RetryErrors re-resolves names that earlier runs recorded as errors.
	RetryErrors bool

	Scheduler scanner.Options

	// ProgressInterval is the period of OnProgress calls.
	ProgressInterval time.Duration

	// OnProgress receives periodic snapshots and a final one.
	OnProgress func(scanner.Snapshot)

	// OnResult is called after each result is persisted.
	OnResult func(models.Result)

	// Out receives operator messages. Defaults to os.Stdout.
	Out    io.Writer
	Logger *slog.Logger
}

// RunResult summarises what happened after Run returns.
type RunResult struct {
	// Target is the mode key the scan is recorded under.
	Target  string
	ScanDir string
	ScanID  string
	Resumed bool

	// State holds the counters of this run only.
	State scanner.ScanState

	// Load describes what was recovered from earlier runs.
	Load storage.LoadStats

	// ListedTotal is the size of the available list across all runs.
	ListedTotal int

	Elapsed time.Duration
	Status  models.ScanStatus
}

// Run executes one scan.
//
// Scan directory selection:
//   - cfg.ScanDir, when set, is used as is (and continued if it already holds
//     results).
//   - cfg.Resume reuses the newest unfinished scan recorded for the target.
//   - Otherwise a fresh timestamped directory is created under OutputDir.
//
// The bbolt record is set to StatusRunning before the first lookup and to
// StatusComplete, StatusInterrupted or StatusFailed afterwards. The summary
// report is written in every case. The returned error is nil only for a
// complete scan; a non-nil *RunResult accompanies interrupted and failed runs.
func Run(ctx context.Context, cfg RunConfig, checker registry.Checker, store StoreInterface) (*RunResult, error) {
	// ── 1. Validate required inputs ───────────────────────────────────────────
	if cfg.TLD == "" {
		return nil, fmt.Errorf("pipeline: TLD is required")
	}
	if checker == nil {
		return nil, fmt.Errorf("pipeline: checker must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("pipeline: store must not be nil")
	}
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	target := cfg.Mode.Key(cfg.TLD)
	startedAt := time.Now()

	// ── 2. Resume: find a prior scan for this target ──────────────────────────
	var meta *models.ScanMeta
	if cfg.Resume || cfg.ScanDir != "" {
		prior, err := findResumableScan(store, target, cfg.ScanDir)
		if err != nil {
			// Non-fatal: treat as a fresh run with a warning.
			fmt.Fprintf(out, "[!] Warning: resume lookup failed (%v), starting fresh\n", err)
		} else if prior != nil {
			meta = prior
		}
	}

	// ── 3. Resolve or create the scan directory ───────────────────────────────
	scanDir := cfg.ScanDir
	switch {
	case scanDir != "":
		if err := storage.EnsureScanLayout(scanDir); err != nil {
			return nil, fmt.Errorf("pipeline: preparing scan directory: %w", err)
		}
	case meta != nil:
		scanDir = meta.ScanDir
		if err := storage.EnsureScanLayout(scanDir); err != nil {
			return nil, fmt.Errorf("pipeline: preparing scan directory: %w", err)
		}
	default:
		if cfg.OutputDir == "" {
			return nil, fmt.Errorf("pipeline: OutputDir is required")
		}
		var err error
		scanDir, err = storage.CreateScanDir(cfg.OutputDir, target, startedAt)
		if err != nil {
			return nil, fmt.Errorf("pipeline: creating scan directory: %w", err)
		}
		fmt.Fprintf(out, "[*] Created scan directory: %s\n", scanDir)
	}

	// ── 4. Create or reuse the bbolt scan record ──────────────────────────────
	total := generator.Count(cfg.Mode)
	resumed := meta != nil
	if meta == nil {
		meta = models.NewScan(target, cfg.Mode.String())
		meta.ScanDir = scanDir
	} else {
		fmt.Fprintf(out, "[*] Resuming scan %s (run #%d)\n", meta.ID, meta.Runs+1)
	}
	if err := store.BeginRun(meta, total); err != nil {
		return nil, fmt.Errorf("pipeline: saving scan record: %w", err)
	}
	fmt.Fprintf(out, "[*] Scan ID: %s\n", meta.ID)

	// ── 5. Open the progress store ────────────────────────────────────────────
	results, err := storage.OpenResultLog(filepath.Join(scanDir, storage.ResultsFile), storage.ResultLogOptions{
		RetryErrors: cfg.RetryErrors,
		Logger:      logger,
	})
	if err != nil {
		markFailed(store, meta, out)
		return nil, fmt.Errorf("pipeline: opening result file: %w", err)
	}
	load := results.Stats()
	if load.Truncated {
		fmt.Fprintf(out, "[!] Warning: discarded %d bytes of malformed data at the end of %s\n",
			load.DiscardedBytes, storage.ResultsFile)
	}
	if load.Records > 0 {
		fmt.Fprintf(out, "[*] %d of %d candidates already resolved\n", load.Records, total)
	}

	available, err := storage.OpenAvailableList(filepath.Join(scanDir, storage.AvailableFile))
	if err != nil {
		results.Close()
		markFailed(store, meta, out)
		return nil, fmt.Errorf("pipeline: opening available list: %w", err)
	}

	// ── 6. Run the scheduler ──────────────────────────────────────────────────
	agg := scanner.NewAggregator(total, results, available, scanner.AggregatorOptions{OnResult: cfg.OnResult})

	reportCtx, stopReporter := context.WithCancel(context.Background())
	reporterDone := make(chan struct{})
	go func() {
		defer close(reporterDone)
		scanner.NewReporter(agg, cfg.ProgressInterval, cfg.OnProgress).Run(reportCtx)
	}()

	schedOpts := cfg.Scheduler
	schedOpts.TLD = cfg.TLD
	if schedOpts.Logger == nil {
		schedOpts.Logger = logger
	}
	runErr := scanner.NewScheduler(checker, schedOpts).Run(ctx, generator.NewGenerator(cfg.Mode), results, agg)

	stopReporter()
	<-reporterDone

	// ── 7. Flush files and determine final status ─────────────────────────────
	if err := results.Close(); err != nil && runErr == nil {
		runErr = &scanner.PersistenceError{Op: "closing result file", Err: err}
	}
	listed := available.Len()
	if err := available.Close(); err != nil && runErr == nil {
		runErr = &scanner.PersistenceError{Op: "closing available list", Err: err}
	}

	state := agg.State()
	result := &RunResult{
		Target:      target,
		ScanDir:     scanDir,
		ScanID:      meta.ID,
		Resumed:     resumed,
		State:       state,
		Load:        load,
		ListedTotal: listed,
		Elapsed:     time.Since(startedAt),
		Status:      resolveFinalStatus(runErr),
	}

	progress := storage.RunProgress{
		Processed: state.Skipped + state.Processed,
		Available: listed,
		Errors:    state.Errors,
	}
	if final, err := store.FinishRun(meta.ID, result.Status, progress); err != nil {
		fmt.Fprintf(out, "[!] Warning: could not update final scan status: %v\n", err)
		meta.Processed, meta.Available, meta.Errors = progress.Processed, progress.Available, progress.Errors
		meta.Status = result.Status
	} else {
		meta = final
	}

	// ── 8. Summary report ─────────────────────────────────────────────────────
	summaryPath := filepath.Join(scanDir, storage.SummaryFile)
	summary := report.Summary{
		Scan:        meta,
		ModeLabel:   cfg.Mode.String(),
		State:       state,
		Load:        load,
		Elapsed:     result.Elapsed,
		ListedTotal: listed,
	}
	if result.Status == models.StatusFailed {
		summary.Err = runErr
	}
	if err := report.WriteSummary(summary, summaryPath); err != nil {
		fmt.Fprintf(out, "[!] Warning: could not write summary: %v\n", err)
	}

	fmt.Fprintf(out, "[*] Scan finished in %s, status: %s\n",
		result.Elapsed.Round(time.Millisecond), result.Status)

	if runErr != nil {
		return result, fmt.Errorf("pipeline: %w", runErr)
	}
	return result, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// findResumableScan returns the scan for target recorded in scanDir, or when
// scanDir is empty the newest scan that did not complete.
// Returns nil (not an error) when no such scan exists.
func findResumableScan(store StoreInterface, target, scanDir string) (*models.ScanMeta, error) {
	scans, err := store.ListScans(target)
	if err != nil {
		return nil, fmt.Errorf("listing scans for %q: %w", target, err)
	}

	// An explicit directory only matches its own record.
	if scanDir != "" {
		for _, scan := range scans {
			if filepath.Clean(scan.ScanDir) == filepath.Clean(scanDir) {
				return scan, nil
			}
		}
		return nil, nil
	}

	// ListScans returns newest first.
	for _, scan := range scans {
		if scan.Status != models.StatusComplete {
			return scan, nil
		}
	}
	return nil, nil
}

// resolveFinalStatus maps the scheduler outcome to the bbolt ScanStatus.
func resolveFinalStatus(runErr error) models.ScanStatus {
	switch {
	case runErr == nil:
		return models.StatusComplete
	case errors.Is(runErr, scanner.ErrInterrupted):
		return models.StatusInterrupted
	default:
		return models.StatusFailed
	}
}

func markFailed(store StoreInterface, meta *models.ScanMeta, out io.Writer) {
	progress := storage.RunProgress{Processed: meta.Processed, Available: meta.Available, Errors: meta.Errors}
	if _, err := store.FinishRun(meta.ID, models.StatusFailed, progress); err != nil {
		fmt.Fprintf(out, "[!] Warning: could not update scan status: %v\n", err)
	}
}
