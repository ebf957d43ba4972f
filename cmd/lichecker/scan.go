package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stx-x/li-domain-checker/internal/generator"
	"github.com/stx-x/li-domain-checker/internal/metrics"
	"github.com/stx-x/li-domain-checker/internal/models"
	"github.com/stx-x/li-domain-checker/internal/pipeline"
	"github.com/stx-x/li-domain-checker/internal/registry"
	"github.com/stx-x/li-domain-checker/internal/scanner"
	"github.com/stx-x/li-domain-checker/internal/storage"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan short labels for availability",
	Long: `Enumerate candidate labels and query the registry for each one.

Normal mode covers every label of 1-3 characters plus 4-character repetition
patterns (aaaa, aaab, abab, ...). --full-scan covers every 4-character label.

Results are saved to:
  {output_dir}/{mode}_{timestamp}/available_domains.txt
  {output_dir}/{mode}_{timestamp}/raw/results.jsonl
  {output_dir}/{mode}_{timestamp}/reports/summary.md

Ctrl-C stops dispatching new lookups; the scan is recorded as interrupted and
--resume continues it later without querying any name twice.

Examples:
  lichecker scan
  lichecker scan --letters-only -w 20 -D 0.5
  lichecker scan --full-scan --yes
  lichecker scan --resume`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	// ── 1. Read flags and apply them over the config ──────────────────────────
	if cmd.Flags().Changed("workers") {
		cfg.Scan.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("delay") {
		seconds, _ := cmd.Flags().GetFloat64("delay")
		cfg.Scan.Delay = time.Duration(seconds * float64(time.Second)).String()
	}
	if cmd.Flags().Changed("output") {
		cfg.OutputDir, _ = cmd.Flags().GetString("output")
	}
	if cmd.Flags().Changed("retry-errors") {
		cfg.Scan.RetryErrors, _ = cmd.Flags().GetBool("retry-errors")
	}
	if cmd.Flags().Changed("metrics-port") {
		cfg.Metrics.Port, _ = cmd.Flags().GetInt("metrics-port")
	}
	if cmd.Flags().Changed("notify-webhook") {
		cfg.Notify.WebhookURL, _ = cmd.Flags().GetString("notify-webhook")
	}
	yes, _ := cmd.Flags().GetBool("yes")
	resume, _ := cmd.Flags().GetBool("resume")
	scanDir, _ := cmd.Flags().GetString("scan-dir")
	mode := modeFromFlags(cmd)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	durations := cfg.Durations()

	// ── 2. Show the plan and confirm ──────────────────────────────────────────
	total := generator.Count(mode)
	fmt.Printf("[*] Mode:       %s\n", mode)
	fmt.Printf("[*] Candidates: %d under .%s\n", total, cfg.TLD)
	fmt.Printf("[*] Workers:    %d, delay %s, up to %d attempts per name\n",
		cfg.Scan.Workers, durations.Delay, cfg.Scan.MaxAttempts)
	if cfg.Scan.MaxRPS > 0 {
		fmt.Printf("[*] Rate cap:   %.1f queries/s\n", cfg.Scan.MaxRPS)
	}
	fmt.Printf("[*] Registry:   %s:%d\n", cfg.Registry.Host, cfg.Registry.Port)
	fmt.Printf("[*] Estimated:  %s (without resumed progress)\n", estimate(total, cfg.Scan.Workers, durations.Delay))

	if !yes && !cfg.Scan.SkipConfirm {
		if !confirm(os.Stdin, os.Stdout, "Proceed? [y/N]: ") {
			fmt.Println("[*] Aborted")
			return nil
		}
	}

	// ── 3. Open bbolt store ────────────────────────────────────────────────────
	store, err := storage.NewStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	// ── 4. Metrics endpoint ───────────────────────────────────────────────────
	if cfg.Metrics.Port > 0 {
		srv := metrics.Start(cfg.Metrics.Port, logger)
		defer srv.Stop(context.Background())
		fmt.Printf("[*] Metrics on :%d/metrics\n", cfg.Metrics.Port)
	}

	// ── 5. Run ─────────────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checker := registry.NewWhoisClient(registry.WhoisConfig{
		Host:    cfg.Registry.Host,
		Port:    cfg.Registry.Port,
		TLD:     cfg.TLD,
		Timeout: durations.RegistryTimeout,
	})

	runCfg := pipeline.RunConfig{
		Mode:        mode,
		TLD:         cfg.TLD,
		OutputDir:   cfg.OutputDir,
		ScanDir:     scanDir,
		Resume:      resume,
		RetryErrors: cfg.Scan.RetryErrors,
		Scheduler: scanner.Options{
			Workers:      cfg.Scan.Workers,
			Delay:        durations.Delay,
			MaxAttempts:  cfg.Scan.MaxAttempts,
			RetryBackoff: durations.RetryBackoff,
			GracePeriod:  durations.GracePeriod,
			MaxRPS:       cfg.Scan.MaxRPS,
		},
		ProgressInterval: durations.ProgressInterval,
		OnProgress:       printProgress,
		OnResult:         printResult,
		Out:              os.Stdout,
		Logger:           logger,
	}

	fmt.Printf("[*] Starting scan (%s)\n", mode.Key(cfg.TLD))
	result, runErr := pipeline.Run(ctx, runCfg, checker, store)
	if result == nil {
		return fmt.Errorf("scan failed: %w", runErr)
	}

	// ── 6. Webhook notification (non-fatal) ───────────────────────────────────
	if cfg.Notify.WebhookURL != "" {
		notifyCfg := pipeline.NotifyConfig{WebhookURL: cfg.Notify.WebhookURL}
		notifyCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if notifyErr := notifyCfg.SendCompletion(notifyCtx, result); notifyErr != nil {
			fmt.Printf("[!] Warning: webhook notification failed: %v\n", notifyErr)
		} else {
			fmt.Printf("[+] Completion notification sent to %s\n", cfg.Notify.WebhookURL)
		}
		cancel()
	}

	// ── 7. Print final summary ─────────────────────────────────────────────────
	fmt.Println()
	switch result.Status {
	case models.StatusComplete:
		fmt.Printf("[+] Scan complete!\n")
	case models.StatusInterrupted:
		fmt.Printf("[!] Scan interrupted, progress saved. Continue with: lichecker scan --resume\n")
	default:
		fmt.Printf("[!] Scan failed: %v\n", runErr)
	}
	fmt.Printf("    Target:    %s\n", result.Target)
	fmt.Printf("    Scan ID:   %s\n", result.ScanID)
	fmt.Printf("    Scan dir:  %s\n", result.ScanDir)
	fmt.Printf("    Elapsed:   %s\n", result.Elapsed.Round(time.Second))
	fmt.Printf("    Processed: %d (skipped %d from earlier runs)\n", result.State.Processed, result.State.Skipped)
	fmt.Printf("    Available: %d this run, %d listed in %s\n",
		result.State.Available, result.ListedTotal, storage.AvailableFile)
	if result.State.Errors > 0 {
		fmt.Printf("    Errors:    %d (rerun with --resume --retry-errors to try them again)\n", result.State.Errors)
	}

	if runErr != nil {
		if errors.Is(runErr, scanner.ErrInterrupted) {
			return scanner.ErrInterrupted
		}
		return fmt.Errorf("scan failed: %w", runErr)
	}
	return nil
}

// estimate is the wall time a full run needs when every lookup is instant and
// only the per-worker delay counts.
func estimate(total, workers int, delay time.Duration) time.Duration {
	if workers <= 0 {
		return 0
	}
	rounds := (total + workers - 1) / workers
	return (time.Duration(rounds) * delay).Round(time.Second)
}

func printProgress(s scanner.Snapshot) {
	done := s.Skipped + s.Processed
	pct := 0.0
	if s.Total > 0 {
		pct = float64(done) / float64(s.Total) * 100
	}
	eta := "-"
	if s.ETA > 0 {
		eta = s.ETA.Round(time.Second).String()
	}
	fmt.Printf("[*] Progress: %d/%d (%.1f%%) | available %d | errors %d | %.1f/s | ETA %s\n",
		done, s.Total, pct, s.Available, s.Errors, s.Rate, eta)
}

func printResult(r models.Result) {
	switch r.Outcome {
	case models.OutcomeAvailable:
		fmt.Printf("[+] %s is available\n", r.Domain)
	case models.OutcomeError:
		fmt.Printf("[!] %s: %s (after %d attempts)\n", r.Domain, r.Reason, r.Attempts)
	default:
		logger.Debug("taken", "domain", r.Domain, "code", r.Code)
	}
}

func init() {
	scanCmd.Flags().IntP("workers", "w", 50, "number of concurrent lookups")
	scanCmd.Flags().Float64P("delay", "D", 1.0, "seconds each worker waits between lookups")
	scanCmd.Flags().StringP("output", "o", "scans", "base directory for scan output")
	addModeFlags(scanCmd)
	scanCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	scanCmd.Flags().Bool("resume", false, "continue the newest unfinished scan for this mode")
	scanCmd.Flags().String("scan-dir", "", "use (or continue) this scan directory")
	scanCmd.Flags().Bool("retry-errors", false, "query names again that earlier runs recorded as errors")
	scanCmd.Flags().Int("metrics-port", 0, "expose Prometheus metrics on this port (0 = off)")
	scanCmd.Flags().String("notify-webhook", "", "POST a JSON summary to this URL when the scan ends")
	rootCmd.AddCommand(scanCmd)
}
