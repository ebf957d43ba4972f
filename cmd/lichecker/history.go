package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/stx-x/li-domain-checker/internal/models"
	"github.com/stx-x/li-domain-checker/internal/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show scan history for a mode",
	Long: `Display a formatted table of past scans for the selected mode.

Scans are listed newest-first. Each row shows the scan ID (truncated), start
time, status, how many runs it took and how far it got.

Use --all to list every mode that has been scanned, and --limit to cap the
number of rows shown (default: 10).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		all, _ := cmd.Flags().GetBool("all")

		store, err := storage.NewStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer store.Close()

		targets := []string{modeFromFlags(cmd).Key(cfg.TLD)}
		if all {
			if targets, err = store.ListTargets(); err != nil {
				return fmt.Errorf("listing targets: %w", err)
			}
			sort.Strings(targets)
			if len(targets) == 0 {
				fmt.Println("No scan history found")
				return nil
			}
		}

		for _, target := range targets {
			if err := printHistory(store, target, limit); err != nil {
				return err
			}
		}
		return nil
	},
}

func printHistory(store *storage.Store, target string, limit int) error {
	scans, err := store.ListScans(target)
	if err != nil {
		return fmt.Errorf("listing scans for %s: %w", target, err)
	}

	if len(scans) == 0 {
		fmt.Printf("No scan history found for %s\n", target)
		return nil
	}

	if limit > 0 && len(scans) > limit {
		scans = scans[:limit]
	}

	const separator = "────────────────────────────────────────────────────────────────────────────────"

	fmt.Printf("\nScan History for %s\n", target)
	fmt.Println(separator)
	fmt.Printf("  %-3s  %-12s  %-17s  %-11s  %-4s  %-16s  %s\n", "#", "Scan ID", "Started", "Status", "Runs", "Progress", "Available")
	fmt.Println(separator)

	for i, scan := range scans {
		fmt.Printf("  %-3d  %-12s  %-17s  %-11s  %-4d  %-16s  %d\n",
			i+1,
			shortScanID(scan.ID),
			scan.StartedAt.UTC().Format("2006-01-02 15:04"),
			formatStatus(scan.Status),
			scan.Runs,
			fmt.Sprintf("%d/%d", scan.Processed, scan.Total),
			scan.Available)
	}

	fmt.Println(separator)
	fmt.Printf("Total: %d scan(s)\n\n", len(scans))
	return nil
}

// shortScanID returns the first 8 characters of a UUID followed by "..." for
// compact table display.
func shortScanID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}

func formatStatus(s models.ScanStatus) string {
	if s == "" {
		return "-"
	}
	return string(s)
}

func init() {
	addModeFlags(historyCmd)
	historyCmd.Flags().Int("limit", 10, "Maximum number of scans to display per mode")
	historyCmd.Flags().Bool("all", false, "Show history for every scanned mode")
	rootCmd.AddCommand(historyCmd)
}
