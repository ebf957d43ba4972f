package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/stx-x/li-domain-checker/internal/diff"
	"github.com/stx-x/li-domain-checker/internal/report"
	"github.com/stx-x/li-domain-checker/internal/storage"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare two scans and report what changed",
	Long: `Compare a scan against an earlier scan of the same mode.

The available lists of both scan directories are compared. Domains listed
earlier are reported as no longer available only when the newer scan recorded
them as taken; otherwise they are reported as unconfirmed.

Results are saved to:
  - {scan_dir}/reports/diff.md   (markdown change report)
  - {scan_dir}/raw/diff.json     (structured diff JSON)

Without --scan-dir and --compare, the two most recent scans of the selected
mode are located via the scan database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scanDir, _ := cmd.Flags().GetString("scan-dir")
		compareDir, _ := cmd.Flags().GetString("compare")
		target := modeFromFlags(cmd).Key(cfg.TLD)

		// Resolve both directories from history when not given
		if scanDir == "" || compareDir == "" {
			current, previous, err := latestScanDirs(target, scanDir)
			if err != nil {
				return fmt.Errorf("looking up scan history: %w", err)
			}
			if scanDir == "" {
				scanDir = current
			}
			if compareDir == "" {
				compareDir = previous
			}
		}
		if scanDir == "" {
			return fmt.Errorf("no scan found for %s. Run 'lichecker scan' first", target)
		}

		fmt.Printf("[*] Current scan directory: %s\n", scanDir)
		if compareDir == "" {
			fmt.Printf("[!] No previous scan found for comparison\n")
			return nil
		}
		fmt.Printf("[*] Previous scan directory: %s\n", compareDir)

		currentSnap, err := diff.LoadSnapshot(scanDir)
		if err != nil {
			return fmt.Errorf("loading current snapshot: %w", err)
		}
		previousSnap, err := diff.LoadSnapshot(compareDir)
		if err != nil {
			return fmt.Errorf("loading previous snapshot: %w", err)
		}

		fmt.Printf("[*] Current:  %d available, %d resolved\n", len(currentSnap.Available), len(currentSnap.Outcomes))
		fmt.Printf("[*] Previous: %d available, %d resolved\n", len(previousSnap.Available), len(previousSnap.Outcomes))

		result := diff.ComputeDiff(currentSnap, previousSnap)

		diffReportPath := filepath.Join(scanDir, "reports", "diff.md")
		if err := report.WriteDiffReport(result, diffReportPath); err != nil {
			// The JSON below is still written
			fmt.Printf("[!] Warning: failed to write diff report: %v\n", err)
		} else {
			fmt.Printf("[+] Diff report written to %s\n", diffReportPath)
		}

		rawPath := filepath.Join(scanDir, "raw", "diff.json")
		rawData, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling diff result: %w", err)
		}
		if err := storage.EnsureDir(filepath.Dir(rawPath)); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(rawPath), err)
		}
		if err := os.WriteFile(rawPath, rawData, 0644); err != nil {
			return fmt.Errorf("writing diff.json: %w", err)
		}
		fmt.Printf("[+] Diff JSON written to %s\n", rawPath)

		fmt.Println()
		fmt.Printf("[+] Diff complete!\n")
		fmt.Printf("    Available:   %d -> %d\n", result.PreviousAvailableCount, result.CurrentAvailableCount)
		fmt.Printf("    New:         +%d\n", len(result.NewlyAvailable))
		fmt.Printf("    Registered:  -%d\n", len(result.NoLongerAvailable))
		if len(result.Unconfirmed) > 0 {
			fmt.Printf("    Unconfirmed: %d (not resolved by the current scan)\n", len(result.Unconfirmed))
		}

		return nil
	},
}

// latestScanDirs returns the directory of the current scan and of the scan
// before it for target. When current is given, previous is the newest other
// scan. Either result may be empty.
func latestScanDirs(target, current string) (string, string, error) {
	store, err := storage.NewStore(cfg.DBPath)
	if err != nil {
		return "", "", fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	scans, err := store.ListScans(target)
	if err != nil {
		return "", "", fmt.Errorf("listing scans: %w", err)
	}

	// scans is sorted newest-first
	previous := ""
	for _, scan := range scans {
		if current == "" {
			current = scan.ScanDir
			continue
		}
		if scan.ScanDir != current {
			previous = scan.ScanDir
			break
		}
	}
	return current, previous, nil
}

func init() {
	addModeFlags(diffCmd)
	diffCmd.Flags().String("scan-dir", "", "Current scan directory (auto-detects latest if empty)")
	diffCmd.Flags().String("compare", "", "Previous scan directory to compare against (auto-detects second-latest if empty)")
	rootCmd.AddCommand(diffCmd)
}
