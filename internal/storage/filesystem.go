package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

const (
	// AvailableFile lists available domains, one per line, in discovery order.
	AvailableFile = "available_domains.txt"
	// ResultsFile is the NDJSON result log, relative to the scan directory.
	ResultsFile = "raw/results.jsonl"
	// SummaryFile is the markdown run summary, relative to the scan directory.
	SummaryFile = "reports/summary.md"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.\-]+`)

// SanitizeTarget replaces characters unsafe for filesystem paths
// Allows alphanumeric, dots, and hyphens. Replaces everything else with underscore.
func SanitizeTarget(target string) string {
	return unsafeChars.ReplaceAllString(target, "_")
}

// ScanDirPath generates a consistent directory path for a scan
// Format: {baseDir}/{target}_{YYYYMMDD}_{HHMMSS}
func ScanDirPath(baseDir string, target string, startedAt time.Time) string {
	sanitized := SanitizeTarget(target)
	timestamp := startedAt.Format("20060102_150405")
	dirName := fmt.Sprintf("%s_%s", sanitized, timestamp)
	return filepath.Join(baseDir, dirName)
}

// CreateScanDir creates a scan directory with subdirectories for reports and raw output
func CreateScanDir(baseDir string, target string, startedAt time.Time) (string, error) {
	scanPath := ScanDirPath(baseDir, target, startedAt)
	if err := EnsureScanLayout(scanPath); err != nil {
		return "", err
	}
	return scanPath, nil
}

// EnsureScanLayout creates scanPath and its reports/ and raw/ subdirectories.
// It is idempotent so an existing directory can be reused on resume.
func EnsureScanLayout(scanPath string) error {
	for _, dir := range []string{scanPath, filepath.Join(scanPath, "reports"), filepath.Join(scanPath, "raw")} {
		if err := EnsureDir(dir); err != nil {
			return err
		}
	}
	return nil
}

// EnsureDir creates a directory and all parent directories if they don't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
