package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stx-x/li-domain-checker/internal/diff"
	"github.com/stx-x/li-domain-checker/internal/models"
	"github.com/stx-x/li-domain-checker/internal/scanner"
	"github.com/stx-x/li-domain-checker/internal/storage"
)

func TestWriteSummary(t *testing.T) {
	scan := models.NewScan("li-normal", "normal")
	scan.Status = models.StatusInterrupted
	scan.Runs = 2

	path := filepath.Join(t.TempDir(), "summary.md")
	err := WriteSummary(Summary{
		Scan:      scan,
		ModeLabel: "normal",
		State: scanner.ScanState{
			Total: 100, Skipped: 40, Processed: 50, Available: 2, Taken: 47, Errors: 1,
			AvailableDomains: []string{"qx.li", "zz9.li"},
		},
		Load:        storage.LoadStats{Records: 40, Truncated: true, DiscardedBytes: 17},
		Elapsed:     90 * time.Second,
		ListedTotal: 5,
		Err:         errors.New("scan interrupted"),
	}, path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, "**Status:** interrupted")
	assert.Contains(t, out, "**Run:** #2, 1m30s")
	assert.Contains(t, out, "| Pending | 10 |")
	assert.Contains(t, out, "- qx.li\n- zz9.li\n")
	assert.Contains(t, out, "Malformed tail discarded: 17 bytes")
	assert.Contains(t, out, "Full list (5 domains)")
	assert.Contains(t, out, "**Error:** scan interrupted")
}

func TestWriteSummary_NothingFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.md")
	require.NoError(t, WriteSummary(Summary{Scan: models.NewScan("li-full", "full")}, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "None found.")
	assert.NotContains(t, string(data), "Resumed State")
}

func TestWriteDiffReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diff.md")
	dr := &diff.DiffResult{
		NewlyAvailable:         []string{"ab.li"},
		NoLongerAvailable:      []string{"cd.li", "ef.li"},
		Unconfirmed:            []string{},
		StillAvailable:         []string{"gh.li"},
		CurrentAvailableCount:  2,
		PreviousAvailableCount: 3,
	}
	require.NoError(t, WriteDiffReport(dr, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "| Available | 3 | 2 | +1 / -2 |")
	assert.Contains(t, out, "## Newly Available (+1)")
	assert.Contains(t, out, "## No Longer Available (-2)")
	assert.NotContains(t, out, "Unconfirmed")
}

func TestWriteDiffReport_NoChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diff.md")
	dr := diff.ComputeDiff(&diff.ScanSnapshot{}, &diff.ScanSnapshot{})
	require.NoError(t, WriteDiffReport(dr, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "No changes detected.")
}
