package diff

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stx-x/li-domain-checker/internal/models"
	"github.com/stx-x/li-domain-checker/internal/storage"
)

func writeScan(t *testing.T, available []string, results []models.Result) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, storage.EnsureScanLayout(dir))

	if available != nil {
		data := strings.Join(available, "\n") + "\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, storage.AvailableFile), []byte(data), 0644))
	}

	var b strings.Builder
	for _, r := range results {
		line, err := json.Marshal(r)
		require.NoError(t, err)
		b.Write(line)
		b.WriteByte('\n')
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, storage.ResultsFile), []byte(b.String()), 0644))
	return dir
}

func rec(domain string, outcome models.Outcome) models.Result {
	return models.Result{Name: strings.TrimSuffix(domain, ".li"), Domain: domain, Outcome: outcome}
}

func TestComputeDiff(t *testing.T) {
	prevDir := writeScan(t,
		[]string{"aa.li", "bb.li", "cc.li", "dd.li"},
		[]models.Result{
			rec("aa.li", models.OutcomeAvailable),
			rec("bb.li", models.OutcomeAvailable),
			rec("cc.li", models.OutcomeAvailable),
			rec("dd.li", models.OutcomeAvailable),
		})
	currDir := writeScan(t,
		[]string{"aa.li", "ee.li"},
		[]models.Result{
			rec("aa.li", models.OutcomeAvailable),
			rec("bb.li", models.OutcomeTaken),
			rec("cc.li", models.OutcomeError),
			rec("ee.li", models.OutcomeAvailable),
		})

	prev, err := LoadSnapshot(prevDir)
	require.NoError(t, err)
	curr, err := LoadSnapshot(currDir)
	require.NoError(t, err)

	dr := ComputeDiff(curr, prev)
	assert.Equal(t, []string{"ee.li"}, dr.NewlyAvailable)
	assert.Equal(t, []string{"bb.li"}, dr.NoLongerAvailable)
	assert.Equal(t, []string{"cc.li", "dd.li"}, dr.Unconfirmed)
	assert.Equal(t, []string{"aa.li"}, dr.StillAvailable)
	assert.Equal(t, 2, dr.CurrentAvailableCount)
	assert.Equal(t, 4, dr.PreviousAvailableCount)
	assert.False(t, dr.Empty())
}

func TestComputeDiff_EmptyPrevious(t *testing.T) {
	curr := &ScanSnapshot{Available: []string{"b.li", "a.li"}}
	dr := ComputeDiff(curr, &ScanSnapshot{})

	assert.Equal(t, []string{"a.li", "b.li"}, dr.NewlyAvailable)
	assert.NotNil(t, dr.NoLongerAvailable)
	assert.Empty(t, dr.NoLongerAvailable)
}

func TestComputeDiff_Identical(t *testing.T) {
	snap := &ScanSnapshot{Available: []string{"a.li"}}
	assert.True(t, ComputeDiff(snap, snap).Empty())
}

func TestLoadSnapshot_MissingFiles(t *testing.T) {
	snap, err := LoadSnapshot(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, snap.Available)
	assert.Empty(t, snap.Outcomes)
}
