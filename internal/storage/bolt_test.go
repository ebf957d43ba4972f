package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stx-x/li-domain-checker/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "db", "lichecker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_ListScans(t *testing.T) {
	store := newTestStore(t)

	older := models.NewScan("li-normal", "normal")
	older.StartedAt = time.Now().Add(-time.Hour)
	newer := models.NewScan("li-normal", "normal")
	other := models.NewScan("li-full", "full")

	for _, m := range []*models.ScanMeta{older, newer, other} {
		require.NoError(t, store.SaveScan(m))
	}
	// Saving twice must not duplicate the index entry.
	require.NoError(t, store.SaveScan(newer))

	scans, err := store.ListScans("li-normal")
	require.NoError(t, err)
	require.Len(t, scans, 2)
	assert.Equal(t, newer.ID, scans[0].ID)
	assert.Equal(t, older.ID, scans[1].ID)

	none, err := store.ListScans("li-full-letters")
	require.NoError(t, err)
	assert.Empty(t, none)

	missing, err := store.GetScan("does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, missing)

	targets, err := store.ListTargets()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"li-normal", "li-full"}, targets)
}

func TestStore_RunBookkeeping(t *testing.T) {
	store := newTestStore(t)
	meta := models.NewScan("li-normal", "normal")

	require.NoError(t, store.BeginRun(meta, 100))
	assert.Equal(t, 1, meta.Runs)
	assert.Equal(t, models.StatusRunning, meta.Status)

	got, err := store.FinishRun(meta.ID, models.StatusInterrupted, RunProgress{Processed: 40, Available: 2, Errors: 1})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInterrupted, got.Status)
	assert.NotNil(t, got.CompletedAt)
	assert.Equal(t, 40, got.Processed)
	assert.Equal(t, 2, got.Available)
	assert.Equal(t, 1, got.Errors)
	assert.Equal(t, 100, got.Total)

	// A stale copy still gets the next run number.
	stale := *meta
	stale.Runs = 0
	require.NoError(t, store.BeginRun(&stale, 100))
	assert.Equal(t, 2, stale.Runs)

	got, err = store.GetScan(meta.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Runs)
	assert.Equal(t, models.StatusRunning, got.Status)
	assert.Nil(t, got.CompletedAt)
	assert.Equal(t, 40, got.Processed, "counters survive until the run finishes")

	_, err = store.FinishRun("does-not-exist", models.StatusComplete, RunProgress{})
	assert.Error(t, err)
}

func TestStore_LockedDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lichecker.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	defer store.Close()

	_, err = NewStore(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "in use")
}

func TestScanDirPath(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	assert.Equal(t, filepath.Join("out", "li-normal_20240309_140507"), ScanDirPath("out", "li-normal", ts))
	assert.Equal(t, "a_b", SanitizeTarget("a/b"))
}

func TestCreateScanDir(t *testing.T) {
	base := t.TempDir()
	dir, err := CreateScanDir(base, "li-full", time.Now())
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(dir, "raw"))
	assert.DirExists(t, filepath.Join(dir, "reports"))
	require.NoError(t, EnsureScanLayout(dir))
}
