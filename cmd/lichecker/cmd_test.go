package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stx-x/li-domain-checker/internal/config"
	"github.com/stx-x/li-domain-checker/internal/models"
	"github.com/stx-x/li-domain-checker/internal/storage"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  yes  \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"maybe\n", false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		got := confirm(strings.NewReader(tt.input), &out, "Proceed? ")
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.True(t, strings.HasPrefix(out.String(), "Proceed? "))
	}
}

func TestModeFromFlags(t *testing.T) {
	cfg = config.DefaultConfig()
	cfg.Scan.LettersOnly = true

	cmd := &cobra.Command{Use: "test"}
	addModeFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--full-scan"}))

	mode := modeFromFlags(cmd)
	assert.True(t, mode.FullScan)
	assert.True(t, mode.LettersOnly, "unset flags keep the configured value")
	assert.False(t, mode.NoHyphens)

	cmd = &cobra.Command{Use: "test"}
	addModeFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--letters-only=false"}))
	assert.False(t, modeFromFlags(cmd).LettersOnly)
}

func TestEstimate(t *testing.T) {
	assert.Equal(t, 10*time.Second, estimate(100, 10, time.Second))
	assert.Equal(t, 11*time.Second, estimate(101, 10, time.Second))
	assert.Equal(t, time.Duration(0), estimate(100, 0, time.Second))
}

func TestLatestScanDirs(t *testing.T) {
	dir := t.TempDir()
	cfg = config.DefaultConfig()
	cfg.DBPath = filepath.Join(dir, "test.db")

	store, err := storage.NewStore(cfg.DBPath)
	require.NoError(t, err)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"old", "mid", "new"} {
		meta := models.NewScan("li-normal", "normal")
		meta.StartedAt = base.Add(time.Duration(i) * time.Hour)
		meta.ScanDir = filepath.Join(dir, name)
		require.NoError(t, store.SaveScan(meta))
	}
	require.NoError(t, store.Close())

	current, previous, err := latestScanDirs("li-normal", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "new"), current)
	assert.Equal(t, filepath.Join(dir, "mid"), previous)

	current, previous, err = latestScanDirs("li-normal", filepath.Join(dir, "mid"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "mid"), current)
	assert.Equal(t, filepath.Join(dir, "new"), previous)

	current, previous, err = latestScanDirs("li-full", "")
	require.NoError(t, err)
	assert.Empty(t, current)
	assert.Empty(t, previous)
}

func TestShortScanID(t *testing.T) {
	assert.Equal(t, "abc", shortScanID("abc"))
	assert.Equal(t, "12345678...", shortScanID("1234567890"))
}
