// Package diff computes the delta between two scan snapshots.
// It reads the available list and the result file of each scan directory and
// produces a DiffResult naming the domains that became available, the ones
// that were registered since, and the ones the newer scan could not confirm.
package diff

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/stx-x/li-domain-checker/internal/models"
	"github.com/stx-x/li-domain-checker/internal/storage"
)

// ---------------------------------------------------------------------------
// ScanSnapshot
// ---------------------------------------------------------------------------

// ScanSnapshot holds the data loaded from a single scan directory. Fields are
// empty when the corresponding file is absent.
type ScanSnapshot struct {
	ScanDir string
	// Available lists domains in discovery order.
	Available []string
	// Outcomes maps each resolved domain to its recorded outcome.
	Outcomes map[string]models.Outcome
}

// LoadSnapshot reads available_domains.txt and raw/results.jsonl from scanDir.
// Missing files are treated as empty; an interrupted scan may not have
// written either yet.
func LoadSnapshot(scanDir string) (*ScanSnapshot, error) {
	snap := &ScanSnapshot{
		ScanDir:  scanDir,
		Outcomes: make(map[string]models.Outcome),
	}

	available, err := storage.ReadAvailable(filepath.Join(scanDir, storage.AvailableFile))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", storage.AvailableFile, err)
	}
	snap.Available = available

	_, err = storage.ReadResults(filepath.Join(scanDir, storage.ResultsFile), func(r models.Result) error {
		snap.Outcomes[r.Domain] = r.Outcome
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", storage.ResultsFile, err)
	}

	return snap, nil
}

// ---------------------------------------------------------------------------
// DiffResult
// ---------------------------------------------------------------------------

// DiffResult holds the delta between a current and a previous snapshot. All
// slice fields are non-nil and sorted.
type DiffResult struct {
	// NewlyAvailable are available now but were not listed before.
	NewlyAvailable []string
	// NoLongerAvailable were listed before and are now recorded as taken.
	NoLongerAvailable []string
	// Unconfirmed were listed before but the current scan has no definite
	// answer for them (not reached yet, or recorded as an error).
	Unconfirmed []string
	// StillAvailable are listed in both scans.
	StillAvailable []string

	CurrentAvailableCount  int
	PreviousAvailableCount int
}

// ComputeDiff calculates the delta between current and previous snapshots.
// Both arguments must be non-nil; pass an empty ScanSnapshot for the
// "no previous scan" case.
func ComputeDiff(current, previous *ScanSnapshot) *DiffResult {
	dr := &DiffResult{
		NewlyAvailable:    []string{},
		NoLongerAvailable: []string{},
		Unconfirmed:       []string{},
		StillAvailable:    []string{},
	}

	prevSet := toSet(previous.Available)
	currSet := toSet(current.Available)

	for domain := range currSet {
		if prevSet[domain] {
			dr.StillAvailable = append(dr.StillAvailable, domain)
		} else {
			dr.NewlyAvailable = append(dr.NewlyAvailable, domain)
		}
	}

	for domain := range prevSet {
		if currSet[domain] {
			continue
		}
		if current.Outcomes[domain] == models.OutcomeTaken {
			dr.NoLongerAvailable = append(dr.NoLongerAvailable, domain)
		} else {
			dr.Unconfirmed = append(dr.Unconfirmed, domain)
		}
	}

	sort.Strings(dr.NewlyAvailable)
	sort.Strings(dr.NoLongerAvailable)
	sort.Strings(dr.Unconfirmed)
	sort.Strings(dr.StillAvailable)

	dr.CurrentAvailableCount = len(currSet)
	dr.PreviousAvailableCount = len(prevSet)

	return dr
}

// Empty reports whether the two snapshots list the same domains.
func (dr *DiffResult) Empty() bool {
	return len(dr.NewlyAvailable) == 0 &&
		len(dr.NoLongerAvailable) == 0 &&
		len(dr.Unconfirmed) == 0
}

func toSet(domains []string) map[string]bool {
	m := make(map[string]bool, len(domains))
	for _, d := range domains {
		m[d] = true
	}
	return m
}
