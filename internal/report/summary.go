package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/stx-x/li-domain-checker/internal/models"
	"github.com/stx-x/li-domain-checker/internal/scanner"
	"github.com/stx-x/li-domain-checker/internal/storage"
)

// Summary is everything the run summary report shows.
type Summary struct {
	Scan      *models.ScanMeta
	ModeLabel string
	State     scanner.ScanState
	Load      storage.LoadStats
	Elapsed   time.Duration
	// ListedTotal is the size of the available list across all runs.
	ListedTotal int
	// Err is the reason a failed run stopped.
	Err error
}

// WriteSummary renders s as markdown and writes it to outputPath.
func WriteSummary(s Summary, outputPath string) error {
	var b strings.Builder

	b.WriteString("# Domain Availability Scan\n\n")
	b.WriteString(fmt.Sprintf("**Scan:** %s\n", s.Scan.ID))
	b.WriteString(fmt.Sprintf("**Mode:** %s (%s)\n", s.Scan.Target, s.ModeLabel))
	b.WriteString(fmt.Sprintf("**Status:** %s\n", s.Scan.Status))
	b.WriteString(fmt.Sprintf("**Started:** %s\n", s.Scan.StartedAt.UTC().Format("2006-01-02 15:04:05 UTC")))
	b.WriteString(fmt.Sprintf("**Run:** #%d, %s\n\n", s.Scan.Runs, s.Elapsed.Round(time.Second)))

	if s.Err != nil {
		b.WriteString(fmt.Sprintf("**Error:** %v\n\n", s.Err))
	}

	writeCounters(&b, s.State)

	if s.Load.Records > 0 || s.Load.Truncated || s.Load.Retried > 0 {
		b.WriteString("## Resumed State\n\n")
		b.WriteString(fmt.Sprintf("- Records loaded from earlier runs: %d\n", s.Load.Records))
		if s.Load.Retried > 0 {
			b.WriteString(fmt.Sprintf("- Error records queued for retry: %d\n", s.Load.Retried))
		}
		if s.Load.Truncated {
			b.WriteString(fmt.Sprintf("- Malformed tail discarded: %d bytes\n", s.Load.DiscardedBytes))
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("## Available Domains Found This Run (%d)\n\n", len(s.State.AvailableDomains)))
	if len(s.State.AvailableDomains) > 0 {
		for _, d := range s.State.AvailableDomains {
			b.WriteString(fmt.Sprintf("- %s\n", d))
		}
	} else {
		b.WriteString("None found.\n")
	}
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("Full list (%d domains): `%s`\n", s.ListedTotal, storage.AvailableFile))

	return writeFile(outputPath, b.String())
}

func writeCounters(b *strings.Builder, st scanner.ScanState) {
	b.WriteString("## Progress\n\n")
	b.WriteString("| Counter | Value |\n")
	b.WriteString("|---------|-------|\n")
	b.WriteString(fmt.Sprintf("| Candidates | %d |\n", st.Total))
	b.WriteString(fmt.Sprintf("| Skipped (earlier runs) | %d |\n", st.Skipped))
	b.WriteString(fmt.Sprintf("| Processed | %d |\n", st.Processed))
	b.WriteString(fmt.Sprintf("| Available | %d |\n", st.Available))
	b.WriteString(fmt.Sprintf("| Taken | %d |\n", st.Taken))
	b.WriteString(fmt.Sprintf("| Errors | %d |\n", st.Errors))
	b.WriteString(fmt.Sprintf("| Pending | %d |\n", st.Pending()))
	b.WriteString("\n")
}
