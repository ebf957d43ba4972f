package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/stx-x/li-domain-checker/internal/diff"
)

// WriteDiffReport generates a markdown report capturing the delta between two
// scans and writes it to outputPath.
func WriteDiffReport(result *diff.DiffResult, outputPath string) error {
	var b strings.Builder

	b.WriteString("# Scan Diff Report\n\n")
	b.WriteString(fmt.Sprintf("**Date:** %s\n\n", time.Now().UTC().Format("2006-01-02 15:04:05 UTC")))

	// If there are zero changes across all categories, short-circuit.
	if result.Empty() {
		b.WriteString("No changes detected.\n")
		return writeFile(outputPath, b.String())
	}

	writeDiffSummaryTable(&b, result)
	writeDomainSection(&b, "Newly Available", "+", result.NewlyAvailable)
	writeDomainSection(&b, "No Longer Available", "-", result.NoLongerAvailable)
	writeDomainSection(&b, "Unconfirmed", "?", result.Unconfirmed)

	return writeFile(outputPath, b.String())
}

// writeDiffSummaryTable writes the comparison table.
func writeDiffSummaryTable(b *strings.Builder, r *diff.DiffResult) {
	b.WriteString("## Summary\n\n")
	b.WriteString("| Category | Previous | Current | Change |\n")
	b.WriteString("|----------|----------|---------|--------|\n")

	change := formatChange(len(r.NewlyAvailable), len(r.NoLongerAvailable)+len(r.Unconfirmed))
	b.WriteString(fmt.Sprintf("| Available | %d | %d | %s |\n",
		r.PreviousAvailableCount, r.CurrentAvailableCount, change))

	b.WriteString("\n")
}

// writeDomainSection renders one list of domains. Skipped when empty.
func writeDomainSection(b *strings.Builder, title, sign string, domains []string) {
	if len(domains) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("## %s (%s%d)\n\n", title, sign, len(domains)))
	for _, d := range domains {
		b.WriteString(fmt.Sprintf("- %s\n", d))
	}
	b.WriteString("\n")
}

// formatChange returns a human-readable change string such as "+3 / -1".
// When there are no additions and no removals it returns "none".
func formatChange(added, removed int) string {
	if added == 0 && removed == 0 {
		return "none"
	}
	parts := make([]string, 0, 2)
	if added > 0 {
		parts = append(parts, fmt.Sprintf("+%d", added))
	}
	if removed > 0 {
		parts = append(parts, fmt.Sprintf("-%d", removed))
	}
	return strings.Join(parts, " / ")
}

func writeFile(outputPath, content string) error {
	if err := os.WriteFile(outputPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing report to %s: %w", outputPath, err)
	}
	return nil
}
