package main

import (
	"github.com/spf13/cobra"

	"github.com/stx-x/li-domain-checker/internal/generator"
)

// addModeFlags registers the flags that select a scan mode.
func addModeFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("full-scan", "f", false, "enumerate every label of 1-4 characters")
	cmd.Flags().BoolP("letters-only", "l", false, "restrict labels to a-z")
	cmd.Flags().Bool("no-hyphens", false, "skip labels with interior hyphens")
}

// modeFromFlags builds the scan mode from the configuration, overridden by
// any mode flag set on the command line.
func modeFromFlags(cmd *cobra.Command) generator.ScanMode {
	mode := generator.ScanMode{
		FullScan:    cfg.Scan.FullScan,
		LettersOnly: cfg.Scan.LettersOnly,
		NoHyphens:   cfg.Scan.NoHyphens,
	}
	if cmd.Flags().Changed("full-scan") {
		mode.FullScan, _ = cmd.Flags().GetBool("full-scan")
	}
	if cmd.Flags().Changed("letters-only") {
		mode.LettersOnly, _ = cmd.Flags().GetBool("letters-only")
	}
	if cmd.Flags().Changed("no-hyphens") {
		mode.NoHyphens, _ = cmd.Flags().GetBool("no-hyphens")
	}
	return mode
}
