package main

import (
	"errors"
	"os"

	"github.com/stx-x/li-domain-checker/internal/scanner"
)

// exitInterrupted is the conventional status for a run stopped by SIGINT.
const exitInterrupted = 130

func main() {
	if err := Execute(); err != nil {
		if errors.Is(err, scanner.ErrInterrupted) {
			os.Exit(exitInterrupted)
		}
		os.Exit(1)
	}
}
