package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/stx-x/li-domain-checker/internal/registry"
)

var checkCmd = &cobra.Command{
	Use:   "check [label...]",
	Short: "Query the registry for a few labels",
	Long: `Send one live availability query per label and print the raw answer.
Useful to verify that the registry is reachable and to spot-check a name
before or after a scan. Without arguments, "nic" is queried.

Examples:
  lichecker check
  lichecker check abc x9 qq`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"nic"}
		}

		durations := cfg.Durations()
		checker := registry.NewWhoisClient(registry.WhoisConfig{
			Host:    cfg.Registry.Host,
			Port:    cfg.Registry.Port,
			TLD:     cfg.TLD,
			Timeout: durations.RegistryTimeout,
		})

		fmt.Printf("[*] Registry: %s:%d\n\n", cfg.Registry.Host, cfg.Registry.Port)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "Domain\tStatus\tCode\tMessage\tTime")
		fmt.Fprintln(w, "------\t------\t----\t-------\t----")

		failed := 0
		for _, label := range args {
			start := time.Now()
			answer, err := checker.Check(cmd.Context(), label)
			elapsed := time.Since(start).Round(time.Millisecond)
			domain := label + "." + cfg.TLD

			if err != nil {
				failed++
				code := "-"
				var replyErr *registry.ReplyError
				if errors.As(err, &replyErr) {
					code = fmt.Sprint(replyErr.Code)
				}
				fmt.Fprintf(w, "%s\t[!] error\t%s\t%v\t%s\n", domain, code, err, elapsed)
				continue
			}

			status := "[-] taken"
			if answer.Status == registry.StatusAvailable {
				status = "[+] available"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", domain, status, answer.Code, answer.Message, elapsed)
		}
		w.Flush()

		fmt.Println()
		if failed > 0 {
			return fmt.Errorf("%d of %d queries failed", failed, len(args))
		}
		fmt.Printf("Summary: %d/%d queries answered\n", len(args), len(args))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
