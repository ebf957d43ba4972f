package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/stx-x/li-domain-checker/internal/config"
	"github.com/stx-x/li-domain-checker/internal/storage"
)

var (
	initForce bool
	initDir   string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize lichecker with default configuration",
	Long: `Creates a default configuration file (lichecker.yaml), the scan output
directory, and the database that records scan metadata.

This is typically the first command you run when setting up lichecker.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := filepath.Join(initDir, "lichecker.yaml")

		// Check if config already exists
		if _, err := os.Stat(configPath); err == nil && !initForce {
			return fmt.Errorf("config file already exists at %s. Use --force to overwrite", configPath)
		}

		if err := storage.EnsureDir(initDir); err != nil {
			return fmt.Errorf("failed to create %s: %w", initDir, err)
		}
		if err := config.WriteDefault(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		fmt.Printf("Created %s with default configuration\n", configPath)

		// Load the config we just created to get paths
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := storage.EnsureDir(loaded.OutputDir); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		fmt.Printf("Created output directory: %s\n", loaded.OutputDir)

		store, err := storage.NewStore(loaded.DBPath)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer store.Close()
		fmt.Printf("Initialized database: %s\n", loaded.DBPath)

		fmt.Println()
		fmt.Println("lichecker initialized successfully!")
		fmt.Println("Run 'lichecker check' to verify the registry is reachable.")

		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing config file")
	initCmd.Flags().StringVar(&initDir, "dir", ".", "output directory")
	rootCmd.AddCommand(initCmd)
}
