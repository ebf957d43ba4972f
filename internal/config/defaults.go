package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		OutputDir: "scans",
		DBPath:    "lichecker.db",
		TLD:       "li",
		Registry: RegistryConfig{
			Host:    "whois.nic.ch",
			Port:    4343,
			Timeout: "10s",
		},
		Scan: ScanConfig{
			Workers:          50,
			Delay:            "1s",
			MaxAttempts:      3,
			RetryBackoff:     "500ms",
			GracePeriod:      "10s",
			ProgressInterval: "10s",
		},
	}
}

// WriteDefault writes a default configuration to the specified path
func WriteDefault(path string) error {
	cfg := DefaultConfig()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
