package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	OutputDir string         `mapstructure:"output_dir" yaml:"output_dir"`
	DBPath    string         `mapstructure:"db_path" yaml:"db_path"`
	TLD       string         `mapstructure:"tld" yaml:"tld"`
	Registry  RegistryConfig `mapstructure:"registry" yaml:"registry"`
	Scan      ScanConfig     `mapstructure:"scan" yaml:"scan"`
	Metrics   MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
	Notify    NotifyConfig   `mapstructure:"notify" yaml:"notify"`
}

// RegistryConfig points at the registry availability service
type RegistryConfig struct {
	Host    string `mapstructure:"host" yaml:"host"`
	Port    int    `mapstructure:"port" yaml:"port"`
	Timeout string `mapstructure:"timeout" yaml:"timeout"`
}

// ScanConfig controls enumeration, concurrency and retries
type ScanConfig struct {
	Workers          int     `mapstructure:"workers" yaml:"workers"`
	Delay            string  `mapstructure:"delay" yaml:"delay"`
	FullScan         bool    `mapstructure:"full_scan" yaml:"full_scan"`
	LettersOnly      bool    `mapstructure:"letters_only" yaml:"letters_only"`
	NoHyphens        bool    `mapstructure:"no_hyphens" yaml:"no_hyphens"`
	MaxAttempts      int     `mapstructure:"max_attempts" yaml:"max_attempts"`
	RetryBackoff     string  `mapstructure:"retry_backoff" yaml:"retry_backoff"`
	GracePeriod      string  `mapstructure:"grace_period" yaml:"grace_period"`
	MaxRPS           float64 `mapstructure:"max_rps" yaml:"max_rps"`
	RetryErrors      bool    `mapstructure:"retry_errors" yaml:"retry_errors"`
	ProgressInterval string  `mapstructure:"progress_interval" yaml:"progress_interval"`
	SkipConfirm      bool    `mapstructure:"skip_confirm" yaml:"skip_confirm"`
}

// MetricsConfig controls the Prometheus endpoint. Port 0 disables it.
type MetricsConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

// NotifyConfig controls the completion webhook
type NotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url" yaml:"webhook_url"`
}

// Load reads and parses configuration from a YAML file.
// If path is empty, searches for lichecker.yaml in the current directory,
// ./configs and ~/.config/lichecker/. When no file is found the defaults are
// used. Values from the file are layered over the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, DefaultConfig())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("lichecker")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		homeDir, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", "lichecker"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
		case path != "" && errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("tld", d.TLD)
	v.SetDefault("registry.host", d.Registry.Host)
	v.SetDefault("registry.port", d.Registry.Port)
	v.SetDefault("registry.timeout", d.Registry.Timeout)
	v.SetDefault("scan.workers", d.Scan.Workers)
	v.SetDefault("scan.delay", d.Scan.Delay)
	v.SetDefault("scan.full_scan", d.Scan.FullScan)
	v.SetDefault("scan.letters_only", d.Scan.LettersOnly)
	v.SetDefault("scan.no_hyphens", d.Scan.NoHyphens)
	v.SetDefault("scan.max_attempts", d.Scan.MaxAttempts)
	v.SetDefault("scan.retry_backoff", d.Scan.RetryBackoff)
	v.SetDefault("scan.grace_period", d.Scan.GracePeriod)
	v.SetDefault("scan.max_rps", d.Scan.MaxRPS)
	v.SetDefault("scan.retry_errors", d.Scan.RetryErrors)
	v.SetDefault("scan.progress_interval", d.Scan.ProgressInterval)
	v.SetDefault("scan.skip_confirm", d.Scan.SkipConfirm)
	v.SetDefault("metrics.port", d.Metrics.Port)
	v.SetDefault("notify.webhook_url", d.Notify.WebhookURL)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir cannot be empty"))
	}

	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path cannot be empty"))
	}

	if c.TLD == "" {
		errs = append(errs, errors.New("tld cannot be empty"))
	}

	if c.Registry.Host == "" {
		errs = append(errs, errors.New("registry.host cannot be empty"))
	}

	if c.Registry.Port <= 0 || c.Registry.Port > 65535 {
		errs = append(errs, errors.New("registry.port must be between 1 and 65535"))
	}

	if c.Scan.Workers <= 0 {
		errs = append(errs, errors.New("scan.workers must be positive"))
	}

	if c.Scan.MaxAttempts < 1 {
		errs = append(errs, errors.New("scan.max_attempts must be at least 1"))
	}

	if c.Scan.MaxRPS < 0 {
		errs = append(errs, errors.New("scan.max_rps cannot be negative"))
	}

	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		errs = append(errs, errors.New("metrics.port must be between 0 and 65535"))
	}

	durations := []struct {
		key, value string
		positive   bool
	}{
		{"registry.timeout", c.Registry.Timeout, true},
		{"scan.delay", c.Scan.Delay, false},
		{"scan.retry_backoff", c.Scan.RetryBackoff, false},
		{"scan.grace_period", c.Scan.GracePeriod, false},
		{"scan.progress_interval", c.Scan.ProgressInterval, true},
	}
	for _, d := range durations {
		dur, err := time.ParseDuration(d.value)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", d.key, err))
		case dur < 0:
			errs = append(errs, fmt.Errorf("%s cannot be negative", d.key))
		case d.positive && dur == 0:
			errs = append(errs, fmt.Errorf("%s must be positive", d.key))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Durations is the parsed form of the duration-valued settings.
type Durations struct {
	RegistryTimeout  time.Duration
	Delay            time.Duration
	RetryBackoff     time.Duration
	GracePeriod      time.Duration
	ProgressInterval time.Duration
}

// Durations parses the duration strings. Call Validate first; values that do
// not parse come back as zero.
func (c *Config) Durations() Durations {
	parse := func(s string) time.Duration {
		d, _ := time.ParseDuration(s)
		return d
	}
	return Durations{
		RegistryTimeout:  parse(c.Registry.Timeout),
		Delay:            parse(c.Scan.Delay),
		RetryBackoff:     parse(c.Scan.RetryBackoff),
		GracePeriod:      parse(c.Scan.GracePeriod),
		ProgressInterval: parse(c.Scan.ProgressInterval),
	}
}
