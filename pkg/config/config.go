package config

import (
	"github.com/sdejongh/dirmerge/pkg/models"
	"github.com/sdejongh/dirmerge/pkg/ratelimit"
	"github.com/sdejongh/dirmerge/pkg/scan"
)

// DefaultDestinationName is the merge directory created under the working directory
const DefaultDestinationName = "merged_result"

// Config represents the application configuration
type Config struct {
	Scan    ScanConfig    `yaml:"scan"`
	Merge   MergeConfig   `yaml:"merge"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// ScanConfig holds indexing settings
type ScanConfig struct {
	Exclude       []string             `yaml:"exclude"`
	ExcludeHidden bool                 `yaml:"exclude_hidden"`
	Algorithm     models.HashAlgorithm `yaml:"algorithm"`
	Workers       int                  `yaml:"workers"`
	BufferSize    int                  `yaml:"buffer_size"`
}

// MergeConfig holds merge settings
type MergeConfig struct {
	Destination    string                  `yaml:"destination"`
	Strategy       models.ConflictStrategy `yaml:"strategy"`
	IncludeRenamed bool                    `yaml:"include_renamed"`
	PreserveTimes  bool                    `yaml:"preserve_times"`
	PreviewLines   int                     `yaml:"preview_lines"`
	DiffContext    int                     `yaml:"diff_context"`
	BandwidthLimit string                  `yaml:"bandwidth_limit"` // e.g. "10MB/s", empty = unlimited
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format   string `yaml:"format"`   // "human" or "json"
	Progress bool   `yaml:"progress"` // Show the hashing progress bar
	Color    bool   `yaml:"color"`    // Colorize diffs and status marks
	Forms    bool   `yaml:"forms"`    // Use terminal forms for decisions
	Quiet    bool   `yaml:"quiet"`    // Suppress non-error output
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	File       string `yaml:"file"`   // Log file path (empty = no log file)
	Format     string `yaml:"format"` // "json" or "text"
	Level      string `yaml:"level"`  // "debug", "info", "warn", "error"
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			Exclude:       append([]string(nil), scan.DefaultExcludedDirs...),
			ExcludeHidden: true,
			Algorithm:     models.HashSHA256,
			Workers:       4,
			BufferSize:    scan.DefaultBufferSize,
		},
		Merge: MergeConfig{
			Destination:    DefaultDestinationName,
			Strategy:       models.StrategyAsk,
			IncludeRenamed: true,
			PreserveTimes:  true,
			PreviewLines:   10,
			DiffContext:    3,
		},
		Output: OutputConfig{
			Format:   "human",
			Progress: true,
			Color:    true,
			Forms:    true,
		},
		Logging: LoggingConfig{
			Format:     "json",
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !c.Scan.Algorithm.IsSupported() {
		return &models.ValidationError{
			Field:   "scan.algorithm",
			Message: "must be 'sha256' or 'md5'",
		}
	}

	if c.Scan.Workers < 1 {
		return &models.ValidationError{
			Field:   "scan.workers",
			Message: "must be at least 1",
		}
	}

	if c.Scan.BufferSize < 4096 {
		return &models.ValidationError{
			Field:   "scan.buffer_size",
			Message: "must be at least 4096 bytes",
		}
	}

	if _, err := scan.NewExclusionSet(c.Scan.Exclude, c.Scan.ExcludeHidden); err != nil {
		return &models.ValidationError{
			Field:   "scan.exclude",
			Message: err.Error(),
		}
	}

	if c.Merge.Destination == "" {
		return &models.ValidationError{
			Field:   "merge.destination",
			Message: "must not be empty",
		}
	}

	switch c.Merge.Strategy {
	case models.StrategyAsk, models.StrategyTakeA, models.StrategyTakeB, models.StrategySkip:
	default:
		return &models.ValidationError{
			Field:   "merge.strategy",
			Message: "must be 'ask', 'take-a', 'take-b' or 'skip-conflicts'",
		}
	}

	if c.Merge.PreviewLines < 1 {
		return &models.ValidationError{
			Field:   "merge.preview_lines",
			Message: "must be at least 1",
		}
	}

	if c.Merge.DiffContext < 0 {
		return &models.ValidationError{
			Field:   "merge.diff_context",
			Message: "must not be negative",
		}
	}

	if _, err := ratelimit.ParseBandwidth(c.Merge.BandwidthLimit); err != nil {
		return &models.ValidationError{
			Field:   "merge.bandwidth_limit",
			Message: err.Error(),
		}
	}

	validFormats := map[string]bool{"human": true, "json": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human' or 'json'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 {
		return &models.ValidationError{
			Field:   "logging.max_size_mb",
			Message: "rotation limits must not be negative",
		}
	}

	return nil
}
