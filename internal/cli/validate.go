package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/sdejongh/dirmerge/internal/platform"
	"github.com/sdejongh/dirmerge/pkg/config"
	"github.com/sdejongh/dirmerge/pkg/models"
	"github.com/sdejongh/dirmerge/pkg/ratelimit"
	"github.com/sdejongh/dirmerge/pkg/scan"
)

// validateSources checks both directories and returns their normalized paths
func validateSources(pathA, pathB string) (string, string, error) {
	absA, err := validateDirectory(pathA)
	if err != nil {
		return "", "", err
	}
	absB, err := validateDirectory(pathB)
	if err != nil {
		return "", "", err
	}
	if platform.SameDir(absA, absB) {
		return "", "", fmt.Errorf("cannot compare a directory with itself: %s", absA)
	}
	return absA, absB, nil
}

func validateDirectory(path string) (string, error) {
	abs, err := platform.NormalizePath(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("directory does not exist: %s", abs)
	} else if err != nil {
		return "", fmt.Errorf("failed to access %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// resolveDestination turns a destination name into a normalized path under
// base (absolute names are kept). The destination is removed when it is
// overwritten, so it must not be one of the sources or contain them.
func resolveDestination(dest, base, absA, absB string) (string, error) {
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(base, dest)
	}
	abs, err := platform.NormalizePath(dest)
	if err != nil {
		return "", err
	}
	for _, src := range []string{absA, absB} {
		if platform.SameDir(abs, src) {
			return "", fmt.Errorf("destination cannot be a compared directory: %s", abs)
		}
		if platform.IsNested(abs, src) {
			return "", fmt.Errorf("destination cannot contain a compared directory: %s", abs)
		}
	}
	return abs, nil
}

// loadConfig loads configuration from file or returns default
func loadConfig() (*config.Config, error) {
	return config.Load(globalFlags.ConfigFile)
}

// applyScanFlags overrides config values with indexing flags
func applyScanFlags(cfg *config.Config, f *ScanFlags) {
	if f.Algorithm != "" {
		cfg.Scan.Algorithm = models.HashAlgorithm(f.Algorithm)
	}
	if len(f.Exclude) > 0 {
		cfg.Scan.Exclude = f.Exclude
	}
	if f.IncludeHidden {
		cfg.Scan.ExcludeHidden = false
	}
	if f.Workers > 0 {
		cfg.Scan.Workers = f.Workers
	}
	if f.Output != "" {
		cfg.Output.Format = f.Output
	}
	applyGlobalFlags(cfg)
}

// applyMergeFlags overrides config values with merge flags
func applyMergeFlags(cfg *config.Config, f *MergeFlags) error {
	applyScanFlags(cfg, &f.ScanFlags)

	if f.CopyUnique && f.SkipUnique {
		return fmt.Errorf("--copy-unique and --skip-unique are mutually exclusive")
	}
	if f.Dest != "" {
		cfg.Merge.Destination = f.Dest
	}
	if f.Strategy != "" {
		cfg.Merge.Strategy = models.ConflictStrategy(f.Strategy)
	}
	if f.NoRenamed {
		cfg.Merge.IncludeRenamed = false
	}
	if f.Bandwidth != "" {
		cfg.Merge.BandwidthLimit = f.Bandwidth
	}
	if f.NoForms {
		cfg.Output.Forms = false
	}
	return nil
}

// applyGlobalFlags applies --quiet, --verbose, --no-color and --log-file
func applyGlobalFlags(cfg *config.Config) {
	if globalFlags.Quiet {
		cfg.Output.Progress = false
		cfg.Output.Quiet = true
	}
	if globalFlags.Verbose {
		cfg.Logging.Level = "debug"
	}
	if globalFlags.NoColor {
		cfg.Output.Color = false
	}
	if globalFlags.LogFile != "" {
		cfg.Logging.File = globalFlags.LogFile
	}
}

// uniqueChoice returns the fixed answer for unique files, or nil to ask
func uniqueChoice(f *MergeFlags) *bool {
	switch {
	case f.CopyUnique:
		v := true
		return &v
	case f.SkipUnique:
		v := false
		return &v
	}
	return nil
}

// createMergeOperation creates a merge operation from configuration
func createMergeOperation(cfg *config.Config, absA, absB, dest string, overwrite bool) (*models.MergeOperation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	bandwidth, err := ratelimit.ParseBandwidth(cfg.Merge.BandwidthLimit)
	if err != nil {
		return nil, err
	}
	exclusions, err := scan.NewExclusionSet(cfg.Scan.Exclude, cfg.Scan.ExcludeHidden)
	if err != nil {
		return nil, err
	}

	operation := &models.MergeOperation{
		ID:               uuid.New().String(),
		PathA:            absA,
		PathB:            absB,
		DestPath:         dest,
		Overwrite:        overwrite,
		Algorithm:        cfg.Scan.Algorithm,
		ExcludePatterns:  exclusions.Patterns(),
		ConflictStrategy: cfg.Merge.Strategy,
		MaxWorkers:       cfg.Scan.Workers,
		BandwidthLimit:   bandwidth,
		BufferSize:       cfg.Scan.BufferSize,
		CreatedAt:        time.Now(),
	}

	if err := operation.Validate(); err != nil {
		return nil, err
	}

	return operation, nil
}
