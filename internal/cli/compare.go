package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var compareFlags ScanFlags

// NewCompareCommand creates the compare command
func NewCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <dir-a> <dir-b>",
		Short: "Compare two directories by content",
		Long: `Index both directories by content digest and report the files unique
to each side, the conflicts (same name, different content), the identical
files and the renamed files (same content, different name).
Nothing is written.`,
		Args: cobra.ExactArgs(2),
		RunE: runCompare,
	}

	addScanFlags(cmd, &compareFlags)

	return cmd
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	absA, absB, err := validateSources(args[0], args[1])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyScanFlags(cfg, &compareFlags)
	if err := cfg.Validate(); err != nil {
		return err
	}

	s, err := newSession(cmd, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	cmp, err := s.compare(ctx, absA, absB)
	if err != nil {
		return err
	}
	return s.report(cmp)
}
