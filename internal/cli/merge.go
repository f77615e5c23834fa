package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdejongh/dirmerge/pkg/logging"
	"github.com/sdejongh/dirmerge/pkg/merge"
	"github.com/sdejongh/dirmerge/pkg/models"
	"github.com/sdejongh/dirmerge/pkg/output"
	"github.com/sdejongh/dirmerge/pkg/prompt"
)

// NewMergeCommand creates the merge command
func NewMergeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <dir-a> <dir-b>",
		Short: "Merge two directories into a new one",
		Long: `Compare two directories by content, then build a third directory from
them. Identical files are always copied. Unique files, renamed files and
conflicts are decided one by one, or in bulk with --copy-unique,
--skip-unique and --strategy. The source directories are never modified.

Exit codes: 0 success, 1 partial (some files failed), 2 failed, 3 cancelled.`,
		Args: cobra.ExactArgs(2),
		RunE: runMerge,
	}

	addScanFlags(cmd, &mergeFlags.ScanFlags)

	cmd.Flags().StringVarP(&mergeFlags.Dest, "dest", "d", "", "destination directory (default "+`"merged_result"`+" in the working directory)")
	cmd.Flags().StringVar(&mergeFlags.Strategy, "strategy", "", "conflict strategy: ask, take-a, take-b, skip-conflicts")
	cmd.Flags().BoolVar(&mergeFlags.CopyUnique, "copy-unique", false, "copy every unique and renamed file without asking")
	cmd.Flags().BoolVar(&mergeFlags.SkipUnique, "skip-unique", false, "skip every unique and renamed file without asking")
	cmd.Flags().BoolVar(&mergeFlags.NoRenamed, "no-renamed", false, "do not offer renamed files")
	cmd.Flags().BoolVar(&mergeFlags.Overwrite, "overwrite", false, "replace an existing destination without asking")
	cmd.Flags().StringVar(&mergeFlags.Bandwidth, "bandwidth", "", "copy bandwidth limit (e.g. 10M, 1G, 500K)")
	cmd.Flags().StringVar(&mergeFlags.Report, "report", "", "write the merge report to a file")
	cmd.Flags().StringVar(&mergeFlags.ReportFormat, "report-format", "human", "merge report format: human, json")
	cmd.Flags().BoolVar(&mergeFlags.NoForms, "no-forms", false, "use plain numbered menus instead of terminal forms")

	return cmd
}

func runMerge(cmd *cobra.Command, args []string) error {
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
	if err := applyMergeFlags(cfg, &mergeFlags); err != nil {
		return err
	}

	dest, err := resolveDestination(cfg.Merge.Destination, ".", absA, absB)
	if err != nil {
		return err
	}

	operation, err := createMergeOperation(cfg, absA, absB, dest, mergeFlags.Overwrite)
	if err != nil {
		return fmt.Errorf("invalid merge: %w", err)
	}

	s, err := newSession(cmd, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	s.logger.Info(ctx, "merge requested", logging.Fields{
		"operation_id": operation.ID,
		"dest":         operation.DestPath,
		"strategy":     string(operation.ConflictStrategy),
		"bandwidth":    operation.BandwidthLimit,
	})

	cmp, err := s.compare(ctx, absA, absB)
	if err != nil {
		return err
	}
	// The JSON merge report embeds the comparison summary
	if cfg.Output.Format != "json" {
		if err := s.report(cmp); err != nil {
			return err
		}
	}

	unique := uniqueChoice(&mergeFlags)
	canAsk := cfg.Merge.Strategy == models.StrategyAsk || unique == nil
	decisions := &merge.StrategySource{
		Strategy:   cfg.Merge.Strategy,
		CopyUnique: unique,
		Next:       s.ask(),
	}

	outcome, err := s.mergeInto(ctx, cmp, operation.DestPath, operation.Overwrite, canAsk, decisions)
	if err != nil {
		return err
	}

	if mergeFlags.Report != "" {
		if err := output.WriteOutcome(outcome, cmp.result.Summary(), mergeFlags.Report, mergeFlags.ReportFormat); err != nil {
			return fmt.Errorf("failed to write merge report: %w", err)
		}
	}

	if code := outcome.Status.ExitCode(); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// mergeInto prepares dest and runs the merge. A refused overwrite or an
// aborted confirmation yields a cancelled outcome.
func (s *session) mergeInto(ctx context.Context, cmp *comparison, dest string, overwrite, canAsk bool, decisions merge.DecisionSource) (*models.MergeOutcome, error) {
	local, err := s.prepareDestination(ctx, dest, overwrite, canAsk)
	if errors.Is(err, prompt.ErrAborted) {
		local, err = nil, nil
	}
	if err != nil {
		return nil, err
	}
	if local == nil {
		s.say("Merge cancelled, %s was left untouched.\n", dest)
		s.logger.Info(ctx, "merge cancelled", logging.Fields{"run_id": cmp.runID, "dest": dest})
		return cancelledOutcome(cmp, dest), nil
	}
	return s.runMerge(ctx, cmp, local, decisions)
}
