package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sdejongh/dirmerge/pkg/compare"
	"github.com/sdejongh/dirmerge/pkg/config"
	"github.com/sdejongh/dirmerge/pkg/diff"
	"github.com/sdejongh/dirmerge/pkg/logging"
	"github.com/sdejongh/dirmerge/pkg/merge"
	"github.com/sdejongh/dirmerge/pkg/models"
	"github.com/sdejongh/dirmerge/pkg/output"
	"github.com/sdejongh/dirmerge/pkg/prompt"
	"github.com/sdejongh/dirmerge/pkg/ratelimit"
	"github.com/sdejongh/dirmerge/pkg/scan"
	"github.com/sdejongh/dirmerge/pkg/storage"
)

// ExitError carries a process exit code. Err, when set, is printed by main.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// session holds what one command invocation needs across comparisons
type session struct {
	cfg      *config.Config
	in       io.Reader
	out      io.Writer
	errOut   io.Writer
	logger   logging.Logger
	colorize bool

	prompter prompt.Prompter
}

func newSession(cmd *cobra.Command, cfg *config.Config) (*session, error) {
	logger, err := logging.Open(logging.FileLoggerConfig{
		Path:       cfg.Logging.File,
		Format:     logging.Format(cfg.Logging.Format),
		Level:      logging.ParseLevel(cfg.Logging.Level),
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	out := cmd.OutOrStdout()
	return &session{
		cfg:      cfg,
		in:       cmd.InOrStdin(),
		out:      out,
		errOut:   cmd.ErrOrStderr(),
		logger:   logger,
		colorize: cfg.Output.Color && output.IsTerminal(out),
	}, nil
}

func (s *session) Close() error {
	return s.logger.Close()
}

// console is where human messages go. It is stderr when stdout carries JSON.
func (s *session) console() io.Writer {
	if s.cfg.Output.Format == "json" {
		return s.errOut
	}
	return s.out
}

// ask returns the session prompter
func (s *session) ask() prompt.Prompter {
	if s.prompter == nil {
		s.prompter = prompt.New(s.in, s.console(), prompt.Options{
			Colorize:     s.colorize,
			PreviewLines: s.cfg.Merge.PreviewLines,
			Forms:        s.cfg.Output.Forms,
		})
	}
	return s.prompter
}

// say prints a human message unless quiet
func (s *session) say(format string, args ...interface{}) {
	if s.cfg.Output.Quiet {
		return
	}
	fmt.Fprintf(s.console(), format, args...)
}

// comparison is the result of indexing and comparing two directories
type comparison struct {
	runID    string
	a        *storage.Local
	b        *storage.Local
	pair     *scan.PairResult
	result   *models.ComparisonResult
	warnings []string
}

// compare indexes both directories in parallel and classifies their content
func (s *session) compare(ctx context.Context, absA, absB string) (*comparison, error) {
	exclusions, err := scan.NewExclusionSet(s.cfg.Scan.Exclude, s.cfg.Scan.ExcludeHidden)
	if err != nil {
		return nil, err
	}

	a, err := storage.NewLocal(absA)
	if err != nil {
		return nil, fmt.Errorf("failed to open first directory: %w", err)
	}
	b, err := storage.NewLocal(absB)
	if err != nil {
		return nil, fmt.Errorf("failed to open second directory: %w", err)
	}

	runID := uuid.New().String()
	logger := s.logger.WithFields(logging.Fields{"run_id": runID})

	var mu sync.Mutex
	var warnings []string
	onWarning := func(w scan.Warning) {
		mu.Lock()
		defer mu.Unlock()
		warnings = append(warnings, w.String())
	}

	progressOut := s.errOut
	if !s.cfg.Output.Progress {
		progressOut = io.Discard
	}
	progress := output.NewScanProgress(progressOut, "Hashing")

	options := func(side models.Side) scan.Options {
		return scan.Options{
			Side:       side,
			Algorithm:  s.cfg.Scan.Algorithm,
			Exclusions: exclusions,
			Workers:    s.cfg.Scan.Workers,
			BufferSize: s.cfg.Scan.BufferSize,
			OnWarning:  onWarning,
			Progress:   progress,
			Logger:     logger,
		}
	}

	ixA, err := scan.NewIndexer(a, options(models.SideA))
	if err != nil {
		return nil, err
	}
	ixB, err := scan.NewIndexer(b, options(models.SideB))
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "comparison started", logging.Fields{
		"path_a":  absA,
		"path_b":  absB,
		"exclude": exclusions.Patterns(),
	})
	s.say("\nScanning %s and %s...\n", absA, absB)

	pair, err := scan.ScanPair(ctx, ixA, ixB)
	progress.Finish()
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	result := compare.Compare(pair.A, pair.B)
	sort.Strings(warnings)

	logger.Info(ctx, "comparison completed", logging.Fields{
		"files_a":   pair.FilesA,
		"files_b":   pair.FilesB,
		"conflicts": len(result.Conflicts),
		"warnings":  len(warnings),
	})

	return &comparison{
		runID:    runID,
		a:        a,
		b:        b,
		pair:     pair,
		result:   result,
		warnings: warnings,
	}, nil
}

// report writes the comparison report
func (s *session) report(cmp *comparison) error {
	if s.cfg.Output.Quiet && s.cfg.Output.Format != "json" {
		return nil
	}
	return output.WriteComparison(s.out, &output.ComparisonReport{
		RunID:     cmp.runID,
		PathA:     cmp.a.Root(),
		PathB:     cmp.b.Root(),
		Algorithm: s.cfg.Scan.Algorithm,
		Result:    cmp.result,
		Warnings:  cmp.warnings,
	}, s.cfg.Output.Format, s.colorize)
}

// prepareDestination creates an empty destination directory. When it exists
// and overwrite is not set, the operator is asked if canAsk; a refusal
// returns a nil backend and no error.
func (s *session) prepareDestination(ctx context.Context, dest string, overwrite, canAsk bool) (*storage.Local, error) {
	if _, err := os.Stat(dest); err == nil && !overwrite {
		if !canAsk {
			return nil, fmt.Errorf("%w: %s (use --overwrite to replace it)", merge.ErrDestinationExists, dest)
		}
		ok, err := s.ask().Confirm(ctx, fmt.Sprintf("The directory %s already exists. Overwrite it?", dest))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		overwrite = true
	}

	local, err := storage.PrepareDestination(ctx, dest, overwrite)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "destination prepared", logging.Fields{"dest": dest, "overwrite": overwrite})
	return local, nil
}

// cancelledOutcome is reported when the operator refuses to overwrite
func cancelledOutcome(cmp *comparison, dest string) *models.MergeOutcome {
	outcome := &models.MergeOutcome{
		RunID:     cmp.runID,
		PathA:     cmp.a.Root(),
		PathB:     cmp.b.Root(),
		DestPath:  dest,
		Status:    models.StatusCancelled,
		StartTime: time.Now(),
	}
	outcome.Finish()
	return outcome
}

// runMerge materializes dest from a comparison
func (s *session) runMerge(ctx context.Context, cmp *comparison, dest *storage.Local, decisions merge.DecisionSource) (*models.MergeOutcome, error) {
	formatter, err := output.NewFormatter(s.cfg.Output.Format, s.colorize)
	if err != nil {
		return nil, err
	}

	bandwidth, err := ratelimit.ParseBandwidth(s.cfg.Merge.BandwidthLimit)
	if err != nil {
		return nil, err
	}

	opts := merge.Options{
		IncludeRenamed: s.cfg.Merge.IncludeRenamed,
		PreserveTimes:  s.cfg.Merge.PreserveTimes,
		PreviewLines:   s.cfg.Merge.PreviewLines,
		Renderer:       diff.NewRenderer(diff.Options{Context: s.cfg.Merge.DiffContext}),
		Limiter:        ratelimit.NewLimiter(bandwidth),
		RunID:          cmp.runID,
	}

	var w io.Writer = s.out
	if s.cfg.Output.Quiet && formatter.Name() == "human" {
		w = nil
	}
	formatter.Start(w, cmp.result.Summary())

	orchestrator := merge.NewOrchestrator(decisions, formatter, s.logger, opts)
	outcome, err := orchestrator.Merge(ctx, &merge.Plan{
		A:      cmp.a,
		B:      cmp.b,
		IndexA: cmp.pair.A,
		IndexB: cmp.pair.B,
		Result: cmp.result,
		Dest:   dest,
	})
	if err != nil {
		formatter.Error(err)
	}
	if outcome != nil {
		formatter.Complete(outcome)
	}
	return outcome, err
}
