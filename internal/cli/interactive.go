package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdejongh/dirmerge/pkg/merge"
	"github.com/sdejongh/dirmerge/pkg/prompt"
	"github.com/sdejongh/dirmerge/pkg/scan"
)

var interactiveFlags ScanFlags

// NewInteractiveCommand creates the interactive command
func NewInteractiveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interactive [dir]",
		Short: "Pick, compare and merge directories from a menu",
		Long: `List the sub-directories of dir (default: the working directory), let the
operator pick two of them, show their comparison and optionally merge them
into a new directory, then offer another round. Type "exit" at a directory
prompt to quit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInteractive,
	}

	addScanFlags(cmd, &interactiveFlags)

	return cmd
}

func runInteractive(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	base, err := validateDirectory(dir)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyScanFlags(cfg, &interactiveFlags)
	if err := cfg.Validate(); err != nil {
		return err
	}

	exclusions, err := scan.NewExclusionSet(cfg.Scan.Exclude, cfg.Scan.ExcludeHidden)
	if err != nil {
		return err
	}

	s, err := newSession(cmd, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	s.say("dirmerge: compare and merge directories by content\n")

	for {
		again, err := s.cycle(ctx, base, exclusions)
		switch {
		case errors.Is(err, prompt.ErrExit), errors.Is(err, prompt.ErrAborted):
			s.say("\nGoodbye.\n")
			return nil
		case ctx.Err() != nil:
			return &ExitError{Code: 3, Err: ctx.Err()}
		case err != nil:
			return err
		case !again:
			return nil
		}
	}
}

// cycle runs one select, compare and merge round. Errors about the chosen
// directories end the round, not the session.
func (s *session) cycle(ctx context.Context, base string, exclusions *scan.ExclusionSet) (bool, error) {
	candidates, err := scan.CandidateDirectories(base, exclusions)
	if err != nil {
		return false, err
	}
	s.listDirectories(base, candidates)

	p := s.ask()
	dirA, err := p.SelectDirectory(ctx, "First directory:", base, candidates)
	if err != nil {
		return false, err
	}
	dirB, err := p.SelectDirectory(ctx, "Second directory:", base, candidates)
	if err != nil {
		return false, err
	}

	absA, absB, err := validateSources(dirA, dirB)
	if err != nil {
		s.fail(err)
		return s.again(ctx)
	}

	cmp, err := s.compare(ctx, absA, absB)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		s.fail(err)
		return s.again(ctx)
	}
	if err := s.report(cmp); err != nil {
		return false, err
	}

	ok, err := p.Confirm(ctx, "Merge these directories?")
	if err != nil {
		return false, err
	}
	if !ok {
		return s.again(ctx)
	}

	name, err := p.Ask(ctx, "Destination directory name", s.cfg.Merge.Destination)
	if err != nil {
		return false, err
	}
	dest, err := resolveDestination(name, base, absA, absB)
	if err != nil {
		s.fail(err)
		return s.again(ctx)
	}

	decisions := &merge.StrategySource{Strategy: s.cfg.Merge.Strategy, Next: p}
	if _, err := s.mergeInto(ctx, cmp, dest, false, true, decisions); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		s.fail(err)
	}

	return s.again(ctx)
}

func (s *session) listDirectories(base string, candidates []string) {
	s.say("\nDirectories in %s:\n", base)
	if len(candidates) == 0 {
		s.say("  (none)\n")
	}
	for i, name := range candidates {
		s.say("  %d. %s\n", i+1, name)
	}
	s.say("Enter a number or a name, \"this\" for %s itself, or \"exit\".\n", base)
}

func (s *session) again(ctx context.Context) (bool, error) {
	return s.ask().Confirm(ctx, "Run another comparison?")
}

// fail reports an error that ends the current round
func (s *session) fail(err error) {
	fmt.Fprintf(s.errOut, "Error: %v\n", err)
}
