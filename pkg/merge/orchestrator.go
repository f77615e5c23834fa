package merge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/sdejongh/dirmerge/pkg/diff"
	"github.com/sdejongh/dirmerge/pkg/logging"
	"github.com/sdejongh/dirmerge/pkg/models"
	"github.com/sdejongh/dirmerge/pkg/output"
	"github.com/sdejongh/dirmerge/pkg/ratelimit"
	"github.com/sdejongh/dirmerge/pkg/storage"
)

// ErrDestinationExists is returned when the destination exists and
// overwriting was not authorized
var ErrDestinationExists = storage.ErrDestinationExists

// Plan is the input of one merge: both sides, their indexes and comparison,
// and a prepared destination
type Plan struct {
	A      storage.Backend
	B      storage.Backend
	IndexA *models.ContentIndex
	IndexB *models.ContentIndex
	Result *models.ComparisonResult
	Dest   storage.Backend
}

func (p *Plan) validate() error {
	switch {
	case p == nil:
		return errors.New("merge plan is nil")
	case p.A == nil || p.B == nil:
		return errors.New("merge plan is missing a source backend")
	case p.IndexA == nil || p.IndexB == nil || p.Result == nil:
		return errors.New("merge plan is missing comparison data")
	case p.Dest == nil:
		return errors.New("merge plan is missing a destination")
	}
	return nil
}

// Options configures an Orchestrator
type Options struct {
	// IncludeRenamed offers renamed-but-identical files in a final pass
	IncludeRenamed bool
	// PreserveTimes copies modification times to the destination
	PreserveTimes bool
	// PreviewLines is the length of unique file previews
	PreviewLines int
	// Renderer produces previews and diffs (default renderer when nil)
	Renderer *diff.Renderer
	// Limiter caps copy bandwidth (nil = unlimited)
	Limiter *ratelimit.Limiter
	// RunID labels the outcome (generated when empty)
	RunID string
}

// DefaultOptions returns the options used by the CLI
func DefaultOptions() Options {
	return Options{
		IncludeRenamed: true,
		PreserveTimes:  true,
		PreviewLines:   diff.DefaultPreviewLines,
	}
}

// Orchestrator materializes a destination tree from a comparison result and
// one decision per item. Categories are processed in order, each to
// completion: unique to A, unique to B, conflicts, identical, renamed.
type Orchestrator struct {
	decisions DecisionSource
	formatter output.Formatter
	logger    logging.Logger
	opts      Options
}

// NewOrchestrator creates an orchestrator. formatter and logger may be nil.
func NewOrchestrator(decisions DecisionSource, formatter output.Formatter, logger logging.Logger, opts Options) *Orchestrator {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	if opts.Renderer == nil {
		opts.Renderer = diff.NewRenderer(diff.Options{})
	}
	if opts.PreviewLines <= 0 {
		opts.PreviewLines = diff.DefaultPreviewLines
	}
	return &Orchestrator{
		decisions: decisions,
		formatter: formatter,
		logger:    logger,
		opts:      opts,
	}
}

// run holds the state of one Merge call
type run struct {
	o       *Orchestrator
	plan    *Plan
	outcome *models.MergeOutcome
	logger  logging.Logger
}

// Merge applies decisions and returns the outcome. Per-file copy failures
// are recorded in the outcome and do not stop the merge; nothing already
// written is rolled back. ErrAborted from the decision source or a cancelled
// ctx stops the merge between items with status cancelled. Any other
// decision source error is returned.
func (o *Orchestrator) Merge(ctx context.Context, plan *Plan) (*models.MergeOutcome, error) {
	if err := plan.validate(); err != nil {
		return nil, err
	}
	if o.decisions == nil {
		return nil, errors.New("no decision source")
	}

	runID := o.opts.RunID
	if runID == "" {
		runID = uuid.New().String()
	}

	r := &run{
		o:    o,
		plan: plan,
		outcome: &models.MergeOutcome{
			RunID:     runID,
			PathA:     plan.A.Root(),
			PathB:     plan.B.Root(),
			DestPath:  plan.Dest.Root(),
			StartTime: time.Now(),
		},
		logger: o.logger.WithFields(logging.Fields{"run_id": runID}),
	}

	r.logger.Info(ctx, "merge started", logging.Fields{"dest": plan.Dest.Root()})

	passes := []func(context.Context) error{
		func(ctx context.Context) error { return r.uniquePass(ctx, models.SideA) },
		func(ctx context.Context) error { return r.uniquePass(ctx, models.SideB) },
		r.conflictPass,
		r.identicalPass,
	}
	if o.opts.IncludeRenamed {
		passes = append(passes,
			func(ctx context.Context) error { return r.renamedPass(ctx, models.SideA) },
			func(ctx context.Context) error { return r.renamedPass(ctx, models.SideB) },
		)
	}

	for _, pass := range passes {
		err := pass(ctx)
		if err == nil {
			continue
		}
		if errors.Is(err, ErrAborted) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			r.outcome.Status = models.StatusCancelled
			r.logger.Warn(ctx, "merge cancelled", logging.Fields{"written": len(r.outcome.Written)})
			break
		}
		r.outcome.Finish()
		return r.outcome, err
	}

	r.outcome.Finish()
	r.logger.Info(ctx, "merge completed", logging.Fields{
		"status":  string(r.outcome.Status),
		"written": len(r.outcome.Written),
		"failed":  r.outcome.Stats.FilesFailed,
	})
	return r.outcome, nil
}

func (r *run) backend(side models.Side) storage.Backend {
	if side == models.SideB {
		return r.plan.B
	}
	return r.plan.A
}

func (r *run) index(side models.Side) *models.ContentIndex {
	if side == models.SideB {
		return r.plan.IndexB
	}
	return r.plan.IndexA
}

func (r *run) source(side models.Side, path string) diff.Source {
	return diff.WithName(diff.BackendSource(r.backend(side), path), string(side)+"/"+path)
}

// uniquePass offers the content unique to one side. Paths that are also
// conflicts are left to the conflict pass.
func (r *run) uniquePass(ctx context.Context, side models.Side) error {
	category := models.CategoryUniqueA
	if side == models.SideB {
		category = models.CategoryUniqueB
	}

	var paths []string
	for _, p := range r.plan.Result.UniquePaths(side) {
		if !r.plan.Result.IsConflict(p) {
			paths = append(paths, p)
		}
	}

	return r.offerUnique(ctx, category, side, paths, nil)
}

// renamedPass offers name-only files whose content exists on the other side
func (r *run) renamedPass(ctx context.Context, side models.Side) error {
	paths := r.plan.Result.RenamedPaths(side)
	other := r.index(side.Other())
	own := r.index(side)

	renamedAs := func(path string) []string {
		digest, _ := own.Digest(path)
		return other.PathsFor(digest)
	}
	return r.offerUnique(ctx, models.CategoryRenamed, side, paths, renamedAs)
}

func (r *run) offerUnique(ctx context.Context, category models.Category, side models.Side, paths []string, renamedAs func(string) []string) error {
	r.progress(output.ProgressUpdate{Type: output.UpdatePassStart, Category: category, TotalFiles: len(paths)})

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}

		item := UniqueItem{
			Category:     category,
			Side:         side,
			Path:         path,
			Entry:        r.index(side).Entry(path),
			Position:     i + 1,
			Total:        len(paths),
			Source:       r.source(side, path),
			renderer:     r.o.opts.Renderer,
			previewLines: r.o.opts.PreviewLines,
		}
		if renamedAs != nil {
			item.RenamedAs = renamedAs(path)
		}

		decision, err := r.o.decisions.DecideUnique(ctx, item)
		if err != nil {
			return err
		}
		if !decision.ValidFor(category) {
			r.fail(ctx, path, category, side, i+1, len(paths), fmt.Errorf("invalid decision %q", decision))
			continue
		}

		if decision == models.DecisionSkip {
			r.countSkip(category)
			r.progress(output.ProgressUpdate{
				Type: output.UpdateFileSkipped, Category: category, FilePath: path, Side: side,
				Decision: decision, CurrentFile: i + 1, TotalFiles: len(paths),
			})
			continue
		}

		if r.copy(ctx, category, side, path, decision, i+1, len(paths)) {
			r.countCopy(category, decision)
		}
	}
	return nil
}

// conflictPass asks for a side for every same-name, different-content path
func (r *run) conflictPass(ctx context.Context) error {
	paths := r.plan.Result.Conflicts
	r.progress(output.ProgressUpdate{Type: output.UpdatePassStart, Category: models.CategoryConflict, TotalFiles: len(paths)})

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}

		conflict := models.Conflict{
			Path:   path,
			EntryA: r.plan.IndexA.Entry(path),
			EntryB: r.plan.IndexB.Entry(path),
		}
		item := ConflictItem{
			Path:         path,
			EntryA:       conflict.EntryA,
			EntryB:       conflict.EntryB,
			Position:     i + 1,
			Total:        len(paths),
			SourceA:      r.source(models.SideA, path),
			SourceB:      r.source(models.SideB, path),
			renderer:     r.o.opts.Renderer,
			previewLines: r.o.opts.PreviewLines,
		}

		decision, err := r.o.decisions.DecideConflict(ctx, item)
		if err != nil {
			return err
		}
		if !decision.ValidFor(models.CategoryConflict) {
			r.fail(ctx, path, models.CategoryConflict, "", i+1, len(paths), fmt.Errorf("invalid decision %q", decision))
			continue
		}

		conflict.Resolve(decision)
		r.outcome.Conflicts = append(r.outcome.Conflicts, conflict)

		switch decision {
		case models.DecisionSkip:
			r.countSkip(models.CategoryConflict)
			r.progress(output.ProgressUpdate{
				Type: output.UpdateFileSkipped, Category: models.CategoryConflict, FilePath: path,
				Decision: decision, CurrentFile: i + 1, TotalFiles: len(paths),
			})
		default:
			side := conflict.Winner
			if r.copy(ctx, models.CategoryConflict, side, path, decision, i+1, len(paths)) {
				r.countCopy(models.CategoryConflict, decision)
			}
		}
	}
	return nil
}

// identicalPass copies every identical path from A, without asking
func (r *run) identicalPass(ctx context.Context) error {
	paths := r.plan.Result.Identical
	r.progress(output.ProgressUpdate{Type: output.UpdatePassStart, Category: models.CategoryIdentical, TotalFiles: len(paths)})

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.copy(ctx, models.CategoryIdentical, models.SideA, path, models.DecisionCopy, i+1, len(paths)) {
			r.countCopy(models.CategoryIdentical, models.DecisionCopy)
		}
	}
	return nil
}

// copy writes one file into the destination and records the result.
// It returns false when the copy failed.
func (r *run) copy(ctx context.Context, category models.Category, side models.Side, path string, decision models.MergeDecision, current, total int) bool {
	entry := r.index(side).Entry(path)

	written, err := r.copyFile(ctx, r.backend(side), path, entry)
	if err != nil {
		r.fail(ctx, path, category, side, current, total, err)
		return false
	}

	r.outcome.RecordWritten(path, written)
	r.logger.Debug(ctx, "file written", logging.Fields{
		"path": path, "side": string(side), "category": string(category), "bytes": written,
	})
	r.progress(output.ProgressUpdate{
		Type: output.UpdateFileComplete, Category: category, FilePath: path, Side: side,
		Decision: decision, BytesWritten: written, CurrentFile: current, TotalFiles: total,
	})
	return true
}

func (r *run) copyFile(ctx context.Context, src storage.Backend, path string, entry *models.FileEntry) (int64, error) {
	reader, err := src.Read(ctx, path)
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	counter := &countingReader{r: ratelimit.NewReader(ctx, reader, r.o.opts.Limiter)}

	size := int64(-1)
	var meta *storage.FileInfo
	if entry != nil {
		size = entry.Size
		meta = &storage.FileInfo{Permissions: entry.Permissions}
		if r.o.opts.PreserveTimes {
			meta.ModTime = entry.ModTime
		}
	}

	if err := r.plan.Dest.Write(ctx, path, counter, size, meta); err != nil {
		return counter.n, err
	}
	return counter.n, nil
}

func (r *run) fail(ctx context.Context, path string, category models.Category, side models.Side, current, total int, err error) {
	r.outcome.RecordError(path, category, side, err)
	r.logger.Error(ctx, "merge item failed", err, logging.Fields{
		"path": path, "side": string(side), "category": string(category),
	})
	r.progress(output.ProgressUpdate{
		Type: output.UpdateFileError, Category: category, FilePath: path, Side: side,
		CurrentFile: current, TotalFiles: total, Error: err,
	})
}

func (r *run) countCopy(category models.Category, decision models.MergeDecision) {
	s := &r.outcome.Stats
	switch category {
	case models.CategoryUniqueA:
		s.UniqueACopied++
	case models.CategoryUniqueB:
		s.UniqueBCopied++
	case models.CategoryConflict:
		if decision == models.DecisionTakeA {
			s.ConflictsTakenA++
		} else {
			s.ConflictsTakenB++
		}
	case models.CategoryIdentical:
		s.IdenticalCopied++
	case models.CategoryRenamed:
		s.RenamedCopied++
	}
}

func (r *run) countSkip(category models.Category) {
	s := &r.outcome.Stats
	switch category {
	case models.CategoryUniqueA:
		s.UniqueASkipped++
	case models.CategoryUniqueB:
		s.UniqueBSkipped++
	case models.CategoryConflict:
		s.ConflictsSkipped++
	case models.CategoryRenamed:
		s.RenamedSkipped++
	}
}

func (r *run) progress(update output.ProgressUpdate) {
	if r.o.formatter != nil {
		r.o.formatter.Progress(update)
	}
}

// countingReader counts the bytes read through it
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
