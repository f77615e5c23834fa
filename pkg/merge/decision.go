package merge

import (
	"context"
	"errors"
	"fmt"

	"github.com/sdejongh/dirmerge/pkg/diff"
	"github.com/sdejongh/dirmerge/pkg/models"
)

// ErrAborted is returned by a DecisionSource when the operator stops the
// merge. Files already written are kept.
var ErrAborted = errors.New("merge aborted by operator")

// defaultRenderer serves items built without an orchestrator
var defaultRenderer = diff.NewRenderer(diff.Options{})

// UniqueItem describes a file offered with the {Copy, Skip} option set:
// content unique to one side, or a renamed-but-identical file
type UniqueItem struct {
	Category models.Category
	Side     models.Side
	Path     string
	Entry    *models.FileEntry
	// RenamedAs lists the paths holding the same content on the other side
	RenamedAs []string
	// Position is 1-based within the category, out of Total
	Position int
	Total    int
	// Source reads the file content
	Source diff.Source

	renderer     *diff.Renderer
	previewLines int
}

// Preview renders the first lines of the file
func (it UniqueItem) Preview(ctx context.Context) *diff.Rendering {
	return rendererOr(it.renderer).Preview(ctx, it.Source, it.previewLines)
}

// Options returns the decisions accepted for the item
func (it UniqueItem) Options() []models.MergeDecision {
	return models.UniqueDecisions
}

// ConflictItem describes a path present on both sides with different
// content, offered with the {TakeA, TakeB, Skip} option set
type ConflictItem struct {
	Path     string
	EntryA   *models.FileEntry
	EntryB   *models.FileEntry
	Position int
	Total    int
	SourceA  diff.Source
	SourceB  diff.Source

	renderer     *diff.Renderer
	previewLines int
}

// Diff renders the unified diff from A to B
func (it ConflictItem) Diff(ctx context.Context) *diff.Rendering {
	return rendererOr(it.renderer).RenderDiff(ctx, it.SourceA, it.SourceB)
}

// Preview renders the first lines of one side
func (it ConflictItem) Preview(ctx context.Context, side models.Side) *diff.Rendering {
	src := it.SourceA
	if side == models.SideB {
		src = it.SourceB
	}
	return rendererOr(it.renderer).Preview(ctx, src, it.previewLines)
}

// Options returns the decisions accepted for the item
func (it ConflictItem) Options() []models.MergeDecision {
	return models.ConflictDecisions
}

func rendererOr(r *diff.Renderer) *diff.Renderer {
	if r == nil {
		return defaultRenderer
	}
	return r
}

// DecisionSource supplies one decision per item. Implementations may block
// waiting for an operator; they return ErrAborted to stop the merge.
type DecisionSource interface {
	DecideUnique(ctx context.Context, item UniqueItem) (models.MergeDecision, error)
	DecideConflict(ctx context.Context, item ConflictItem) (models.MergeDecision, error)
}

// ScriptedDecisions returns fixed decisions, for tests and non-interactive
// runs. Per-path entries take precedence over the defaults.
type ScriptedDecisions struct {
	// Unique is the default for unique and renamed files (default Copy)
	Unique models.MergeDecision
	// Conflict is the default for conflicts (default Skip)
	Conflict models.MergeDecision
	// Paths overrides the decision for specific relative paths
	Paths map[string]models.MergeDecision
	// AbortAt makes the source return ErrAborted for that path
	AbortAt string

	// Asked records every path a decision was requested for, in order
	Asked []string
}

// DecideUnique implements DecisionSource
func (s *ScriptedDecisions) DecideUnique(ctx context.Context, item UniqueItem) (models.MergeDecision, error) {
	return s.decide(item.Path, s.Unique, models.DecisionCopy)
}

// DecideConflict implements DecisionSource
func (s *ScriptedDecisions) DecideConflict(ctx context.Context, item ConflictItem) (models.MergeDecision, error) {
	return s.decide(item.Path, s.Conflict, models.DecisionSkip)
}

func (s *ScriptedDecisions) decide(path string, def, fallback models.MergeDecision) (models.MergeDecision, error) {
	s.Asked = append(s.Asked, path)
	if s.AbortAt != "" && path == s.AbortAt {
		return "", ErrAborted
	}
	if d, ok := s.Paths[path]; ok {
		return d, nil
	}
	if def != "" {
		return def, nil
	}
	return fallback, nil
}

// StrategySource answers conflicts from a fixed strategy and unique files
// from a fixed choice, delegating to Next for anything left to ask.
type StrategySource struct {
	Strategy models.ConflictStrategy
	// CopyUnique, when set, answers every unique and renamed file
	CopyUnique *bool
	Next       DecisionSource
}

// DecideUnique implements DecisionSource
func (s *StrategySource) DecideUnique(ctx context.Context, item UniqueItem) (models.MergeDecision, error) {
	if s.CopyUnique != nil {
		if *s.CopyUnique {
			return models.DecisionCopy, nil
		}
		return models.DecisionSkip, nil
	}
	if s.Next == nil {
		return "", fmt.Errorf("no decision source for %s", item.Path)
	}
	return s.Next.DecideUnique(ctx, item)
}

// DecideConflict implements DecisionSource
func (s *StrategySource) DecideConflict(ctx context.Context, item ConflictItem) (models.MergeDecision, error) {
	switch s.Strategy {
	case models.StrategyTakeA:
		return models.DecisionTakeA, nil
	case models.StrategyTakeB:
		return models.DecisionTakeB, nil
	case models.StrategySkip:
		return models.DecisionSkip, nil
	}
	if s.Next == nil {
		return "", fmt.Errorf("no decision source for %s", item.Path)
	}
	return s.Next.DecideConflict(ctx, item)
}
