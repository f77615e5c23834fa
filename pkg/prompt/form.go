package prompt

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/sdejongh/dirmerge/pkg/merge"
	"github.com/sdejongh/dirmerge/pkg/models"
)

// menuChoice is a decision or a request to show something again
type menuChoice string

const (
	choiceCopy     menuChoice = "copy"
	choiceTakeA    menuChoice = "take-a"
	choiceTakeB    menuChoice = "take-b"
	choiceSkip     menuChoice = "skip"
	choicePreview  menuChoice = "preview"
	choiceDiff     menuChoice = "diff"
	choicePreviewA menuChoice = "preview-a"
	choicePreviewB menuChoice = "preview-b"
)

var uniqueOptions = []huh.Option[menuChoice]{
	huh.NewOption("Copy to the merged directory", choiceCopy),
	huh.NewOption("Skip (do not copy)", choiceSkip),
	huh.NewOption("Show preview again", choicePreview),
}

var conflictOptions = []huh.Option[menuChoice]{
	huh.NewOption("Keep the first directory's version", choiceTakeA),
	huh.NewOption("Keep the second directory's version", choiceTakeB),
	huh.NewOption("Show differences again", choiceDiff),
	huh.NewOption("Preview the first directory's version", choicePreviewA),
	huh.NewOption("Preview the second directory's version", choicePreviewB),
	huh.NewOption("Skip this file (do not copy)", choiceSkip),
}

// FormPrompter asks decisions with terminal select forms. Renderings are
// written through the embedded LinePrompter, which also serves free text.
type FormPrompter struct {
	*LinePrompter
}

// NewFormPrompter wraps a line prompter
func NewFormPrompter(line *LinePrompter) *FormPrompter {
	return &FormPrompter{LinePrompter: line}
}

// selectChoice runs one select form
func selectChoice(title string, options []huh.Option[menuChoice]) (menuChoice, error) {
	var choice menuChoice
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[menuChoice]().
				Title(title).
				Options(options...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", ErrAborted
		}
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return choice, nil
}

// DecideUnique implements merge.DecisionSource
func (p *FormPrompter) DecideUnique(ctx context.Context, item merge.UniqueItem) (models.MergeDecision, error) {
	describeUnique(p.out, item)
	p.show(item.Preview(ctx))

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		choice, err := selectChoice(fmt.Sprintf("What do you want to do with %s?", item.Path), uniqueOptions)
		if err != nil {
			return "", err
		}
		switch choice {
		case choiceCopy:
			return models.DecisionCopy, nil
		case choiceSkip:
			return models.DecisionSkip, nil
		default:
			p.show(item.Preview(ctx))
		}
	}
}

// DecideConflict implements merge.DecisionSource
func (p *FormPrompter) DecideConflict(ctx context.Context, item merge.ConflictItem) (models.MergeDecision, error) {
	fmt.Fprintf(p.out, "\n  [%d/%d] %s\n", item.Position, item.Total, item.Path)
	fmt.Fprintf(p.out, "  Exists in both directories with different content\n")
	p.show(item.Diff(ctx))

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		choice, err := selectChoice(fmt.Sprintf("Which version of %s do you want to keep?", item.Path), conflictOptions)
		if err != nil {
			return "", err
		}
		switch choice {
		case choiceTakeA:
			return models.DecisionTakeA, nil
		case choiceTakeB:
			return models.DecisionTakeB, nil
		case choiceSkip:
			return models.DecisionSkip, nil
		case choiceDiff:
			p.show(item.Diff(ctx))
		case choicePreviewA:
			p.show(item.Preview(ctx, models.SideA))
		case choicePreviewB:
			p.show(item.Preview(ctx, models.SideB))
		}
	}
}

// Confirm implements Prompter
func (p *FormPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Affirmative("Yes").
				Negative("No").
				Value(&confirmed),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, ErrAborted
		}
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return confirmed, nil
}
