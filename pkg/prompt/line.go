package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sdejongh/dirmerge/pkg/diff"
	"github.com/sdejongh/dirmerge/pkg/merge"
	"github.com/sdejongh/dirmerge/pkg/models"
	"github.com/sdejongh/dirmerge/pkg/output"
)

// LinePrompter asks questions with numbered menus read line by line.
// Invalid answers are reported and the question is asked again.
type LinePrompter struct {
	in   *bufio.Reader
	out  io.Writer
	opts Options
}

// NewLinePrompter creates a prompter reading answers from in
func NewLinePrompter(in io.Reader, out io.Writer, opts Options) *LinePrompter {
	if opts.PreviewLines <= 0 {
		opts.PreviewLines = diff.DefaultPreviewLines
	}
	return &LinePrompter{in: bufio.NewReader(in), out: out, opts: opts}
}

// readLine returns the next trimmed line. End of input aborts.
func (p *LinePrompter) readLine(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && strings.TrimSpace(line) != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(p.out)
			return "", ErrAborted
		}
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (p *LinePrompter) invalid(msg string) {
	fmt.Fprintf(p.out, "    ✗ %s\n", msg)
}

// show writes a diff or preview
func (p *LinePrompter) show(r *diff.Rendering) {
	output.WriteRendering(p.out, r, p.opts.Colorize)
}

func sideLabel(side models.Side) string {
	if side == models.SideB {
		return "second directory"
	}
	return "first directory"
}

// describeUnique prints what the item is and where it comes from
func describeUnique(w io.Writer, item merge.UniqueItem) {
	fmt.Fprintf(w, "\n  [%d/%d] %s\n", item.Position, item.Total, item.Path)
	if item.Category == models.CategoryRenamed {
		fmt.Fprintf(w, "  Same content exists in the %s as: %s\n",
			sideLabel(item.Side.Other()), strings.Join(item.RenamedAs, ", "))
	} else {
		fmt.Fprintf(w, "  Only in the %s\n", sideLabel(item.Side))
	}
}

// DecideUnique implements merge.DecisionSource
func (p *LinePrompter) DecideUnique(ctx context.Context, item merge.UniqueItem) (models.MergeDecision, error) {
	describeUnique(p.out, item)
	p.show(item.Preview(ctx))

	for {
		fmt.Fprintf(p.out, "\n    What do you want to do with this file?\n")
		fmt.Fprintf(p.out, "    1. Copy to the merged directory\n")
		fmt.Fprintf(p.out, "    2. Skip (do not copy)\n")
		fmt.Fprintf(p.out, "    3. Show preview again\n")

		choice, err := p.readLine(ctx, "\n    Your choice (1-3): ")
		if err != nil {
			return "", err
		}
		switch choice {
		case "1":
			return models.DecisionCopy, nil
		case "2":
			return models.DecisionSkip, nil
		case "3":
			p.show(item.Preview(ctx))
		default:
			p.invalid("Invalid option")
		}
	}
}

// DecideConflict implements merge.DecisionSource
func (p *LinePrompter) DecideConflict(ctx context.Context, item merge.ConflictItem) (models.MergeDecision, error) {
	fmt.Fprintf(p.out, "\n  [%d/%d] %s\n", item.Position, item.Total, item.Path)
	fmt.Fprintf(p.out, "  Exists in both directories with different content\n")
	p.show(item.Diff(ctx))

	for {
		fmt.Fprintf(p.out, "\n    Which version do you want to keep?\n")
		fmt.Fprintf(p.out, "    1. Version from the first directory\n")
		fmt.Fprintf(p.out, "    2. Version from the second directory\n")
		fmt.Fprintf(p.out, "    3. Show differences again\n")
		fmt.Fprintf(p.out, "    4. Preview the first directory's version\n")
		fmt.Fprintf(p.out, "    5. Preview the second directory's version\n")
		fmt.Fprintf(p.out, "    6. Skip this file (do not copy)\n")

		choice, err := p.readLine(ctx, "\n    Your choice (1-6): ")
		if err != nil {
			return "", err
		}
		switch choice {
		case "1":
			return models.DecisionTakeA, nil
		case "2":
			return models.DecisionTakeB, nil
		case "3":
			p.show(item.Diff(ctx))
		case "4":
			p.show(item.Preview(ctx, models.SideA))
		case "5":
			p.show(item.Preview(ctx, models.SideB))
		case "6":
			return models.DecisionSkip, nil
		default:
			p.invalid("Invalid option")
		}
	}
}

// Confirm implements Prompter. Anything but an affirmative answer is a no.
func (p *LinePrompter) Confirm(ctx context.Context, question string) (bool, error) {
	answer, err := p.readLine(ctx, question+" (y/n): ")
	if err != nil {
		return false, err
	}
	return IsYes(answer), nil
}

// Ask implements Prompter
func (p *LinePrompter) Ask(ctx context.Context, question, def string) (string, error) {
	prompt := question + ": "
	if def != "" {
		prompt = fmt.Sprintf("%s [%s]: ", question, def)
	}
	answer, err := p.readLine(ctx, prompt)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// SelectDirectory implements Prompter. It accepts a list number, a listed
// name, "this" for dir itself, or "exit".
func (p *LinePrompter) SelectDirectory(ctx context.Context, question, dir string, candidates []string) (string, error) {
	for {
		answer, err := p.readLine(ctx, "\n"+question+" ")
		if err != nil {
			return "", err
		}
		path, err := resolveDirectory(answer, dir, candidates)
		if err == nil {
			return path, nil
		}
		if errors.Is(err, ErrExit) {
			return "", err
		}
		p.invalid(err.Error())
	}
}

// resolveDirectory maps a directory answer to a path
func resolveDirectory(answer, dir string, candidates []string) (string, error) {
	switch strings.ToLower(answer) {
	case "exit":
		return "", ErrExit
	case "this":
		return dir, nil
	}

	if n, err := strconv.Atoi(answer); err == nil {
		if n < 1 || n > len(candidates) {
			return "", fmt.Errorf("enter a number between 1 and %d", len(candidates))
		}
		return filepath.Join(dir, candidates[n-1]), nil
	}

	for _, name := range candidates {
		if name == answer {
			return filepath.Join(dir, name), nil
		}
	}
	return "", errors.New("invalid input: use 'this', 'exit', a number from the list or a directory name")
}
