// Package prompt asks the operator for merge decisions and session input,
// either through numbered text menus or through terminal forms.
package prompt

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/sdejongh/dirmerge/pkg/merge"
	"github.com/sdejongh/dirmerge/pkg/output"
)

// ErrAborted is returned when the operator stops answering, for instance
// when the input reaches end of file
var ErrAborted = merge.ErrAborted

// ErrExit is returned by SelectDirectory when the operator types "exit"
var ErrExit = errors.New("exit requested")

// Prompter is a merge decision source that can also drive an interactive session
type Prompter interface {
	merge.DecisionSource

	// Confirm asks a yes/no question
	Confirm(ctx context.Context, question string) (bool, error)

	// Ask reads one line of free text; def is returned for an empty answer
	Ask(ctx context.Context, question, def string) (string, error)

	// SelectDirectory picks one of candidates (names under dir), dir itself
	// with "this", or returns ErrExit
	SelectDirectory(ctx context.Context, question, dir string, candidates []string) (string, error)
}

// Options configures a Prompter
type Options struct {
	// Colorize enables colored diffs and previews
	Colorize bool
	// PreviewLines is the length of file previews (default 10)
	PreviewLines int
	// Forms uses terminal forms when both ends are terminals
	Forms bool
}

// New returns a FormPrompter when forms are enabled and in and out are
// terminals, and a LinePrompter otherwise
func New(in io.Reader, out io.Writer, opts Options) Prompter {
	line := NewLinePrompter(in, out, opts)
	if opts.Forms && isTerminalReader(in) && output.IsTerminal(out) {
		return NewFormPrompter(line)
	}
	return line
}

func isTerminalReader(in io.Reader) bool {
	file, ok := in.(*os.File)
	if !ok {
		return false
	}
	return output.IsTerminal(file)
}

// yesAnswers are the accepted affirmative answers
var yesAnswers = map[string]bool{
	"y":   true,
	"yes": true,
	"s":   true,
	"si":  true,
	"sí":  true,
}

// IsYes reports whether an answer is affirmative
func IsYes(answer string) bool {
	return yesAnswers[strings.ToLower(strings.TrimSpace(answer))]
}
