package output

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/sdejongh/dirmerge/pkg/models"
)

// palette holds the colors used by the human output
type palette struct {
	ok      *color.Color
	fail    *color.Color
	skip    *color.Color
	heading *color.Color
	add     *color.Color
	del     *color.Color
	hunk    *color.Color
	dim     *color.Color
}

func newPalette(colorize bool) palette {
	p := palette{
		ok:      color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		skip:    color.New(color.FgYellow),
		heading: color.New(color.Bold),
		add:     color.New(color.FgGreen),
		del:     color.New(color.FgRed),
		hunk:    color.New(color.FgCyan),
		dim:     color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.ok, p.fail, p.skip, p.heading, p.add, p.del, p.hunk, p.dim} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// CategoryLabel returns the display name of a category
func CategoryLabel(category models.Category) string {
	switch category {
	case models.CategoryUniqueA:
		return "unique files of the first directory"
	case models.CategoryUniqueB:
		return "unique files of the second directory"
	case models.CategoryConflict:
		return "conflicting files"
	case models.CategoryIdentical:
		return "identical files"
	case models.CategoryRenamed:
		return "renamed files"
	default:
		return string(category)
	}
}

// HumanFormatter formats output in human-readable format
type HumanFormatter struct {
	writer    io.Writer
	summary   models.ComparisonSummary
	startTime time.Time
	colors    palette
}

// NewHumanFormatter creates a new human-readable formatter
func NewHumanFormatter(colorize bool) *HumanFormatter {
	return &HumanFormatter{colors: newPalette(colorize)}
}

// Start initializes the formatter
func (f *HumanFormatter) Start(writer io.Writer, summary models.ComparisonSummary) error {
	f.writer = writer
	f.summary = summary
	f.startTime = time.Now()

	if writer != nil {
		fmt.Fprintf(writer, "\n%s\n", f.colors.heading.Sprint("Starting merge"))
	}

	return nil
}

// Progress reports progress during the merge
func (f *HumanFormatter) Progress(update ProgressUpdate) error {
	if f.writer == nil {
		return nil
	}

	switch update.Type {
	case UpdatePassStart:
		if update.TotalFiles > 0 {
			fmt.Fprintf(f.writer, "\n%s (%d)\n",
				f.colors.heading.Sprintf("Processing %s", CategoryLabel(update.Category)), update.TotalFiles)
		}

	case UpdateFileComplete:
		from := ""
		if update.Category == models.CategoryConflict {
			from = fmt.Sprintf(" [kept %s]", update.Side)
		}
		fmt.Fprintf(f.writer, "  [%d/%d] %s %s%s (%s)\n",
			update.CurrentFile, update.TotalFiles, f.colors.ok.Sprint("✓"),
			update.FilePath, from, humanize.IBytes(uint64(update.BytesWritten)))

	case UpdateFileSkipped:
		fmt.Fprintf(f.writer, "  [%d/%d] %s %s skipped\n",
			update.CurrentFile, update.TotalFiles, f.colors.skip.Sprint("-"), update.FilePath)

	case UpdateFileError:
		fmt.Fprintf(f.writer, "  [%d/%d] %s %s: %v\n",
			update.CurrentFile, update.TotalFiles, f.colors.fail.Sprint("✗"),
			update.FilePath, update.Error)
	}

	return nil
}

// Complete finalizes output and displays summary
func (f *HumanFormatter) Complete(outcome *models.MergeOutcome) error {
	if f.writer == nil {
		f.writer = io.Discard
	}
	w := f.writer
	s := outcome.Stats

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Merge completed in %s\n", outcome.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Destination: %s\n", outcome.DestPath)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Summary:\n")
	fmt.Fprintf(w, "  Unique (first):   %d copied, %d skipped\n", s.UniqueACopied, s.UniqueASkipped)
	fmt.Fprintf(w, "  Unique (second):  %d copied, %d skipped\n", s.UniqueBCopied, s.UniqueBSkipped)
	fmt.Fprintf(w, "  Conflicts:        %d kept from first, %d kept from second, %d skipped\n",
		s.ConflictsTakenA, s.ConflictsTakenB, s.ConflictsSkipped)
	fmt.Fprintf(w, "  Identical:        %d copied\n", s.IdenticalCopied)
	fmt.Fprintf(w, "  Renamed:          %d copied, %d skipped\n", s.RenamedCopied, s.RenamedSkipped)
	fmt.Fprintf(w, "  Failed:           %d\n", s.FilesFailed)
	fmt.Fprintf(w, "  Written:          %d files, %s\n", len(outcome.Written), humanize.IBytes(uint64(s.BytesWritten)))

	if len(outcome.Conflicts) > 0 {
		fmt.Fprintf(w, "\nConflict decisions:\n")
		for _, c := range outcome.Conflicts {
			switch c.Winner {
			case models.SideA, models.SideB:
				fmt.Fprintf(w, "  %s: kept %s\n", c.Path, c.Winner)
			default:
				fmt.Fprintf(w, "  %s: skipped\n", c.Path)
			}
		}
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Status: %s\n", f.statusColor(outcome.Status).Sprint(outcome.Status))

	if len(outcome.Errors) > 0 {
		fmt.Fprintf(w, "\nErrors:\n")
		for _, err := range outcome.Errors {
			fmt.Fprintf(w, "  %s: %s\n", err.FilePath, err.Error)
		}
	}

	return nil
}

func (f *HumanFormatter) statusColor(status models.MergeStatus) *color.Color {
	switch status {
	case models.StatusSuccess:
		return f.colors.ok
	case models.StatusPartial, models.StatusCancelled:
		return f.colors.skip
	default:
		return f.colors.fail
	}
}

// Error reports an error
func (f *HumanFormatter) Error(err error) error {
	if f.writer != nil {
		fmt.Fprintf(f.writer, "%s %v\n", f.colors.fail.Sprint("Error:"), err)
	}
	return nil
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}
