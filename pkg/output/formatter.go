package output

import (
	"fmt"
	"io"

	"github.com/sdejongh/dirmerge/pkg/models"
)

// Progress update types
const (
	UpdatePassStart    = "pass_start"
	UpdateFileComplete = "file_complete"
	UpdateFileSkipped  = "file_skipped"
	UpdateFileError    = "file_error"
)

// ProgressUpdate represents a progress notification during a merge
type ProgressUpdate struct {
	Type         string // one of the Update* constants
	Category     models.Category
	FilePath     string
	Side         models.Side
	Decision     models.MergeDecision
	BytesWritten int64
	CurrentFile  int
	TotalFiles   int
	Error        error
}

// Formatter defines the interface for merge output formatting
// Implementations include human-readable and JSON formatters
type Formatter interface {
	// Start initializes the formatter for a new merge
	Start(writer io.Writer, summary models.ComparisonSummary) error

	// Progress reports progress during the merge
	Progress(update ProgressUpdate) error

	// Complete finalizes output and displays the outcome
	Complete(outcome *models.MergeOutcome) error

	// Error reports an error during the merge
	Error(err error) error

	// Name returns the formatter name
	Name() string
}

// NewFormatter returns the formatter for a format name
func NewFormatter(format string, colorize bool) (Formatter, error) {
	switch format {
	case "", "human":
		return NewHumanFormatter(colorize), nil
	case "json":
		return NewJSONFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}
