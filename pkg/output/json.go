package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sdejongh/dirmerge/pkg/models"
)

// JSONFormatter formats output as JSON for automation and scripting
type JSONFormatter struct {
	writer    io.Writer
	summary   models.ComparisonSummary
	startTime time.Time
	events    []JSONEvent
}

// JSONEvent represents a single event recorded during the merge
type JSONEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Category  string    `json:"category,omitempty"`
	Path      string    `json:"path,omitempty"`
	Side      string    `json:"side,omitempty"`
	Decision  string    `json:"decision,omitempty"`
	Bytes     int64     `json:"bytes,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// JSONReportData represents the final merge report
type JSONReportData struct {
	RunID      string                   `json:"run_id"`
	PathA      string                   `json:"path_a"`
	PathB      string                   `json:"path_b"`
	DestPath   string                   `json:"destination"`
	Status     string                   `json:"status"`
	Duration   string                   `json:"duration"`
	DurationMs int64                    `json:"duration_ms"`
	Comparison models.ComparisonSummary `json:"comparison"`
	Stats      JSONStatsData            `json:"stats"`
	Written    []string                 `json:"written"`
	Conflicts  []JSONConflictData       `json:"conflicts,omitempty"`
	Errors     []JSONErrorData          `json:"errors,omitempty"`
	Events     []JSONEvent              `json:"events,omitempty"`
}

// JSONStatsData represents the merge counts
type JSONStatsData struct {
	UniqueACopied    int    `json:"unique_a_copied"`
	UniqueASkipped   int    `json:"unique_a_skipped"`
	UniqueBCopied    int    `json:"unique_b_copied"`
	UniqueBSkipped   int    `json:"unique_b_skipped"`
	ConflictsTakenA  int    `json:"conflicts_taken_a"`
	ConflictsTakenB  int    `json:"conflicts_taken_b"`
	ConflictsSkipped int    `json:"conflicts_skipped"`
	IdenticalCopied  int    `json:"identical_copied"`
	RenamedCopied    int    `json:"renamed_copied"`
	RenamedSkipped   int    `json:"renamed_skipped"`
	FilesFailed      int    `json:"files_failed"`
	BytesWritten     int64  `json:"bytes_written"`
	BytesWrittenStr  string `json:"bytes_written_human"`
}

// JSONConflictData records the decision taken for one conflict
type JSONConflictData struct {
	Path     string `json:"path"`
	Decision string `json:"decision"`
	Winner   string `json:"winner,omitempty"`
	DigestA  string `json:"digest_a,omitempty"`
	DigestB  string `json:"digest_b,omitempty"`
}

// JSONErrorData represents an error entry
type JSONErrorData struct {
	Path     string `json:"path"`
	Category string `json:"category,omitempty"`
	Side     string `json:"side,omitempty"`
	Error    string `json:"error"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{
		events: make([]JSONEvent, 0),
	}
}

// Start initializes the formatter
func (f *JSONFormatter) Start(writer io.Writer, summary models.ComparisonSummary) error {
	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	f.summary = summary
	f.startTime = time.Now()
	return nil
}

// Progress records file events. Nothing is written until Complete, so the
// output stays a single parseable document.
func (f *JSONFormatter) Progress(update ProgressUpdate) error {
	if update.Type == UpdatePassStart {
		return nil
	}
	event := JSONEvent{
		Timestamp: time.Now(),
		Type:      update.Type,
		Category:  string(update.Category),
		Path:      update.FilePath,
		Side:      string(update.Side),
		Decision:  string(update.Decision),
		Bytes:     update.BytesWritten,
	}
	if update.Error != nil {
		event.Error = update.Error.Error()
	}
	f.events = append(f.events, event)
	return nil
}

// BuildReport converts an outcome into its JSON representation
func BuildReport(outcome *models.MergeOutcome, summary models.ComparisonSummary) JSONReportData {
	s := outcome.Stats
	report := JSONReportData{
		RunID:      outcome.RunID,
		PathA:      outcome.PathA,
		PathB:      outcome.PathB,
		DestPath:   outcome.DestPath,
		Status:     string(outcome.Status),
		Duration:   outcome.Duration.Round(time.Millisecond).String(),
		DurationMs: outcome.Duration.Milliseconds(),
		Comparison: summary,
		Stats: JSONStatsData{
			UniqueACopied:    s.UniqueACopied,
			UniqueASkipped:   s.UniqueASkipped,
			UniqueBCopied:    s.UniqueBCopied,
			UniqueBSkipped:   s.UniqueBSkipped,
			ConflictsTakenA:  s.ConflictsTakenA,
			ConflictsTakenB:  s.ConflictsTakenB,
			ConflictsSkipped: s.ConflictsSkipped,
			IdenticalCopied:  s.IdenticalCopied,
			RenamedCopied:    s.RenamedCopied,
			RenamedSkipped:   s.RenamedSkipped,
			FilesFailed:      s.FilesFailed,
			BytesWritten:     s.BytesWritten,
			BytesWrittenStr:  humanize.IBytes(uint64(s.BytesWritten)),
		},
		Written: outcome.Written,
	}
	if report.Written == nil {
		report.Written = []string{}
	}

	for _, c := range outcome.Conflicts {
		data := JSONConflictData{
			Path:     c.Path,
			Decision: string(c.Decision),
			Winner:   string(c.Winner),
		}
		if c.EntryA != nil {
			data.DigestA = string(c.EntryA.Digest)
		}
		if c.EntryB != nil {
			data.DigestB = string(c.EntryB.Digest)
		}
		report.Conflicts = append(report.Conflicts, data)
	}

	for _, e := range outcome.Errors {
		report.Errors = append(report.Errors, JSONErrorData{
			Path:     e.FilePath,
			Category: string(e.Category),
			Side:     string(e.Side),
			Error:    e.Error,
		})
	}
	return report
}

// Complete writes the merge report as one JSON document
func (f *JSONFormatter) Complete(outcome *models.MergeOutcome) error {
	if f.writer == nil {
		f.writer = io.Discard
	}

	report := BuildReport(outcome, f.summary)
	report.Events = f.events

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// Error reports an error
func (f *JSONFormatter) Error(err error) error {
	f.events = append(f.events, JSONEvent{
		Timestamp: time.Now(),
		Type:      "error",
		Error:     err.Error(),
	})
	return nil
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}
