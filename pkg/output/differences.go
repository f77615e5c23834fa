package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sdejongh/dirmerge/pkg/models"
)

// WriteOutcome writes the merge report to a file.
// Format can be "human" or "json".
func WriteOutcome(outcome *models.MergeOutcome, summary models.ComparisonSummary, filepath string, format string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	switch format {
	case "json":
		err = writeOutcomeJSON(outcome, summary, file)
	default:
		err = writeOutcomeHuman(outcome, summary, file)
	}
	if err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

func writeOutcomeHuman(outcome *models.MergeOutcome, summary models.ComparisonSummary, w io.Writer) error {
	fmt.Fprintf(w, "Merge Report\n")
	fmt.Fprintf(w, "============\n\n")
	fmt.Fprintf(w, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "Run: %s\n", outcome.RunID)
	fmt.Fprintf(w, "A: %s\n", outcome.PathA)
	fmt.Fprintf(w, "B: %s\n", outcome.PathB)
	fmt.Fprintf(w, "Destination: %s\n", outcome.DestPath)
	fmt.Fprintf(w, "Status: %s\n\n", outcome.Status)

	fmt.Fprintf(w, "Compared: %d files in A, %d files in B\n", summary.FilesA, summary.FilesB)
	fmt.Fprintf(w, "Written: %d files (%s)\n", len(outcome.Written), humanize.IBytes(uint64(outcome.Stats.BytesWritten)))
	fmt.Fprintf(w, "Skipped: %d\n", outcome.Stats.Skipped())
	fmt.Fprintf(w, "Failed: %d\n\n", outcome.Stats.FilesFailed)

	heading := func(label string, n int) {
		line := fmt.Sprintf("%s (%d)", label, n)
		fmt.Fprintf(w, "%s\n%s\n", line, strings.Repeat("-", len(line)))
	}

	if len(outcome.Written) > 0 {
		heading("Written Files", len(outcome.Written))
		for _, p := range outcome.Written {
			fmt.Fprintf(w, "  %s\n", p)
		}
		fmt.Fprintf(w, "\n")
	}

	if len(outcome.Conflicts) > 0 {
		heading("Conflicts", len(outcome.Conflicts))
		for _, c := range outcome.Conflicts {
			fmt.Fprintf(w, "  %s\n", c.Path)
			if c.Winner != "" {
				fmt.Fprintf(w, "    Kept: %s\n", c.Winner)
			} else {
				fmt.Fprintf(w, "    Skipped\n")
			}
			if c.EntryA != nil {
				fmt.Fprintf(w, "    A: %s, digest %s\n", humanize.IBytes(uint64(c.EntryA.Size)), c.EntryA.Digest.Short())
			}
			if c.EntryB != nil {
				fmt.Fprintf(w, "    B: %s, digest %s\n", humanize.IBytes(uint64(c.EntryB.Size)), c.EntryB.Digest.Short())
			}
		}
		fmt.Fprintf(w, "\n")
	}

	if len(outcome.Errors) > 0 {
		heading("Errors", len(outcome.Errors))
		for _, e := range outcome.Errors {
			fmt.Fprintf(w, "  %s\n    %s\n", e.FilePath, e.Error)
		}
		fmt.Fprintf(w, "\n")
	}

	return nil
}

func writeOutcomeJSON(outcome *models.MergeOutcome, summary models.ComparisonSummary, w io.Writer) error {
	output := struct {
		Generated string `json:"generated"`
		JSONReportData
	}{
		Generated:      time.Now().Format(time.RFC3339),
		JSONReportData: BuildReport(outcome, summary),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
