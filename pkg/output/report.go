package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/sdejongh/dirmerge/pkg/models"
)

// ComparisonReport is everything shown after two directories are compared
type ComparisonReport struct {
	RunID     string
	PathA     string
	PathB     string
	Algorithm models.HashAlgorithm
	Result    *models.ComparisonResult
	Warnings  []string
}

// JSONComparison is the JSON form of a ComparisonReport
type JSONComparison struct {
	RunID     string                   `json:"run_id"`
	PathA     string                   `json:"path_a"`
	PathB     string                   `json:"path_b"`
	Algorithm string                   `json:"algorithm"`
	Summary   models.ComparisonSummary `json:"summary"`
	UniqueA   []string                 `json:"unique_a"`
	UniqueB   []string                 `json:"unique_b"`
	Conflicts []string                 `json:"conflicts"`
	Identical []string                 `json:"identical"`
	Renamed   []JSONRenamed            `json:"renamed"`
	Warnings  []string                 `json:"warnings,omitempty"`
}

// JSONRenamed lists the paths sharing one digest under different names
type JSONRenamed struct {
	Digest string   `json:"digest"`
	PathsA []string `json:"paths_a"`
	PathsB []string `json:"paths_b"`
}

// RenamedPairs returns the renamed groups ordered by their first A path
func RenamedPairs(result *models.ComparisonResult) []JSONRenamed {
	digests := lo.Keys(result.Renamed)
	pairs := lo.Map(digests, func(d models.ContentDigest, _ int) JSONRenamed {
		group := result.Renamed[d]
		return JSONRenamed{Digest: string(d), PathsA: group.PathsA, PathsB: group.PathsB}
	})
	sort.Slice(pairs, func(i, j int) bool {
		return firstOf(pairs[i].PathsA) < firstOf(pairs[j].PathsA)
	})
	return pairs
}

func firstOf(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	return paths[0]
}

// BuildComparison converts a report into its JSON representation
func BuildComparison(report *ComparisonReport) JSONComparison {
	r := report.Result
	nonNil := func(s []string) []string {
		if s == nil {
			return []string{}
		}
		return s
	}
	return JSONComparison{
		RunID:     report.RunID,
		PathA:     report.PathA,
		PathB:     report.PathB,
		Algorithm: string(report.Algorithm),
		Summary:   r.Summary(),
		UniqueA:   nonNil(r.UniquePaths(models.SideA)),
		UniqueB:   nonNil(r.UniquePaths(models.SideB)),
		Conflicts: nonNil(r.Conflicts),
		Identical: nonNil(r.Identical),
		Renamed:   RenamedPairs(r),
		Warnings:  report.Warnings,
	}
}

// WriteComparison writes a comparison report in the given format
func WriteComparison(w io.Writer, report *ComparisonReport, format string, colorize bool) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(BuildComparison(report))
	case "", "human":
		return writeComparisonHuman(w, report, colorize)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

type reportStyles struct {
	title   lipgloss.Style
	section lipgloss.Style
	faint   lipgloss.Style
}

func newReportStyles(w io.Writer, colorize bool) reportStyles {
	if !colorize {
		plain := lipgloss.NewStyle()
		return reportStyles{title: plain, section: plain, faint: plain}
	}
	r := lipgloss.NewRenderer(w)
	return reportStyles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		section: r.NewStyle().Bold(true),
		faint:   r.NewStyle().Faint(true),
	}
}

func writeComparisonHuman(w io.Writer, report *ComparisonReport, colorize bool) error {
	styles := newReportStyles(w, colorize)
	r := report.Result
	s := r.Summary()

	fmt.Fprintf(w, "\n%s\n", styles.title.Render("Comparison results"))
	fmt.Fprintf(w, "  A: %s (%d files)\n", report.PathA, s.FilesA)
	fmt.Fprintf(w, "  B: %s (%d files)\n", report.PathB, s.FilesB)
	if report.RunID != "" {
		fmt.Fprintf(w, "  %s\n", styles.faint.Render("run "+report.RunID))
	}

	section := func(label string, paths []string) {
		fmt.Fprintf(w, "\n%s\n", styles.section.Render(fmt.Sprintf("%s: %d", label, len(paths))))
		for _, p := range paths {
			fmt.Fprintf(w, "  %s\n", p)
		}
	}
	section("Unique to A", r.UniquePaths(models.SideA))
	section("Unique to B", r.UniquePaths(models.SideB))
	section("Conflicts (same name, different content)", r.Conflicts)
	section("Identical", r.Identical)

	pairs := RenamedPairs(r)
	fmt.Fprintf(w, "\n%s\n", styles.section.Render(fmt.Sprintf("Renamed (same content, different name): %d", s.RenamedA+s.RenamedB)))
	for _, pair := range pairs {
		fmt.Fprintf(w, "  A: %s  ↔  B: %s\n", strings.Join(pair.PathsA, ", "), strings.Join(pair.PathsB, ", "))
	}

	if len(report.Warnings) > 0 {
		fmt.Fprintf(w, "\n%s\n", styles.section.Render(fmt.Sprintf("Warnings: %d", len(report.Warnings))))
		for _, warning := range report.Warnings {
			fmt.Fprintf(w, "  %s\n", warning)
		}
	}

	if !s.HasDifferences() {
		fmt.Fprintf(w, "\nThe directories hold the same files.\n")
	}
	return nil
}
