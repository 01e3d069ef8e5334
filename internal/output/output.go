package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/crview/crview/internal/models"
	"github.com/crview/crview/internal/review"
)

// UI provides colored terminal output and respects verbose mode.
type UI struct {
	Verbose bool
	Out     io.Writer
	ErrOut  io.Writer
}

// New creates a UI with default stdout/stderr writers.
func New() *UI {
	return &UI{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}
}

var (
	infoPrefix    = color.New(color.FgHiBlue).Sprint("i")
	successPrefix = color.New(color.FgHiGreen).Sprint("✓")
	warningPrefix = color.New(color.FgHiYellow).Sprint("⚠")
	errorPrefix   = color.New(color.FgHiRed).Sprint("✗")
	verbosePrefix = color.New(color.FgHiBlue).Sprint("  →")
	cyan          = color.New(color.FgHiCyan).SprintFunc()
	green         = color.New(color.FgHiGreen).SprintFunc()
	yellow        = color.New(color.FgHiYellow).SprintFunc()
	red           = color.New(color.FgHiRed).SprintFunc()
	bold          = color.New(color.Bold).SprintFunc()
)

// Cyan returns a cyan-colored string.
func Cyan(s string) string { return cyan(s) }

// Green returns a green-colored string.
func Green(s string) string { return green(s) }

// Yellow returns a yellow-colored string.
func Yellow(s string) string { return yellow(s) }

// Red returns a red-colored string.
func Red(s string) string { return red(s) }

// SeverityColor returns the severity label colored by rank.
func SeverityColor(sev models.Severity) string {
	switch sev {
	case models.SeverityCritical:
		return red(string(sev))
	case models.SeverityMajor:
		return yellow(string(sev))
	case models.SeverityMinor:
		return cyan(string(sev))
	default:
		return string(sev)
	}
}

// ScoreColor renders a score colored by its band.
func ScoreColor(score float64) string {
	s := fmt.Sprintf("%.1f", score)
	switch review.ColorBand(score) {
	case review.BandExcellent:
		return green(s)
	case review.BandGood:
		return cyan(s)
	case review.BandFair:
		return yellow(s)
	default:
		return red(s)
	}
}

func (u *UI) Info(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", infoPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Success(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", successPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Warning(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", warningPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Error(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", errorPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) VerboseLog(format string, a ...any) {
	if u.Verbose {
		fmt.Fprintf(u.Out, "%s %s\n", verbosePrefix, fmt.Sprintf(format, a...))
	}
}

// Table creates a new tablewriter configured with consistent styling.
func (u *UI) Table(headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(u.Out,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}

// RenderSummary prints the result's headline numbers.
func (u *UI) RenderSummary(result *models.ReviewResult) {
	s := result.Summary
	fmt.Fprintf(u.Out, "%s\n\n", bold("Review Summary"))
	fmt.Fprintf(u.Out, "  Files reviewed:    %d\n", s.TotalFiles)
	fmt.Fprintf(u.Out, "  Average score:     %s\n", ScoreColor(s.AverageScore))
	if s.AverageMaintainability > 0 {
		fmt.Fprintf(u.Out, "  Maintainability:   %s\n", ScoreColor(s.AverageMaintainability))
	}
	if s.AverageSecurity > 0 {
		fmt.Fprintf(u.Out, "  Security:          %s\n", ScoreColor(s.AverageSecurity))
	}
	fmt.Fprintf(u.Out, "  Issues found:      %d\n", s.TotalIssuesFound)
	fmt.Fprintf(u.Out, "  Improvements:      %d\n", s.TotalImprovementsSuggested)
	if s.CriticalIssues > 0 {
		fmt.Fprintf(u.Out, "  Critical issues:   %s\n", red(fmt.Sprintf("%d", s.CriticalIssues)))
	}
	if s.Recommendation != "" {
		fmt.Fprintf(u.Out, "\n  %s\n", s.Recommendation)
	}
	if m := result.Metadata; m.ReviewedBy != "" {
		u.VerboseLog("reviewed by %s (%d scanned, %d reviewed)",
			m.ReviewedBy, m.TotalFilesScanned, m.TotalFilesReviewed)
	}
}

// RenderDistribution prints the issue-type breakdown as horizontal bars,
// widest category first.
func (u *UI) RenderDistribution(dist map[string]int) {
	entries := review.DistributionPairs(dist)
	if len(entries) == 0 {
		return
	}
	max := entries[0].Count
	fmt.Fprintf(u.Out, "\n%s\n\n", bold("Issue Distribution"))
	for _, e := range entries {
		width := 0
		if max > 0 {
			width = e.Count * 24 / max
		}
		bar := strings.Repeat("█", width)
		fmt.Fprintf(u.Out, "  %-16s %s %d\n", e.Label, cyan(bar), e.Count)
	}
}

// RenderFiles prints the per-file score table.
func (u *UI) RenderFiles(files []models.ReviewedFile) {
	table := u.Table([]string{"File", "Score", "Security", "Maintainability", "Issues"})
	for _, f := range files {
		table.Append([]string{
			f.FilePath,
			ScoreColor(f.FileScore.Overall),
			ScoreColor(f.FileScore.Security),
			ScoreColor(f.FileScore.Maintainability),
			fmt.Sprintf("%d", len(f.Issues)),
		})
	}
	if err := table.Render(); err != nil {
		u.Error("render table: %v", err)
	}
}

// RenderIssues prints the flattened issue feed, ordered by severity, with the
// per-severity counts from the unfiltered set on top. pred is a severity name
// or review.FilterAll.
func (u *UI) RenderIssues(files []models.ReviewedFile, pred string) {
	all := review.SortBySeverity(review.Flatten(files))
	counts := review.CountBySeverity(all)
	fmt.Fprintf(u.Out, "%s   %s %d   %s %d   %s %d\n\n", bold("Issues"),
		SeverityColor(models.SeverityCritical), counts[models.SeverityCritical],
		SeverityColor(models.SeverityMajor), counts[models.SeverityMajor],
		SeverityColor(models.SeverityMinor), counts[models.SeverityMinor])

	shown := review.Filter(all, pred)
	if len(shown) == 0 {
		u.Info("no issues to show")
		return
	}
	for _, iss := range shown {
		loc := fmt.Sprintf("%s:%d", iss.Filename, iss.LineRange.Start)
		if iss.LineRange.End > iss.LineRange.Start {
			loc = fmt.Sprintf("%s-%d", loc, iss.LineRange.End)
		}
		fmt.Fprintf(u.Out, "%s  %s  %s\n", SeverityColor(iss.Severity), cyan(loc), iss.Type)
		fmt.Fprintf(u.Out, "  %s\n", iss.Message)
		if iss.Recommendation != "" {
			fmt.Fprintf(u.Out, "  %s %s\n", green("fix:"), iss.Recommendation)
		}
		if u.Verbose && iss.CodeExample != "" {
			fmt.Fprintf(u.Out, "\n%s\n", indent(iss.CodeExample, "    "))
		}
		fmt.Fprintln(u.Out)
	}
}

// RenderHistory prints the past-uploads table, newest ordering as received.
func (u *UI) RenderHistory(records []models.HistoryRecord) {
	table := u.Table([]string{"#", "When", "Type", "Files", "Score", "Issues"})
	for i, r := range records {
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			r.Timestamp.Format("2006-01-02 15:04"),
			r.UploadType,
			fmt.Sprintf("%d", r.Result.Summary.TotalFiles),
			ScoreColor(r.Result.Summary.AverageScore),
			fmt.Sprintf("%d", r.Result.Summary.TotalIssuesFound),
		})
	}
	if err := table.Render(); err != nil {
		u.Error("render table: %v", err)
	}
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
