// Package report renders human-readable build summaries for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/itsmostafa/icdtree/internal/pipeline"
	"github.com/itsmostafa/icdtree/internal/ranges"
)

var (
	// titleStyle for bold red headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("160"))

	// dimStyle for muted labels
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// boxStyle for the summary box
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("160")).
			Padding(0, 1)

	// headerBoxStyle for the run header
	headerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("160")).
			Padding(0, 1)
)

// Header describes the inputs of a build.
type Header struct {
	Input    string
	Layout   string
	Chapters string
	Sections string
	Output   string
	Format   string
}

// FormatHeader renders the build header.
func FormatHeader(w io.Writer, h Header) {
	chapters := h.Chapters
	if chapters == "" {
		chapters = dimStyle.Render("built-in")
	}
	sections := h.Sections
	if sections == "" {
		sections = dimStyle.Render("none")
	}
	output := h.Output
	if output == "" || output == "-" {
		output = "stdout"
	}

	content := fmt.Sprintf("%s %s  %s %s\n%s %s\n%s %s\n%s %s  %s %s",
		dimStyle.Render("Input:"), h.Input,
		dimStyle.Render("Layout:"), titleStyle.Render(h.Layout),
		dimStyle.Render("Chapters:"), chapters,
		dimStyle.Render("Sections:"), sections,
		dimStyle.Render("Output:"), output,
		dimStyle.Render("Format:"), titleStyle.Render(h.Format),
	)
	fmt.Fprintln(w, headerBoxStyle.Render(content))
}

// FormatSummary renders the result of a build.
func FormatSummary(w io.Writer, res *pipeline.Result) {
	line1 := fmt.Sprintf("%s %s  %s %s  %s %d  %s %.2fs",
		dimStyle.Render("Records:"), formatNumber(res.Records),
		dimStyle.Render("Rows:"), formatNumber(res.Kept),
		dimStyle.Render("Depth:"), res.MaxIndent,
		dimStyle.Render("Time:"), res.Duration.Seconds(),
	)

	line2 := fmt.Sprintf("%s %s chapters, %s sections",
		dimStyle.Render("Unclassified:"),
		count(res.UnclassifiedChapters), count(res.UnclassifiedSections),
	)

	lines := []string{titleStyle.Render("Build Complete"), line1, line2}

	if n := len(res.Skipped); n > 0 {
		lines = append(lines, fmt.Sprintf("%s %s", dimStyle.Render("Skipped:"),
			warnStyle.Render(fmt.Sprintf("%s malformed lines", formatNumber(n)))))
	}
	if missing := res.Missing(); len(missing) > 0 {
		lines = append(lines, fmt.Sprintf("%s %s", dimStyle.Render("Missing columns:"),
			warnStyle.Render(strings.Join(missing, ", "))))
	}
	lines = append(lines, fmt.Sprintf("%s %s", dimStyle.Render("Run:"), dimStyle.Render(res.RunID)))

	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
}

// FormatError renders a failed rebuild in watch mode.
func FormatError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", errorStyle.Render("ERROR"), err)
}

// Classification is one row of `icdtree classify` output.
type Classification struct {
	Code    string
	Chapter ranges.Result
	Section ranges.Result

	// ChapterMatch and SectionMatch are shown with --explain.
	ChapterMatch ranges.Match
	SectionMatch ranges.Match
}

// FormatClassification renders classify results, one code per line.
func FormatClassification(w io.Writer, rows []Classification, explain bool) {
	for _, r := range rows {
		fmt.Fprintf(w, "%s  %s %s  %s %s\n",
			titleStyle.Render(fmt.Sprintf("%-8s", r.Code)),
			dimStyle.Render("chapter:"), result(r.Chapter),
			dimStyle.Render("section:"), result(r.Section),
		)
		if explain {
			fmt.Fprintf(w, "          %s %s  %s %s\n",
				dimStyle.Render("chapter rule:"), explainMatch(r.ChapterMatch),
				dimStyle.Render("section rule:"), explainMatch(r.SectionMatch),
			)
		}
	}
}

func result(r ranges.Result) string {
	if r.IsUnclassified() {
		return warnStyle.Render(r.Name)
	}
	return fmt.Sprintf("%s (%s)", r.Name, successStyle.Render(r.Range))
}

func explainMatch(m ranges.Match) string {
	if m.Index < 0 {
		return "no match"
	}
	return fmt.Sprintf("row %d, %s", m.Index+1, m.Rule)
}

func count(n int) string {
	if n == 0 {
		return successStyle.Render("0")
	}
	return warnStyle.Render(formatNumber(n))
}

// formatNumber adds commas to large numbers for readability
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%d,%03d", n/1000, n%1000)
	}
	return fmt.Sprintf("%d,%03d,%03d", n/1000000, (n/1000)%1000, n%1000)
}
