package ponder

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Box styles per thought kind. Colors only differ; the frame is shared.
var (
	plainBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7AA2F7")).
			Padding(0, 1)

	revisionBoxStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#E0AF68")).
				Padding(0, 1)

	branchBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#9ECE6A")).
			Padding(0, 1)
)

// RenderThought formats a stored thought as a bordered box for
// diagnostic output. The header names the thought's position and, for
// revisions and branches, what it ties back to. Meta commentary is
// appended below the body when present.
func RenderThought(t Thought) string {
	var header string
	style := plainBoxStyle
	switch t.Kind() {
	case KindRevision:
		header = fmt.Sprintf("🔄 Revision %d/%d (of %d)", t.Index, t.TotalPlanned, *t.RevisesIndex)
		style = revisionBoxStyle
	case KindBranch:
		header = fmt.Sprintf("🌿 Branch %d/%d (from %d, %s)", t.Index, t.TotalPlanned, *t.BranchFrom, t.BranchID)
		style = branchBoxStyle
	default:
		header = fmt.Sprintf("💭 Thought %d/%d", t.Index, t.TotalPlanned)
	}

	lines := []string{header, "", t.Body}
	var meta []string
	if t.Confidence > 0 {
		meta = append(meta, fmt.Sprintf("Confidence: %d%%", int(math.Round(t.Confidence*100))))
	}
	if t.MetaNote != "" {
		meta = append(meta, fmt.Sprintf("Note: %s", t.MetaNote))
	}
	if len(t.Alternatives) > 0 {
		meta = append(meta, fmt.Sprintf("Alternatives: %s", strings.Join(t.Alternatives, " | ")))
	}
	if len(meta) > 0 {
		lines = append(lines, "")
		lines = append(lines, meta...)
	}

	return style.Render(strings.Join(lines, "\n"))
}

// RenderRanking formats sieve results as a numbered report, one line
// per section with its score. Empty input renders to the empty string.
func RenderRanking(sections []RankedSection) string {
	if len(sections) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Relevance ranking:\n")
	for i, sec := range sections {
		fmt.Fprintf(&b, "  %d. %s (score %.1f)\n", i+1, sec.Name, sec.Score)
	}
	return b.String()
}
