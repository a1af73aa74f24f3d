package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	riskStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	itemStyle = lipgloss.NewStyle().PaddingLeft(2)
)

func writeTitle(b *strings.Builder, title string) {
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
}

// writeList prints a heading with a count and one indented line per item,
// or a muted "(none)" when items is empty.
func writeList(b *strings.Builder, heading string, items []string) {
	fmt.Fprintf(b, "%s (%d)\n", heading, len(items))
	if len(items) == 0 {
		b.WriteString(itemStyle.Render(mutedStyle.Render("(none)")))
		b.WriteString("\n")
		return
	}
	for _, item := range items {
		b.WriteString(itemStyle.Render(item))
		b.WriteString("\n")
	}
}

func signed(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%d", n)
}
