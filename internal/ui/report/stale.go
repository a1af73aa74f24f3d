package report

import (
	"fmt"
	"strings"
	"time"

	"ripple/internal/engine/stale"
)

func Stale(res stale.Result, format Format) ([]byte, error) {
	return render(format, res, func() string { return staleText(res) }, func() string { return staleTSV(res) })
}

func staleText(res stale.Result) string {
	var b strings.Builder
	writeTitle(&b, fmt.Sprintf("Stale propagation, max depth %d", res.MaxDepth))

	direct := make([]string, 0, len(res.DirectStale))
	for _, d := range res.DirectStale {
		if d.ModifiedAt != nil {
			direct = append(direct, fmt.Sprintf("%s (modified %s)", d.File, d.ModifiedAt.Format(time.RFC3339)))
		} else {
			direct = append(direct, d.File)
		}
	}
	writeList(&b, "Direct", direct)

	propagated := make([]string, 0, len(res.PropagatedStale))
	for _, p := range res.PropagatedStale {
		propagated = append(propagated, fmt.Sprintf("L%d %s <- %s", p.Level, p.File, p.Source))
	}
	writeList(&b, "Propagated", propagated)

	b.WriteString("Summary:")
	for _, level := range res.Levels() {
		fmt.Fprintf(&b, " L%d=%d", level, res.Summary[level])
	}
	b.WriteString("\n")

	if res.Tests != nil {
		writeList(&b, "Recommended tests", res.Tests)
	}
	if len(res.DirectStale) == 0 {
		b.WriteString(successStyle.Render("Graph is up to date."))
		b.WriteString("\n")
	}
	return b.String()
}

func staleTSV(res stale.Result) string {
	var b strings.Builder
	b.WriteString("File\tLevel\tSource\n")
	for _, d := range res.DirectStale {
		fmt.Fprintf(&b, "%s\t0\t\n", d.File)
	}
	for _, p := range res.PropagatedStale {
		fmt.Fprintf(&b, "%s\t%d\t%s\n", p.File, p.Level, p.Source)
	}
	return b.String()
}
