package report

import (
	"fmt"
	"strings"

	"ripple/internal/data/history"
)

func Trend(report history.TrendReport, format Format) ([]byte, error) {
	return render(format, report, func() string { return trendText(report) }, func() string { return trendTSV(report) })
}

func trendText(report history.TrendReport) string {
	var b strings.Builder
	writeTitle(&b, fmt.Sprintf("Build history for %s (%d build(s))", report.ProjectKey, report.BuildCount))
	for _, p := range report.Points {
		line := fmt.Sprintf("%s  files=%d (%s)  edges=%d (%s)  cycles=%d (%s)  %dms",
			p.GeneratedAt.Format("2006-01-02 15:04:05"),
			p.TotalFiles, signed(p.DeltaFiles),
			p.TotalEdges, signed(p.DeltaEdges),
			p.CycleCount, signed(p.DeltaCycles),
			p.Duration.Milliseconds(),
		)
		if p.DeltaCycles > 0 {
			line = riskStyle.Render(line)
		}
		b.WriteString(itemStyle.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func trendTSV(report history.TrendReport) string {
	var buf strings.Builder
	buf.WriteString("Generated\tBuildID\tFiles\tEdges\tCycles\tSkipped\tDurationMs\tDeltaFiles\tDeltaEdges\tDeltaCycles\tEdgesPerFile\tFileGrowthPct\n")
	for _, p := range report.Points {
		fmt.Fprintf(&buf, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%.2f\t%.2f\n",
			p.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
			p.BuildID,
			p.TotalFiles,
			p.TotalEdges,
			p.CycleCount,
			p.Skipped,
			p.Duration.Milliseconds(),
			p.DeltaFiles,
			p.DeltaEdges,
			p.DeltaCycles,
			p.EdgesPerFile,
			p.FileGrowthPct,
		)
	}
	return buf.String()
}
