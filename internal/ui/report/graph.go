package report

import (
	"fmt"
	"strings"
	"time"

	"ripple/internal/core/ports"
)

// BuildSummary is the serializable view of a build; the graph itself lives
// in the artifact.
type BuildSummary struct {
	BuildID         string    `json:"buildId"`
	Generated       time.Time `json:"generated"`
	Artifact        string    `json:"artifact"`
	TotalFiles      int       `json:"totalFiles"`
	TotalEdges      int       `json:"totalEdges"`
	CycleCount      int       `json:"cycleCount"`
	Skipped         int       `json:"skipped"`
	DurationMS      int64     `json:"durationMs"`
	HistoryRecorded bool      `json:"historyRecorded"`
}

func NewBuildSummary(res ports.BuildResult) BuildSummary {
	s := BuildSummary{
		Artifact:        res.ArtifactPath,
		DurationMS:      res.Duration.Milliseconds(),
		HistoryRecorded: res.HistoryRecorded,
	}
	if g := res.Graph; g != nil {
		s.BuildID = g.BuildID
		s.Generated = g.GeneratedAt
		s.TotalFiles = g.Stats.TotalFiles
		s.TotalEdges = g.Stats.TotalEdges
		s.CycleCount = g.Stats.CycleCount
		s.Skipped = g.Skipped
	}
	return s
}

func Build(res ports.BuildResult, format Format) ([]byte, error) {
	summary := NewBuildSummary(res)
	return render(format, summary, func() string { return buildText(summary) }, nil)
}

func buildText(s BuildSummary) string {
	var b strings.Builder
	writeTitle(&b, "Dependency graph built")
	fmt.Fprintf(&b, "Files: %d  Edges: %d  Cycles: %d  Skipped: %d\n", s.TotalFiles, s.TotalEdges, s.CycleCount, s.Skipped)
	fmt.Fprintf(&b, "Artifact: %s\n", s.Artifact)
	b.WriteString(mutedStyle.Render(fmt.Sprintf("build %s in %dms", s.BuildID, s.DurationMS)))
	b.WriteString("\n")
	if s.CycleCount > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("%d import cycle(s) detected; run with -cycles to list them", s.CycleCount)))
		b.WriteString("\n")
	}
	return b.String()
}

func Cycles(res ports.CycleReport, format Format) ([]byte, error) {
	return render(format, res, func() string { return cyclesText(res) }, func() string { return cyclesTSV(res) })
}

func cyclesText(res ports.CycleReport) string {
	var b strings.Builder
	if res.Total == 0 {
		b.WriteString(successStyle.Render("No import cycles."))
		b.WriteString("\n")
		return b.String()
	}
	writeTitle(&b, fmt.Sprintf("Import cycles (%d)", res.Total))
	for i, c := range res.Cycles {
		loop := append(append([]string(nil), c...), c[0])
		b.WriteString(itemStyle.Render(fmt.Sprintf("%d. %s", i+1, strings.Join(loop, " -> "))))
		b.WriteString("\n")
	}
	if hidden := res.Total - len(res.Cycles); hidden > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("... %d more", hidden)))
		b.WriteString("\n")
	}
	return b.String()
}

func cyclesTSV(res ports.CycleReport) string {
	var b strings.Builder
	b.WriteString("Cycle\tPosition\tFile\n")
	for i, c := range res.Cycles {
		for j, file := range c {
			fmt.Fprintf(&b, "%d\t%d\t%s\n", i+1, j, file)
		}
	}
	return b.String()
}

func Chain(res ports.ChainResult, format Format) ([]byte, error) {
	return render(format, res, func() string { return chainText(res) }, nil)
}

func chainText(res ports.ChainResult) string {
	if !res.Found {
		return mutedStyle.Render(fmt.Sprintf("%s does not import %s, directly or transitively", res.From, res.To)) + "\n"
	}
	var b strings.Builder
	writeTitle(&b, fmt.Sprintf("Import chain (%d hop(s))", len(res.Path)-1))
	b.WriteString(itemStyle.Render(strings.Join(res.Path, " -> ")))
	b.WriteString("\n")
	return b.String()
}
