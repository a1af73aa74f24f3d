package report

import (
	"fmt"
	"strings"

	"ripple/internal/engine/impact"
	"ripple/internal/shared/util"
)

func Impact(res impact.Result, format Format) ([]byte, error) {
	return render(format, res, func() string { return impactText(res) }, func() string { return impactTSV(res) })
}

func impactText(res impact.Result) string {
	var b strings.Builder
	writeTitle(&b, fmt.Sprintf("Impact of %d changed file(s), depth %d", len(res.Changed), res.Depth))
	writeList(&b, "Changed", res.Changed)
	if len(res.Unknown) > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("Not in graph: %s", strings.Join(res.Unknown, ", "))))
		b.WriteString("\n")
	}
	writeList(&b, "Level 1", res.L1)
	writeList(&b, "Level 2", res.L2)

	fmt.Fprintf(&b, "Affected: %d\n", len(res.Affected))
	for _, mod := range util.SortedStringKeys(res.ModuleBreakdown) {
		b.WriteString(itemStyle.Render(fmt.Sprintf("%s: %d", mod, len(res.ModuleBreakdown[mod]))))
		b.WriteString("\n")
	}

	if len(res.HighRisk) > 0 {
		b.WriteString(riskStyle.Render(fmt.Sprintf("High risk (%d)", len(res.HighRisk))))
		b.WriteString("\n")
		for _, r := range res.HighRisk {
			b.WriteString(itemStyle.Render(fmt.Sprintf("%s reaches %d file(s)", r.File, r.Reach)))
			b.WriteString("\n")
		}
	}
	if res.Tests != nil {
		writeList(&b, "Recommended tests", res.Tests)
	}
	return b.String()
}

func impactTSV(res impact.Result) string {
	var b strings.Builder
	b.WriteString("Kind\tFile\tLevel\n")
	for _, f := range res.Changed {
		fmt.Fprintf(&b, "changed\t%s\t0\n", f)
	}
	for _, f := range res.L1 {
		fmt.Fprintf(&b, "affected\t%s\t1\n", f)
	}
	for _, f := range res.L2 {
		fmt.Fprintf(&b, "affected\t%s\t2\n", f)
	}
	for _, t := range res.Tests {
		fmt.Fprintf(&b, "test\t%s\t\n", t)
	}
	return b.String()
}
