package report

import (
	"fmt"
	"strings"

	"ripple/internal/engine/priority"
)

func Priority(res priority.Result, format Format) ([]byte, error) {
	return render(format, res, func() string { return priorityText(res) }, func() string { return priorityTSV(res) })
}

func priorityText(res priority.Result) string {
	var b strings.Builder
	writeTitle(&b, "Fix priority plan")

	b.WriteString(riskStyle.Render(fmt.Sprintf("Root causes (%d)", len(res.RootCauses))))
	b.WriteString("\n")
	for i, e := range res.RootCauses {
		b.WriteString(itemStyle.Render(fmt.Sprintf("%d. %s  dependents=%d potential_fixes=%d failures=%d",
			i+1, e.File, e.Dependents, e.PotentialFixes, e.FailureCount)))
		b.WriteString("\n")
	}
	if len(res.DeferredRootCauses) > 0 {
		deferred := make([]string, 0, len(res.DeferredRootCauses))
		for _, e := range res.DeferredRootCauses {
			deferred = append(deferred, fmt.Sprintf("%s  dependents=%d", e.File, e.Dependents))
		}
		writeList(&b, "Deferred root causes", deferred)
	}

	fmt.Fprintf(&b, "Independent batches (%d)\n", len(res.Independent))
	for i, batch := range res.Independent {
		b.WriteString(itemStyle.Render(fmt.Sprintf("batch %d: %s", i+1, strings.Join(batch, ", "))))
		b.WriteString("\n")
	}
	if order := res.Ordered(); len(order) > 0 {
		b.WriteString(mutedStyle.Render("Fix order: " + strings.Join(order, ", ")))
		b.WriteString("\n")
	}
	if len(res.Unmapped) > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("Unmapped failures: %s", strings.Join(res.Unmapped, ", "))))
		b.WriteString("\n")
	}
	return b.String()
}

func priorityTSV(res priority.Result) string {
	var b strings.Builder
	b.WriteString("Rank\tGroup\tFile\tDependents\tPotentialFixes\tFailures\n")
	rank := 0
	write := func(group string, entries []priority.Entry) {
		for _, e := range entries {
			rank++
			fmt.Fprintf(&b, "%d\t%s\t%s\t%d\t%d\t%d\n", rank, group, e.File, e.Dependents, e.PotentialFixes, e.FailureCount)
		}
	}
	write("root_cause", res.RootCauses)
	write("deferred", res.DeferredRootCauses)
	write("leaf", res.LeafNodes)
	return b.String()
}
