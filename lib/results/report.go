package results

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/ValentinKolb/kvperf/lib/model"
)

// GenerateReport writes a markdown report of c.
func GenerateReport(w io.Writer, c *Comparison) error {
	fmt.Fprintf(w, "## Comparison (%s)\n\n", c.Mode)
	fmt.Fprintf(w, "Matched: **%d**, only in A: **%d**, only in B: **%d**\n\n",
		len(c.Pairs), len(c.OnlyInA), len(c.OnlyInB))

	for _, p := range c.Pairs {
		fmt.Fprintf(w, "### %s\n\n", p.Strategy)
		fmt.Fprintf(w, "`%s`\n\n", p.Inputs)

		fmt.Fprintln(w, "| Metric | A | B | Delta | Change |")
		fmt.Fprintln(w, "|--------|---|---|-------|--------|")
		for _, d := range p.Deltas {
			fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n",
				d.Metric,
				formatValue(d.A),
				formatValue(d.B),
				formatSigned(d.Absolute),
				formatPercent(d.Relative),
			)
		}
		fmt.Fprintln(w)
	}

	writeUnmatched(w, "Only in A", c.OnlyInA)
	writeUnmatched(w, "Only in B", c.OnlyInB)
	return nil
}

// GenerateJSON writes c as JSON to w.
func GenerateJSON(w io.Writer, c *Comparison) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(c)
}

func writeUnmatched(w io.Writer, title string, inputs []model.TestInputs) {
	if len(inputs) == 0 {
		return
	}
	fmt.Fprintf(w, "### %s\n\n", title)
	for _, in := range inputs {
		fmt.Fprintf(w, "- `%s`\n", in)
	}
	fmt.Fprintln(w)
}

func formatValue(v float64) string {
	switch {
	case v == 0:
		return "-"
	case math.Abs(v) >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case math.Abs(v) >= 1e3:
		return fmt.Sprintf("%.1fk", v/1e3)
	default:
		return fmt.Sprintf("%.1f", v)
	}
}

func formatSigned(v float64) string {
	if v > 0 {
		return "+" + formatValue(v)
	}
	if v == 0 {
		return "0"
	}
	return "-" + formatValue(-v)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v*100)
}
