package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// BuildSummaryReport renders a summary as markdown, mirroring the metrics of
// the summary the lab already knows: counts, sub-reasons, rates, and unique
// run/operator totals.
func BuildSummaryReport(s AggregationSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### QFT Summary Report (%s to %s)\n\n",
		s.From.Format(dateOnlyLayout), s.To.Format(dateOnlyLayout))
	fmt.Fprintf(&b, "- **Total Interpretations:** %d\n", s.Total)
	fmt.Fprintf(&b, "- **Positive Results (POS):** %d\n", s.Positive)
	fmt.Fprintf(&b, "- **Negative Results (NEG):** %d\n", s.Negative)
	fmt.Fprintf(&b, "- **Indeterminate Results (IND):** %d\n", s.Indeterminate)
	fmt.Fprintf(&b, "  - IND (High Nil): %d\n", s.HighNil)
	fmt.Fprintf(&b, "  - IND (Low Mitogen): %d\n", s.LowMitogen)
	fmt.Fprintf(&b, "  - IND (Other): %d\n", s.OtherIndeterminate)
	fmt.Fprintf(&b, "- **Positivity Rate:** %.1f%%\n", s.PositiveRate)
	fmt.Fprintf(&b, "- **Negativity Rate:** %.1f%%\n", s.NegativeRate)
	fmt.Fprintf(&b, "- **Indeterminate Rate:** %.1f%%\n", s.IndeterminateRate)
	fmt.Fprintf(&b, "- **Unique Run IDs:** %d\n", s.UniqueRunIDs)
	fmt.Fprintf(&b, "- **Unique Operators:** %d\n", s.UniqueOperators)
	return b.String()
}

// FormatDashboardMessage is the compact one-block rendering posted to Slack
// by the scheduled dashboard job.
func FormatDashboardMessage(s AggregationSummary) string {
	return fmt.Sprintf(
		"Dashboard %s to %s — Total: %d | POS: %d | NEG: %d | IND: %d (High Nil: %d, Low Mitogen: %d) | POS%%: %.1f | IND%%: %.1f",
		s.From.Format(dateOnlyLayout), s.To.Format(dateOnlyLayout),
		s.Total, s.Positive, s.Negative, s.Indeterminate,
		s.HighNil, s.LowMitogen, s.PositiveRate, s.IndeterminateRate,
	)
}

// WriteReportFile saves a rendered summary under the report output dir and
// returns the path.
func WriteReportFile(content, outputDir string, s AggregationSummary, now time.Time) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	filename := fmt.Sprintf("QFT_Summary_%s_to_%s_%s.md",
		s.From.Format(dateOnlyLayout), s.To.Format(dateOnlyLayout), now.Format("20060102_150405"))
	path := filepath.Join(outputDir, filename)
	return path, os.WriteFile(path, []byte(content), 0644)
}
