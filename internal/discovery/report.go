package discovery

import (
	"fmt"
	"strings"
	"time"
)

// BuildReportMarkdown renders a batch result and its narrative as a
// markdown brief.
func BuildReportMarkdown(result BatchResult, summary NarrativeSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Who Cares Report\n\n")
	fmt.Fprintf(&b, "- Companies analyzed: %d\n", result.Stats.TotalCompanies)
	fmt.Fprintf(&b, "- Relationships discovered: %d\n", result.Stats.TotalRelationships)
	fmt.Fprintf(&b, "- Multi-exposure entities: %d\n", result.Stats.MultiExposureEntities)
	fmt.Fprintf(&b, "- Date: %s\n\n", time.Now().Format(time.RFC3339))

	fmt.Fprintf(&b, "## Summary\n\n")
	fmt.Fprintf(&b, "**%s**\n\n", summary.Headline)
	for _, f := range summary.Findings {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	if len(summary.OutreachTargets) > 0 {
		fmt.Fprintf(&b, "\nSuggested outreach: %s\n", strings.Join(summary.OutreachTargets, ", "))
	}
	b.WriteString("\n")

	buildWhoCaresSection(&b, result.WhoCares)
	buildCompanySections(&b, result.Companies)

	fmt.Fprintf(&b, "## Run Metadata\n\n")
	fmt.Fprintf(&b, "- Degraded extractions: %d\n", result.Stats.DegradedExtractions)
	fmt.Fprintf(&b, "- Processing time: %dms\n", result.Stats.ProcessingTimeMs)
	return b.String()
}

func buildWhoCaresSection(b *strings.Builder, who []WhoCaresEntity) {
	fmt.Fprintf(b, "## Who Cares\n\n")
	if len(who) == 0 {
		fmt.Fprintf(b, "No entity is exposed to more than one company in this batch.\n\n")
		return
	}
	fmt.Fprintf(b, "| Entity | Kind | Category | Exposure | Companies |\n")
	fmt.Fprintf(b, "|---|---|---|---|---|\n")
	for _, w := range who {
		fmt.Fprintf(b, "| %s | %s | %s | %d | %s |\n",
			w.EntityName, w.EntityKind, w.PrimaryCategory, w.ExposureCount, strings.Join(w.ExposedCompanies, ", "))
	}
	b.WriteString("\n")
	for _, w := range who {
		fmt.Fprintf(b, "### %s\n\n", w.EntityName)
		for _, d := range w.ExposureDetails {
			fmt.Fprintf(b, "- %s: %s\n", d.Ticker, d.Category)
		}
		b.WriteString("\n")
	}
}

func buildCompanySections(b *strings.Builder, companies []CompanyResult) {
	fmt.Fprintf(b, "## Companies\n\n")
	for _, c := range companies {
		fmt.Fprintf(b, "### %s (%s)\n\n", c.Name, c.Ticker)
		if c.StressSignal != "" {
			fmt.Fprintf(b, "Stress signal: %s\n\n", c.StressSignal)
		}
		if len(c.Relationships) == 0 {
			fmt.Fprintf(b, "No discoverable public relationships.\n\n")
			continue
		}
		for _, r := range c.Relationships {
			fmt.Fprintf(b, "- **%s** (%s, %s)", r.EntityName, r.EntityKind, r.Category)
			if r.Details != "" {
				fmt.Fprintf(b, ": %s", r.Details)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
}
