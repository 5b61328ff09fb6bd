package discovery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

// Summarizer produces the human-readable batch brief. Without an executor,
// or on any LLM failure, it falls back to a deterministic template; the
// fallback needs no external service.
type Summarizer struct {
	exec *JSONExecutor
}

func NewSummarizer(exec *JSONExecutor) *Summarizer {
	return &Summarizer{exec: exec}
}

const emptyBatchHeadline = "No multi-exposure entities identified in this batch."

type narrativeResponse struct {
	Headline        string   `json:"headline"`
	Findings        []string `json:"findings"`
	OutreachTargets []string `json:"outreach_targets"`
}

const narrativeSchema = `Required JSON schema:
{"headline":"string","findings":["string"],"outreach_targets":["string"]}
At most 3 findings and 3 outreach targets.`

func (s *Summarizer) Summarize(ctx context.Context, companies []Company, who []WhoCaresEntity) NarrativeSummary {
	if len(who) == 0 {
		return NarrativeSummary{
			Headline:        emptyBatchHeadline,
			Findings:        []string{},
			OutreachTargets: []string{},
		}
	}
	if s == nil || s.exec == nil {
		return fallbackSummary(companies, who)
	}

	var resp narrativeResponse
	_, err := s.exec.Run(ctx, "narrative", buildNarrativePrompt(companies, who), &resp, func() error {
		if strings.TrimSpace(resp.Headline) == "" {
			return errors.New("headline is empty")
		}
		return nil
	})
	if err != nil {
		log.Printf("whocares narrative_degraded err=%q", err.Error())
		return fallbackSummary(companies, who)
	}
	return NarrativeSummary{
		Headline:        strings.TrimSpace(resp.Headline),
		Findings:        clampList(resp.Findings, 3),
		OutreachTargets: clampList(resp.OutreachTargets, 3),
		Generated:       true,
	}
}

func buildNarrativePrompt(companies []Company, who []WhoCaresEntity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A batch of %d financially stressed companies was analyzed:\n", len(companies))
	for _, c := range companies {
		fmt.Fprintf(&b, "- %s (%s)", c.Name, c.Ticker)
		if c.StressSignal != "" {
			fmt.Fprintf(&b, " %s", c.StressSignal)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nEntities connected to two or more of these companies:\n")
	for i, w := range who {
		if i >= 15 {
			break
		}
		fmt.Fprintf(&b, "- %s (%s, %s) exposed to %s\n", w.EntityName, w.EntityKind, w.PrimaryCategory, strings.Join(w.ExposedCompanies, ", "))
	}
	b.WriteString("\nWrite a short sales-intelligence brief: one headline, up to 3 findings, and up to 3 concrete outreach targets chosen from the entities above.\n\n")
	b.WriteString(narrativeSchema)
	return b.String()
}

func fallbackSummary(companies []Company, who []WhoCaresEntity) NarrativeSummary {
	top := who[0]
	findings := []string{
		fmt.Sprintf("%s (%s) is connected to %d of the %d companies in this batch: %s.",
			top.EntityName, top.PrimaryCategory, top.ExposureCount, len(companies), strings.Join(top.ExposedCompanies, ", ")),
		fmt.Sprintf("%d entities have exposure to two or more companies in the batch.", len(who)),
	}
	targets := make([]string, 0, 3)
	for _, w := range clampEntities(who, 3) {
		targets = append(targets, w.EntityName)
	}
	return NarrativeSummary{
		Headline:        fmt.Sprintf("%s has the widest exposure across %d stressed companies", top.EntityName, len(companies)),
		Findings:        findings,
		OutreachTargets: targets,
	}
}

func clampList(items []string, max int) []string {
	out := make([]string, 0, max)
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
		if len(out) == max {
			break
		}
	}
	return out
}

func clampEntities(who []WhoCaresEntity, max int) []WhoCaresEntity {
	if len(who) <= max {
		return who
	}
	return who[:max]
}
