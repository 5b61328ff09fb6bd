package discovery

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func summaryFixture() ([]Company, []WhoCaresEntity) {
	companies := []Company{
		{Name: "Monash IVF", Ticker: "MVF", StressSignal: "-4.2%"},
		{Name: "Terracom", Ticker: "TER", StressSignal: "-9.9%"},
		{Name: "Mesoblast", Ticker: "MSB"},
	}
	who := []WhoCaresEntity{
		{
			EntityName:       "BDO",
			EntityKind:       KindFirm,
			PrimaryCategory:  "auditor",
			ExposureCount:    3,
			ExposedCompanies: []string{"MVF", "TER", "MSB"},
		},
		{
			EntityName:       "Macquarie",
			EntityKind:       KindCompany,
			PrimaryCategory:  "lender",
			ExposureCount:    2,
			ExposedCompanies: []string{"MVF", "TER"},
		},
	}
	return companies, who
}

func TestSummarizeEmptyBatchNeedsNoService(t *testing.T) {
	caller := &fakeLLMCaller{}
	s := NewSummarizer(NewJSONExecutor(caller))
	out := s.Summarize(context.Background(), []Company{{Name: "Acme", Ticker: "ACM"}}, nil)
	if out.Headline != emptyBatchHeadline {
		t.Fatalf("unexpected headline: %q", out.Headline)
	}
	if out.Findings == nil || out.OutreachTargets == nil {
		t.Fatalf("empty batch must still produce non-nil slices: %+v", out)
	}
	if len(out.Findings) != 0 || len(out.OutreachTargets) != 0 || out.Generated {
		t.Fatalf("unexpected summary: %+v", out)
	}
	if caller.idx != 0 {
		t.Fatal("no LLM call expected for an empty result set")
	}
}

func TestSummarizeWithoutExecutorFallsBack(t *testing.T) {
	companies, who := summaryFixture()
	var s *Summarizer
	out := s.Summarize(context.Background(), companies, who)
	if out.Generated {
		t.Fatalf("fallback must not be marked generated: %+v", out)
	}
	if !strings.Contains(out.Headline, "BDO") {
		t.Fatalf("fallback headline must name the top entity: %q", out.Headline)
	}
	if len(out.Findings) != 2 {
		t.Fatalf("expected 2 templated findings, got %v", out.Findings)
	}
	if len(out.OutreachTargets) != 2 || out.OutreachTargets[0] != "BDO" || out.OutreachTargets[1] != "Macquarie" {
		t.Fatalf("outreach targets must follow entity order: %v", out.OutreachTargets)
	}
}

func TestSummarizeLLMPath(t *testing.T) {
	companies, who := summaryFixture()
	caller := &fakeLLMCaller{responses: []string{
		`{"headline":"BDO sits across three stressed clients","findings":["f1","f2","f3","f4"],"outreach_targets":["BDO","Macquarie"]}`,
	}}
	s := NewSummarizer(NewJSONExecutor(caller))
	out := s.Summarize(context.Background(), companies, who)
	if !out.Generated {
		t.Fatalf("LLM path must mark the summary generated: %+v", out)
	}
	if out.Headline != "BDO sits across three stressed clients" {
		t.Fatalf("unexpected headline: %q", out.Headline)
	}
	if len(out.Findings) != 3 {
		t.Fatalf("findings must be clamped to 3, got %v", out.Findings)
	}
	prompt := caller.prompts[0]
	for _, want := range []string{"Monash IVF", "MVF", "-9.9%", "BDO", "auditor"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestSummarizeLLMFailureFallsBack(t *testing.T) {
	companies, who := summaryFixture()
	caller := &fakeLLMCaller{errs: []error{errors.New("status code: 401")}}
	s := NewSummarizer(NewJSONExecutor(caller))
	out := s.Summarize(context.Background(), companies, who)
	if out.Generated {
		t.Fatalf("failed LLM call must degrade to the template: %+v", out)
	}
	if !strings.Contains(out.Headline, "BDO") {
		t.Fatalf("fallback headline must name the top entity: %q", out.Headline)
	}
}

func TestSummarizeRejectsEmptyHeadline(t *testing.T) {
	companies, who := summaryFixture()
	caller := &fakeLLMCaller{responses: []string{
		`{"headline":"  ","findings":[],"outreach_targets":[]}`,
		`{"headline":"second attempt","findings":["f"],"outreach_targets":["BDO"]}`,
	}}
	s := NewSummarizer(NewJSONExecutor(caller))
	out := s.Summarize(context.Background(), companies, who)
	if !out.Generated || out.Headline != "second attempt" {
		t.Fatalf("blank headline must be retried: %+v", out)
	}
}

func TestClampListDropsBlanks(t *testing.T) {
	out := clampList([]string{" a ", "", "b", "c", "d"}, 3)
	if len(out) != 3 || out[0] != "a" || out[1] != "b" || out[2] != "c" {
		t.Fatalf("unexpected clamp result: %v", out)
	}
}
