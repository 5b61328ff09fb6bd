package discovery

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// tickerExtractor serves canned mentions per ticker and can fail selected
// companies.
type tickerExtractor struct {
	mu       sync.Mutex
	byTicker map[string][]RawMention
	failing  map[string]error
	calls    []string
}

func (e *tickerExtractor) Name() string { return "ticker-stub" }

func (e *tickerExtractor) Extract(_ context.Context, c Company) ([]RawMention, error) {
	e.mu.Lock()
	e.calls = append(e.calls, c.Ticker)
	e.mu.Unlock()
	if err := e.failing[c.Ticker]; err != nil {
		return nil, err
	}
	return e.byTicker[c.Ticker], nil
}

func testCompanies(tickers ...string) []Company {
	out := make([]Company, len(tickers))
	for i, tk := range tickers {
		out[i] = Company{Name: tk + " Co", Ticker: tk}
	}
	return out
}

func TestPipelineEndToEndCanonicalizesAcrossCompanies(t *testing.T) {
	extractor := &tickerExtractor{byTicker: map[string][]RawMention{
		"MVF": {{Name: "BDO Australia", Kind: KindFirm, Category: "auditor", SourceTicker: "MVF"}},
		"TER": {{Name: "BDO", Kind: KindFirm, Category: "auditor", SourceTicker: "TER"}},
	}}
	p := NewPipeline(PipelineConfig{Extractor: extractor})

	result, err := p.Run(context.Background(), testCompanies("MVF", "TER"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.WhoCares) != 1 {
		t.Fatalf("expected one multi-exposure entity, got %+v", result.WhoCares)
	}
	w := result.WhoCares[0]
	if w.EntityName != "BDO" || w.ExposureCount != 2 {
		t.Fatalf("BDO variants must consolidate: %+v", w)
	}
	if w.ExposedCompanies[0] != "MVF" || w.ExposedCompanies[1] != "TER" {
		t.Fatalf("exposure order must follow company order: %+v", w.ExposedCompanies)
	}
	if result.Stats.TotalCompanies != 2 || result.Stats.TotalRelationships != 2 || result.Stats.MultiExposureEntities != 1 {
		t.Fatalf("unexpected stats: %+v", result.Stats)
	}
	if result.Stats.ProcessingTimeMs < 0 {
		t.Fatalf("negative processing time: %+v", result.Stats)
	}
}

func TestPipelineFaultIsolation(t *testing.T) {
	byTicker := map[string][]RawMention{}
	for _, tk := range []string{"AAA", "BBB", "CCC", "DDD"} {
		byTicker[tk] = []RawMention{{Name: "Shared Advisor", Kind: KindFirm, Category: "advisor", SourceTicker: tk}}
	}
	extractor := &tickerExtractor{
		byTicker: byTicker,
		failing:  map[string]error{"EEE": errors.New("backend exploded")},
	}
	p := NewPipeline(PipelineConfig{Extractor: extractor})

	result, err := p.Run(context.Background(), testCompanies("AAA", "BBB", "CCC", "DDD", "EEE"))
	if err != nil {
		t.Fatalf("one failing company must not abort the batch: %v", err)
	}
	for i, c := range result.Companies {
		if c.Ticker == "EEE" {
			if len(c.Relationships) != 0 {
				t.Fatalf("failed company must degrade to empty: %+v", c)
			}
			continue
		}
		if len(c.Relationships) == 0 {
			t.Fatalf("company %d lost its data: %+v", i, c)
		}
	}
	if result.Stats.DegradedExtractions != 1 {
		t.Fatalf("expected 1 degraded extraction, got %+v", result.Stats)
	}
	if len(result.WhoCares) != 1 || result.WhoCares[0].ExposureCount != 4 {
		t.Fatalf("surviving companies must still aggregate: %+v", result.WhoCares)
	}
}

func TestPipelineEmptyBatchIsInputError(t *testing.T) {
	p := NewPipeline(PipelineConfig{Extractor: &tickerExtractor{}})
	_, err := p.Run(context.Background(), nil)
	if !IsInputError(err) {
		t.Fatalf("expected input error, got %v", err)
	}
}

func TestPipelineZeroRelationshipsIsNotAnError(t *testing.T) {
	p := NewPipeline(PipelineConfig{Extractor: &tickerExtractor{}})
	result, err := p.Run(context.Background(), testCompanies("AAA"))
	if err != nil {
		t.Fatalf("zero discovered relationships is a legitimate outcome: %v", err)
	}
	if len(result.WhoCares) != 0 || result.Stats.TotalRelationships != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.Companies) != 1 || len(result.Companies[0].Relationships) != 0 {
		t.Fatalf("company must still be present with empty relationships: %+v", result.Companies)
	}
}

func TestPipelineRunsEveryCompany(t *testing.T) {
	extractor := &tickerExtractor{byTicker: map[string][]RawMention{}}
	p := NewPipeline(PipelineConfig{Extractor: extractor, MaxConcurrency: 2})
	if _, err := p.Run(context.Background(), testCompanies("AAA", "BBB", "CCC", "DDD", "EEE", "FFF")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(extractor.calls) != 6 {
		t.Fatalf("every company must be extracted, got calls=%v", extractor.calls)
	}
}

func TestPipelineDeduplicatesWithinCompany(t *testing.T) {
	extractor := &tickerExtractor{byTicker: map[string][]RawMention{
		"AAA": {
			{Name: "BDO Australia", Kind: KindFirm, Category: "auditor", SourceTicker: "AAA"},
			{Name: "BDO", Kind: KindFirm, Category: "auditor", SourceTicker: "AAA"},
		},
	}}
	p := NewPipeline(PipelineConfig{Extractor: extractor})
	result, err := p.Run(context.Background(), testCompanies("AAA"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Companies[0].Relationships) != 1 {
		t.Fatalf("variants of one entity within a company must collapse: %+v", result.Companies[0].Relationships)
	}
}

func TestPipelineUsesSemanticResolution(t *testing.T) {
	extractor := &tickerExtractor{byTicker: map[string][]RawMention{
		"AAA": {{Name: "Jon Smith (John Smith)", Kind: KindPerson, Category: "director", SourceTicker: "AAA"}},
		"BBB": {{Name: "John Smith", Kind: KindPerson, Category: "director", SourceTicker: "BBB"}},
	}}
	resolver := &fakeResolver{result: map[string]string{
		"Jon Smith (John Smith)": "John Smith",
		"John Smith":             "John Smith",
	}}
	p := NewPipeline(PipelineConfig{
		Extractor:     extractor,
		Canonicalizer: NewCanonicalizer(resolver),
	})
	result, err := p.Run(context.Background(), testCompanies("AAA", "BBB"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.WhoCares) != 1 || result.WhoCares[0].EntityName != "John Smith" {
		t.Fatalf("semantic grouping must consolidate spellings: %+v", result.WhoCares)
	}
	if resolver.calls != 1 {
		t.Fatalf("canonicalization must be one batch-scope call, got %d", resolver.calls)
	}
}
