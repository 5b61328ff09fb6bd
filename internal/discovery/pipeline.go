package discovery

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Pipeline runs one batch to completion in three phases: concurrent
// per-company extraction, batch-scope canonicalization, and synchronous
// aggregation. External failures degrade to empty results; the only error
// Run returns is an empty batch.
type Pipeline struct {
	extractor      Extractor
	canonicalizer  *Canonicalizer
	maxConcurrency int
	callTimeout    time.Duration
	tracer         trace.Tracer
}

type PipelineConfig struct {
	Extractor      Extractor
	Canonicalizer  *Canonicalizer
	MaxConcurrency int
	CallTimeout    time.Duration
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.Canonicalizer == nil {
		cfg.Canonicalizer = NewCanonicalizer(nil)
	}
	return &Pipeline{
		extractor:      cfg.Extractor,
		canonicalizer:  cfg.Canonicalizer,
		maxConcurrency: cfg.MaxConcurrency,
		callTimeout:    cfg.CallTimeout,
		tracer:         otel.Tracer("whocares/discovery"),
	}
}

func (p *Pipeline) Run(ctx context.Context, companies []Company) (BatchResult, error) {
	started := time.Now()
	if len(companies) == 0 {
		return BatchResult{}, &InputError{Reason: "batch has no companies"}
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(attribute.Int("batch.companies", len(companies))))
	defer span.End()

	// Phase 1: extraction fan-out. Each task writes only its own slot, so
	// the merge order is company order regardless of completion order.
	raws := make([][]RawMention, len(companies))
	failed := make([]bool, len(companies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxConcurrency)
	for i, c := range companies {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, p.callTimeout)
			defer cancel()
			_, cspan := p.tracer.Start(cctx, "extract.company",
				trace.WithAttributes(attribute.String("company.ticker", c.Ticker)))
			mentions, err := p.extractor.Extract(cctx, c)
			cspan.End()
			if err != nil {
				log.Printf("whocares extract_degraded ticker=%s err=%q", c.Ticker, err.Error())
				failed[i] = true
				mentions = nil
			}
			raws[i] = mentions
			return nil
		})
	}
	// Tasks absorb their own failures; Wait only surfaces ctx cancellation.
	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}
	degraded := 0
	for _, f := range failed {
		if f {
			degraded++
		}
	}

	// Phase 2: canonicalize the distinct name set across the whole batch.
	names := distinctNames(raws)
	rctx, rcancel := context.WithTimeout(ctx, p.callTimeout)
	_, rspan := p.tracer.Start(rctx, "canonicalize",
		trace.WithAttributes(attribute.Int("names.distinct", len(names))))
	mapping := p.canonicalizer.Canonicalize(rctx, names)
	rspan.End()
	rcancel()

	results := make([]CompanyResult, len(companies))
	totalRelationships := 0
	for i, c := range companies {
		results[i] = CompanyResult{
			Company:       c,
			Relationships: toRelationships(raws[i], mapping),
		}
		totalRelationships += len(results[i].Relationships)
	}

	// Phase 3: aggregation.
	_, aspan := p.tracer.Start(ctx, "aggregate")
	who := Aggregate(results)
	aspan.End()

	return BatchResult{
		Companies: results,
		WhoCares:  who,
		Stats: BatchStats{
			TotalCompanies:        len(companies),
			TotalRelationships:    totalRelationships,
			MultiExposureEntities: len(who),
			DegradedExtractions:   degraded,
			ProcessingTimeMs:      time.Since(started).Milliseconds(),
		},
	}, nil
}

// distinctNames collects raw names in company-then-mention order, deduped,
// so the canonicalization input is deterministic.
func distinctNames(raws [][]RawMention) []string {
	seen := map[string]struct{}{}
	var names []string
	for _, mentions := range raws {
		for _, m := range mentions {
			if _, dup := seen[m.Name]; dup {
				continue
			}
			seen[m.Name] = struct{}{}
			names = append(names, m.Name)
		}
	}
	return names
}

// toRelationships re-attaches canonicalized names per company, collapsing
// duplicate (entity, category) pairs while keeping discovery order.
func toRelationships(mentions []RawMention, mapping map[string]string) []Relationship {
	type key struct{ name, category string }
	seen := map[key]struct{}{}
	out := make([]Relationship, 0, len(mentions))
	for _, m := range mentions {
		canonical, ok := mapping[m.Name]
		if !ok || canonical == "" {
			canonical = m.Name
		}
		k := key{canonical, m.Category}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, Relationship{
			EntityName: canonical,
			EntityKind: m.Kind,
			Category:   m.Category,
			Details:    m.Details,
		})
	}
	return out
}
