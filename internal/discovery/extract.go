package discovery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"
)

// Extractor discovers raw relationship mentions for one company. A strategy
// may fail with an error; the fallback chain and the pipeline absorb those
// failures so that one company's outage never aborts a batch.
type Extractor interface {
	Extract(ctx context.Context, c Company) ([]RawMention, error)
	Name() string
}

// researchQuestions are issued per company, always in this order, so merged
// results are deterministic regardless of how each strategy executes them.
var researchQuestions = []struct {
	Topic  string
	Prompt string
}{
	{"ownership", "Who are the substantial shareholders, institutional investors, nominee holders and private equity backers?"},
	{"governance", "Who are the board directors, chair, CEO, CFO and company secretary?"},
	{"advisors", "Who are the auditor, legal advisors, corporate advisors and share registry?"},
	{"finance", "Who are the covering brokers, analysts and lenders?"},
	{"market", "Who are the main competitors, key suppliers or customers, and which regulators or government bodies oversee it?"},
}

type mentionPayload struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Category string `json:"category"`
	Details  string `json:"details"`
}

type mentionResponse struct {
	Mentions []mentionPayload `json:"mentions"`
}

const mentionSchema = `Required JSON schema:
{"mentions":[{"name":"string","kind":"person|firm|company|government","category":"shareholder|auditor|director|executive|broker|advisor|competitor|pe_firm|lender|government|registry|supplier|customer","details":"string"}]}
Return {"mentions":[]} if you have no reliable information. Never invent entities.`

// sanitizeMentions converts a validated LLM payload into RawMentions,
// dropping entries that fall outside the fixed vocabulary and mentions of
// the company itself.
func sanitizeMentions(payload []mentionPayload, c Company) []RawMention {
	out := make([]RawMention, 0, len(payload))
	for _, m := range payload {
		name := collapseWhitespace(m.Name)
		if name == "" {
			continue
		}
		lower := strings.ToLower(name)
		if lower == strings.ToLower(c.Name) || strings.EqualFold(name, c.Ticker) {
			continue
		}
		category := strings.ToLower(strings.TrimSpace(m.Category))
		if _, ok := RelationshipCategories[category]; !ok {
			log.Printf("whocares mention_dropped ticker=%s name=%q category=%q", c.Ticker, name, m.Category)
			continue
		}
		kind := EntityKind(strings.ToLower(strings.TrimSpace(m.Kind)))
		switch kind {
		case KindPerson, KindFirm, KindCompany, KindGovernment:
		default:
			kind = KindFirm
		}
		out = append(out, RawMention{
			Name:         name,
			Kind:         kind,
			Category:     category,
			Details:      strings.TrimSpace(m.Details),
			SourceTicker: c.Ticker,
		})
	}
	return out
}

func companyHeader(c Company) string {
	h := fmt.Sprintf("Company: %s (ticker %s", c.Name, c.Ticker)
	if c.Exchange != "" {
		h += ", " + c.Exchange
	}
	h += ")"
	if c.StressSignal != "" {
		h += fmt.Sprintf("\nRecent stress signal: %s", c.StressSignal)
	}
	return h
}

// KnowledgeExtractor answers the research questions from the model's own
// knowledge, one call per question in fixed order.
type KnowledgeExtractor struct {
	exec *JSONExecutor
}

func NewKnowledgeExtractor(exec *JSONExecutor) *KnowledgeExtractor {
	return &KnowledgeExtractor{exec: exec}
}

func (k *KnowledgeExtractor) Name() string { return "knowledge" }

func (k *KnowledgeExtractor) Extract(ctx context.Context, c Company) ([]RawMention, error) {
	if k.exec == nil {
		return nil, errors.New("knowledge extractor not configured")
	}
	var all []RawMention
	var lastErr error
	for _, q := range researchQuestions {
		prompt := fmt.Sprintf("%s\n\n%s\n\nList only entities you are confident about from public records.\n\n%s",
			companyHeader(c), q.Prompt, mentionSchema)
		var resp mentionResponse
		_, err := k.exec.Run(ctx, "extract_"+q.Topic, prompt, &resp, func() error {
			if resp.Mentions == nil {
				return errors.New("mentions missing")
			}
			return nil
		})
		if err != nil {
			lastErr = err
			log.Printf("whocares extract_question_degraded strategy=knowledge ticker=%s topic=%s err=%q", c.Ticker, q.Topic, err.Error())
			continue
		}
		all = append(all, sanitizeMentions(resp.Mentions, c)...)
	}
	if len(all) == 0 && lastErr != nil {
		return nil, fmt.Errorf("knowledge extraction failed for %s: %w", c.Ticker, lastErr)
	}
	return all, nil
}

// SearchProvider is the outbound web-search contract; "no data" is an empty
// slice, never an error that should escape the adapter.
type SearchProvider interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SearchExtractor grounds each research question in web-search snippets
// before asking the model to extract mentions.
type SearchExtractor struct {
	exec     *JSONExecutor
	searcher SearchProvider
}

func NewSearchExtractor(exec *JSONExecutor, searcher SearchProvider) *SearchExtractor {
	return &SearchExtractor{exec: exec, searcher: searcher}
}

func (s *SearchExtractor) Name() string { return "search" }

func (s *SearchExtractor) Extract(ctx context.Context, c Company) ([]RawMention, error) {
	if s.exec == nil || s.searcher == nil {
		return nil, errors.New("search extractor not configured")
	}
	var all []RawMention
	var lastErr error
	for _, q := range researchQuestions {
		query := fmt.Sprintf("%s %s %s", c.Name, c.Ticker, q.Topic)
		results, err := s.searcher.Search(ctx, query)
		if err != nil {
			lastErr = err
			log.Printf("whocares search_degraded ticker=%s topic=%s err=%q", c.Ticker, q.Topic, err.Error())
			continue
		}
		if len(results) == 0 {
			continue
		}
		prompt := fmt.Sprintf("%s\n\n%s\n\nSearch results:\n%s\nExtract only entities supported by the results above.\n\n%s",
			companyHeader(c), q.Prompt, formatSearchResults(results), mentionSchema)
		var resp mentionResponse
		_, err = s.exec.Run(ctx, "extract_search_"+q.Topic, prompt, &resp, func() error {
			if resp.Mentions == nil {
				return errors.New("mentions missing")
			}
			return nil
		})
		if err != nil {
			lastErr = err
			log.Printf("whocares extract_question_degraded strategy=search ticker=%s topic=%s err=%q", c.Ticker, q.Topic, err.Error())
			continue
		}
		all = append(all, sanitizeMentions(resp.Mentions, c)...)
	}
	if len(all) == 0 && lastErr != nil {
		return nil, fmt.Errorf("search extraction failed for %s: %w", c.Ticker, lastErr)
	}
	return all, nil
}

func formatSearchResults(results []SearchResult) string {
	var b strings.Builder
	for i, r := range results {
		if i >= 8 {
			break
		}
		fmt.Fprintf(&b, "%d. %s (%s)\n   %s\n", i+1, r.Title, r.URL, clampString(r.Snippet, 300))
	}
	return b.String()
}

// PageFetcher renders a URL and returns its readable text.
type PageFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// SearchFetchExtractor is the deepest strategy: search, fetch the top hits,
// and extract mentions from full page text.
type SearchFetchExtractor struct {
	exec      *JSONExecutor
	searcher  SearchProvider
	fetcher   PageFetcher
	pagesPerQ int
}

func NewSearchFetchExtractor(exec *JSONExecutor, searcher SearchProvider, fetcher PageFetcher) *SearchFetchExtractor {
	return &SearchFetchExtractor{exec: exec, searcher: searcher, fetcher: fetcher, pagesPerQ: 2}
}

func (s *SearchFetchExtractor) Name() string { return "search_fetch" }

func (s *SearchFetchExtractor) Extract(ctx context.Context, c Company) ([]RawMention, error) {
	if s.exec == nil || s.searcher == nil || s.fetcher == nil {
		return nil, errors.New("search-fetch extractor not configured")
	}
	var all []RawMention
	var lastErr error
	for _, q := range researchQuestions {
		query := fmt.Sprintf("%s %s %s", c.Name, c.Ticker, q.Topic)
		results, err := s.searcher.Search(ctx, query)
		if err != nil {
			lastErr = err
			log.Printf("whocares search_degraded ticker=%s topic=%s err=%q", c.Ticker, q.Topic, err.Error())
			continue
		}

		var pages strings.Builder
		fetched := 0
		for _, r := range results {
			if fetched >= s.pagesPerQ {
				break
			}
			text, err := s.fetcher.FetchText(ctx, r.URL)
			if err != nil {
				log.Printf("whocares fetch_degraded ticker=%s url=%s err=%q", c.Ticker, r.URL, err.Error())
				continue
			}
			fmt.Fprintf(&pages, "--- %s (%s)\n%s\n", r.Title, r.URL, clampString(text, 6000))
			fetched++
		}
		if fetched == 0 {
			continue
		}

		prompt := fmt.Sprintf("%s\n\n%s\n\nPage contents:\n%s\nExtract only entities supported by the pages above.\n\n%s",
			companyHeader(c), q.Prompt, pages.String(), mentionSchema)
		var resp mentionResponse
		_, err = s.exec.Run(ctx, "extract_fetch_"+q.Topic, prompt, &resp, func() error {
			if resp.Mentions == nil {
				return errors.New("mentions missing")
			}
			return nil
		})
		if err != nil {
			lastErr = err
			log.Printf("whocares extract_question_degraded strategy=search_fetch ticker=%s topic=%s err=%q", c.Ticker, q.Topic, err.Error())
			continue
		}
		all = append(all, sanitizeMentions(resp.Mentions, c)...)
	}
	if len(all) == 0 && lastErr != nil {
		return nil, fmt.Errorf("search-fetch extraction failed for %s: %w", c.Ticker, lastErr)
	}
	return all, nil
}

// FallbackChain tries strategies in a fixed order and short-circuits on the
// first one that yields any mentions for the company. The order is chosen
// once at construction and never changes mid-batch.
type FallbackChain struct {
	strategies []Extractor
}

func NewFallbackChain(strategies ...Extractor) *FallbackChain {
	return &FallbackChain{strategies: strategies}
}

func (f *FallbackChain) Name() string {
	names := make([]string, len(f.strategies))
	for i, s := range f.strategies {
		names[i] = s.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

func (f *FallbackChain) Extract(ctx context.Context, c Company) ([]RawMention, error) {
	for _, s := range f.strategies {
		mentions, err := s.Extract(ctx, c)
		if err != nil {
			log.Printf("whocares strategy_failed strategy=%s ticker=%s err=%q", s.Name(), c.Ticker, err.Error())
			continue
		}
		if len(mentions) > 0 {
			return mentions, nil
		}
	}
	return nil, nil
}

// clampString truncates on a rune boundary at or below max bytes.
func clampString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
