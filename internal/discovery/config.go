package discovery

import "log"

// BackendConfig names the optional collaborators available to a process.
// Which ones are non-nil decides the extraction chain once, at startup.
type BackendConfig struct {
	Executor *JSONExecutor
	Searcher SearchProvider
	Fetcher  PageFetcher
}

// BuildExtractor assembles the fallback chain in fixed priority order,
// most capable strategy first:
//
//	search + deep fetch  ->  search snippets  ->  pure knowledge
//
// Strategies whose collaborators are missing are left out of the chain.
// The chain is immutable afterwards; the same order applies to every
// company in every batch this process runs.
func BuildExtractor(cfg BackendConfig) *FallbackChain {
	var strategies []Extractor
	if cfg.Executor != nil && cfg.Searcher != nil && cfg.Fetcher != nil {
		strategies = append(strategies, NewSearchFetchExtractor(cfg.Executor, cfg.Searcher, cfg.Fetcher))
	}
	if cfg.Executor != nil && cfg.Searcher != nil {
		strategies = append(strategies, NewSearchExtractor(cfg.Executor, cfg.Searcher))
	}
	if cfg.Executor != nil {
		strategies = append(strategies, NewKnowledgeExtractor(cfg.Executor))
	}
	chain := NewFallbackChain(strategies...)
	log.Printf("whocares extraction_chain=%s", chain.Name())
	return chain
}
