package discovery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
)

// SemanticResolver groups near-duplicate entity names and assigns one
// canonical label per group. Implementations may be absent; the
// canonicalizer degrades to the static tiers without one.
type SemanticResolver interface {
	Resolve(ctx context.Context, names []string) (map[string]string, error)
}

// Canonicalizer combines the static alias/normalization tiers with an
// optional batch-scope semantic resolution pass.
type Canonicalizer struct {
	resolver SemanticResolver
}

func NewCanonicalizer(resolver SemanticResolver) *Canonicalizer {
	return &Canonicalizer{resolver: resolver}
}

// Canonicalize maps every input name to a canonical name. The static result
// is computed first; a successful semantic pass replaces it per resolved
// name. Names missing from the semantic response, and any outright resolver
// failure, fall back to the static result. Never returns an error: semantic
// failure is a soft degradation.
func (c *Canonicalizer) Canonicalize(ctx context.Context, names []string) map[string]string {
	base := CanonicalizeStatic(names)
	if c == nil || c.resolver == nil || len(base) == 0 {
		return base
	}

	distinct := make([]string, 0, len(base))
	for n := range base {
		distinct = append(distinct, n)
	}
	sort.Strings(distinct)

	resolved, err := c.resolver.Resolve(ctx, distinct)
	if err != nil {
		log.Printf("whocares semantic_resolution_degraded names=%d err=%q", len(distinct), err.Error())
		return base
	}

	applied := 0
	for raw, canon := range resolved {
		if _, asked := base[raw]; !asked {
			continue
		}
		canon = collapseWhitespace(canon)
		if canon == "" {
			continue
		}
		// Chase one hop so the semantic output is a fixed point: if the
		// resolver also mapped the canonical label somewhere else, follow it
		// once and require stability.
		if next, ok := resolved[canon]; ok {
			next = collapseWhitespace(next)
			if next != "" && next != canon {
				if final, ok := resolved[next]; ok && collapseWhitespace(final) != next {
					continue
				}
				canon = next
			}
		}
		base[raw] = canon
		applied++
	}
	log.Printf("whocares semantic_resolution_applied names=%d applied=%d", len(distinct), applied)
	return base
}

type llmResolver struct {
	exec *JSONExecutor
}

// NewLLMResolver builds the semantic tier on the shared JSON executor.
func NewLLMResolver(exec *JSONExecutor) SemanticResolver {
	return &llmResolver{exec: exec}
}

type resolutionMapping struct {
	Raw       string `json:"raw"`
	Canonical string `json:"canonical"`
}

type resolutionResponse struct {
	Mappings []resolutionMapping `json:"mappings"`
}

const resolvePromptHeader = `Below is a list of entity names collected from research on several listed companies.
Many are spelling or suffix variants of the same real-world entity (legal suffixes,
abbreviations, parenthetical annotations, alternate spellings of a person's name).

Group the variants and assign one canonical display name per group. Keep the
shortest widely-recognized form (e.g. "BDO" not "BDO Australia", "Macquarie" not
"Macquarie Group Limited"). Leave names that are already canonical unchanged.
Include every input name exactly once as "raw".

Required JSON schema:
{"mappings":[{"raw":"string","canonical":"string"}]}

Names:
`

func (r *llmResolver) Resolve(ctx context.Context, names []string) (map[string]string, error) {
	if r.exec == nil {
		return nil, errors.New("semantic resolver not configured")
	}
	if len(names) == 0 {
		return map[string]string{}, nil
	}

	var b strings.Builder
	b.WriteString(resolvePromptHeader)
	for _, n := range names {
		fmt.Fprintf(&b, "- %s\n", n)
	}

	var resp resolutionResponse
	_, err := r.exec.Run(ctx, "semantic_resolution", b.String(), &resp, func() error {
		if len(resp.Mappings) == 0 {
			return errors.New("mappings is empty")
		}
		for _, m := range resp.Mappings {
			if strings.TrimSpace(m.Raw) == "" {
				return errors.New("mapping with empty raw name")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(resp.Mappings))
	for _, m := range resp.Mappings {
		// First occurrence wins so one raw string cannot end up with two
		// canonical spellings within a batch.
		if _, dup := out[m.Raw]; dup {
			continue
		}
		out[m.Raw] = strings.TrimSpace(m.Canonical)
	}
	return out, nil
}
