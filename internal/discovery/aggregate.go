package discovery

import (
	"fmt"
	"sort"
	"strings"
)

// Aggregate computes the multi-exposure entity list from canonicalized
// per-company relationships. Pure and deterministic: identical input yields
// byte-identical output. Entities are keyed by canonical name; the
// representative kind and category come from the first relationship
// encountered in company-then-relationship order, which is the documented
// tie-break when the same entity carries different categories across
// companies. Only entities touching two or more distinct tickers survive.
//
// A company without a ticker is an upstream contract violation and panics.
func Aggregate(companies []CompanyResult) []WhoCaresEntity {
	type exposure struct {
		kind    EntityKind
		primary string
		tickers []string
		seen    map[string]struct{}
		details []ExposureDetail
	}

	order := make([]string, 0, len(companies)*4)
	byName := make(map[string]*exposure, len(companies)*4)

	for _, c := range companies {
		if strings.TrimSpace(c.Ticker) == "" {
			panic(fmt.Sprintf("discovery: company %q without ticker reached aggregator", c.Name))
		}
		for _, r := range c.Relationships {
			e := byName[r.EntityName]
			if e == nil {
				e = &exposure{
					kind:    r.EntityKind,
					primary: r.Category,
					seen:    map[string]struct{}{},
				}
				byName[r.EntityName] = e
				order = append(order, r.EntityName)
			}
			if _, dup := e.seen[c.Ticker]; dup {
				continue
			}
			e.seen[c.Ticker] = struct{}{}
			e.tickers = append(e.tickers, c.Ticker)
			// Each exposure detail carries this company's own category, not
			// the entity-level representative one.
			e.details = append(e.details, ExposureDetail{Ticker: c.Ticker, Category: r.Category})
		}
	}

	out := make([]WhoCaresEntity, 0, len(order))
	for _, name := range order {
		e := byName[name]
		if len(e.tickers) < 2 {
			continue
		}
		out = append(out, WhoCaresEntity{
			EntityName:       name,
			EntityKind:       e.kind,
			PrimaryCategory:  e.primary,
			ExposureCount:    len(e.tickers),
			ExposedCompanies: e.tickers,
			ExposureDetails:  e.details,
		})
	}

	// Stable: ties keep first-encounter order.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExposureCount > out[j].ExposureCount
	})
	return out
}
