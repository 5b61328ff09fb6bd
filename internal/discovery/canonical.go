package discovery

import (
	"regexp"
	"strings"
	"unicode"
)

// CanonicalizeStatic resolves raw entity names to canonical display names
// using the alias table followed by generic suffix/casing normalization.
// The result is total over its input (every name appears as a key), pure,
// and independent of input order. Names with no applicable rule map to a
// normalized form of themselves.
func CanonicalizeStatic(names []string) map[string]string {
	out := make(map[string]string, len(names))
	for _, n := range names {
		if _, done := out[n]; done {
			continue
		}
		out[n] = canonicalName(n)
	}
	return out
}

// canonicalName re-applies the tiers until the result is stable, so every
// canonical value is itself a fixed point. Suffix stripping can expose a
// string that the alias containment rule then captures ("Linklaters Ltd" ->
// "Linklaters" -> "Allens"); a single pass would leave the intermediate
// form. The cap bounds pathological alias cycles.
func canonicalName(name string) string {
	out := canonicalOnce(name)
	for i := 0; i < 3; i++ {
		next := canonicalOnce(out)
		if next == out {
			break
		}
		out = next
	}
	return out
}

func canonicalOnce(name string) string {
	collapsed := collapseWhitespace(name)
	if collapsed == "" {
		return name
	}
	lower := strings.ToLower(collapsed)

	// Exact alias match across the whole table first.
	for _, e := range aliasTable {
		for _, a := range e.Aliases {
			if lower == a {
				return e.Canonical
			}
		}
	}
	// Containment match in fixed table order, first hit wins. This is an
	// order-sensitive heuristic and intentionally stays that way.
	for _, e := range aliasTable {
		for _, a := range e.Aliases {
			if containsAlias(lower, a) {
				return e.Canonical
			}
		}
	}
	return normalizeGeneric(collapsed)
}

// containsAlias checks containment in either direction. Very short aliases
// only match as whole words of the input, otherwise acronyms like "ey"
// would swallow unrelated names.
func containsAlias(lower, alias string) bool {
	if alias == "" {
		return false
	}
	if len(alias) <= 4 {
		for _, tok := range strings.Fields(lower) {
			if strings.Trim(tok, ".,()") == alias {
				return true
			}
		}
		return false
	}
	return strings.Contains(lower, alias) || strings.Contains(alias, lower)
}

var parentheticalRe = regexp.MustCompile(`\s*\([^)]*\)`)

// Corporate suffix tokens stripped from the tail of a name, repeatedly,
// until none remain.
var suffixTokens = map[string]struct{}{
	"ltd":         {},
	"limited":     {},
	"pty":         {},
	"inc":         {},
	"corporation": {},
	"corp":        {},
	"group":       {},
	"holdings":    {},
	"plc":         {},
	"australia":   {},
}

func normalizeGeneric(name string) string {
	s := parentheticalRe.ReplaceAllString(name, "")
	s = collapseWhitespace(s)

	for {
		trimmed := stripOneSuffix(s)
		if trimmed == s || trimmed == "" {
			if trimmed != "" {
				s = trimmed
			}
			break
		}
		s = trimmed
	}
	if s == "" {
		s = collapseWhitespace(name)
	}
	return titleCase(s)
}

func stripOneSuffix(s string) string {
	lower := strings.ToLower(s)
	if strings.HasSuffix(lower, "and subsidiaries") {
		return collapseWhitespace(s[:len(s)-len("and subsidiaries")])
	}
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return s
	}
	last := strings.ToLower(strings.Trim(fields[len(fields)-1], ".,"))
	if _, ok := suffixTokens[last]; ok {
		return strings.Join(fields[:len(fields)-1], " ")
	}
	return s
}

// titleCase upper-cases the first letter of each token and lower-cases the
// rest, except tokens of length <= 4 that are already all upper-case, which
// are treated as acronyms and kept as-is.
func titleCase(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		if isAcronym(f) {
			continue
		}
		r := []rune(f)
		for j := range r {
			if j == 0 {
				r[j] = unicode.ToUpper(r[j])
			} else {
				r[j] = unicode.ToLower(r[j])
			}
		}
		fields[i] = string(r)
	}
	return strings.Join(fields, " ")
}

func isAcronym(tok string) bool {
	if len(tok) > 4 {
		return false
	}
	hasLetter := false
	for _, r := range tok {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
