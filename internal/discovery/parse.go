package discovery

import (
	"fmt"
	"regexp"
	"strings"
)

// Line shapes accepted by the free-text parser, tried in order:
//
//	Name EXCHANGE:TICKER [-10.37%]
//	Name (TICKER) [-26.67%]
//	TICKER Name [-26.67%]
//
// The trailing signed percentage is optional and captured as the stress
// signal. First matching shape wins for a line.
var (
	signalSuffixRe = regexp.MustCompile(`\s+([+-]\d+(?:\.\d+)?%)\s*$`)
	exchangeRe     = regexp.MustCompile(`^(.+?)\s+([A-Z]{2,6}):([A-Za-z][A-Za-z0-9]{0,5})$`)
	parenRe        = regexp.MustCompile(`^(.+?)\s*\(([A-Za-z][A-Za-z0-9.]{0,5})\)$`)
	leadingRe      = regexp.MustCompile(`^([A-Z][A-Z0-9]{1,5})\s+(.+)$`)
)

// ParseCompanies extracts a deduplicated, ordered company list from free
// text. Lines that match no shape are skipped. A fully unmatchable input
// returns ErrNoCompanies; empty input returns an InputError.
func ParseCompanies(raw string) ([]Company, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &InputError{Reason: "empty input"}
	}
	var companies []Company
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		c, ok := parseLine(line)
		if !ok {
			continue
		}
		companies = append(companies, c)
	}
	if len(companies) == 0 {
		return nil, ErrNoCompanies
	}
	return NormalizeCompanies(companies)
}

func parseLine(line string) (Company, bool) {
	signal := ""
	if m := signalSuffixRe.FindStringSubmatch(line); m != nil {
		signal = m[1]
		line = strings.TrimSpace(signalSuffixRe.ReplaceAllString(line, ""))
	}

	if m := exchangeRe.FindStringSubmatch(line); m != nil {
		return Company{
			Name:         strings.TrimSpace(m[1]),
			Exchange:     m[2],
			Ticker:       strings.ToUpper(m[3]),
			StressSignal: signal,
		}, true
	}
	if m := parenRe.FindStringSubmatch(line); m != nil {
		return Company{
			Name:         strings.TrimSpace(m[1]),
			Ticker:       strings.ToUpper(m[2]),
			StressSignal: signal,
		}, true
	}
	if m := leadingRe.FindStringSubmatch(line); m != nil {
		name := strings.TrimSpace(m[2])
		if name != "" {
			return Company{
				Name:         name,
				Ticker:       strings.ToUpper(m[1]),
				StressSignal: signal,
			}, true
		}
	}
	return Company{}, false
}

// NormalizeCompanies validates a pre-structured company list: tickers are
// upper-cased, rows sharing a ticker merge into the first-seen row, and
// first-seen order is preserved.
func NormalizeCompanies(in []Company) ([]Company, error) {
	if len(in) == 0 {
		return nil, &InputError{Reason: "company list is empty"}
	}
	seen := map[string]struct{}{}
	out := make([]Company, 0, len(in))
	for _, c := range in {
		c.Name = strings.TrimSpace(c.Name)
		c.Ticker = strings.ToUpper(strings.TrimSpace(c.Ticker))
		if c.Name == "" || c.Ticker == "" {
			return nil, &InputError{Reason: fmt.Sprintf("company row missing name or ticker: %+v", c)}
		}
		if _, dup := seen[c.Ticker]; dup {
			continue
		}
		seen[c.Ticker] = struct{}{}
		out = append(out, c)
	}
	if len(out) > MaxBatchCompanies {
		return nil, &InputError{Reason: fmt.Sprintf("batch of %d companies exceeds limit of %d", len(out), MaxBatchCompanies)}
	}
	return out, nil
}
