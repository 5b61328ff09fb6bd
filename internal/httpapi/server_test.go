package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jpcallaghan/whocares/internal/discovery"
)

type stubRunner struct {
	result discovery.BatchResult
	err    error
	got    []discovery.Company
}

func (s *stubRunner) Run(_ context.Context, companies []discovery.Company) (discovery.BatchResult, error) {
	s.got = companies
	return s.result, s.err
}

type stubSummarizer struct {
	summary discovery.NarrativeSummary
}

func (s *stubSummarizer) Summarize(_ context.Context, _ []discovery.Company, _ []discovery.WhoCaresEntity) discovery.NarrativeSummary {
	return s.summary
}

func newTestServer(runner *stubRunner) http.Handler {
	return NewServer(runner, &stubSummarizer{summary: discovery.NarrativeSummary{Headline: "stub headline"}})
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error payload: %v body=%s", err, rec.Body.String())
	}
	return payload.Error.Code
}

func TestParseEndpoint(t *testing.T) {
	h := newTestServer(&stubRunner{})
	rec := postJSON(t, h, "/v1/parse", `{"text":"Monash IVF ASX:MVF -4.2%\nTerracom Ltd (TER)"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Companies []discovery.Company `json:"companies"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Companies) != 2 || payload.Companies[0].Ticker != "MVF" || payload.Companies[1].Ticker != "TER" {
		t.Fatalf("unexpected companies: %+v", payload.Companies)
	}
}

func TestParseEndpointNoCompaniesIs422(t *testing.T) {
	h := newTestServer(&stubRunner{})
	rec := postJSON(t, h, "/v1/parse", `{"text":"nothing parseable here"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "no_companies_found" {
		t.Fatalf("unexpected error code %q", code)
	}
}

func TestDiscoverEndpoint(t *testing.T) {
	runner := &stubRunner{result: discovery.BatchResult{
		Stats: discovery.BatchStats{TotalCompanies: 1},
	}}
	h := newTestServer(runner)
	rec := postJSON(t, h, "/v1/discover", `{"companies":[{"name":"Acme","ticker":"acm"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if len(runner.got) != 1 || runner.got[0].Ticker != "ACM" {
		t.Fatalf("runner must receive normalized companies: %+v", runner.got)
	}
}

func TestDiscoverEndpointRejectsInvalidCompany(t *testing.T) {
	h := newTestServer(&stubRunner{})
	rec := postJSON(t, h, "/v1/discover", `{"companies":[{"name":"Acme"}]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "invalid_input" {
		t.Fatalf("unexpected error code %q", code)
	}
}

func TestSummarizeEndpoint(t *testing.T) {
	h := newTestServer(&stubRunner{})
	rec := postJSON(t, h, "/v1/summarize", `{"companies":[],"who_cares":[]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var summary discovery.NarrativeSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.Headline != "stub headline" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestReportEndpoint(t *testing.T) {
	runner := &stubRunner{result: discovery.BatchResult{
		Companies: []discovery.CompanyResult{
			{Company: discovery.Company{Name: "Monash IVF", Ticker: "MVF"}},
		},
		Stats: discovery.BatchStats{TotalCompanies: 1},
	}}
	h := newTestServer(runner)
	rec := postJSON(t, h, "/v1/report", `{"text":"Monash IVF ASX:MVF"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Markdown string `json:"markdown"`
		HTML     string `json:"html"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(payload.Markdown, "# Who Cares Report") {
		t.Fatalf("markdown missing header:\n%s", payload.Markdown)
	}
	if !strings.Contains(payload.HTML, "<!doctype html>") {
		t.Fatalf("html missing doctype:\n%s", payload.HTML)
	}
}

func TestEndpointsRequirePost(t *testing.T) {
	h := newTestServer(&stubRunner{})
	for _, path := range []string{"/v1/parse", "/v1/discover", "/v1/summarize", "/v1/report"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s: status=%d", path, rec.Code)
		}
	}
}

func TestMalformedJSONIs400(t *testing.T) {
	h := newTestServer(&stubRunner{})
	rec := postJSON(t, h, "/v1/discover", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "malformed_json" {
		t.Fatalf("unexpected error code %q", code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestServer(&stubRunner{})
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
