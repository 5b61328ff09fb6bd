// Package httpapi is the thin JSON request layer over the discovery core.
// It parses and validates requests, maps error classes to status codes, and
// otherwise delegates everything to the pipeline.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jpcallaghan/whocares/internal/discovery"
	"github.com/jpcallaghan/whocares/internal/htmlreport"
)

const maxRequestBytes = 1 << 20

// BatchRunner is the pipeline surface the server needs; a struct stub
// satisfies it in tests.
type BatchRunner interface {
	Run(ctx context.Context, companies []discovery.Company) (discovery.BatchResult, error)
}

type NarrativeBuilder interface {
	Summarize(ctx context.Context, companies []discovery.Company, who []discovery.WhoCaresEntity) discovery.NarrativeSummary
}

type Server struct {
	runner     BatchRunner
	summarizer NarrativeBuilder
}

func NewServer(runner BatchRunner, summarizer NarrativeBuilder) http.Handler {
	s := &Server{runner: runner, summarizer: summarizer}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/parse", s.handleParse)
	mux.HandleFunc("/v1/discover", s.handleDiscover)
	mux.HandleFunc("/v1/summarize", s.handleSummarize)
	mux.HandleFunc("/v1/report", s.handleReport)
	mux.HandleFunc("/v1/health", s.handleHealth)
	return mux
}

type parseRequest struct {
	Text      string              `json:"text,omitempty"`
	Companies []discovery.Company `json:"companies,omitempty"`
}

type discoverRequest struct {
	Companies []discovery.Company `json:"companies"`
}

type summarizeRequest struct {
	Companies []discovery.Company        `json:"companies"`
	WhoCares  []discovery.WhoCaresEntity `json:"who_cares"`
}

type reportResponse struct {
	Result   discovery.BatchResult      `json:"result"`
	Summary  discovery.NarrativeSummary `json:"summary"`
	Markdown string                     `json:"markdown"`
	HTML     string                     `json:"html"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if !decodePost(w, r, &req) {
		return
	}
	companies, err := resolveCompanies(req)
	if err != nil {
		writeInputError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"companies": companies})
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	var req discoverRequest
	if !decodePost(w, r, &req) {
		return
	}
	companies, err := discovery.NormalizeCompanies(req.Companies)
	if err != nil {
		writeInputError(w, err)
		return
	}
	result, err := s.runner.Run(r.Context(), companies)
	if err != nil {
		writeInputError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if !decodePost(w, r, &req) {
		return
	}
	summary := s.summarizer.Summarize(r.Context(), req.Companies, req.WhoCares)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if !decodePost(w, r, &req) {
		return
	}
	companies, err := resolveCompanies(req)
	if err != nil {
		writeInputError(w, err)
		return
	}
	result, err := s.runner.Run(r.Context(), companies)
	if err != nil {
		writeInputError(w, err)
		return
	}
	summary := s.summarizer.Summarize(r.Context(), companies, result.WhoCares)
	markdown := discovery.BuildReportMarkdown(result, summary)
	htmlDoc, err := htmlreport.Render(markdown)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "render_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, reportResponse{
		Result:   result,
		Summary:  summary,
		Markdown: markdown,
		HTML:     htmlDoc,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func resolveCompanies(req parseRequest) ([]discovery.Company, error) {
	if len(req.Companies) > 0 {
		return discovery.NormalizeCompanies(req.Companies)
	}
	return discovery.ParseCompanies(req.Text)
}

func decodePost(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "malformed_json", err.Error())
		return false
	}
	return true
}

func writeInputError(w http.ResponseWriter, err error) {
	if errors.Is(err, discovery.ErrNoCompanies) {
		writeError(w, http.StatusUnprocessableEntity, "no_companies_found", err.Error())
		return
	}
	if discovery.IsInputError(err) {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "internal", err.Error())
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"ok": false,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
