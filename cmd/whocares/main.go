package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jpcallaghan/whocares/internal/discovery"
	"github.com/jpcallaghan/whocares/internal/htmlreport"
	"github.com/jpcallaghan/whocares/internal/webfetch"
	"github.com/jpcallaghan/whocares/internal/websearch"
)

func main() {
	input := flag.String("input", "-", "Path to the stressed-company list, or - for stdin")
	format := flag.String("format", "md", "Report format: md, html or pdf")
	out := flag.String("out", "", "Output path (default stdout)")
	flag.Parse()

	_ = godotenv.Load()

	raw, err := readInput(*input)
	if err != nil {
		log.Fatal(err)
	}
	companies, err := discovery.ParseCompanies(raw)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("whocares parsed companies=%d", len(companies))

	caller, err := discovery.NewAnthropicCallerFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	exec := discovery.NewJSONExecutor(caller)

	backends := discovery.BackendConfig{Executor: exec}
	if key := strings.TrimSpace(os.Getenv("SEARCH_API_KEY")); key != "" {
		searcher, err := websearch.NewClient(websearch.Config{
			APIKey:  key,
			BaseURL: os.Getenv("SEARCH_BASE_URL"),
		})
		if err != nil {
			log.Fatal(err)
		}
		backends.Searcher = searcher
		if envBool("WHOCARES_DEEP_FETCH") {
			backends.Fetcher = webfetch.NewFetcher()
		}
	}

	pipeline := discovery.NewPipeline(discovery.PipelineConfig{
		Extractor:      discovery.BuildExtractor(backends),
		Canonicalizer:  discovery.NewCanonicalizer(discovery.NewLLMResolver(exec)),
		MaxConcurrency: envInt("WHOCARES_MAX_CONCURRENCY", discovery.DefaultMaxConcurrency),
		CallTimeout:    time.Duration(envInt("WHOCARES_CALL_TIMEOUT_SEC", 90)) * time.Second,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result, err := pipeline.Run(ctx, companies)
	if err != nil {
		log.Fatal(err)
	}
	summary := discovery.NewSummarizer(exec).Summarize(ctx, companies, result.WhoCares)

	markdown := discovery.BuildReportMarkdown(result, summary)
	var report []byte
	switch *format {
	case "md":
		report = []byte(markdown)
	case "html":
		doc, err := htmlreport.Render(markdown)
		if err != nil {
			log.Fatal(err)
		}
		report = []byte(doc)
	case "pdf":
		report, err = htmlreport.RenderPDF(ctx, markdown)
		if err != nil {
			log.Fatal(err)
		}
	default:
		log.Fatalf("unknown format %q", *format)
	}

	if *out == "" {
		os.Stdout.Write(report)
		return
	}
	if err := os.WriteFile(*out, report, 0o644); err != nil {
		log.Fatal(err)
	}
	log.Printf("whocares report_written path=%s bytes=%d", *out, len(report))
}

func readInput(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes"
}
