package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jpcallaghan/whocares/internal/discovery"
	"github.com/jpcallaghan/whocares/internal/httpapi"
	"github.com/jpcallaghan/whocares/internal/telemetry"
	"github.com/jpcallaghan/whocares/internal/webfetch"
	"github.com/jpcallaghan/whocares/internal/websearch"
)

func main() {
	addr := flag.String("addr", ":8080", "Listen address")
	flag.Parse()

	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, "whocares-server")
	if err != nil {
		log.Fatal(err)
	}

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
	summarizer := discovery.NewSummarizer(exec)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           httpapi.NewServer(pipeline, summarizer),
		ReadHeaderTimeout: 10 * time.Second,
		// Discovery batches hold the request open; match the worst case of a
		// full batch with per-call timeouts.
		WriteTimeout: 15 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = shutdownTracing(shutdownCtx)
	}()

	log.Printf("whocares server_listening addr=%s model=%s", *addr, exec.ModelName())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
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
