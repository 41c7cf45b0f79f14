// Command ingestd is the ingestion daemon. It consumes transcripts from NATS
// and optionally from a watched directory of JSON files, runs them through
// the ingestion pipeline into Qdrant, and serves /metrics and /healthz.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/RecallWorks/recall-engine/engine/domain"
	"github.com/RecallWorks/recall-engine/engine/ingest"
	"github.com/RecallWorks/recall-engine/engine/semantic"
	"github.com/RecallWorks/recall-engine/pkg/metrics"
	"github.com/RecallWorks/recall-engine/pkg/mid"
	"github.com/RecallWorks/recall-engine/pkg/ollama"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	var (
		natsURL     = flag.String("nats", envOr("NATS_URL", nats.DefaultURL), "NATS server URL")
		qdrantAddr  = flag.String("qdrant", envOr("QDRANT_URL", "localhost:6334"), "Qdrant gRPC address")
		collection  = flag.String("collection", envOr("QDRANT_COLLECTION", "recall"), "Qdrant collection name")
		ollamaURL   = flag.String("ollama", envOr("OLLAMA_URL", "http://localhost:11434"), "Ollama base URL")
		ollamaModel = flag.String("model", envOr("OLLAMA_MODEL", "nomic-embed-text"), "Ollama embedding model")
		dims        = flag.Int("dims", semantic.DefaultDims, "embedding dimensions")
		watchDir    = flag.String("dir", envOr("WATCH_DIR", ""), "directory to watch for transcript JSON files (empty disables)")
		interval    = flag.Duration("interval", 30*time.Second, "directory scan interval")
		opsAddr     = flag.String("ops", envOr("OPS_ADDR", ":9091"), "ops HTTP listen address")
		chunkSize   = flag.Int("chunk-size", 0, "chunk size in bytes (0 = default)")
		overlap     = flag.Int("overlap", -1, "chunk overlap in bytes (-1 = default)")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(config{
		natsURL:    *natsURL,
		qdrantAddr: *qdrantAddr,
		collection: *collection,
		ollamaURL:  *ollamaURL,
		model:      *ollamaModel,
		dims:       *dims,
		watchDir:   *watchDir,
		interval:   *interval,
		opsAddr:    *opsAddr,
		chunkSize:  *chunkSize,
		overlap:    *overlap,
	}, logger); err != nil {
		logger.Error("ingestd exited with error", "error", err)
		os.Exit(1)
	}
}

type config struct {
	natsURL    string
	qdrantAddr string
	collection string
	ollamaURL  string
	model      string
	dims       int
	watchDir   string
	interval   time.Duration
	opsAddr    string
	chunkSize  int
	overlap    int
}

func run(cfg config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	vs, err := semantic.New(cfg.qdrantAddr, cfg.collection)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer vs.Close()
	if err := vs.EnsureCollection(ctx, cfg.dims); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}
	logger.Info("connected to Qdrant", "collection", cfg.collection, "dims", cfg.dims)

	embedder := ollama.NewEmbedClient(cfg.ollamaURL, cfg.model, cfg.dims)
	logger.Info("using Ollama embeddings", "model", cfg.model)

	opts := ingest.DefaultOptions()
	opts.Dims = cfg.dims
	if cfg.chunkSize > 0 {
		opts.ChunkSize = cfg.chunkSize
	}
	if cfg.overlap >= 0 {
		opts.Overlap = cfg.overlap
	}
	svc := ingest.New(embedder, vs, opts, logger)

	nc, err := nats.Connect(cfg.natsURL, nats.Name("ingestd"))
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer nc.Close()

	sub, err := svc.StartConsumer(nc)
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer sub.Unsubscribe()
	logger.Info("consuming transcripts", "subject", ingest.IngestSubject)

	if cfg.watchDir != "" {
		if err := os.MkdirAll(cfg.watchDir, 0o755); err != nil {
			return fmt.Errorf("watch dir: %w", err)
		}
		go watchLoop(ctx, svc, cfg.watchDir, cfg.interval, logger)
		logger.Info("watching for transcript files", "dir", cfg.watchDir, "interval", cfg.interval)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	srv := &http.Server{
		Addr:         cfg.opsAddr,
		Handler:      mid.Chain(mux, mid.Recover(logger), mid.Logger(logger), mid.OTel("ingestd")),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("ops server starting", "addr", cfg.opsAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// transcriptFile is the on-disk ingest format: a transcript plus an optional
// formatted report whose bullet sections are attached to every chunk.
type transcriptFile struct {
	domain.TranscriptDoc
	Report string `json:"report,omitempty"`
}

// watchLoop scans dir for *.json transcripts, ingests them, and renames
// processed files to *.json.done so restarts do not re-ingest.
func watchLoop(ctx context.Context, svc *ingest.Service, dir string, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		scanDir(ctx, svc, dir, logger)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func scanDir(ctx context.Context, svc *ingest.Service, dir string, logger *slog.Logger) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Error("ingestd: scan failed", "dir", dir, "error", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := processFile(ctx, svc, path, logger); err != nil {
			logger.Error("ingestd: file ingest failed", "file", path, "error", err)
			continue
		}
		if err := os.Rename(path, path+".done"); err != nil {
			logger.Error("ingestd: rename failed", "file", path, "error", err)
		}
	}
}

func processFile(ctx context.Context, svc *ingest.Service, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file transcriptFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	doc := file.TranscriptDoc
	if file.Report != "" {
		doc.Sections = ingest.ParseReportSections(file.Report)
	}
	docID, err := svc.StoreDocument(ctx, doc)
	if err != nil {
		return err
	}
	logger.Info("ingestd: stored file", "file", filepath.Base(path), "doc_id", docID)
	return nil
}
