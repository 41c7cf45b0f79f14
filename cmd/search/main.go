// Command search runs a one-shot fused retrieval against a channel and
// prints the ranked results as text or JSON. It can also reassemble a stored
// transcript or list what a channel holds.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/RecallWorks/recall-engine/engine/rag"
	"github.com/RecallWorks/recall-engine/engine/semantic"
	"github.com/RecallWorks/recall-engine/pkg/ollama"
)

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func main() {
	var (
		qdrantAddr = flag.String("qdrant", envOr("QDRANT_URL", "localhost:6334"), "Qdrant gRPC address")
		collection = flag.String("collection", envOr("QDRANT_COLLECTION", "recall"), "Qdrant collection name")
		ollamaURL  = flag.String("ollama", envOr("OLLAMA_URL", "http://localhost:11434"), "Ollama base URL")
		model      = flag.String("model", envOr("OLLAMA_MODEL", "nomic-embed-text"), "Ollama embedding model")
		dims       = flag.Int("dims", semantic.DefaultDims, "embedding dimensions")
		channel    = flag.String("channel", "", "channel id (required)")
		maxResults = flag.Int("n", 5, "max results")
		asJSON     = flag.Bool("json", false, "emit JSON instead of text")
		list       = flag.Bool("list", false, "list stored transcripts instead of searching")
		transcript = flag.String("transcript", "", "print the named transcript instead of searching")
		timeout    = flag.Duration("timeout", 30*time.Second, "request timeout")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	if *channel == "" {
		fmt.Fprintln(os.Stderr, "usage: search -channel <id> [flags] <query>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	store, err := semantic.New(*qdrantAddr, *collection)
	if err != nil {
		logger.Error("qdrant connect failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	embedder := ollama.NewEmbedClient(*ollamaURL, *model, *dims)
	opts := rag.DefaultOptions()
	opts.Dims = *dims
	svc := rag.New(embedder, store, opts, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch {
	case *list:
		infos, err := svc.ListTranscripts(ctx, *channel)
		if err != nil {
			logger.Error("list failed", "error", err)
			os.Exit(1)
		}
		if *asJSON {
			json.NewEncoder(os.Stdout).Encode(infos)
			return
		}
		for _, info := range infos {
			fmt.Printf("%s  %s  (%d chunks, %s)\n",
				info.Timestamp.Format(time.RFC3339), info.Name, info.TotalChunks, info.Source)
		}

	case *transcript != "":
		text, err := svc.ChannelTranscript(ctx, *channel, *transcript)
		if err != nil {
			logger.Error("transcript failed", "error", err)
			os.Exit(1)
		}
		fmt.Println(text)

	default:
		if flag.NArg() == 0 {
			fmt.Fprintln(os.Stderr, "search: missing query")
			os.Exit(2)
		}
		query := flag.Arg(0)
		results, err := svc.Search(ctx, query, *channel, *maxResults)
		if err != nil {
			logger.Error("search failed", "error", err)
			os.Exit(1)
		}
		if *asJSON {
			json.NewEncoder(os.Stdout).Encode(results)
			return
		}
		for i, r := range results {
			fmt.Printf("%d. [%.3f] %s (%s, chunk %d/%d, via %s)\n   %s\n",
				i+1, r.Score, r.TranscriptName, r.Timestamp, r.ChunkIndex+1,
				r.TotalChunks, r.QuerySource, r.Text)
		}
	}
}
