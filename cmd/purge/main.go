// Command purge deletes every stored vector for a channel.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/RecallWorks/recall-engine/engine/semantic"
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
		channel    = flag.String("channel", "", "channel id to purge (required)")
		yes        = flag.Bool("yes", false, "skip confirmation prompt")
		timeout    = flag.Duration("timeout", 30*time.Second, "request timeout")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *channel == "" {
		fmt.Fprintln(os.Stderr, "usage: purge -channel <id> [-yes]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if !*yes {
		fmt.Printf("delete all stored vectors for channel %q in %q? [y/N] ", *channel, *collection)
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
			fmt.Println("aborted")
			return
		}
	}

	store, err := semantic.New(*qdrantAddr, *collection)
	if err != nil {
		logger.Error("qdrant connect failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := store.DeleteByChannel(ctx, *channel); err != nil {
		logger.Error("purge failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("purged channel %s\n", *channel)
}
