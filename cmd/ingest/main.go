// The ingest binary bulk-indexes a directory of documents into the
// configured vector store, replacing whatever was indexed before.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/sweetpotato0/docqa/app"
	"github.com/sweetpotato0/docqa/config"
	"github.com/sweetpotato0/docqa/pkg/logging"
	"github.com/sweetpotato0/docqa/rag/loader"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	dir := flag.String("dir", "docs", "directory of documents to index")
	reset := flag.Bool("reset", false, "clear the store before indexing")
	flag.Parse()

	logger := logging.WithComponent("ingest")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("load config failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	embedder, err := app.BuildEmbedder(&cfg.Embedder)
	if err != nil {
		logger.Error("build embedder failed", "error", err)
		os.Exit(1)
	}

	store, closeStore, err := app.BuildStore(ctx, &cfg.Store, embedder.Dimension())
	if err != nil {
		logger.Error("build vector store failed", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	rtr, err := app.BuildRetriever(cfg, store, embedder)
	if err != nil {
		logger.Error("build retriever failed", "error", err)
		os.Exit(1)
	}

	docs, err := loader.LoadDirectory(*dir)
	if err != nil {
		logger.Error("load directory failed", "dir", *dir, "error", err)
		os.Exit(1)
	}
	if len(docs) == 0 {
		logger.Warn("no readable documents found", "dir", *dir)
		return
	}

	if *reset {
		if err := rtr.Clear(ctx); err != nil {
			logger.Error("clear store failed", "error", err)
			os.Exit(1)
		}
		logger.Info("store cleared")
	}

	chunks, err := rtr.IndexDocuments(ctx, docs...)
	if err != nil {
		logger.Error("indexing failed", "error", err)
		os.Exit(1)
	}

	total, err := rtr.Count(ctx)
	if err != nil {
		logger.Error("count failed", "error", err)
		os.Exit(1)
	}
	logger.Info("ingestion complete",
		"documents", len(docs),
		"chunks_added", chunks,
		"chunks_total", total,
	)
}
