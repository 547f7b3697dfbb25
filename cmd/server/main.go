// The server binary runs the question answering HTTP API.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sweetpotato0/docqa/agent"
	"github.com/sweetpotato0/docqa/api"
	"github.com/sweetpotato0/docqa/app"
	"github.com/sweetpotato0/docqa/config"
	"github.com/sweetpotato0/docqa/pkg/logging"
	"github.com/sweetpotato0/docqa/pkg/telemetry"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	logger := logging.WithComponent("server")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("load config failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{ServiceName: "docqa"})
	if err != nil {
		logger.Error("init telemetry failed", "error", err)
		os.Exit(1)
	}
	defer shutdownTelemetry(context.Background())

	client, closeLLM, err := app.BuildLLM(ctx, &cfg.Provider)
	if err != nil {
		logger.Error("build llm provider failed", "error", err)
		os.Exit(1)
	}
	defer closeLLM()

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

	qa, err := agent.New(client, rtr, agent.WithTopKPerQuery(cfg.Agent.TopKPerQuery))
	if err != nil {
		logger.Error("build agent failed", "error", err)
		os.Exit(1)
	}

	opts := []api.Option{api.WithTimeout(cfg.Server.RequestTimeout)}
	if answerCache := app.BuildCache(&cfg.Cache); answerCache != nil {
		defer answerCache.Close()
		opts = append(opts, api.WithCache(answerCache))
	}

	srv, err := api.NewServer(qa, rtr, client, opts...)
	if err != nil {
		logger.Error("build server failed", "error", err)
		os.Exit(1)
	}

	if err := srv.Run(ctx, cfg.Server.Addr); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
