package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"pdfchat/internal/chunker"
	"pdfchat/internal/config"
	embgemini "pdfchat/internal/embedding/gemini"
	"pdfchat/internal/engine"
	llmgemini "pdfchat/internal/llm/gemini"
	"pdfchat/internal/loader"
	"pdfchat/internal/repl"
	"pdfchat/internal/session"
	"pdfchat/internal/vectorstore"
	"pdfchat/internal/vectorstore/memory"
	"pdfchat/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/pdfchat/config.yaml if not provided)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	apiKey := os.Getenv(cfg.Gemini.APIKeyEnv)
	if apiKey == "" {
		log.Fatalf("missing API credential: set %s in your environment or .env file", cfg.Gemini.APIKeyEnv)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()

	emb, err := embgemini.NewClient(ctx, embgemini.Config{
		APIKey: apiKey,
		Model:  cfg.Gemini.EmbeddingModel,
	})
	if err != nil {
		log.Fatalf("embeddings client init failed: %v", err)
	}
	defer emb.Close()

	gen, err := llmgemini.NewClient(ctx, llmgemini.Config{
		APIKey:          apiKey,
		Model:           cfg.Gemini.GenerationModel,
		Temperature:     *cfg.Gemini.Temperature,
		MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
	})
	if err != nil {
		log.Fatalf("generation client init failed: %v", err)
	}
	defer gen.Close()

	var store vectorstore.Storage
	switch cfg.VectorStore.Type {
	case "memory", "":
		store = memory.NewStorage()
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			log.Fatalf("qdrant config missing")
		}
		store = qdrant.NewStorage(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		log.Fatalf("unknown vector store: %s", cfg.VectorStore.Type)
	}

	eng := engine.New(chunker.NewWindowChunker(cfg.Chunking.Size, *cfg.Chunking.Overlap), emb, store, gen, logger)
	ctrl := session.New(cfg.KnowledgeDir, loader.New(logger), eng, engine.QueryOptions{
		TopK:           cfg.Retrieval.TopK,
		ResponseMode:   cfg.Retrieval.ResponseMode,
		FallbackAnswer: cfg.FallbackAnswer,
	}, logger)

	if err := repl.Run(ctx, os.Stdin, os.Stdout, ctrl); err != nil {
		log.Fatal(err)
	}
}
