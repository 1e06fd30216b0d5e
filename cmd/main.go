package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pdf-rag/internal/config"
	"pdf-rag/internal/discovery"
	"pdf-rag/internal/embedding"
	"pdf-rag/internal/llamacpp"
	"pdf-rag/internal/parser"
	"pdf-rag/internal/pipeline"
	"pdf-rag/internal/rag"
)

func main() {
	// .env values feed the env-var fallbacks; a missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(2)
	}

	setupLogging(cfg.Verbose)
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	paths, err := discovery.FindPDFs(cfg.PDFDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Error scanning pdf directory")
	}
	if len(paths) == 0 {
		fmt.Printf("No PDFs found in %s\n", cfg.PDFDir)
		return
	}

	ctx := context.Background()

	// Shared resources are loaded once, before the document loop; a failure
	// here is fatal to the whole run.
	embedder, err := embedding.NewOllamaEmbedder(cfg.OllamaURL, cfg.EmbeddingModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	// Embedding the question up front doubles as the embedding-model probe;
	// the vector is reused for every document.
	queryEmbedding, err := embedder.EmbedQuery(ctx, cfg.Question)
	if err != nil {
		log.Fatal().Err(err).Msg("Error embedding question")
	}

	llm, err := llamacpp.Start(llamacpp.Options{
		BinPath:     cfg.LlamaServer,
		ModelPath:   cfg.ModelPath,
		ContextSize: cfg.NCtx,
		Verbose:     cfg.Verbose,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Error starting llama-server")
	}
	defer llm.Stop()

	runner := &pipeline.Runner{
		RAG:     rag.NewRAG(embedder, llm, cfg.TopK),
		Extract: parser.ExtractChunks,
		Out:     os.Stdout,
	}
	runner.Run(ctx, paths, cfg.Question, queryEmbedding)
}

func setupLogging(verbose bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	// Diagnostics go to stderr; stdout carries only per-document results.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()
}
