package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/regdoc/answer-agent/internal/embedding"
	"github.com/regdoc/answer-agent/internal/ingestion"
	"github.com/regdoc/answer-agent/internal/setup"
	"github.com/regdoc/answer-agent/internal/store"
)

// Offline snapshot build: parse the corpus, embed every chunk, and
// write the chunk/vector pair the server loads at startup. Must not
// run against a snapshot dir an active server is reading.
func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	corpusPath := flag.String("corpus", "content/corpus.txt", "path to the extracted corpus text")
	chunkSize := flag.Int("chunk-size", 1000, "chunk window size in characters")
	chunkOverlap := flag.Int("chunk-overlap", 150, "chunk overlap in characters")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found")
	}

	cfg := setup.LoadConfig()
	ctx := context.Background()

	parser := ingestion.NewParser(*chunkSize, *chunkOverlap)
	chunks, err := parser.ParseFile(*corpusPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse corpus")
	}
	log.Info().Int("chunks", len(chunks)).Msg("Corpus parsed")

	embedder, err := embedding.NewBedrockEmbedder(ctx, cfg.AWSRegion, cfg.EmbedModelID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create embedder")
	}

	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		texts = append(texts, chunk.Text)
	}

	log.Info().Msg("Embedding chunks")
	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to embed chunks")
	}

	if err := store.Save(cfg.SnapshotDir, &store.Snapshot{Chunks: chunks, Vectors: vectors}); err != nil {
		log.Fatal().Err(err).Msg("Failed to write snapshot")
	}

	log.Info().
		Str("dir", cfg.SnapshotDir).
		Int("chunks", len(chunks)).
		Msg("Snapshot written")
}
