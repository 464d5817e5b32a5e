package setup

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/regdoc/answer-agent/internal/cache"
	"github.com/regdoc/answer-agent/internal/config"
	"github.com/regdoc/answer-agent/internal/embedding"
	"github.com/regdoc/answer-agent/internal/generate"
	"github.com/regdoc/answer-agent/internal/guardrails"
	"github.com/regdoc/answer-agent/internal/index"
	"github.com/regdoc/answer-agent/internal/llm/bedrock"
	"github.com/regdoc/answer-agent/internal/pipeline"
	"github.com/regdoc/answer-agent/internal/rerank"
	"github.com/regdoc/answer-agent/internal/retriever"
	"github.com/regdoc/answer-agent/internal/store"
)

type Config struct {
	AWSRegion     string
	ClaudeModelID string
	EmbedModelID  string
	SnapshotDir   string
	LLMTimeout    time.Duration
	LLMMaxRetries int
	RedisAddr     string
	RedisPassword string
	RedisTTL      time.Duration
	CacheEnabled  bool
	LogLevel      string
	Port          string
}

type Dependencies struct {
	Pipeline *pipeline.Pipeline
	Logger   *zerolog.Logger
}

func LoadConfig() *Config {
	return &Config{
		AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
		ClaudeModelID: getEnv("CLAUDE_MODEL_ID", "anthropic.claude-3-haiku-20240307-v1:0"),
		EmbedModelID:  getEnv("EMBED_MODEL_ID", "amazon.titan-embed-text-v2:0"),
		SnapshotDir:   getEnv("SNAPSHOT_DIR", "data"),
		LLMTimeout:    getEnvDuration("LLM_TIMEOUT_MS", 3000) * time.Millisecond,
		LLMMaxRetries: getEnvInt("LLM_MAX_RETRIES", 2),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTTL:      getEnvDuration("REDIS_TTL_MIN", 30) * time.Minute,
		CacheEnabled:  getEnv("ANSWER_CACHE_ENABLED", "false") == "true",
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Port:          getEnv("API_PORT", "8080"),
	}
}

// Wire builds the full dependency graph: snapshot load, both
// indexes, providers, guardrails, and the pipeline. All clients are
// constructed here and injected; nothing global.
func Wire(ctx context.Context, cfg *Config, pipelineCfg *config.Pipeline, logger *zerolog.Logger) (*Dependencies, error) {
	snapshot, err := store.Load(cfg.SnapshotDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load index snapshot: %w", err)
	}

	chunkStore := store.NewChunkStore(snapshot.Chunks)

	semanticIndex, err := index.NewSemanticIndex(snapshot.Vectors)
	if err != nil {
		return nil, fmt.Errorf("failed to build semantic index: %w", err)
	}

	texts := make([]string, 0, chunkStore.Len())
	for _, chunk := range chunkStore.All() {
		texts = append(texts, chunk.Text)
	}
	lexicalIndex := index.NewLexicalIndex(texts)

	embedder, err := embedding.NewBedrockEmbedder(ctx, cfg.AWSRegion, cfg.EmbedModelID)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	llmClient, err := bedrock.NewClient(ctx, cfg.AWSRegion, cfg.ClaudeModelID, bedrock.Options{
		Timeout:    cfg.LLMTimeout,
		MaxRetries: cfg.LLMMaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	var answerCache cache.AnswerCache
	if cfg.CacheEnabled {
		redisClient, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, 5)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		answerCache = cache.NewRedisAnswerCache(redisClient, "answer_cache:", cfg.RedisTTL)
	}

	weights := retriever.Weights{
		Semantic: pipelineCfg.Retrieval.SemanticWeight,
		Lexical:  pipelineCfg.Retrieval.LexicalWeight,
	}

	limits := pipelineCfg.Guardrails.Limits

	hybrid := retriever.NewHybrid(semanticIndex, lexicalIndex, embedder, chunkStore, weights, logger)
	reranker := rerank.New(llmClient, pipelineCfg.Rerank.CharBudget, logger)
	detector := generate.NewKeywordDetector(pipelineCfg.HedgePhrases)
	generator := generate.New(llmClient, detector, logger)

	p := pipeline.New(
		guardrails.NewInputValidator(limits, logger),
		guardrails.NewContextValidator(limits, logger),
		guardrails.NewOutputValidator(limits),
		hybrid,
		reranker,
		generator,
		answerCache,
		pipeline.Options{
			TopK:       pipelineCfg.Retrieval.TopK,
			CandidateK: pipelineCfg.Retrieval.CandidateK,
			Strict:     pipelineCfg.Guardrails.Strict,
		},
		logger,
	)

	logger.Info().
		Int("chunks", chunkStore.Len()).
		Int("embedding_dim", semanticIndex.Dim()).
		Msg("pipeline wired")

	return &Dependencies{
		Pipeline: p,
		Logger:   logger,
	}, nil
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		value = defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue int64) time.Duration {
	value, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		value = defaultValue
	}
	return time.Duration(value)
}
