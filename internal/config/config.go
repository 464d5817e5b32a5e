package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/regdoc/answer-agent/internal/guardrails"
)

// Pipeline is the YAML-backed pipeline configuration: retrieval
// fusion weights, candidate counts, guardrail limits, and the
// hedge-phrase list used by the default hallucination detector.
type Pipeline struct {
	Retrieval struct {
		TopK           int     `yaml:"top_k"`
		CandidateK     int     `yaml:"candidate_k"`
		SemanticWeight float64 `yaml:"semantic_weight"`
		LexicalWeight  float64 `yaml:"lexical_weight"`
	} `yaml:"retrieval"`

	Rerank struct {
		CharBudget int `yaml:"char_budget"`
	} `yaml:"rerank"`

	Guardrails struct {
		Limits guardrails.Limits `yaml:"limits"`
		Strict bool              `yaml:"strict"`
	} `yaml:"guardrails"`

	HedgePhrases []string `yaml:"hedge_phrases"`
}

func Load() (*Pipeline, error) {
	path := os.Getenv("PIPELINE_CONFIG_PATH")
	if path == "" {
		path = "configs/pipeline.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Pipeline
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Pipeline) {
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.CandidateK == 0 {
		cfg.Retrieval.CandidateK = 30
	}
	if cfg.Retrieval.SemanticWeight == 0 {
		cfg.Retrieval.SemanticWeight = 0.6
	}
	if cfg.Retrieval.LexicalWeight == 0 {
		cfg.Retrieval.LexicalWeight = 0.4
	}
	if cfg.Rerank.CharBudget == 0 {
		cfg.Rerank.CharBudget = 1000
	}
}

func (cfg *Pipeline) Validate() error {
	if cfg.Retrieval.TopK > cfg.Retrieval.CandidateK {
		return fmt.Errorf("top_k %d exceeds candidate_k %d", cfg.Retrieval.TopK, cfg.Retrieval.CandidateK)
	}
	if cfg.Retrieval.SemanticWeight < 0 || cfg.Retrieval.LexicalWeight < 0 {
		return fmt.Errorf("fusion weights must be non-negative")
	}
	return nil
}
