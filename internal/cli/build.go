package cli

import (
	"log/slog"

	"github.com/gonkalabs/safedata/internal/config"
	"github.com/gonkalabs/safedata/internal/embed"
	"github.com/gonkalabs/safedata/internal/pipeline"
	"github.com/gonkalabs/safedata/internal/privacy"
	"github.com/gonkalabs/safedata/internal/sanitize"
	"github.com/gonkalabs/safedata/internal/sanitize/llmclassifier"
	"github.com/gonkalabs/safedata/internal/sanitize/ner"
)

// buildScanner assembles the rule table and the entity models configured in c.
func buildScanner(c *config.Cfg) (*sanitize.Scanner, error) {
	rules, err := sanitize.LoadRules(c.RulesFile)
	if err != nil {
		return nil, err
	}
	matcher, err := sanitize.NewMatcher(rules)
	if err != nil {
		return nil, err
	}

	var models sanitize.MultiModel
	if c.NEREnabled {
		pool, err := ner.NewPool(c.NERURLs, c.NERTimeout)
		if err != nil {
			return nil, err
		}
		models = append(models, ner.NewCache(pool, c.NERCacheSize))
		slog.Info("sanitize: NER layer enabled", "replicas", pool.Len(), "labels", len(c.NERLabels))
	}
	if c.SecretAuditor {
		models = append(models, llmclassifier.New(c.OllamaBaseURL, c.LLMModel, c.LLMTimeout))
		slog.Info("sanitize: secret auditor enabled", "url", c.OllamaBaseURL, "model", c.LLMModel)
	}

	var adapter *sanitize.Adapter
	if len(models) > 0 {
		adapter = sanitize.NewAdapter(models, c.NERLabels, c.NERThreshold)
	}
	slog.Info("sanitize: scanner ready", "rules", matcher.Len(), "models", len(models))

	return sanitize.NewScanner(matcher, adapter, sanitize.ScanOptions{
		ChunkSize:    c.ChunkSize,
		ChunkOverlap: c.ChunkOverlap,
	}), nil
}

func buildEngine(c *config.Cfg) *privacy.Engine {
	return privacy.New(privacy.Config{
		Sensitivity:    c.L1Sensitivity,
		MinEpsilon:     c.MinEpsilon,
		HealthyEpsilon: c.BudgetThreshold,
	})
}

func buildPipeline(c *config.Cfg) (*pipeline.Pipeline, error) {
	scanner, err := buildScanner(c)
	if err != nil {
		return nil, err
	}
	embedder := embed.New(c.OllamaBaseURL, c.EmbedModel, c.EmbedDimension, c.EmbedTimeout)
	return pipeline.New(scanner, embedder, buildEngine(c)), nil
}
