package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/fit-signals/internal/ai"
	"github.com/spigell/fit-signals/internal/ai/gemini"
	"github.com/spigell/fit-signals/internal/ai/openai"
	"github.com/spigell/fit-signals/internal/analysis"
	"github.com/spigell/fit-signals/internal/contract"
	"github.com/spigell/fit-signals/internal/preprocess"
	"github.com/spigell/fit-signals/internal/secrets"
)

// newCompleter builds the configured model backend.
func newCompleter(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Completer, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))

	switch provider {
	case "", openai.Provider:
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openai api key",
			Value: cfg.OpenAI.APIKey,
			File:  cfg.OpenAI.APIKeyFile,
			Env:   []string{"OPENAI_API_KEY"},
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.openai.api-key-file or LLM_API_KEY)", err)
		}

		return openai.New(openai.Config{
			BaseURL:     cfg.OpenAI.BaseURL,
			APIKey:      apiKey,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.OpenAI.Temperature,
			MaxRetries:  cfg.OpenAI.MaxRetries,
			Timeout:     cfg.Timeout,
		}, logger.With(
			zap.String("provider", openai.Provider),
			zap.Int("ai_retry_attempts", cfg.OpenAI.MaxRetries),
		))

	case gemini.Provider:
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: cfg.Gemini.APIKey,
			File:  cfg.Gemini.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
		}

		return gemini.NewGenerator(ctx, gemini.Config{
			APIKey:      apiKey,
			Model:       cfg.Gemini.Model,
			Temperature: cfg.Gemini.Temperature,
			MaxRetries:  cfg.Gemini.MaxRetries,
		}, logger.With(
			zap.String("provider", gemini.Provider),
			zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
		))

	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}

// newPipeline builds the preprocessing steps, honoring ai.disabled-steps.
func newPipeline(cfg *AIConfig, logger *zap.Logger) *preprocess.Pipeline {
	pipeline := preprocess.Default(logger, cfg.MaxInputRunes)
	for _, name := range cfg.DisabledSteps {
		pipeline.DisableByName(strings.TrimSpace(name), "disabled in config")
	}

	for _, status := range pipeline.Describe() {
		logger.Debug("preprocess step configured",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
		)
	}
	return pipeline
}

// newAnalyzer wires the completer, registry and pipeline into an analyzer.
func newAnalyzer(ctx context.Context, config *Config, logger *zap.Logger) (*analysis.Analyzer, error) {
	registry := contract.DefaultRegistry()
	if _, err := registry.Lookup(config.Contract.DefaultVariant); err != nil {
		return nil, fmt.Errorf("contract.default-variant: %w", err)
	}

	completer, err := newCompleter(ctx, config.AI, logger)
	if err != nil {
		return nil, fmt.Errorf("building ai completer: %w", err)
	}

	logger.Info("ai completer ready",
		zap.String("provider", completer.Provider()),
		zap.String("model", completer.Model()),
	)

	return analysis.New(completer, registry, newPipeline(config.AI, logger), logger, analysis.Config{
		Timeout:      config.AI.Timeout,
		MaxLogLength: config.Contract.MaxLogLength,
		Repair:       config.Contract.RepairJSON,
		Reasons:      config.Contract.Reasons,
		Fillers:      config.Contract.Fillers,
	}), nil
}
