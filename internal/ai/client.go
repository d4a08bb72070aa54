package ai

import (
	"context"
	"fmt"
	"strings"

	"fork-your-story/internal/config"

	"go.uber.org/zap"
)

// GenerationParams - параметры генерации. nil = значение модели по умолчанию.
type GenerationParams struct {
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
	// JSON просит модель вернуть чистый JSON, если провайдер это поддерживает.
	JSON bool
}

// Client - интерфейс для текстовой модели.
type Client interface {
	// GenerateText отправляет один промт и возвращает текст ответа.
	// op - имя операции для метрик и логов ("character_map", "test" и т.п.).
	// Ошибки всегда имеют тип *Error с уже определенным Kind.
	GenerateText(ctx context.Context, op string, prompt string, params GenerationParams) (string, UsageInfo, error)
	// Model - имя модели, для ответа диагностического эндпоинта.
	Model() string
}

// NewClient создает клиента в зависимости от AI_CLIENT_TYPE.
// Если ключ для выбранного провайдера не задан, возвращается ErrAPIKeyMissing.
func NewClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Client, error) {
	log := logger.Named("AIClient")
	if cfg.AIKeyRequired() && cfg.ActiveAIKey() == "" {
		return nil, ErrAPIKeyMissing
	}

	switch strings.ToLower(cfg.AIClientType) {
	case config.AIClientGemini, "":
		log.Info("Using AI client implementation", zap.String("type", config.AIClientGemini), zap.String("model", cfg.AIModel))
		return newGeminiClient(ctx, cfg, log)
	case config.AIClientOpenAI:
		log.Info("Using AI client implementation", zap.String("type", config.AIClientOpenAI), zap.String("model", cfg.AIModel))
		return newOpenAIClient(cfg, log), nil
	case config.AIClientOllama:
		log.Info("Using AI client implementation", zap.String("type", config.AIClientOllama), zap.String("model", cfg.AIModel))
		return newOllamaClient(cfg, log)
	default:
		return nil, fmt.Errorf("неизвестный тип AI клиента: '%s'", cfg.AIClientType)
	}
}
