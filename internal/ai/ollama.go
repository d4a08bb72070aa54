package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fork-your-story/internal/config"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

const defaultOllamaURL = "http://localhost:11434"

// ollamaClient реализует Client через нативный API Ollama.
type ollamaClient struct {
	client  *api.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

func newOllamaClient(cfg *config.Config, logger *zap.Logger) (Client, error) {
	// api.NewClient требует URL без суффикса /v1
	baseURL := strings.TrimSuffix(strings.TrimSuffix(cfg.AIBaseURL, "/"), "/v1")
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга Ollama Base URL '%s': %w", baseURL, err)
	}

	logger.Info("Ollama client created", zap.String("base_url", baseURL), zap.String("model", cfg.AIModel))
	return &ollamaClient{
		client:  api.NewClient(parsedURL, &http.Client{Timeout: cfg.AITimeout}),
		model:   cfg.AIModel,
		timeout: cfg.AITimeout,
		logger:  logger,
	}, nil
}

func (c *ollamaClient) Model() string { return c.model }

func (c *ollamaClient) GenerateText(ctx context.Context, op string, prompt string, params GenerationParams) (string, UsageInfo, error) {
	log := c.logger.With(zap.String("operation", op), zap.String("model", c.model))

	options := map[string]interface{}{}
	if params.Temperature != nil {
		options["temperature"] = *params.Temperature
	}
	if params.TopP != nil {
		options["top_p"] = *params.TopP
	}
	if params.MaxTokens != nil {
		options["num_predict"] = *params.MaxTokens
	}

	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Stream:   &stream,
		Options:  options,
	}
	if params.JSON {
		req.Format = []byte(`"json"`)
	}

	requestCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		requestCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	var resp api.ChatResponse
	err := c.client.Chat(requestCtx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	duration := time.Since(start)
	if err != nil {
		aiErr := newError(op, err)
		if errors.Is(err, context.DeadlineExceeded) {
			log.Error("Ollama request timed out", zap.Duration("timeout", c.timeout), zap.Error(err))
		} else {
			log.Error("Ollama request failed", zap.Duration("duration", duration), zap.Error(err))
		}
		observeError(c.model, op, aiErr.Kind)
		return "", UsageInfo{}, aiErr
	}

	text := resp.Message.Content
	if strings.TrimSpace(text) == "" {
		aiErr := &Error{Kind: KindUnknown, Op: op, Err: ErrEmptyResponse}
		log.Warn("Ollama returned empty response", zap.Duration("duration", duration))
		observeError(c.model, op, aiErr.Kind)
		return "", UsageInfo{}, aiErr
	}

	usage := UsageInfo{
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
	}
	if usage.TotalTokens == 0 {
		usage = estimateUsage(prompt, text)
	}

	observeSuccess(c.model, op, duration, usage)
	log.Info("Ollama response received", zap.Duration("duration", duration), zap.Int("total_tokens", usage.TotalTokens))
	return text, usage, nil
}
