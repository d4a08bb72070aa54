package ai

import (
	"context"
	"net/http"
	"strings"
	"time"

	"fork-your-story/internal/config"

	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// openAIClient реализует Client для OpenAI-совместимых API.
type openAIClient struct {
	client *openaigo.Client
	model  string
	logger *zap.Logger
}

func newOpenAIClient(cfg *config.Config, logger *zap.Logger) Client {
	openaiConfig := openaigo.DefaultConfig(cfg.AIAPIKey)
	if cfg.AIBaseURL != "" {
		openaiConfig.BaseURL = cfg.AIBaseURL
	}
	openaiConfig.HTTPClient = &http.Client{Timeout: cfg.AITimeout}
	logger.Info("OpenAI client created", zap.String("base_url", openaiConfig.BaseURL), zap.String("model", cfg.AIModel))
	return &openAIClient{
		client: openaigo.NewClientWithConfig(openaiConfig),
		model:  cfg.AIModel,
		logger: logger,
	}
}

func (c *openAIClient) Model() string { return c.model }

func (c *openAIClient) GenerateText(ctx context.Context, op string, prompt string, params GenerationParams) (string, UsageInfo, error) {
	log := c.logger.With(zap.String("operation", op), zap.String("model", c.model))

	req := openaigo.ChatCompletionRequest{
		Model: c.model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32Val(params.Temperature),
		TopP:        float32Val(params.TopP),
		MaxTokens:   intVal(params.MaxTokens),
	}
	if params.JSON {
		req.ResponseFormat = &openaigo.ChatCompletionResponseFormat{Type: openaigo.ChatCompletionResponseFormatTypeJSONObject}
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)
	if err != nil {
		aiErr := newError(op, err)
		log.Error("OpenAI request failed", zap.Duration("duration", duration), zap.String("kind", string(aiErr.Kind)), zap.Error(err))
		observeError(c.model, op, aiErr.Kind)
		return "", UsageInfo{}, aiErr
	}

	if len(resp.Choices) > 0 && resp.Choices[0].FinishReason == openaigo.FinishReasonContentFilter {
		aiErr := &Error{Kind: KindSafety, Op: op, Err: ErrSafetyBlocked}
		log.Warn("OpenAI content filter triggered")
		observeError(c.model, op, aiErr.Kind)
		return "", UsageInfo{}, aiErr
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		aiErr := &Error{Kind: KindUnknown, Op: op, Err: ErrEmptyResponse}
		log.Warn("OpenAI returned empty response", zap.Duration("duration", duration))
		observeError(c.model, op, aiErr.Kind)
		return "", UsageInfo{}, aiErr
	}

	text := resp.Choices[0].Message.Content
	usage := UsageInfo{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if usage.TotalTokens == 0 {
		usage = estimateUsage(prompt, text)
	}

	observeSuccess(c.model, op, duration, usage)
	log.Info("OpenAI response received", zap.Duration("duration", duration), zap.Int("total_tokens", usage.TotalTokens))
	return text, usage, nil
}

func float32Val(f64 *float64) float32 {
	if f64 == nil {
		return 0
	}
	return float32(*f64)
}

func intVal(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
