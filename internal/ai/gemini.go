package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fork-your-story/internal/config"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	finishReasonSafety         = "SAFETY"
	blockReasonUnspecified     = "BLOCKED_REASON_UNSPECIFIED"
	geminiDefaultModelFallback = "gemini-2.5-flash"
)

// geminiClient реализует Client через Google Gen AI SDK.
type geminiClient struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

func newGeminiClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.GoogleAIAPIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.AITimeout},
	}
	if cfg.AIBaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.AIBaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания клиента Gemini: %w", err)
	}

	model := cfg.AIModel
	if model == "" {
		model = geminiDefaultModelFallback
	}
	logger.Info("Gemini client created", zap.String("model", model), zap.Duration("timeout", cfg.AITimeout))
	return &geminiClient{client: client, model: model, logger: logger}, nil
}

func (c *geminiClient) Model() string { return c.model }

func (c *geminiClient) GenerateText(ctx context.Context, op string, prompt string, params GenerationParams) (string, UsageInfo, error) {
	log := c.logger.With(zap.String("operation", op), zap.String("model", c.model))

	genCfg := &genai.GenerateContentConfig{}
	if params.Temperature != nil {
		t := float32(*params.Temperature)
		genCfg.Temperature = &t
	}
	if params.TopP != nil {
		p := float32(*params.TopP)
		genCfg.TopP = &p
	}
	if params.JSON {
		genCfg.ResponseMIMEType = "application/json"
	}

	start := time.Now()
	log.Debug("Sending request to Gemini", zap.Int("prompt_bytes", len(prompt)))
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), genCfg)
	duration := time.Since(start)
	if err != nil {
		aiErr := newError(op, err)
		log.Error("Gemini request failed", zap.Duration("duration", duration), zap.String("kind", string(aiErr.Kind)), zap.Error(err))
		observeError(c.model, op, aiErr.Kind)
		return "", UsageInfo{}, aiErr
	}

	if reason := blockReason(resp); reason != "" {
		aiErr := &Error{Kind: KindSafety, Op: op, Err: fmt.Errorf("%w: %s", ErrSafetyBlocked, reason)}
		log.Warn("Gemini blocked content", zap.String("reason", reason))
		observeError(c.model, op, aiErr.Kind)
		return "", UsageInfo{}, aiErr
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		aiErr := &Error{Kind: KindUnknown, Op: op, Err: ErrEmptyResponse}
		log.Warn("Gemini returned empty response", zap.Duration("duration", duration))
		observeError(c.model, op, aiErr.Kind)
		return "", UsageInfo{}, aiErr
	}

	usage := UsageInfo{}
	if md := resp.UsageMetadata; md != nil {
		usage.PromptTokens = int(md.PromptTokenCount)
		usage.CompletionTokens = int(md.CandidatesTokenCount)
		usage.TotalTokens = int(md.TotalTokenCount)
	}
	if usage.TotalTokens == 0 {
		usage = estimateUsage(prompt, text)
	}

	observeSuccess(c.model, op, duration, usage)
	log.Info("Gemini response received",
		zap.Duration("duration", duration),
		zap.Int("response_length", len(text)),
		zap.Int("total_tokens", usage.TotalTokens),
		zap.Bool("estimated", usage.Estimated),
	)
	return text, usage, nil
}

// blockReason возвращает причину блокировки запроса или ответа, либо "".
func blockReason(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	if fb := resp.PromptFeedback; fb != nil {
		if r := string(fb.BlockReason); r != "" && r != blockReasonUnspecified {
			return "prompt " + r
		}
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
		if string(resp.Candidates[0].FinishReason) == finishReasonSafety {
			return "candidate " + finishReasonSafety
		}
	}
	return ""
}

// responseText склеивает текстовые части первого кандидата, пропуская "мысли" модели.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}
