package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrVideoGenerationFailed - общая ошибка генерации видео.
	ErrVideoGenerationFailed = errors.New("video generation failed")
	// ErrNoVideoURL - задача завершилась, но ссылка на видео не найдена.
	ErrNoVideoURL = errors.New("no video URL returned")
	// ErrKeyMissing - FAL_KEY не задан.
	ErrKeyMissing = errors.New("FAL_KEY is not set")
)

// Статусы очереди fal.ai.
const (
	QueueInQueue    = "IN_QUEUE"
	QueueInProgress = "IN_PROGRESS"
	QueueCompleted  = "COMPLETED"
)

// Request - параметры генерации видео.
type Request struct {
	Prompt      string `json:"prompt"`
	Duration    string `json:"duration"`     // "5" или "10"
	AspectRatio string `json:"aspect_ratio"` // "16:9", "9:16", "1:1"
}

// Handle - ссылка на запрос в очереди провайдера.
type Handle struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

// QueueStatus - реальный прогресс задачи у провайдера.
type QueueStatus struct {
	Status        string `json:"status"`
	QueuePosition *int   `json:"queue_position,omitempty"`
	Logs          []struct {
		Message string `json:"message"`
	} `json:"logs,omitempty"`
}

// Provider - очередь text-to-video.
type Provider interface {
	Submit(ctx context.Context, req Request) (Handle, error)
	Status(ctx context.Context, h Handle) (QueueStatus, error)
	Result(ctx context.Context, h Handle) (string, error)
}

// APIError - ответ провайдера с кодом не 2xx.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fal.ai API returned status %d: %s", e.StatusCode, e.Body)
}

// IsAuthError сообщает, что ошибка вызвана неверным ключом.
// Сначала код ответа, подстрока - только для ошибок без кода.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrKeyMissing) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	msg := err.Error()
	return strings.Contains(msg, "API_KEY") || strings.Contains(msg, "401")
}

// FalConfig - настройки клиента fal.ai.
type FalConfig struct {
	BaseURL string
	Model   string
	Key     string
	Timeout time.Duration
}

// FalClient - клиент очереди fal.ai поверх REST.
type FalClient struct {
	cfg        FalConfig
	httpClient *http.Client
	logger     *zap.Logger
}

var _ Provider = (*FalClient)(nil)

// NewFalClient создает клиента. Пустой ключ - ошибка конфигурации.
func NewFalClient(cfg FalConfig, logger *zap.Logger) (*FalClient, error) {
	if cfg.Key == "" {
		return nil, ErrKeyMissing
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &FalClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named("FalClient"),
	}, nil
}

// Submit ставит запрос в очередь модели.
func (c *FalClient) Submit(ctx context.Context, req Request) (Handle, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Handle{}, fmt.Errorf("failed to marshal request payload: %w", err)
	}
	endpoint := c.cfg.BaseURL + "/" + strings.TrimPrefix(c.cfg.Model, "/")

	var h Handle
	if err := c.do(ctx, http.MethodPost, endpoint, bytes.NewReader(body), &h); err != nil {
		return Handle{}, err
	}
	if h.RequestID == "" {
		return Handle{}, fmt.Errorf("%w: queue response without request_id", ErrVideoGenerationFailed)
	}
	if h.StatusURL == "" {
		h.StatusURL = endpoint + "/requests/" + h.RequestID + "/status"
	}
	if h.ResponseURL == "" {
		h.ResponseURL = endpoint + "/requests/" + h.RequestID
	}
	c.logger.Info("Video request queued", zap.String("request_id", h.RequestID), zap.String("model", c.cfg.Model))
	return h, nil
}

// Status читает состояние запроса вместе с логами.
func (c *FalClient) Status(ctx context.Context, h Handle) (QueueStatus, error) {
	statusURL := h.StatusURL
	if strings.Contains(statusURL, "?") {
		statusURL += "&logs=1"
	} else {
		statusURL += "?logs=1"
	}
	var st QueueStatus
	if err := c.do(ctx, http.MethodGet, statusURL, nil, &st); err != nil {
		return QueueStatus{}, err
	}
	return st, nil
}

type falResult struct {
	Video *struct {
		URL string `json:"url"`
	} `json:"video"`
	VideoURL string `json:"video_url"`
}

// Result читает ответ модели и достает ссылку на видео.
func (c *FalClient) Result(ctx context.Context, h Handle) (string, error) {
	var res falResult
	if err := c.do(ctx, http.MethodGet, h.ResponseURL, nil, &res); err != nil {
		return "", err
	}
	switch {
	case res.Video != nil && res.Video.URL != "":
		return res.Video.URL, nil
	case res.VideoURL != "":
		return res.VideoURL, nil
	}
	return "", ErrNoVideoURL
}

func (c *FalClient) do(ctx context.Context, method, url string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+c.cfg.Key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("fal.ai request failed", zap.String("method", method), zap.String("url", url), zap.Error(err))
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	// 202 Accepted - нормальный ответ статуса, пока запрос в очереди.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("fal.ai returned non-2xx status",
			zap.String("url", url),
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", truncate(string(data), 500)),
		)
		return &APIError{StatusCode: resp.StatusCode, Body: truncate(string(data), 500)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
