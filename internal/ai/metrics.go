package ai

import (
	"sync"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fork_story_ai_requests_total",
			Help: "Total number of requests to the AI API.",
		},
		[]string{"model", "operation", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fork_story_ai_request_duration_seconds",
			Help:    "Histogram of AI API request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model", "operation"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fork_story_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"model", "operation"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fork_story_ai_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
		[]string{"model", "operation"},
	)
)

// UsageInfo - расход токенов одного вызова.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Estimated        bool // посчитано tiktoken, а не получено от API
}

func observeSuccess(model, op string, duration time.Duration, usage UsageInfo) {
	aiRequestsTotal.With(prometheus.Labels{"model": model, "operation": op, "status": "success"}).Inc()
	aiRequestDuration.With(prometheus.Labels{"model": model, "operation": op}).Observe(duration.Seconds())
	if usage.TotalTokens > 0 {
		aiPromptTokens.With(prometheus.Labels{"model": model, "operation": op}).Observe(float64(usage.PromptTokens))
		aiCompletionTokens.With(prometheus.Labels{"model": model, "operation": op}).Observe(float64(usage.CompletionTokens))
	}
}

func observeError(model, op string, kind Kind) {
	aiRequestsTotal.With(prometheus.Labels{"model": model, "operation": op, "status": "error_" + string(kind)}).Inc()
}

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// estimateUsage оценивает токены, когда API не вернул usage.
// Если словарь tiktoken недоступен, возвращается пустая структура.
func estimateUsage(prompt, completion string) UsageInfo {
	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			encoding = enc
		}
	})
	if encoding == nil {
		return UsageInfo{}
	}
	p := len(encoding.Encode(prompt, nil, nil))
	c := len(encoding.Encode(completion, nil, nil))
	return UsageInfo{PromptTokens: p, CompletionTokens: c, TotalTokens: p + c, Estimated: true}
}
