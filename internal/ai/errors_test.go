package ai

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ollama/ollama/api"
	openaigo "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"gemini invalid key detail", genai.APIError{Code: 400, Status: "INVALID_ARGUMENT", Details: []map[string]any{{"reason": "API_KEY_INVALID"}}}, KindAuth},
		{"gemini pointer error", &genai.APIError{Code: 403, Status: "PERMISSION_DENIED"}, KindAuth},
		{"gemini quota", fmt.Errorf("wrapped: %w", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}), KindQuota},
		{"gemini bad request", genai.APIError{Code: 400, Status: "INVALID_ARGUMENT", Message: "bad"}, KindUnknown},
		{"openai 401", &openaigo.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "Incorrect key"}, KindAuth},
		{"openai insufficient quota", &openaigo.APIError{HTTPStatusCode: http.StatusTooManyRequests, Code: "insufficient_quota"}, KindQuota},
		{"openai request error", &openaigo.RequestError{HTTPStatusCode: http.StatusForbidden, Err: errors.New("forbidden")}, KindAuth},
		{"ollama 429", api.StatusError{StatusCode: http.StatusTooManyRequests, ErrorMessage: "busy"}, KindQuota},
		{"safety sentinel", fmt.Errorf("x: %w", ErrSafetyBlocked), KindSafety},
		{"missing key sentinel", ErrAPIKeyMissing, KindAuth},
		{"message API_KEY", errors.New("request failed: API_KEY not valid"), KindAuth},
		{"message 403", errors.New("status 403 returned"), KindAuth},
		{"message quota", errors.New("you exceeded your quota"), KindQuota},
		{"message SAFETY", errors.New("finish reason SAFETY"), KindSafety},
		{"message other", errors.New("connection reset by peer"), KindUnknown},
		{"already classified", &Error{Kind: KindQuota, Op: "x", Err: errors.New("401")}, KindQuota},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestClassify_StructuredBeatsMessage(t *testing.T) {
	// Текст содержит "quota", но код ответа говорит об ошибке авторизации.
	err := &openaigo.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "quota project mismatch"}
	assert.Equal(t, KindAuth, Classify(err))
}

func TestError_WrapsAndMatches(t *testing.T) {
	inner := errors.New("boom")
	err := fmt.Errorf("stage: %w", newError("character_map", inner))

	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, KindUnknown, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(nil))
}
