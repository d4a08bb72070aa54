package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ollama/ollama/api"
	openaigo "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// Kind - класс фатальной ошибки AI адаптера.
type Kind string

const (
	KindUnknown Kind = "unknown"
	KindAuth    Kind = "auth"
	KindQuota   Kind = "quota"
	KindSafety  Kind = "safety"
)

var (
	// ErrGenerationFailed - общая ошибка генерации текста, на нее матчится любая *Error.
	ErrGenerationFailed = errors.New("ошибка генерации текста AI")
	// ErrAPIKeyMissing - ключ для выбранного клиента не задан.
	ErrAPIKeyMissing = errors.New("AI API key is not configured")
	// ErrEmptyResponse - модель вернула пустой текст.
	ErrEmptyResponse = errors.New("empty response from model")
	// ErrSafetyBlocked - запрос или ответ заблокирован фильтром безопасности.
	ErrSafetyBlocked = errors.New("content blocked by safety filter")
)

// Error - ошибка вызова модели с уже определенным классом.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is позволяет проверять errors.Is(err, ErrGenerationFailed).
func (e *Error) Is(target error) bool {
	return target == ErrGenerationFailed
}

// newError оборачивает ошибку транспорта/SDK и классифицирует ее.
func newError(op string, err error) *Error {
	return &Error{Kind: Classify(err), Op: op, Err: err}
}

// KindOf возвращает класс ошибки. Для ошибок вне адаптера применяется Classify.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr.Kind
	}
	return Classify(err)
}

// Classify - единственное место, где решается класс ошибки.
// Сначала структурированные коды SDK, затем сентинелы, подстроки - в последнюю очередь.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr.Kind
	}
	if errors.Is(err, ErrSafetyBlocked) {
		return KindSafety
	}
	if errors.Is(err, ErrAPIKeyMissing) {
		return KindAuth
	}
	if kind, ok := classifyStructured(err); ok {
		return kind
	}
	return classifyMessage(err.Error())
}

func classifyStructured(err error) (Kind, bool) {
	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return classifyGemini(geminiErr)
	}
	var geminiErrPtr *genai.APIError
	if errors.As(err, &geminiErrPtr) && geminiErrPtr != nil {
		return classifyGemini(*geminiErrPtr)
	}

	var openaiErr *openaigo.APIError
	if errors.As(err, &openaiErr) {
		if code, ok := openaiErr.Code.(string); ok {
			switch code {
			case "invalid_api_key":
				return KindAuth, true
			case "insufficient_quota", "rate_limit_exceeded":
				return KindQuota, true
			case "content_filter":
				return KindSafety, true
			}
		}
		return classifyHTTPStatus(openaiErr.HTTPStatusCode)
	}
	var openaiReqErr *openaigo.RequestError
	if errors.As(err, &openaiReqErr) {
		return classifyHTTPStatus(openaiReqErr.HTTPStatusCode)
	}

	var ollamaErr api.StatusError
	if errors.As(err, &ollamaErr) {
		return classifyHTTPStatus(ollamaErr.StatusCode)
	}
	return "", false
}

func classifyGemini(e genai.APIError) (Kind, bool) {
	for _, detail := range e.Details {
		if reason, ok := detail["reason"].(string); ok {
			switch reason {
			case "API_KEY_INVALID", "API_KEY_SERVICE_BLOCKED", "API_KEY_HTTP_REFERRER_BLOCKED":
				return KindAuth, true
			case "RATE_LIMIT_EXCEEDED", "RESOURCE_EXHAUSTED":
				return KindQuota, true
			}
		}
	}
	switch e.Status {
	case "UNAUTHENTICATED", "PERMISSION_DENIED":
		return KindAuth, true
	case "RESOURCE_EXHAUSTED":
		return KindQuota, true
	}
	return classifyHTTPStatus(e.Code)
}

func classifyHTTPStatus(code int) (Kind, bool) {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth, true
	case http.StatusTooManyRequests:
		return KindQuota, true
	}
	return "", false
}

// classifyMessage - эвристика по тексту ошибки.
func classifyMessage(msg string) Kind {
	switch {
	case strings.Contains(msg, "API_KEY"), strings.Contains(msg, "401"), strings.Contains(msg, "403"):
		return KindAuth
	case strings.Contains(msg, "quota"), strings.Contains(msg, "429"):
		return KindQuota
	case strings.Contains(msg, "safety"), strings.Contains(msg, "SAFETY"):
		return KindSafety
	}
	return KindUnknown
}
