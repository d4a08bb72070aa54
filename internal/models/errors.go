package models

import "errors"

// Общие ошибки приложения
var (
	// Ресурсы / БД
	ErrNotFound         = errors.New("resource not found")
	ErrDatabaseDisabled = errors.New("database is not configured")

	// Валидация запросов
	ErrBadRequest       = errors.New("bad request")
	ErrInvalidInput     = errors.New("invalid input data")
	ErrMissingStoryText = errors.New("title and content are required")
	ErrWordCountRange   = errors.New("story must be between 250 and 1500 words")
	ErrInvalidFork      = errors.New("fork data is required (id, title, description)")

	// Конфигурация внешних сервисов
	ErrAIKeyMissing    = errors.New("AI service is not configured")
	ErrVideoKeyMissing = errors.New("video generation service is not configured")

	// Тарифы
	ErrTierLimitReached    = errors.New("story limit reached for tier")
	ErrFeatureNotAvailable = errors.New("feature is not available for tier")

	ErrInternalServer = errors.New("internal server error")
)
