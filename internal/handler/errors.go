package handler

import (
	"errors"
	"net/http"
	"time"

	"fork-your-story/internal/ai"
	"fork-your-story/internal/models"
	"fork-your-story/internal/video"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const persistTimeout = 15 * time.Second

// Сообщения об ошибках, которые видит клиент.
const (
	msgMissingStoryText = "Title and content are required"
	msgWordCountRange   = "Story must be between 250 and 1500 words"
	msgAINotConfigured  = "AI service is not configured. Please contact support."
	msgAIInvalidKey     = "Invalid API key. Please check your Google AI API key configuration."
	msgAIQuota          = "API quota exceeded. Please try again later or check your usage limits."
	msgAISafety         = "Content safety filter triggered. Please try a different story."
	msgAnalysisFailed   = "Failed to analyze story. Please try again later."
	msgTierLimit        = "Story limit reached for your tier"

	msgInvalidFork         = "Fork data is required (id, title, description)"
	msgVideoNotConfigured  = "Video generation service is not configured. Please contact support."
	msgVideoInvalidKey     = "Invalid video generation API key. Please check your FAL_KEY configuration."
	msgVideoFailed         = "Failed to generate video. Please try again later."
	msgVideoBusy           = "Too many video generations in progress. Please try again later."
	msgVideoTaskNotFound   = "Video task not found"
	msgServiceShuttingDown = "Service is shutting down. Please try again later."

	msgInvalidBody        = "Invalid request body"
	msgDatabaseDisabled   = "Database is not configured"
	msgStoryNotFound      = "Story not found"
	msgForbidden          = "You do not have access to this story"
	msgUserRequired       = "userId is required"
	msgAuthRequired       = "Authentication required"
	msgLibraryTier        = "The story library is available on the Scribe and Chronicler tiers"
	msgNarrativeTier      = "Extended narrative is available on the Chronicler tier"
	msgNarrativeFailed    = "Failed to generate extended narrative. Please try again later."
	msgInternalError      = "Internal server error. Please try again."
	msgConnectionSelf     = "A story cannot be connected to itself"
	msgConnectionBadStory = "connectedStoryId must be a valid story id"
	msgConnectionBadType  = "connectionType must be at most 32 characters"
)

// respondError пишет {"error", "details"}. details отдаются только в development.
func (h *ForkStoryHandler) respondError(c *gin.Context, status int, message string, err error) {
	resp := models.ErrorResponse{Error: message}
	if err != nil && h.cfg.IsDevelopment() {
		resp.Details = err.Error()
	}
	c.AbortWithStatusJSON(status, resp)
}

// analysisError переводит ошибку пайплайна в ответ. Вид ошибки определяет только ai.KindOf.
func (h *ForkStoryHandler) analysisError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ai.ErrAPIKeyMissing):
		h.respondError(c, http.StatusInternalServerError, msgAINotConfigured, err)
		return
	}
	switch ai.KindOf(err) {
	case ai.KindAuth:
		h.logger.Error("AI authentication failed", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, msgAIInvalidKey, err)
	case ai.KindQuota:
		h.logger.Error("AI quota exceeded", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, msgAIQuota, err)
	case ai.KindSafety:
		h.logger.Warn("AI safety filter triggered", zap.Error(err))
		h.respondError(c, http.StatusUnprocessableEntity, msgAISafety, err)
	default:
		h.logger.Error("Story analysis failed", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, msgAnalysisFailed, err)
	}
}

// videoError переводит ошибку генерации видео в ответ.
func (h *ForkStoryHandler) videoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, video.ErrTooManyTasks):
		h.respondError(c, http.StatusTooManyRequests, msgVideoBusy, err)
	case errors.Is(err, video.ErrShuttingDown):
		h.respondError(c, http.StatusServiceUnavailable, msgServiceShuttingDown, err)
	case video.IsAuthError(err):
		h.logger.Error("Video provider rejected the API key", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, msgVideoInvalidKey, err)
	default:
		h.logger.Error("Video generation failed", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, msgVideoFailed, err)
	}
}

// handleServiceError - общий маппинг ошибок репозиториев.
func (h *ForkStoryHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		h.respondError(c, http.StatusNotFound, msgStoryNotFound, err)
	case errors.Is(err, models.ErrDatabaseDisabled):
		h.respondError(c, http.StatusServiceUnavailable, msgDatabaseDisabled, err)
	case errors.Is(err, models.ErrBadRequest), errors.Is(err, models.ErrInvalidInput):
		h.respondError(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, models.ErrTierLimitReached):
		h.respondError(c, http.StatusForbidden, msgTierLimit, err)
	case errors.Is(err, models.ErrFeatureNotAvailable):
		h.respondError(c, http.StatusForbidden, err.Error(), nil)
	default:
		h.logger.Error("Unhandled internal error", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, msgInternalError, err)
	}
}
