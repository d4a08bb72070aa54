package handler

import (
	"errors"
	"net/http"
	"strings"

	"fork-your-story/internal/ai"
	"fork-your-story/internal/models"
	"fork-your-story/internal/tier"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type extendedNarrativeRequest struct {
	Fork          *models.NarrativeFork `json:"fork"`
	OriginalStory string                `json:"originalStory"`
	UserID        *string               `json:"userId"`
}

// extendedNarrative - POST /api/fork-your-story/extended-narrative. Только для chronicler.
func (h *ForkStoryHandler) extendedNarrative(c *gin.Context) {
	var req extendedNarrativeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, msgInvalidBody, err)
		return
	}
	if req.Fork == nil || strings.TrimSpace(req.Fork.Title) == "" || strings.TrimSpace(req.Fork.Description) == "" {
		h.respondError(c, http.StatusBadRequest, "Fork data is required (title, description)", nil)
		return
	}
	if strings.TrimSpace(req.OriginalStory) == "" {
		h.respondError(c, http.StatusBadRequest, "originalStory is required", nil)
		return
	}
	if h.narrator == nil {
		h.respondError(c, http.StatusInternalServerError, msgAINotConfigured, nil)
		return
	}
	if h.profiles == nil {
		h.respondError(c, http.StatusServiceUnavailable, msgDatabaseDisabled, nil)
		return
	}

	userID := h.resolveUser(c, req.UserID)
	if userID == nil {
		h.respondError(c, http.StatusUnauthorized, msgAuthRequired, nil)
		return
	}
	profile, err := h.profiles.GetByID(c.Request.Context(), *userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			h.respondError(c, http.StatusForbidden, msgNarrativeTier, err)
			return
		}
		h.handleServiceError(c, err)
		return
	}
	if !tier.Allows(profile.Tier, tier.FeatureExtendedNarrative) {
		h.respondError(c, http.StatusForbidden, msgNarrativeTier, nil)
		return
	}

	text, err := h.narrator.ExtendedNarrative(c.Request.Context(), *req.Fork, req.OriginalStory)
	if err != nil {
		if ai.KindOf(err) != ai.KindUnknown || errors.Is(err, ai.ErrAPIKeyMissing) {
			h.analysisError(c, err)
			return
		}
		h.logger.Error("Extended narrative failed", zap.String("user_id", userID.String()), zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, msgNarrativeFailed, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"forkId":    req.Fork.ID,
		"narrative": text,
		"wordCount": models.CountWords(text),
	})
}
