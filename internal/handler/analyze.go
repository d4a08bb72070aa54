package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"fork-your-story/internal/messaging"
	"fork-your-story/internal/models"
	"fork-your-story/internal/tier"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type analyzeRequest struct {
	StoryID       string                `json:"storyId"`
	Title         string                `json:"title"`
	Content       string                `json:"content"`
	WordCount     int                   `json:"wordCount"`
	KeystrokeData *models.KeystrokeData `json:"keystrokeData"`
	UserID        *string               `json:"userId"`
}

// analyzeStory - POST /api/fork-your-story/analyze.
// Проверки идут до любого обращения к модели.
func (h *ForkStoryHandler) analyzeStory(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body for analyzeStory", zap.Error(err))
		h.respondError(c, http.StatusBadRequest, msgInvalidBody, err)
		return
	}

	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		h.respondError(c, http.StatusBadRequest, msgMissingStoryText, nil)
		return
	}
	wordCount := req.WordCount
	if wordCount == 0 {
		wordCount = models.CountWords(req.Content)
	}
	if wordCount < models.MinWordCount || wordCount > models.MaxWordCount {
		h.respondError(c, http.StatusBadRequest, msgWordCountRange, nil)
		return
	}

	if h.analyzer == nil {
		h.logger.Error("Analyze requested but AI client is not configured", zap.String("ai_client", h.cfg.AIClientType))
		h.respondError(c, http.StatusInternalServerError, msgAINotConfigured, nil)
		return
	}

	// Клиент получает свой storyId обратно без изменений; новый выдается только при пустом поле.
	storyID := strings.TrimSpace(req.StoryID)
	if storyID == "" {
		storyID = uuid.NewString()
	}
	userID := h.resolveUser(c, req.UserID)

	if userID != nil {
		if err := h.checkStoryQuota(c, *userID); err != nil {
			h.handleServiceError(c, err)
			return
		}
	}

	sub := models.StorySubmission{
		StoryID:       storyID,
		UserID:        userID,
		Title:         req.Title,
		Content:       req.Content,
		WordCount:     wordCount,
		KeystrokeData: req.KeystrokeData,
	}

	result, err := h.analyzer.Analyze(c.Request.Context(), sub)
	if err != nil {
		h.analysisError(c, err)
		return
	}

	if userID != nil && h.recorder != nil {
		h.recordInBackground(c, models.PersistentStoryID(storyID), sub, result)
	}
	h.publishAnalyzed(c, sub, result)

	c.JSON(http.StatusOK, models.AnalyzeResponse{
		Success:  true,
		StoryID:  storyID,
		Analysis: result,
	})
}

// recordInBackground сохраняет результат, не задерживая ответ. Wait дожидается таких записей.
func (h *ForkStoryHandler) recordInBackground(c *gin.Context, storyID uuid.UUID, sub models.StorySubmission, a *models.StoryAnalysis) {
	ctx, cancel := detachedContext(c)
	h.background.Add(1)
	go func() {
		defer h.background.Done()
		defer cancel()
		h.recorder.Record(ctx, storyID, sub, a)
	}()
}

// checkStoryQuota проверяет лимит тарифа. Без профиля или БД лимит не применяется;
// ошибки чтения не блокируют анализ.
func (h *ForkStoryHandler) checkStoryQuota(c *gin.Context, userID uuid.UUID) error {
	if h.profiles == nil || h.stories == nil {
		return nil
	}
	ctx := c.Request.Context()
	log := h.logger.With(zap.String("user_id", userID.String()))

	profile, err := h.profiles.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			log.Warn("Failed to load profile, skipping tier check", zap.Error(err))
		}
		return nil
	}
	used, err := h.stories.CountByUserSince(ctx, userID, tier.WindowStart(profile.Tier, time.Now().UTC()))
	if err != nil {
		log.Warn("Failed to count stories, skipping tier check", zap.Error(err))
		return nil
	}
	if !tier.CanAnalyze(profile.Tier, used) {
		log.Info("Story limit reached", zap.String("tier", string(profile.Tier)), zap.Int("used", used))
		return models.ErrTierLimitReached
	}
	return nil
}

func (h *ForkStoryHandler) publishAnalyzed(c *gin.Context, sub models.StorySubmission, a *models.StoryAnalysis) {
	forkIDs := make([]string, 0, len(a.Forks))
	for _, f := range a.Forks {
		forkIDs = append(forkIDs, f.ID)
	}
	model := ""
	if h.ai != nil {
		model = h.ai.Model()
	}
	event := messaging.StoryAnalyzedEvent{
		StoryID:       sub.StoryID,
		UserID:        sub.UserID,
		Title:         sub.Title,
		WordCount:     sub.WordCount,
		IsHuman:       a.Verification.IsHuman,
		Confidence:    a.Verification.Confidence,
		ParallelNames: a.ParallelNames(),
		ForkIDs:       forkIDs,
		Model:         model,
		AnalyzedAt:    time.Now().UTC(),
	}

	ctx, cancel := detachedContext(c)
	defer cancel()
	if err := h.events.PublishStoryAnalyzed(ctx, event); err != nil {
		h.logger.Error("Failed to publish story.analyzed event", zap.String("story_id", sub.StoryID), zap.Error(err))
	}
}
