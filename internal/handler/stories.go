package handler

import (
	"errors"
	"net/http"
	"strconv"

	"fork-your-story/internal/middleware"
	"fork-your-story/internal/models"
	"fork-your-story/internal/tier"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultStoriesLimit = 20
	maxStoriesLimit     = 100
)

func (h *ForkStoryHandler) requireDatabase(c *gin.Context) bool {
	if h.stories == nil {
		h.respondError(c, http.StatusServiceUnavailable, msgDatabaseDisabled, nil)
		return false
	}
	return true
}

// loadStory читает историю из :id и проверяет доступ. При false ответ уже записан.
func (h *ForkStoryHandler) loadStory(c *gin.Context, write bool) (*models.Story, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "Invalid story id", err)
		return nil, false
	}
	story, err := h.stories.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return nil, false
	}
	if !h.canAccess(c, story, write) {
		_, verified := middleware.UserIDFromContext(c)
		switch {
		case !write:
			// Чужие приватные истории не видны.
			h.respondError(c, http.StatusNotFound, msgStoryNotFound, nil)
		case !verified:
			h.respondError(c, http.StatusUnauthorized, msgAuthRequired, nil)
		default:
			h.respondError(c, http.StatusForbidden, msgForbidden, nil)
		}
		return nil, false
	}
	return story, true
}

// canAccess: историю без владельца может читать и менять кто угодно. Историю с владельцем
// меняет только владелец, подтвержденный токеном; читать ее можно владельцу или всем, если она публичная.
// Без AUTH_JWT_SECRET владельца подтвердить нечем, поэтому такие истории доступны только на чтение.
func (h *ForkStoryHandler) canAccess(c *gin.Context, story *models.Story, write bool) bool {
	if story.UserID == nil {
		return true
	}
	caller, ok := middleware.UserIDFromContext(c)
	if ok && caller == *story.UserID {
		return true
	}
	return !write && story.IsPublic
}

// listStories - GET /api/fork-your-story/stories?userId=&limit=&offset=.
func (h *ForkStoryHandler) listStories(c *gin.Context) {
	if !h.requireDatabase(c) {
		return
	}
	q := c.Query("userId")
	userID := h.resolveUser(c, &q)
	if userID == nil {
		h.respondError(c, http.StatusBadRequest, msgUserRequired, nil)
		return
	}
	caller, verified := middleware.UserIDFromContext(c)
	owner := verified && caller == *userID
	if h.cfg.AuthJWTSecret != "" && !owner {
		h.respondError(c, http.StatusForbidden, msgForbidden, nil)
		return
	}

	if h.profiles != nil {
		profile, err := h.profiles.GetByID(c.Request.Context(), *userID)
		switch {
		case err == nil && !tier.Allows(profile.Tier, tier.FeatureLibrary):
			h.respondError(c, http.StatusForbidden, msgLibraryTier, nil)
			return
		case err != nil && !errors.Is(err, models.ErrNotFound):
			h.logger.Warn("Failed to load profile for library listing", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}

	limit := queryInt(c, "limit", defaultStoriesLimit)
	if limit <= 0 || limit > maxStoriesLimit {
		limit = defaultStoriesLimit
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	stories, err := h.stories.ListByUser(c.Request.Context(), *userID, limit, offset)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if !owner {
		stories = publicOnly(stories)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stories": stories})
}

// publicOnly оставляет публичные истории: владелец не подтвержден.
func publicOnly(stories []models.Story) []models.Story {
	out := make([]models.Story, 0, len(stories))
	for _, s := range stories {
		if s.IsPublic {
			out = append(out, s)
		}
	}
	return out
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// getStory - GET /api/fork-your-story/stories/:id.
func (h *ForkStoryHandler) getStory(c *gin.Context) {
	if !h.requireDatabase(c) {
		return
	}
	story, ok := h.loadStory(c, false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "story": story})
}

// updateStory - PATCH /api/fork-your-story/stories/:id.
func (h *ForkStoryHandler) updateStory(c *gin.Context) {
	if !h.requireDatabase(c) {
		return
	}
	var patch models.StoryPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.respondError(c, http.StatusBadRequest, msgInvalidBody, err)
		return
	}
	if patch.IsEmpty() {
		h.respondError(c, http.StatusBadRequest, "Nothing to update", nil)
		return
	}
	if patch.WordCount != nil && *patch.WordCount < 0 {
		h.respondError(c, http.StatusBadRequest, "word_count must not be negative", nil)
		return
	}
	story, ok := h.loadStory(c, true)
	if !ok {
		return
	}

	updated, err := h.stories.Update(c.Request.Context(), story.ID, patch)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "story": updated})
}

// deleteStory - DELETE /api/fork-your-story/stories/:id.
func (h *ForkStoryHandler) deleteStory(c *gin.Context) {
	if !h.requireDatabase(c) {
		return
	}
	story, ok := h.loadStory(c, true)
	if !ok {
		return
	}
	if err := h.stories.Delete(c.Request.Context(), story.ID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createConnectionRequest struct {
	ConnectedStoryID string `json:"connectedStoryId" binding:"required,uuid"`
	ConnectionType   string `json:"connectionType" binding:"omitempty,max=32"`
}

// listConnections - GET /api/fork-your-story/stories/:id/connections.
func (h *ForkStoryHandler) listConnections(c *gin.Context) {
	if h.stories == nil || h.connections == nil {
		h.respondError(c, http.StatusServiceUnavailable, msgDatabaseDisabled, nil)
		return
	}
	story, ok := h.loadStory(c, false)
	if !ok {
		return
	}
	conns, err := h.connections.ListForStory(c.Request.Context(), story.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "connections": conns})
}

// createConnection - POST /api/fork-your-story/stories/:id/connections.
func (h *ForkStoryHandler) createConnection(c *gin.Context) {
	if h.stories == nil || h.connections == nil {
		h.respondError(c, http.StatusServiceUnavailable, msgDatabaseDisabled, nil)
		return
	}
	var req createConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, bindingMessage(err), err)
		return
	}
	connectedID := uuid.MustParse(req.ConnectedStoryID)
	story, ok := h.loadStory(c, true)
	if !ok {
		return
	}
	if connectedID == story.ID {
		h.respondError(c, http.StatusBadRequest, msgConnectionSelf, nil)
		return
	}
	connected, err := h.stories.GetByID(c.Request.Context(), connectedID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if !h.canAccess(c, connected, false) {
		h.respondError(c, http.StatusNotFound, msgStoryNotFound, nil)
		return
	}

	conn := &models.StoryConnection{StoryID: story.ID, ConnectedStoryID: connectedID, ConnectionType: req.ConnectionType}
	if err := h.connections.Create(c.Request.Context(), conn); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "connection": conn})
}

// bindingMessage превращает ошибку валидации тела в сообщение для клиента.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return msgInvalidBody
	}
	switch verrs[0].Field() {
	case "ConnectedStoryID":
		return msgConnectionBadStory
	case "ConnectionType":
		return msgConnectionBadType
	}
	return msgInvalidBody
}
