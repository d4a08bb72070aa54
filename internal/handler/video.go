package handler

import (
	"net/http"
	"strconv"
	"strings"

	"fork-your-story/internal/middleware"
	"fork-your-story/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type forkInput struct {
	ID          string `json:"id"`
	Letter      string `json:"letter"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Description string `json:"description"`
}

type generateVideoRequest struct {
	Fork *forkInput `json:"fork"`
}

// generateVideo - POST /api/fork-your-story/generate-video.
// По умолчанию ждет завершения задачи; ?async=true сразу возвращает taskId.
func (h *ForkStoryHandler) generateVideo(c *gin.Context) {
	var req generateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body for generateVideo", zap.Error(err))
		h.respondError(c, http.StatusBadRequest, msgInvalidFork, err)
		return
	}
	f := req.Fork
	if f == nil || strings.TrimSpace(f.ID) == "" || strings.TrimSpace(f.Title) == "" || strings.TrimSpace(f.Description) == "" {
		h.respondError(c, http.StatusBadRequest, msgInvalidFork, nil)
		return
	}
	if h.videos == nil {
		h.logger.Error("Video generation requested but FAL_KEY is not set")
		h.respondError(c, http.StatusInternalServerError, msgVideoNotConfigured, nil)
		return
	}

	fork := models.NarrativeFork{
		ID:          f.ID,
		Letter:      f.Letter,
		Title:       f.Title,
		Subtitle:    f.Subtitle,
		Description: f.Description,
	}
	var owner string
	if id, ok := middleware.UserIDFromContext(c); ok {
		owner = id.String()
	}

	task, err := h.videos.Submit(c.Request.Context(), fork, owner)
	if err != nil {
		h.videoError(c, err)
		return
	}

	if async, _ := strconv.ParseBool(c.Query("async")); async {
		snap := task.Snapshot()
		c.JSON(http.StatusAccepted, models.VideoTaskAccepted{
			Success: true,
			TaskID:  snap.ID.String(),
			Status:  string(snap.Status),
		})
		return
	}

	snap, err := task.Wait(c.Request.Context())
	if err != nil {
		h.videoError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.VideoResponse{
		Success:   true,
		VideoURL:  snap.VideoURL,
		RequestID: snap.RequestID,
		Duration:  snap.Duration,
		Status:    "completed",
	})
}

// getVideoTask - GET /api/fork-your-story/videos/:taskId.
func (h *ForkStoryHandler) getVideoTask(c *gin.Context) {
	if h.videos == nil {
		h.respondError(c, http.StatusInternalServerError, msgVideoNotConfigured, nil)
		return
	}
	id, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "Invalid task id", err)
		return
	}
	snap, ok := h.videos.Get(id)
	if !ok {
		h.respondError(c, http.StatusNotFound, msgVideoTaskNotFound, nil)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// videoStream - GET /api/fork-your-story/videos/ws.
func (h *ForkStoryHandler) videoStream(c *gin.Context) {
	if h.stream == nil {
		h.respondError(c, http.StatusServiceUnavailable, msgVideoNotConfigured, nil)
		return
	}
	h.stream.ServeWS(c)
}
