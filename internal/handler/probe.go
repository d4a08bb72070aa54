package handler

import (
	"net/http"

	"fork-your-story/internal/ai"
	"fork-your-story/internal/prompts"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const apiKeyPreviewLen = 10

// testAI - GET /api/fork-your-story/test. Проверяет, что ключ загружен и модель отвечает.
func (h *ForkStoryHandler) testAI(c *gin.Context) {
	keyLoaded := h.cfg.AIConfigured()
	if h.ai == nil || !keyLoaded {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":        "API key not found",
			"apiKeyLoaded": false,
		})
		return
	}

	prompt, err := prompts.Default().Render(prompts.Test, nil)
	if err == nil {
		var text string
		text, _, err = h.ai.GenerateText(c.Request.Context(), prompts.Test, prompt, ai.GenerationParams{})
		if err == nil {
			c.JSON(http.StatusOK, gin.H{
				"success":       true,
				"apiKeyLoaded":  true,
				"apiKeyPreview": keyPreview(h.cfg.ActiveAIKey()),
				"model":         h.ai.Model(),
				"testResponse":  text,
			})
			return
		}
	}

	h.logger.Error("AI probe failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":        "Test failed",
		"message":      err.Error(),
		"apiKeyLoaded": keyLoaded,
	})
}

func keyPreview(key string) string {
	if len(key) > apiKeyPreviewLen {
		key = key[:apiKeyPreviewLen]
	}
	return key + "..."
}
