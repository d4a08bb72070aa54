package handler_test

import (
	"errors"
	"net/http"
	"testing"

	"fork-your-story/internal/ai"
	"fork-your-story/internal/config"
	"fork-your-story/internal/handler"
	"fork-your-story/internal/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestProbe_NoKey(t *testing.T) {
	r := newRouter(t, handler.Deps{Config: &config.Config{AIClientType: config.AIClientGemini}})

	w := doJSON(t, r, http.MethodGet, "/api/fork-your-story/test", nil, "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "API key not found", body["error"])
	assert.Equal(t, false, body["apiKeyLoaded"])
}

func TestProbe_Success(t *testing.T) {
	client := mocks.NewMockAIClient(t)
	client.On("GenerateText", mock.Anything, "test", mock.Anything, mock.Anything).Return("Test", ai.UsageInfo{}, nil).Once()
	client.On("Model").Return("gemini-2.5-flash").Once()
	cfg := &config.Config{AIClientType: config.AIClientGemini, GoogleAIAPIKey: "AIzaSyExample-1234567890"}

	w := doJSON(t, newRouter(t, handler.Deps{Config: cfg, AI: client}), http.MethodGet, "/api/fork-your-story/test", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "AIzaSyExam...", body["apiKeyPreview"])
	assert.Equal(t, "gemini-2.5-flash", body["model"])
	assert.Equal(t, "Test", body["testResponse"])
}

func TestProbe_ModelError(t *testing.T) {
	client := mocks.NewMockAIClient(t)
	client.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", ai.UsageInfo{}, errors.New("deadline exceeded")).Once()
	cfg := &config.Config{AIClientType: config.AIClientGemini, GoogleAIAPIKey: "key"}

	w := doJSON(t, newRouter(t, handler.Deps{Config: cfg, AI: client}), http.MethodGet, "/api/fork-your-story/test", nil, "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Test failed", body["error"])
	assert.Equal(t, "deadline exceeded", body["message"])
	assert.Equal(t, true, body["apiKeyLoaded"])
}
