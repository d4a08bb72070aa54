package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fork-your-story/internal/config"
	"fork-your-story/internal/handler"
	"fork-your-story/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const jwtTestSecret = "test-secret-for-handlers"

func init() {
	gin.SetMode(gin.TestMode)
}

// newRouter собирает gin с обработчиком. Если cfg.AuthJWTSecret задан, подключается проверка токена.
func newRouter(t *testing.T, d handler.Deps) *gin.Engine {
	t.Helper()
	r, _ := newHandlerRouter(t, d)
	return r
}

// newHandlerRouter возвращает и сам обработчик, чтобы тест мог дождаться фоновых записей.
func newHandlerRouter(t *testing.T, d handler.Deps) (*gin.Engine, *handler.ForkStoryHandler) {
	t.Helper()
	if d.Config == nil {
		d.Config = &config.Config{Env: "production"}
	}
	d.Logger = zap.NewNop()

	h := handler.NewForkStoryHandler(d)
	r := gin.New()
	r.Use(middleware.OptionalIdentity(d.Config.AuthJWTSecret, zap.NewNop()))
	h.RegisterRoutes(r, handler.RouteOptions{})
	return r, h
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func signToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	s, err := token.SignedString([]byte(jwtTestSecret))
	require.NoError(t, err)
	return s
}

func storyText(words int) string {
	return strings.TrimSpace(strings.Repeat("lantern ", words))
}

func devConfig() *config.Config {
	return &config.Config{Env: "development"}
}
