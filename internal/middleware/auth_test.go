package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fork-your-story/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "middleware-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(secret string) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.OptionalIdentity(secret, zap.NewNop()))
	r.GET("/whoami", func(c *gin.Context) {
		id, ok := middleware.UserIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{
			"authenticated": ok,
			"userId":        id.String(),
			"requestId":     middleware.GetRequestID(c),
		})
	})
	return r
}

func sign(t *testing.T, secret, subject string, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: subject, ExpiresAt: jwt.NewNumericDate(expiresAt)}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func get(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestOptionalIdentity(t *testing.T) {
	userID := uuid.New()
	valid := sign(t, testSecret, userID.String(), time.Now().Add(time.Hour))

	tests := []struct {
		name       string
		secret     string
		header     string
		wantStatus int
		wantError  string
		wantUser   bool
	}{
		{name: "anonymous", secret: testSecret, wantStatus: http.StatusOK},
		{name: "valid token", secret: testSecret, header: "Bearer " + valid, wantStatus: http.StatusOK, wantUser: true},
		{name: "lowercase scheme", secret: testSecret, header: "bearer " + valid, wantStatus: http.StatusOK, wantUser: true},
		{name: "disabled ignores header", secret: "", header: "Bearer garbage", wantStatus: http.StatusOK},
		{name: "bad format", secret: testSecret, header: "Token " + valid, wantStatus: http.StatusUnauthorized, wantError: "Invalid Authorization header format"},
		{name: "malformed", secret: testSecret, header: "Bearer not-a-jwt", wantStatus: http.StatusUnauthorized, wantError: "Token is malformed"},
		{
			name:       "expired",
			secret:     testSecret,
			header:     "Bearer " + sign(t, testSecret, userID.String(), time.Now().Add(-time.Minute)),
			wantStatus: http.StatusUnauthorized,
			wantError:  "Token has expired",
		},
		{
			name:       "wrong secret",
			secret:     testSecret,
			header:     "Bearer " + sign(t, "other-secret", userID.String(), time.Now().Add(time.Hour)),
			wantStatus: http.StatusUnauthorized,
			wantError:  "Token is invalid",
		},
		{
			name:       "subject is not a uuid",
			secret:     testSecret,
			header:     "Bearer " + sign(t, testSecret, "user-42", time.Now().Add(time.Hour)),
			wantStatus: http.StatusUnauthorized,
			wantError:  "Token is invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(newRouter(tt.secret), tt.header)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
				return
			}
			assert.Equal(t, tt.wantUser, body["authenticated"])
			if tt.wantUser {
				assert.Equal(t, userID.String(), body["userId"])
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	r := newRouter("")

	w := get(r, "")
	generated := w.Header().Get(middleware.RequestIDHeader)
	assert.NotEmpty(t, generated)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(middleware.RequestIDHeader))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "req-123", body["requestId"])
}
