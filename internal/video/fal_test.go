package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestFalClient(t *testing.T, h http.Handler) *FalClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewFalClient(FalConfig{BaseURL: srv.URL + "/", Model: "fal-ai/kling-video/v1/standard/text-to-video", Key: "secret"}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestNewFalClient_MissingKey(t *testing.T) {
	_, err := NewFalClient(FalConfig{}, zap.NewNop())
	assert.ErrorIs(t, err, ErrKeyMissing)
	assert.True(t, IsAuthError(err))
}

func TestFalClient_QueueRoundTrip(t *testing.T) {
	mux := http.NewServeMux()
	var submitted Request
	mux.HandleFunc("/fal-ai/kling-video/v1/standard/text-to-video", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Key secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&submitted))
		fmt.Fprint(w, `{"request_id":"req-1"}`)
	})
	mux.HandleFunc("/fal-ai/kling-video/v1/standard/text-to-video/requests/req-1/status", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("logs"))
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprint(w, `{"status":"IN_QUEUE","queue_position":2,"logs":[{"message":"waiting"}]}`)
	})
	mux.HandleFunc("/fal-ai/kling-video/v1/standard/text-to-video/requests/req-1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"video":{"url":"https://cdn.example/v.mp4"}}`)
	})
	c := newTestFalClient(t, mux)
	ctx := context.Background()

	h, err := c.Submit(ctx, Request{Prompt: "p", Duration: "5", AspectRatio: "16:9"})
	require.NoError(t, err)
	assert.Equal(t, "req-1", h.RequestID)
	assert.Equal(t, "16:9", submitted.AspectRatio)

	st, err := c.Status(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, QueueInQueue, st.Status)
	require.NotNil(t, st.QueuePosition)
	assert.Equal(t, 2, *st.QueuePosition)
	require.Len(t, st.Logs, 1)

	url, err := c.Result(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/v.mp4", url)
}

func TestFalClient_ResultFallsBackToVideoURL(t *testing.T) {
	c := newTestFalClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"video_url":"https://cdn.example/alt.mp4"}`)
	}))
	url, err := c.Result(context.Background(), Handle{ResponseURL: c.cfg.BaseURL + "/any"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/alt.mp4", url)
}

func TestFalClient_ResultWithoutURL(t *testing.T) {
	c := newTestFalClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	_, err := c.Result(context.Background(), Handle{ResponseURL: c.cfg.BaseURL + "/any"})
	assert.ErrorIs(t, err, ErrNoVideoURL)
}

func TestFalClient_AuthError(t *testing.T) {
	c := newTestFalClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Invalid key"}`, http.StatusUnauthorized)
	}))
	_, err := c.Submit(context.Background(), Request{Prompt: "p"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.True(t, IsAuthError(err))
}

func TestIsAuthError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "forbidden", err: &APIError{StatusCode: http.StatusForbidden}, want: true},
		{name: "server error", err: &APIError{StatusCode: http.StatusInternalServerError, Body: "401 inside body"}, want: false},
		{name: "message with API_KEY", err: errors.New("bad API_KEY"), want: true},
		{name: "other", err: errors.New("timeout"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAuthError(tt.err))
		})
	}
}
