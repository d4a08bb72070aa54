package handler_test

import (
	"net/http"
	"strings"
	"testing"

	"fork-your-story/internal/config"
	"fork-your-story/internal/handler"
	"fork-your-story/internal/mocks"
	"fork-your-story/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type storiesEnv struct {
	stories     *mocks.MockStoryRepository
	connections *mocks.MockConnectionRepository
	profiles    *mocks.MockProfileRepository
}

func newStoriesRouter(t *testing.T, secret string) (http.Handler, storiesEnv) {
	env := storiesEnv{
		stories:     &mocks.MockStoryRepository{},
		connections: &mocks.MockConnectionRepository{},
		profiles:    &mocks.MockProfileRepository{},
	}
	t.Cleanup(func() {
		env.stories.AssertExpectations(t)
		env.connections.AssertExpectations(t)
		env.profiles.AssertExpectations(t)
	})
	r := newRouter(t, handler.Deps{
		Config:      &config.Config{AuthJWTSecret: secret},
		Stories:     env.stories,
		Connections: env.connections,
		Profiles:    env.profiles,
	})
	return r, env
}

func TestStories_DatabaseDisabled(t *testing.T) {
	r := newRouter(t, handler.Deps{})
	id := uuid.NewString()

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/fork-your-story/stories?userId=" + id},
		{http.MethodGet, "/api/fork-your-story/stories/" + id},
		{http.MethodDelete, "/api/fork-your-story/stories/" + id},
		{http.MethodGet, "/api/fork-your-story/stories/" + id + "/connections"},
	} {
		w := doJSON(t, r, tc.method, tc.path, nil, "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, tc.path)
	}
}

func TestListStories(t *testing.T) {
	userID := uuid.New()

	t.Run("requires user", func(t *testing.T) {
		r, _ := newStoriesRouter(t, "")
		w := doJSON(t, r, http.MethodGet, "/api/fork-your-story/stories", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "userId is required", decode(t, w)["error"])
	})

	t.Run("clamps limit", func(t *testing.T) {
		r, env := newStoriesRouter(t, "")
		env.profiles.On("GetByID", mock.Anything, userID).Return(nil, models.ErrNotFound).Once()
		env.stories.On("ListByUser", mock.Anything, userID, 20, 5).
			Return([]models.Story{{ID: uuid.New(), Title: "Lantern", IsPublic: true}}, nil).Once()

		w := doJSON(t, r, http.MethodGet, "/api/fork-your-story/stories?userId="+userID.String()+"&limit=500&offset=5", nil, "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode(t, w)["stories"], 1)
	})

	t.Run("unverified caller sees only public stories", func(t *testing.T) {
		r, env := newStoriesRouter(t, "")
		env.profiles.On("GetByID", mock.Anything, userID).Return(nil, models.ErrNotFound).Once()
		env.stories.On("ListByUser", mock.Anything, userID, 20, 0).Return([]models.Story{
			{ID: uuid.New(), UserID: &userID, Title: "Diary"},
			{ID: uuid.New(), UserID: &userID, Title: "Lantern", IsPublic: true},
		}, nil).Once()

		w := doJSON(t, r, http.MethodGet, "/api/fork-your-story/stories?userId="+userID.String(), nil, "")

		require.Equal(t, http.StatusOK, w.Code)
		stories := decode(t, w)["stories"].([]any)
		require.Len(t, stories, 1)
		assert.Equal(t, "Lantern", stories[0].(map[string]any)["title"])
	})

	t.Run("owner sees private stories", func(t *testing.T) {
		r, env := newStoriesRouter(t, jwtTestSecret)
		env.profiles.On("GetByID", mock.Anything, userID).Return(nil, models.ErrNotFound).Once()
		env.stories.On("ListByUser", mock.Anything, userID, 20, 0).Return([]models.Story{
			{ID: uuid.New(), UserID: &userID, Title: "Diary"},
			{ID: uuid.New(), UserID: &userID, Title: "Lantern", IsPublic: true},
		}, nil).Once()

		w := doJSON(t, r, http.MethodGet, "/api/fork-your-story/stories", nil, signToken(t, userID))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode(t, w)["stories"], 2)
	})

	t.Run("wanderer has no library", func(t *testing.T) {
		r, env := newStoriesRouter(t, "")
		env.profiles.On("GetByID", mock.Anything, userID).Return(&models.Profile{ID: userID, Tier: models.TierWanderer}, nil).Once()

		w := doJSON(t, r, http.MethodGet, "/api/fork-your-story/stories?userId="+userID.String(), nil, "")

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("token must match requested user", func(t *testing.T) {
		r, _ := newStoriesRouter(t, jwtTestSecret)
		w := doJSON(t, r, http.MethodGet, "/api/fork-your-story/stories", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doJSON(t, r, http.MethodGet, "/api/fork-your-story/stories?userId="+userID.String(), nil, "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestGetStory(t *testing.T) {
	owner := uuid.New()
	story := &models.Story{ID: uuid.New(), UserID: &owner, Title: "Lantern"}

	t.Run("owner", func(t *testing.T) {
		r, env := newStoriesRouter(t, jwtTestSecret)
		env.stories.On("GetByID", mock.Anything, story.ID).Return(story, nil).Once()

		w := doJSON(t, r, http.MethodGet, "/api/fork-your-story/stories/"+story.ID.String(), nil, signToken(t, owner))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Lantern", decode(t, w)["story"].(map[string]any)["title"])
	})

	t.Run("private story hidden from others", func(t *testing.T) {
		r, env := newStoriesRouter(t, jwtTestSecret)
		env.stories.On("GetByID", mock.Anything, story.ID).Return(story, nil).Once()

		w := doJSON(t, r, http.MethodGet, "/api/fork-your-story/stories/"+story.ID.String(), nil, signToken(t, uuid.New()))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing", func(t *testing.T) {
		r, env := newStoriesRouter(t, "")
		id := uuid.New()
		env.stories.On("GetByID", mock.Anything, id).Return(nil, models.ErrNotFound).Once()

		w := doJSON(t, r, http.MethodGet, "/api/fork-your-story/stories/"+id.String(), nil, "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Story not found", decode(t, w)["error"])
	})

	t.Run("bad id", func(t *testing.T) {
		r, _ := newStoriesRouter(t, "")
		w := doJSON(t, r, http.MethodGet, "/api/fork-your-story/stories/42", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdateStory(t *testing.T) {
	owner := uuid.New()
	story := &models.Story{ID: uuid.New(), UserID: &owner, Title: "Lantern"}

	t.Run("owner updates", func(t *testing.T) {
		r, env := newStoriesRouter(t, jwtTestSecret)
		title := "Lantern, Revised"
		env.stories.On("GetByID", mock.Anything, story.ID).Return(story, nil).Once()
		env.stories.On("Update", mock.Anything, story.ID, mock.MatchedBy(func(p models.StoryPatch) bool {
			return p.Title != nil && *p.Title == title && p.Content == nil
		})).Return(&models.Story{ID: story.ID, UserID: &owner, Title: title}, nil).Once()

		w := doJSON(t, r, http.MethodPatch, "/api/fork-your-story/stories/"+story.ID.String(),
			map[string]any{"title": title}, signToken(t, owner))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, title, decode(t, w)["story"].(map[string]any)["title"])
	})

	t.Run("empty patch", func(t *testing.T) {
		r, _ := newStoriesRouter(t, "")
		w := doJSON(t, r, http.MethodPatch, "/api/fork-your-story/stories/"+story.ID.String(), map[string]any{}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("stranger forbidden", func(t *testing.T) {
		r, env := newStoriesRouter(t, jwtTestSecret)
		env.stories.On("GetByID", mock.Anything, story.ID).Return(story, nil).Once()

		w := doJSON(t, r, http.MethodPatch, "/api/fork-your-story/stories/"+story.ID.String(),
			map[string]any{"title": "Mine now"}, signToken(t, uuid.New()))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestDeleteStory(t *testing.T) {
	t.Run("unowned story", func(t *testing.T) {
		r, env := newStoriesRouter(t, "")
		id := uuid.New()
		env.stories.On("GetByID", mock.Anything, id).Return(&models.Story{ID: id}, nil).Once()
		env.stories.On("Delete", mock.Anything, id).Return(nil).Once()

		w := doJSON(t, r, http.MethodDelete, "/api/fork-your-story/stories/"+id.String(), nil, "")

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("owner", func(t *testing.T) {
		r, env := newStoriesRouter(t, jwtTestSecret)
		owner := uuid.New()
		id := uuid.New()
		env.stories.On("GetByID", mock.Anything, id).Return(&models.Story{ID: id, UserID: &owner}, nil).Once()
		env.stories.On("Delete", mock.Anything, id).Return(nil).Once()

		w := doJSON(t, r, http.MethodDelete, "/api/fork-your-story/stories/"+id.String(), nil, signToken(t, owner))

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

// Без подтвержденного владельца истории с владельцем не меняются, даже если проверка токенов выключена.
func TestOwnedStoryWritesRequireIdentity(t *testing.T) {
	owner := uuid.New()
	id := uuid.New()
	other := uuid.New()
	base := "/api/fork-your-story/stories/" + id.String()

	tests := []struct {
		name   string
		secret string
		method string
		path   string
		body   map[string]any
		token  func(t *testing.T) string
		want   int
	}{
		{name: "anonymous delete without secret", method: http.MethodDelete, path: base, want: http.StatusUnauthorized},
		{name: "anonymous patch without secret", method: http.MethodPatch, path: base, body: map[string]any{"title": "Mine now"}, want: http.StatusUnauthorized},
		{name: "anonymous connect without secret", method: http.MethodPost, path: base + "/connections", body: map[string]any{"connectedStoryId": other.String()}, want: http.StatusUnauthorized},
		{name: "anonymous delete with secret", secret: jwtTestSecret, method: http.MethodDelete, path: base, want: http.StatusUnauthorized},
		{
			name:   "stranger delete with secret",
			secret: jwtTestSecret,
			method: http.MethodDelete,
			path:   base,
			token:  func(t *testing.T) string { return signToken(t, uuid.New()) },
			want:   http.StatusForbidden,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, env := newStoriesRouter(t, tt.secret)
			env.stories.On("GetByID", mock.Anything, id).Return(&models.Story{ID: id, UserID: &owner, IsPublic: true}, nil).Once()
			token := ""
			if tt.token != nil {
				token = tt.token(t)
			}

			w := doJSON(t, r, tt.method, tt.path, tt.body, token)

			assert.Equal(t, tt.want, w.Code, w.Body.String())
			env.stories.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			env.stories.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
			env.connections.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestConnections(t *testing.T) {
	id := uuid.New()
	other := uuid.New()
	path := "/api/fork-your-story/stories/" + id.String() + "/connections"

	t.Run("list", func(t *testing.T) {
		r, env := newStoriesRouter(t, "")
		env.stories.On("GetByID", mock.Anything, id).Return(&models.Story{ID: id}, nil).Once()
		env.connections.On("ListForStory", mock.Anything, id).
			Return([]models.StoryConnection{{StoryID: id, ConnectedStoryID: other}}, nil).Once()

		w := doJSON(t, r, http.MethodGet, path, nil, "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode(t, w)["connections"], 1)
	})

	t.Run("create", func(t *testing.T) {
		r, env := newStoriesRouter(t, "")
		env.stories.On("GetByID", mock.Anything, id).Return(&models.Story{ID: id}, nil).Once()
		env.stories.On("GetByID", mock.Anything, other).Return(&models.Story{ID: other}, nil).Once()
		env.connections.On("Create", mock.Anything, mock.MatchedBy(func(c *models.StoryConnection) bool {
			return c.StoryID == id && c.ConnectedStoryID == other && c.ConnectionType == "sequel"
		})).Return(nil).Once()

		w := doJSON(t, r, http.MethodPost, path, map[string]any{"connectedStoryId": other.String(), "connectionType": "sequel"}, "")

		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("self", func(t *testing.T) {
		r, env := newStoriesRouter(t, "")
		env.stories.On("GetByID", mock.Anything, id).Return(&models.Story{ID: id}, nil).Once()

		w := doJSON(t, r, http.MethodPost, path, map[string]any{"connectedStoryId": id.String()}, "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "A story cannot be connected to itself", decode(t, w)["error"])
	})

	t.Run("invalid body", func(t *testing.T) {
		tests := []struct {
			name    string
			body    map[string]any
			wantErr string
		}{
			{"bad id", map[string]any{"connectedStoryId": "nope"}, "connectedStoryId must be a valid story id"},
			{"missing id", map[string]any{"connectionType": "sequel"}, "connectedStoryId must be a valid story id"},
			{"long type", map[string]any{"connectedStoryId": other.String(), "connectionType": strings.Repeat("x", 33)}, "connectionType must be at most 32 characters"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				r, _ := newStoriesRouter(t, "")
				w := doJSON(t, r, http.MethodPost, path, tt.body, "")
				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.Equal(t, tt.wantErr, decode(t, w)["error"])
			})
		}
	})

	t.Run("connected story missing", func(t *testing.T) {
		r, env := newStoriesRouter(t, "")
		env.stories.On("GetByID", mock.Anything, id).Return(&models.Story{ID: id}, nil).Once()
		env.stories.On("GetByID", mock.Anything, other).Return(nil, models.ErrNotFound).Once()

		w := doJSON(t, r, http.MethodPost, path, map[string]any{"connectedStoryId": other.String()}, "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
