package handler

import (
	"context"
	"sync"

	"fork-your-story/internal/ai"
	"fork-your-story/internal/analysis"
	"fork-your-story/internal/config"
	"fork-your-story/internal/messaging"
	"fork-your-story/internal/middleware"
	"fork-your-story/internal/models"
	"fork-your-story/internal/repository"
	"fork-your-story/internal/video"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder сохраняет результат анализа. Ошибки не возвращаются.
type Recorder interface {
	Record(ctx context.Context, storyID uuid.UUID, sub models.StorySubmission, a *models.StoryAnalysis) analysis.RecordResult
}

// NarrativeWriter пишет продолжение истории по развилке.
type NarrativeWriter interface {
	ExtendedNarrative(ctx context.Context, fork models.NarrativeFork, originalStory string) (string, error)
}

// VideoTasks - асинхронная генерация трейлеров.
type VideoTasks interface {
	Submit(ctx context.Context, fork models.NarrativeFork, ownerID string) (*video.Task, error)
	Get(id uuid.UUID) (video.Snapshot, bool)
}

// StreamServer отдает обновления задач по WebSocket.
type StreamServer interface {
	ServeWS(c *gin.Context)
}

// Deps - зависимости обработчиков. nil означает, что подсистема не настроена.
type Deps struct {
	Config      *config.Config
	AI          ai.Client
	Analyzer    analysis.Analyzer
	Narrator    NarrativeWriter
	Recorder    Recorder
	Videos      VideoTasks
	Stream      StreamServer
	Stories     repository.StoryRepository
	Connections repository.ConnectionRepository
	Profiles    repository.ProfileRepository
	Events      messaging.StoryEventPublisher
	Logger      *zap.Logger
}

// ForkStoryHandler обрабатывает HTTP запросы /api/fork-your-story.
type ForkStoryHandler struct {
	cfg         *config.Config
	ai          ai.Client
	analyzer    analysis.Analyzer
	narrator    NarrativeWriter
	recorder    Recorder
	videos      VideoTasks
	stream      StreamServer
	stories     repository.StoryRepository
	connections repository.ConnectionRepository
	profiles    repository.ProfileRepository
	events      messaging.StoryEventPublisher
	logger      *zap.Logger

	background sync.WaitGroup
}

// NewForkStoryHandler создает обработчик.
func NewForkStoryHandler(d Deps) *ForkStoryHandler {
	events := d.Events
	if events == nil {
		events = messaging.NoopPublisher{}
	}
	cfg := d.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &ForkStoryHandler{
		cfg:         cfg,
		ai:          d.AI,
		analyzer:    d.Analyzer,
		narrator:    d.Narrator,
		recorder:    d.Recorder,
		videos:      d.Videos,
		stream:      d.Stream,
		stories:     d.Stories,
		connections: d.Connections,
		profiles:    d.Profiles,
		events:      events,
		logger:      d.Logger.Named("ForkStoryHandler"),
	}
}

// Wait дожидается фоновых записей результатов анализа или отмены ctx.
func (h *ForkStoryHandler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.background.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RouteOptions - middleware для отдельных групп маршрутов.
type RouteOptions struct {
	// Limiter ограничивает частоту дорогих вызовов (анализ, видео, продолжение).
	Limiter gin.HandlerFunc
}

// RegisterRoutes регистрирует маршруты сервиса.
func (h *ForkStoryHandler) RegisterRoutes(r gin.IRouter, opts RouteOptions) {
	api := r.Group("/api/fork-your-story")

	limited := []gin.HandlerFunc{}
	if opts.Limiter != nil {
		limited = append(limited, opts.Limiter)
	}

	api.POST("/analyze", append(limited, h.analyzeStory)...)
	api.POST("/generate-video", append(limited, h.generateVideo)...)
	api.POST("/extended-narrative", append(limited, h.extendedNarrative)...)
	api.GET("/test", h.testAI)

	videos := api.Group("/videos")
	{
		videos.GET("/ws", h.videoStream)
		videos.GET("/:taskId", h.getVideoTask)
	}

	stories := api.Group("/stories")
	{
		stories.GET("", h.listStories)
		stories.GET("/:id", h.getStory)
		stories.PATCH("/:id", h.updateStory)
		stories.DELETE("/:id", h.deleteStory)
		stories.GET("/:id/connections", h.listConnections)
		stories.POST("/:id/connections", h.createConnection)
	}
}

// resolveUser определяет пользователя: токен важнее поля userId в теле.
// Некорректный userId означает анонимный запрос.
func (h *ForkStoryHandler) resolveUser(c *gin.Context, bodyUserID *string) *uuid.UUID {
	if id, ok := middleware.UserIDFromContext(c); ok {
		return &id
	}
	if bodyUserID == nil || *bodyUserID == "" {
		return nil
	}
	id, err := uuid.Parse(*bodyUserID)
	if err != nil {
		h.logger.Warn("Invalid userId in request body, treating as anonymous", zap.String("user_id", *bodyUserID), zap.Error(err))
		return nil
	}
	return &id
}

// detachedContext живет дольше запроса: запись в БД и публикация не должны обрываться при разрыве соединения.
func detachedContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(c.Request.Context()), persistTimeout)
}
