package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fork-your-story/internal/ai"
	"fork-your-story/internal/analysis"
	"fork-your-story/internal/apidocs"
	"fork-your-story/internal/config"
	"fork-your-story/internal/database"
	"fork-your-story/internal/handler"
	"fork-your-story/internal/logger"
	"fork-your-story/internal/messaging"
	"fork-your-story/internal/middleware"
	"fork-your-story/internal/repository"
	"fork-your-story/internal/video"
	"fork-your-story/internal/websocket"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
	redis "github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger ---
	log, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
		Service:  "fork-your-story",
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)
	log.Info("Logger initialized", zap.String("logLevel", cfg.LogLevel), zap.String("env", cfg.Env))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- External connections ---
	var pool *pgxpool.Pool
	if cfg.DatabaseEnabled {
		pool, err = setupPostgres(rootCtx, cfg, log)
		if err != nil {
			log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		defer pool.Close()
	} else {
		log.Warn("DATABASE_ENABLED=false, analyses will not be persisted")
	}

	redisClient := setupRedis(rootCtx, cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	publisher, mqConn := setupPublisher(rootCtx, cfg, log)
	if mqConn != nil {
		defer mqConn.Close()
	}

	// --- Dependencies ---
	deps := handler.Deps{Config: cfg, Events: publisher, Logger: log}

	aiClient, err := ai.NewClient(rootCtx, cfg, log)
	switch {
	case err == nil:
		deps.AI = aiClient
		deps.Analyzer = analysis.NewPipeline(aiClient, nil, log)
		deps.Narrator = analysis.NewNarrator(aiClient, nil, log)
	case errors.Is(err, ai.ErrAPIKeyMissing):
		log.Warn("AI API key is not set, analysis endpoints will report a configuration error", zap.String("ai_client", cfg.AIClientType))
	default:
		log.Fatal("Failed to initialize AI client", zap.Error(err))
	}

	if pool != nil {
		stories := repository.NewPgStoryRepository(pool, log)
		analyses := repository.NewPgAnalysisRepository(pool, log)
		profiles := repository.NewPgProfileRepository(pool, log)
		deps.Stories = stories
		deps.Profiles = profiles
		deps.Connections = repository.NewPgConnectionRepository(pool, log)
		deps.Recorder = analysis.NewRecorder(stories, analyses, profiles, log)
	}

	hub := websocket.NewHub(websocket.Config{
		AllowedOrigins: cfg.GetAllowedOrigins(),
		DefaultTopics:  []string{video.TopicVideoTasks},
	}, log)
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go hub.Run(hubCtx)

	var videos *video.Manager
	if cfg.VideoConfigured() {
		videos, err = setupVideo(cfg, log)
		if err != nil {
			log.Fatal("Failed to initialize video generation", zap.Error(err))
		}
		videos.SetNotifier(hub)
		deps.Videos = videos
		deps.Stream = hub
	} else {
		log.Warn("FAL_KEY is not set, video generation is disabled")
	}

	// --- HTTP server ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(middleware.RequestID())
	router.Use(middleware.GinZapLogger(log))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("fork_story")

	corsConfig := cors.DefaultConfig()
	if origins := cfg.GetAllowedOrigins(); len(origins) > 0 {
		corsConfig.AllowOrigins = origins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)
	if cfg.DocsEnabled {
		apidocs.Register(router)
	}

	api := router.Group("")
	api.Use(middleware.OptionalIdentity(cfg.AuthJWTSecret, log))
	forkHandler := handler.NewForkStoryHandler(deps)
	forkHandler.RegisterRoutes(api, handler.RouteOptions{
		Limiter: rateLimiter(cfg, redisClient, log),
	})

	p.Use(router)

	srv := &http.Server{
		Addr:        ":" + cfg.ServerPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// Синхронная генерация видео держит запрос до VIDEO_TIMEOUT.
		WriteTimeout: cfg.VideoTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	<-rootCtx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if videos != nil {
		if err := videos.Shutdown(shutdownCtx); err != nil {
			log.Error("Video tasks did not stop in time", zap.Error(err))
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP Server forced to shutdown", zap.Error(err))
	}
	if err := forkHandler.Wait(shutdownCtx); err != nil {
		log.Error("Analysis results were not saved before shutdown", zap.Error(err))
	}
	hubCancel()
	if err := publisher.Close(); err != nil {
		log.Error("Failed to close event publisher", zap.Error(err))
	}

	log.Info("Server exiting")
}

func setupPostgres(ctx context.Context, cfg *config.Config, log *zap.Logger) (*pgxpool.Pool, error) {
	pool, err := database.Connect(ctx, database.PoolConfig{
		DSN:         cfg.GetDSN(),
		MaskedDSN:   cfg.GetMaskedDSN(),
		MaxConns:    cfg.DBMaxConns,
		IdleTimeout: cfg.DBIdleTimeout,
		MaxRetries:  20,
		RetryDelay:  3 * time.Second,
	}, log)
	if err != nil {
		return nil, err
	}
	if err := database.NewMigrator(pool, log).Up(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return pool, nil
}

// setupRedis возвращает nil, если Redis не задан или недоступен.
func setupRedis(ctx context.Context, cfg *config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR is not set, using in-memory rate limiting")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis is unavailable, using in-memory rate limiting", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = client.Close()
		return nil
	}
	log.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))
	return client
}

func setupPublisher(ctx context.Context, cfg *config.Config, log *zap.Logger) (messaging.StoryEventPublisher, *amqp091.Connection) {
	if cfg.RabbitMQURL == "" {
		return messaging.NoopPublisher{}, nil
	}
	conn, err := messaging.Connect(ctx, cfg.RabbitMQURL, 5, 3*time.Second, log)
	if err != nil {
		log.Error("RabbitMQ is unavailable, story events are disabled", zap.Error(err))
		return messaging.NoopPublisher{}, nil
	}
	publisher, err := messaging.NewRabbitMQStoryPublisher(conn, log)
	if err != nil {
		log.Error("Failed to create story event publisher", zap.Error(err))
		_ = conn.Close()
		return messaging.NoopPublisher{}, nil
	}
	return publisher, conn
}

func setupVideo(cfg *config.Config, log *zap.Logger) (*video.Manager, error) {
	fal, err := video.NewFalClient(video.FalConfig{
		BaseURL: cfg.VideoBaseURL,
		Model:   cfg.VideoModel,
		Key:     cfg.FalKey,
	}, log)
	if err != nil {
		return nil, err
	}
	return video.NewManager(fal, video.ManagerConfig{
		MaxActive:       cfg.VideoMaxActive,
		CacheSize:       cfg.VideoTaskCacheSize,
		PollInterval:    cfg.VideoPollInterval,
		Timeout:         cfg.VideoTimeout,
		DurationSeconds: cfg.VideoDuration,
		AspectRatio:     cfg.VideoAspectRatio,
	}, log)
}

// rateLimiter ограничивает дорогие вызовы по IP. Без Redis счетчики живут в памяти процесса.
func rateLimiter(cfg *config.Config, client *redis.Client, log *zap.Logger) gin.HandlerFunc {
	var store ratelimit.Store
	if client != nil {
		store = ratelimit.RedisStore(&ratelimit.RedisOptions{
			RedisClient: client,
			Rate:        time.Minute,
			Limit:       cfg.RateLimitPerMinute,
		})
	} else {
		store = ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
			Rate:  time.Minute,
			Limit: cfg.RateLimitPerMinute,
		})
	}
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			log.Warn("Rate limit exceeded",
				zap.String("clientIP", c.ClientIP()),
				zap.Time("resetTime", info.ResetTime),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests. Try again in " + time.Until(info.ResetTime).Round(time.Second).String(),
			})
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})
}
