package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Поддерживаемые реализации AI клиента.
const (
	AIClientGemini = "gemini"
	AIClientOpenAI = "openai"
	AIClientOllama = "ollama"
)

// Config - конфигурация HTTP сервиса.
type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`
	ServerPort  string `envconfig:"SERVER_PORT" default:"8080"`
	DocsEnabled bool   `envconfig:"DOCS_ENABLED" default:"true"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`

	// PostgreSQL. При DATABASE_ENABLED=false сохранение отключено целиком.
	DatabaseEnabled bool          `envconfig:"DATABASE_ENABLED" default:"true"`
	DBHost          string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort          string        `envconfig:"DB_PORT" default:"5432"`
	DBUser          string        `envconfig:"DB_USER" default:"postgres"`
	DBName          string        `envconfig:"DB_NAME" default:"fork_your_story"`
	DBSSLMode       string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns      int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout   time.Duration `envconfig:"DB_IDLE_TIMEOUT" default:"5m"`
	DBPassword      string        // секрет

	// Redis: лимиты запросов и снимки библиотеки.
	RedisAddr     string `envconfig:"REDIS_ADDR" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisPassword string // секрет

	// RabbitMQ: пусто = события не публикуются.
	RabbitMQURL string `envconfig:"RABBITMQ_URL" default:""`

	// AI
	AIClientType   string        `envconfig:"AI_CLIENT_TYPE" default:"gemini"`
	AIModel        string        `envconfig:"AI_MODEL" default:"gemini-2.5-flash"`
	AIBaseURL      string        `envconfig:"AI_BASE_URL" default:""`
	AITimeout      time.Duration `envconfig:"AI_TIMEOUT" default:"90s"`
	GoogleAIAPIKey string        // секрет
	AIAPIKey       string        // секрет для openai-совместимых API

	// Видео (fal.ai)
	VideoBaseURL       string        `envconfig:"VIDEO_BASE_URL" default:"https://queue.fal.run"`
	VideoModel         string        `envconfig:"VIDEO_MODEL" default:"fal-ai/pika/v2.2/text-to-video"`
	VideoPollInterval  time.Duration `envconfig:"VIDEO_POLL_INTERVAL" default:"3s"`
	VideoTimeout       time.Duration `envconfig:"VIDEO_TIMEOUT" default:"5m"`
	VideoMaxActive     int           `envconfig:"VIDEO_MAX_ACTIVE" default:"8"`
	VideoTaskCacheSize int           `envconfig:"VIDEO_TASK_CACHE_SIZE" default:"256"`
	VideoDuration      int           `envconfig:"VIDEO_DURATION_SECONDS" default:"5"`
	VideoAspectRatio   string        `envconfig:"VIDEO_ASPECT_RATIO" default:"16:9"`
	FalKey             string        // секрет

	RateLimitPerMinute uint `envconfig:"RATE_LIMIT_PER_MINUTE" default:"10"`

	// Секрет подписи JWT внешнего auth провайдера. Пусто = токены игнорируются.
	AuthJWTSecret string
}

// IsDevelopment сообщает, нужно ли отдавать клиенту подробности ошибок.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// GetAllowedOrigins разбивает CORS_ALLOWED_ORIGINS по запятым.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// GetDSN строит строку подключения к PostgreSQL.
func (c *Config) GetDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     c.DBName,
		RawQuery: "sslmode=" + c.DBSSLMode,
	}
	return u.String()
}

// GetMaskedDSN - DSN без пароля, для логов.
func (c *Config) GetMaskedDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, "********"),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     c.DBName,
		RawQuery: "sslmode=" + c.DBSSLMode,
	}
	return u.String()
}

// AIKeyRequired - нужен ли ключ выбранному AI клиенту.
func (c *Config) AIKeyRequired() bool {
	return !strings.EqualFold(c.AIClientType, AIClientOllama)
}

// ActiveAIKey возвращает ключ для выбранного AI клиента.
func (c *Config) ActiveAIKey() string {
	if strings.EqualFold(c.AIClientType, AIClientOpenAI) {
		return c.AIAPIKey
	}
	if strings.EqualFold(c.AIClientType, AIClientOllama) {
		return ""
	}
	return c.GoogleAIAPIKey
}

// AIConfigured - ключ AI присутствует (или не нужен).
func (c *Config) AIConfigured() bool {
	return !c.AIKeyRequired() || c.ActiveAIKey() != ""
}

// VideoConfigured - ключ fal.ai присутствует.
func (c *Config) VideoConfigured() bool {
	return c.FalKey != ""
}

// LoadConfig загружает конфигурацию из .env (если есть), окружения и секретов.
func LoadConfig(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if _, err := os.Stat(envFilePath); err == nil {
			if err := godotenv.Load(envFilePath); err != nil {
				log.Printf("Warning: Could not load %s file: %v", envFilePath, err)
			} else {
				log.Printf("Loaded configuration from %s", envFilePath)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("Warning: Error checking %s file: %v", envFilePath, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env vars: %w", err)
	}

	switch strings.ToLower(cfg.AIClientType) {
	case AIClientGemini, AIClientOpenAI, AIClientOllama:
		cfg.AIClientType = strings.ToLower(cfg.AIClientType)
	default:
		return nil, fmt.Errorf("unsupported AI_CLIENT_TYPE %q", cfg.AIClientType)
	}

	// Все секреты необязательны при старте.
	var source string
	cfg.DBPassword, source = lookupSecret("DB_PASSWORD", "db_password")
	logSecret("db_password", source)
	cfg.RedisPassword, source = lookupSecret("REDIS_PASSWORD", "redis_password")
	logSecret("redis_password", source)
	cfg.GoogleAIAPIKey, source = lookupSecret("GOOGLE_AI_API_KEY", "google_ai_api_key")
	logSecret("google_ai_api_key", source)
	cfg.AIAPIKey, source = lookupSecret("AI_API_KEY", "ai_api_key")
	logSecret("ai_api_key", source)
	cfg.FalKey, source = lookupSecret("FAL_KEY", "fal_key")
	logSecret("fal_key", source)
	cfg.AuthJWTSecret, source = lookupSecret("AUTH_JWT_SECRET", "auth_jwt_secret")
	logSecret("auth_jwt_secret", source)

	log.Printf("Config: ENV=%s, SERVER_PORT=%s, AI_CLIENT_TYPE=%s, AI_MODEL=%s, DATABASE_ENABLED=%t, DSN=%s",
		cfg.Env, cfg.ServerPort, cfg.AIClientType, cfg.AIModel, cfg.DatabaseEnabled, cfg.GetMaskedDSN())
	log.Printf("Config: VIDEO_MODEL=%s, VIDEO_POLL_INTERVAL=%v, VIDEO_TIMEOUT=%v, REDIS_ADDR=%q, RABBITMQ enabled=%t",
		cfg.VideoModel, cfg.VideoPollInterval, cfg.VideoTimeout, cfg.RedisAddr, cfg.RabbitMQURL != "")

	return &cfg, nil
}

func logSecret(name, source string) {
	if source == "" {
		log.Printf("Optional secret '%s' not set.", name)
		return
	}
	log.Printf("Secret '%s' loaded from %s.", name, source)
}
