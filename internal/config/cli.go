package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// CLIConfig - настройки forkctl. Читаются из YAML файла и/или окружения.
type CLIConfig struct {
	LibraryPath string `yaml:"library_path" env:"FORKCTL_LIBRARY_PATH"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`

	// Если задан, библиотека хранится в Redis под ключом владельца вместо файла.
	RedisAddr    string `yaml:"redis_addr" env:"FORKCTL_REDIS_ADDR"`
	LibraryOwner string `yaml:"library_owner" env:"FORKCTL_LIBRARY_OWNER"`

	AI struct {
		ClientType string        `yaml:"client_type" env:"AI_CLIENT_TYPE" env-default:"gemini"`
		Model      string        `yaml:"model" env:"AI_MODEL" env-default:"gemini-2.5-flash"`
		BaseURL    string        `yaml:"base_url" env:"AI_BASE_URL"`
		APIKey     string        `yaml:"api_key" env:"GOOGLE_AI_API_KEY"`
		Timeout    time.Duration `yaml:"timeout" env:"AI_TIMEOUT" env-default:"90s"`
	} `yaml:"ai"`
}

// DefaultCLIConfigPath - ~/.forkstory.yml
func DefaultCLIConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".forkstory.yml"
	}
	return filepath.Join(home, ".forkstory.yml")
}

// LoadCLIConfig читает файл конфигурации, если он есть, иначе только окружение.
func LoadCLIConfig(path string) (*CLIConfig, error) {
	var cfg CLIConfig

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
			return finalizeCLIConfig(&cfg), nil
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from env: %w", err)
	}
	return finalizeCLIConfig(&cfg), nil
}

// ToServiceAI переносит AI настройки CLI в серверную структуру, чтобы переиспользовать фабрику клиента.
func (c *CLIConfig) ToServiceAI() *Config {
	cfg := &Config{
		AIClientType: c.AI.ClientType,
		AIModel:      c.AI.Model,
		AIBaseURL:    c.AI.BaseURL,
		AITimeout:    c.AI.Timeout,
	}
	if cfg.AIClientType == AIClientOpenAI {
		cfg.AIAPIKey = c.AI.APIKey
	} else {
		cfg.GoogleAIAPIKey = c.AI.APIKey
	}
	return cfg
}

func finalizeCLIConfig(cfg *CLIConfig) *CLIConfig {
	if cfg.LibraryPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.LibraryPath = filepath.Join(home, ".forkstory", "library.json")
		} else {
			cfg.LibraryPath = "library.json"
		}
	}
	if cfg.AI.ClientType == "" {
		cfg.AI.ClientType = AIClientGemini
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gemini-2.5-flash"
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 90 * time.Second
	}
	return cfg
}
