package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withSecretsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := secretsDir
	secretsDir = dir
	t.Cleanup(func() { secretsDir = old })
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	withSecretsDir(t)
	for _, k := range []string{"GOOGLE_AI_API_KEY", "FAL_KEY", "AUTH_JWT_SECRET", "AI_CLIENT_TYPE", "ENV"} {
		t.Setenv(k, "")
	}

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, AIClientGemini, cfg.AIClientType)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.True(t, cfg.DocsEnabled)
	assert.Equal(t, 3*time.Second, cfg.VideoPollInterval)
	assert.Equal(t, 5, cfg.VideoDuration)
	assert.True(t, cfg.DatabaseEnabled)
	assert.False(t, cfg.AIConfigured())
	assert.False(t, cfg.VideoConfigured())
}

func TestLoadConfig_SecretsFromFiles(t *testing.T) {
	dir := withSecretsDir(t)
	t.Setenv("GOOGLE_AI_API_KEY", "")
	t.Setenv("FAL_KEY", "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "google_ai_api_key"), []byte("  AIzaFromFile \n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fal_key"), []byte("fal-secret"), 0o600))

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "AIzaFromFile", cfg.GoogleAIAPIKey)
	assert.Equal(t, "fal-secret", cfg.FalKey)
	assert.True(t, cfg.AIConfigured())
	assert.True(t, cfg.VideoConfigured())
}

func TestLoadConfig_EnvWinsOverSecretFile(t *testing.T) {
	dir := withSecretsDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ai_api_key"), []byte("from-file"), 0o600))
	t.Setenv("AI_API_KEY", "from-env")
	t.Setenv("AI_CLIENT_TYPE", "OpenAI")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, AIClientOpenAI, cfg.AIClientType)
	assert.Equal(t, "from-env", cfg.ActiveAIKey())
}

func TestLoadConfig_UnknownClientType(t *testing.T) {
	withSecretsDir(t)
	t.Setenv("AI_CLIENT_TYPE", "markov")

	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestConfigHelpers(t *testing.T) {
	cfg := &Config{
		CORSAllowedOrigins: " https://a.example , ,https://b.example",
		DBUser:             "user",
		DBPassword:         "p@ss",
		DBHost:             "db",
		DBPort:             "5432",
		DBName:             "fork",
		DBSSLMode:          "disable",
		AIClientType:       AIClientOllama,
	}

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.GetAllowedOrigins())
	assert.Equal(t, "postgres://user:p%40ss@db:5432/fork?sslmode=disable", cfg.GetDSN())
	assert.NotContains(t, cfg.GetMaskedDSN(), "p%40ss")
	assert.False(t, cfg.AIKeyRequired())
	assert.True(t, cfg.AIConfigured())
}

func TestLoadCLIConfig(t *testing.T) {
	t.Run("yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "forkstory.yml")
		require.NoError(t, os.WriteFile(path, []byte("library_path: /tmp/lib.json\nai:\n  client_type: ollama\n  model: llama3\n"), 0o600))

		cfg, err := LoadCLIConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/lib.json", cfg.LibraryPath)
		assert.Equal(t, AIClientOllama, cfg.AI.ClientType)
		assert.Equal(t, 90*time.Second, cfg.AI.Timeout)
		assert.Equal(t, "llama3", cfg.ToServiceAI().AIModel)
	})

	t.Run("env only", func(t *testing.T) {
		t.Setenv("FORKCTL_LIBRARY_PATH", "")
		t.Setenv("GOOGLE_AI_API_KEY", "key-from-env")

		cfg, err := LoadCLIConfig(filepath.Join(t.TempDir(), "missing.yml"))
		require.NoError(t, err)
		assert.NotEmpty(t, cfg.LibraryPath)
		assert.Equal(t, "key-from-env", cfg.ToServiceAI().GoogleAIAPIKey)
	})
}
