package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fork-your-story/internal/library"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run выполняет forkctl с библиотекой в libPath и возвращает stdout.
func run(t *testing.T, libPath string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("FORKCTL_LIBRARY_PATH", libPath)
	t.Setenv("FORKCTL_REDIS_ADDR", "")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yml"), "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeStory(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))
	return path
}

func TestLibraryCommands(t *testing.T) {
	dir := t.TempDir()
	libPath := filepath.Join(dir, "library.json")

	out, err := run(t, libPath, "library", "add", writeStory(t, dir, "lantern.txt", "the lantern keeper waits"), "--category", "drama", "--tag", "sea")
	require.NoError(t, err)
	lanternID := strings.TrimSpace(out)

	_, err = run(t, libPath, "library", "add", writeStory(t, dir, "orchard.txt", "apples"), "--title", "Winter Orchard")
	require.NoError(t, err)

	out, err = run(t, libPath, "library", "list", "-o", "json")
	require.NoError(t, err)
	var stories []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &stories))
	require.Len(t, stories, 2)
	assert.Equal(t, "Winter Orchard", stories[0]["title"], "newest first")

	_, err = run(t, libPath, "library", "filter", "--category", "drama")
	require.NoError(t, err)
	out, err = run(t, libPath, "library", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "lantern")
	assert.NotContains(t, out, "Winter Orchard")

	out, err = run(t, libPath, "library", "view", "timeline")
	require.NoError(t, err)
	assert.Equal(t, "timeline", strings.TrimSpace(out))

	out, err = run(t, libPath, "library", "stats", "-o", "json")
	require.NoError(t, err)
	var stats library.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, library.Stats{TotalStories: 2, TotalWords: 5, Categories: 1}, stats)

	out, err = run(t, libPath, "library", "find", "orchrd")
	require.NoError(t, err)
	assert.Contains(t, out, "Winter Orchard")

	_, err = run(t, libPath, "library", "remove", lanternID)
	require.NoError(t, err)
	_, err = run(t, libPath, "library", "remove", lanternID)
	assert.Error(t, err)

	// Снимок на диске содержит только сохраняемые поля.
	raw, err := os.ReadFile(libPath)
	require.NoError(t, err)
	var snap map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.ElementsMatch(t, []string{"localStories", "libraryView", "libraryFilters"}, keys(snap))
}

func TestLibraryView_RejectsUnknownMode(t *testing.T) {
	_, err := run(t, filepath.Join(t.TempDir(), "library.json"), "library", "view", "carousel")
	assert.Error(t, err)
}

func TestAnalyze_RejectsWordCountBeforeCallingModel(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GOOGLE_AI_API_KEY", "")

	_, err := run(t, filepath.Join(dir, "library.json"), "analyze", writeStory(t, dir, "short.txt", "too short"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "250 and 1500")
}

func TestRender_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, formatYAML, library.Stats{TotalStories: 1, TotalWords: 300}))
	assert.Contains(t, buf.String(), "totalStories: 1")
	assert.Contains(t, buf.String(), "totalWords: 300")

	_, err := parseFormat("xml")
	assert.Error(t, err)
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
