package analysis

import (
	"strings"
	"testing"

	"fork-your-story/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestWordsPerMinute(t *testing.T) {
	content := strings.Repeat("word ", 300)
	assert.InDelta(t, 30.0, WordsPerMinute(content, &models.KeystrokeData{TypingDuration: 600000}), 0.001)
	assert.Zero(t, WordsPerMinute(content, &models.KeystrokeData{TypingDuration: 0}))
	assert.Zero(t, WordsPerMinute(content, nil))
}

func TestKeystrokeCommentary(t *testing.T) {
	content := strings.Repeat("word ", 300)

	human := KeystrokeCommentary(content, &models.KeystrokeData{AverageInterval: 180, TypingDuration: 600000})
	assert.Equal(t, "Keystroke Analysis:\n- Typing speed: 30.0 WPM (normal range)\n- Average interval: 180ms (human-like)", human)

	pasted := KeystrokeCommentary(content, &models.KeystrokeData{AverageInterval: 5, TypingDuration: 1000})
	assert.Contains(t, pasted, "WPM (unusual)")
	assert.Contains(t, pasted, "5ms (possibly automated)")

	assert.Empty(t, KeystrokeCommentary(content, nil))
}
