package analysis

import (
	"fmt"
	"strings"

	"fork-your-story/internal/models"
)

// Диапазоны, в которых набор текста выглядит человеческим.
const (
	minHumanWPM        = 20.0
	maxHumanWPM        = 120.0
	minHumanIntervalMs = 50.0
	maxHumanIntervalMs = 1000.0
)

// WordsPerMinute - скорость набора по телеметрии. 0, если длительность неизвестна.
func WordsPerMinute(content string, ks *models.KeystrokeData) float64 {
	if ks == nil || ks.TypingDuration <= 0 {
		return 0
	}
	return float64(models.CountWords(content)) / ks.TypingDuration * 60000
}

// KeystrokeCommentary - текстовый блок для промта оценки авторства.
// Это только пояснение для модели, решения по нему не принимаются.
func KeystrokeCommentary(content string, ks *models.KeystrokeData) string {
	if ks == nil {
		return ""
	}
	wpm := WordsPerMinute(content, ks)

	speed := "unusual"
	if wpm > minHumanWPM && wpm < maxHumanWPM {
		speed = "normal range"
	}
	interval := "possibly automated"
	if ks.AverageInterval > minHumanIntervalMs && ks.AverageInterval < maxHumanIntervalMs {
		interval = "human-like"
	}

	var sb strings.Builder
	sb.WriteString("Keystroke Analysis:\n")
	fmt.Fprintf(&sb, "- Typing speed: %.1f WPM (%s)\n", wpm, speed)
	fmt.Fprintf(&sb, "- Average interval: %.0fms (%s)", ks.AverageInterval, interval)
	return sb.String()
}
