package analysis

import (
	"context"
	"fmt"
	"strings"

	"fork-your-story/internal/ai"
	"fork-your-story/internal/models"
	"fork-your-story/internal/prompts"

	"go.uber.org/zap"
)

// Narrator пишет продолжение истории по выбранной развилке.
type Narrator struct {
	client  ai.Client
	prompts *prompts.Catalog
	logger  *zap.Logger
}

// NewNarrator создает Narrator. catalog == nil означает встроенные промты.
func NewNarrator(client ai.Client, catalog *prompts.Catalog, logger *zap.Logger) *Narrator {
	if catalog == nil {
		catalog = prompts.Default()
	}
	return &Narrator{client: client, prompts: catalog, logger: logger.Named("Narrator")}
}

// ExtendedNarrative возвращает прозаическое продолжение на 300-400 слов.
func (n *Narrator) ExtendedNarrative(ctx context.Context, fork models.NarrativeFork, originalStory string) (string, error) {
	prompt, err := n.prompts.Render(prompts.ExtendedNarrative, map[string]any{
		"Fork":          fork,
		"OriginalStory": originalStory,
	})
	if err != nil {
		return "", err
	}

	text, usage, err := n.client.GenerateText(ctx, prompts.ExtendedNarrative, prompt, ai.GenerationParams{})
	if err != nil {
		n.logger.Error("Extended narrative generation failed", zap.String("fork_id", fork.ID), zap.Error(err))
		return "", fmt.Errorf("extended narrative: %w", err)
	}
	n.logger.Info("Extended narrative generated",
		zap.String("fork_id", fork.ID),
		zap.Int("words", models.CountWords(text)),
		zap.Int("total_tokens", usage.TotalTokens),
	)
	return strings.TrimSpace(text), nil
}
