package analysis

import (
	"context"
	"strings"
	"testing"

	"fork-your-story/internal/ai"
	"fork-your-story/internal/mocks"
	"fork-your-story/internal/prompts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNarrator_ExtendedNarrative(t *testing.T) {
	client := mocks.NewMockAIClient(t)
	fork := FallbackForks()[1]

	client.On("GenerateText", mock.Anything, prompts.ExtendedNarrative,
		mock.MatchedBy(func(prompt string) bool {
			return strings.Contains(prompt, "ORIGINAL STORY:\nOnce there was a door.") &&
				strings.Contains(prompt, "CHOSEN PATH: The Road of Reflection\n"+fork.Description) &&
				strings.HasSuffix(prompt, "Write the extended narrative directly, no preamble.")
		}), ai.GenerationParams{}).Return("  The door stayed shut.  \n", ai.UsageInfo{}, nil).Once()

	text, err := NewNarrator(client, nil, zap.NewNop()).ExtendedNarrative(context.Background(), fork, "Once there was a door.")
	require.NoError(t, err)
	assert.Equal(t, "The door stayed shut.", text)
}

func TestNarrator_ExtendedNarrative_PropagatesKind(t *testing.T) {
	client := mocks.NewMockAIClient(t)
	client.On("GenerateText", mock.Anything, prompts.ExtendedNarrative, mock.Anything, mock.Anything).
		Return("", ai.UsageInfo{}, &ai.Error{Kind: ai.KindQuota, Op: prompts.ExtendedNarrative, Err: assert.AnError}).Once()

	_, err := NewNarrator(client, nil, zap.NewNop()).ExtendedNarrative(context.Background(), FallbackForks()[0], "story")
	assert.Equal(t, ai.KindQuota, ai.KindOf(err))
}
