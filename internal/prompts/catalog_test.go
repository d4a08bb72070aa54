package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_ContainsAllPrompts(t *testing.T) {
	c := Default()
	assert.Equal(t, []string{
		Authenticity, CharacterMap, ExtendedNarrative, HistoricalParallels, NarrativeForks, Test,
	}, c.Names())
}

func TestRender_CharacterMap(t *testing.T) {
	c := Default()
	out, err := c.Render(CharacterMap, map[string]string{"Title": "Rain", "Content": "It rained."})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "Analyze this story and extract the storyteller's creative DNA in exactly 4 dimensions."))
	assert.Contains(t, out, `STORY TITLE: "Rain"`)
	assert.Contains(t, out, "STORY:\nIt rained.")
	assert.True(t, strings.HasSuffix(out, "Respond ONLY with valid JSON, no markdown or explanation."))
}

func TestRender_TestPrompt(t *testing.T) {
	out, err := Default().Render(Test, nil)
	require.NoError(t, err)
	assert.Equal(t, `Say "test" in one word.`, out)
}

func TestRender_MissingKeyFails(t *testing.T) {
	_, err := Default().Render(CharacterMap, map[string]string{"Title": "only title"})
	assert.Error(t, err)
}

func TestRender_UnknownPrompt(t *testing.T) {
	_, err := Default().Render("nope", nil)
	assert.ErrorContains(t, err, "nope")
}

func TestParse_InvalidTemplate(t *testing.T) {
	_, err := Parse([]byte("broken: \"{{.Title\""))
	assert.Error(t, err)
}
