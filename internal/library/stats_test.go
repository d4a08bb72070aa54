package library

import (
	"testing"
	"time"

	"fork-your-story/internal/models"

	"github.com/stretchr/testify/assert"
)

func analyzed(s models.Story, parallels ...string) models.Story {
	a := &models.StoryAnalysis{}
	for _, p := range parallels {
		a.Parallels = append(a.Parallels, models.HistoricalParallel{Name: p})
	}
	s.Analysis = a
	return s
}

func TestComputeStats(t *testing.T) {
	stories := []models.Story{
		withCategory(story("A", 300, time.Hour), "personal"),
		withCategory(story("B", 450, time.Hour), "personal"),
		withCategory(story("C", 250, time.Hour), ""),
		story("D", 1000, time.Hour),
	}
	assert.Equal(t, Stats{TotalStories: 4, TotalWords: 2000, Categories: 1}, ComputeStats(stories))
	assert.Equal(t, Stats{}, ComputeStats(nil))
}

func TestComputeInsights(t *testing.T) {
	t.Run("empty library", func(t *testing.T) {
		got := ComputeInsights(nil)
		assert.Equal(t, NoParallelYet, got.MostCommonParallel)
		assert.Equal(t, 0, got.AverageWords)
	})

	t.Run("first encountered wins ties", func(t *testing.T) {
		stories := []models.Story{
			analyzed(story("A", 300, time.Hour), "Rumi", "Bashō"),
			analyzed(story("B", 301, time.Hour), "Bashō", "Rumi"),
		}
		got := ComputeInsights(stories)
		assert.Equal(t, "Rumi", got.MostCommonParallel)
		assert.Equal(t, 301, got.AverageWords) // 300.5 округляется вверх
	})

	t.Run("most frequent", func(t *testing.T) {
		stories := []models.Story{
			analyzed(story("A", 300, time.Hour), "Rumi"),
			analyzed(story("B", 300, time.Hour), "Woolf", "Woolf"),
			story("C", 300, time.Hour),
		}
		assert.Equal(t, "Woolf", ComputeInsights(stories).MostCommonParallel)
	})
}

func TestFindByTitle(t *testing.T) {
	stories := []models.Story{
		story("The Lighthouse Keeper", 300, time.Hour),
		story("Orchard in Winter", 300, time.Hour),
	}
	got := FindByTitle(stories, "lghths")
	if assert.Len(t, got, 1) {
		assert.Equal(t, "The Lighthouse Keeper", got[0].Title)
	}
	assert.Empty(t, FindByTitle(stories, "zzz"))
	assert.Nil(t, FindByTitle(stories, ""))
}
