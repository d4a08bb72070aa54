package library

import (
	"testing"
	"time"

	"fork-your-story/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func story(title string, words int, age time.Duration, tags ...string) models.Story {
	return models.Story{
		ID:        uuid.New(),
		Title:     title,
		Content:   "content of " + title,
		WordCount: words,
		Tags:      tags,
		CreatedAt: baseTime.Add(-age),
	}
}

func withCategory(s models.Story, c string) models.Story {
	s.Category = &c
	return s
}

func titles(stories []models.Story) []string {
	out := make([]string, 0, len(stories))
	for _, s := range stories {
		out = append(out, s.Title)
	}
	return out
}

func TestApply_SortByWordCount(t *testing.T) {
	stories := []models.Story{story("Alpha", 100, time.Hour), story("Beta", 500, 2*time.Hour)}
	got := Apply(stories, Filters{SortBy: SortWordCount})
	assert.Equal(t, []string{"Beta", "Alpha"}, titles(got))
}

func TestApply_Sorts(t *testing.T) {
	stories := []models.Story{
		story("charlie", 300, 2*time.Hour),
		story("Alpha", 300, time.Hour),
		story("bravo", 700, 3*time.Hour),
	}
	tests := []struct {
		name   string
		sortBy SortBy
		want   []string
	}{
		{name: "newest", sortBy: SortNewest, want: []string{"Alpha", "charlie", "bravo"}},
		{name: "oldest", sortBy: SortOldest, want: []string{"bravo", "charlie", "Alpha"}},
		{name: "title ignores case", sortBy: SortTitle, want: []string{"Alpha", "bravo", "charlie"}},
		{name: "word count is stable on ties", sortBy: SortWordCount, want: []string{"bravo", "charlie", "Alpha"}},
		{name: "unknown falls back to newest", sortBy: "", want: []string{"Alpha", "charlie", "bravo"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titles(Apply(stories, Filters{SortBy: tt.sortBy})))
		})
	}
}

func TestApply_Search(t *testing.T) {
	stories := []models.Story{
		story("The Lighthouse", 300, time.Hour, "sea"),
		story("Orchard", 300, 2*time.Hour, "Autumn"),
	}

	assert.Empty(t, Apply(stories, Filters{Search: "x-not-there"}))
	assert.Equal(t, []string{"The Lighthouse"}, titles(Apply(stories, Filters{Search: "LIGHT"})))
	assert.Equal(t, []string{"Orchard"}, titles(Apply(stories, Filters{Search: "autumn"})))
	assert.Equal(t, []string{"Orchard"}, titles(Apply(stories, Filters{Search: "content of orch"})))
}

func TestApply_CategoryAndTags(t *testing.T) {
	stories := []models.Story{
		withCategory(story("One", 300, time.Hour, "loss", "family"), "personal"),
		withCategory(story("Two", 300, 2*time.Hour, "loss"), "fiction"),
		story("Three", 300, 3*time.Hour, "family"),
	}

	assert.Equal(t, []string{"One"}, titles(Apply(stories, Filters{Category: "personal"})))
	assert.Equal(t, []string{"One", "Two"}, titles(Apply(stories, Filters{Tags: []string{"loss"}})))
	assert.Equal(t, []string{"One"}, titles(Apply(stories, Filters{Tags: []string{"loss", "family"}})))
	assert.Equal(t, []string{"One", "Two", "Three"}, titles(Apply(stories, Filters{})))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	stories := []models.Story{story("Alpha", 100, time.Hour), story("Beta", 500, 2*time.Hour)}
	_ = Apply(stories, Filters{SortBy: SortWordCount})
	assert.Equal(t, []string{"Alpha", "Beta"}, titles(stories))
}
