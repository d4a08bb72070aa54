package library

import (
	"math"

	"fork-your-story/internal/models"

	"github.com/sahilm/fuzzy"
)

// NoParallelYet - значение mostCommonParallel, когда параллелей еще нет.
const NoParallelYet = "None yet"

// Stats - сводка по библиотеке.
type Stats struct {
	TotalStories int `json:"totalStories"`
	TotalWords   int `json:"totalWords"`
	Categories   int `json:"categories"`
}

// ComputeStats считает истории, слова и различные непустые категории.
func ComputeStats(stories []models.Story) Stats {
	st := Stats{TotalStories: len(stories)}
	categories := make(map[string]struct{})
	for _, s := range stories {
		st.TotalWords += s.WordCount
		if c := s.CategoryValue(); c != "" {
			categories[c] = struct{}{}
		}
	}
	st.Categories = len(categories)
	return st
}

// Insights - наблюдения по проанализированным историям.
type Insights struct {
	TotalStories       int    `json:"totalStories"`
	TotalWords         int    `json:"totalWords"`
	MostCommonParallel string `json:"mostCommonParallel"`
	AverageWords       int    `json:"averageWords"`
}

// ComputeInsights находит самую частую историческую параллель.
// При равенстве побеждает встреченная первой.
func ComputeInsights(stories []models.Story) Insights {
	in := Insights{TotalStories: len(stories), MostCommonParallel: NoParallelYet}

	counts := make(map[string]int)
	var order []string
	for _, s := range stories {
		in.TotalWords += s.WordCount
		if s.Analysis == nil {
			continue
		}
		for _, p := range s.Analysis.Parallels {
			if counts[p.Name] == 0 {
				order = append(order, p.Name)
			}
			counts[p.Name]++
		}
	}
	best := 0
	for _, name := range order {
		if counts[name] > best {
			best = counts[name]
			in.MostCommonParallel = name
		}
	}
	if len(stories) > 0 {
		in.AverageWords = int(math.Round(float64(in.TotalWords) / float64(len(stories))))
	}
	return in
}

type titleSource []models.Story

func (t titleSource) String(i int) string { return t[i].Title }
func (t titleSource) Len() int            { return len(t) }

// FindByTitle ищет истории по приблизительному названию, лучшие совпадения первыми.
func FindByTitle(stories []models.Story, query string) []models.Story {
	if query == "" {
		return nil
	}
	matches := fuzzy.FindFrom(query, titleSource(stories))
	out := make([]models.Story, 0, len(matches))
	for _, m := range matches {
		out = append(out, stories[m.Index])
	}
	return out
}

// Stats - сводка по всем историям хранилища.
func (s *Store) Stats() Stats { return ComputeStats(s.Stories()) }

// Insights - наблюдения по всем историям хранилища.
func (s *Store) Insights() Insights { return ComputeInsights(s.Stories()) }

// FindByTitle ищет истории хранилища по приблизительному названию.
func (s *Store) FindByTitle(query string) []models.Story { return FindByTitle(s.Stories(), query) }
