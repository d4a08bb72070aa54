package library

import (
	"sort"
	"strings"

	"fork-your-story/internal/models"
)

// Apply возвращает истории, прошедшие фильтры, в порядке сортировки.
// Чистая функция: входной срез не меняется.
func Apply(stories []models.Story, f Filters) []models.Story {
	result := make([]models.Story, 0, len(stories))
	search := strings.ToLower(f.Search)
	for _, s := range stories {
		if search != "" && !matchesSearch(s, search) {
			continue
		}
		if f.Category != "" && s.CategoryValue() != f.Category {
			continue
		}
		if !hasAllTags(s.Tags, f.Tags) {
			continue
		}
		result = append(result, s)
	}

	switch f.SortBy {
	case SortOldest:
		sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	case SortTitle:
		sort.SliceStable(result, func(i, j int) bool { return titleLess(result[i].Title, result[j].Title) })
	case SortWordCount:
		sort.SliceStable(result, func(i, j int) bool { return result[i].WordCount > result[j].WordCount })
	default:
		sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	}
	return result
}

func matchesSearch(s models.Story, search string) bool {
	if strings.Contains(strings.ToLower(s.Title), search) || strings.Contains(strings.ToLower(s.Content), search) {
		return true
	}
	for _, t := range s.Tags {
		if strings.Contains(strings.ToLower(t), search) {
			return true
		}
	}
	return false
}

func hasAllTags(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(have))
	for _, t := range have {
		set[t] = struct{}{}
	}
	for _, t := range want {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}

// titleLess сравнивает без учета регистра, при равенстве - побайтово.
func titleLess(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}
