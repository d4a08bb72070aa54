package library

import (
	"fmt"
	"time"

	"fork-your-story/internal/models"
)

// StorageKey - ключ, под которым сохраняется снимок библиотеки.
const StorageKey = "fork-your-story-storage"

// View - режим отображения библиотеки.
type View string

const (
	ViewGrid     View = "grid"
	ViewList     View = "list"
	ViewMap      View = "map"
	ViewTimeline View = "timeline"
)

// Valid проверяет, что режим известен.
func (v View) Valid() bool {
	switch v {
	case ViewGrid, ViewList, ViewMap, ViewTimeline:
		return true
	}
	return false
}

// SortBy - ключ сортировки библиотеки.
type SortBy string

const (
	SortNewest    SortBy = "newest"
	SortOldest    SortBy = "oldest"
	SortTitle     SortBy = "title"
	SortWordCount SortBy = "wordCount"
)

// Valid проверяет, что ключ сортировки известен.
func (s SortBy) Valid() bool {
	switch s {
	case SortNewest, SortOldest, SortTitle, SortWordCount:
		return true
	}
	return false
}

// ParseView разбирает режим из строки.
func ParseView(s string) (View, error) {
	v := View(s)
	if !v.Valid() {
		return "", fmt.Errorf("%w: unknown view %q", models.ErrInvalidInput, s)
	}
	return v, nil
}

// ParseSortBy разбирает ключ сортировки из строки.
func ParseSortBy(s string) (SortBy, error) {
	v := SortBy(s)
	if !v.Valid() {
		return "", fmt.Errorf("%w: unknown sort key %q", models.ErrInvalidInput, s)
	}
	return v, nil
}

// Filters - фильтры библиотеки. Пустая категория означает "все".
type Filters struct {
	Search   string   `json:"search"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags"`
	SortBy   SortBy   `json:"sortBy"`
}

// FilterPatch - частичное обновление фильтров. nil означает "не менять".
type FilterPatch struct {
	Search   *string
	Category *string // "" сбрасывает категорию
	Tags     []string
	SortBy   *SortBy
}

// DefaultFilters - фильтры нового хранилища.
func DefaultFilters() Filters {
	return Filters{Tags: []string{}, SortBy: SortNewest}
}

func (f Filters) clone() Filters {
	f.Tags = append([]string{}, f.Tags...)
	return f
}

// DraftKeystrokes - агрегаты набора черновика.
type DraftKeystrokes struct {
	TotalKeystrokes int        `json:"totalKeystrokes"`
	Deletions       int        `json:"deletions"`
	Pauses          []float64  `json:"pauses"`
	StartTime       time.Time  `json:"startTime"`
	EndTime         *time.Time `json:"endTime,omitempty"`
}

// Draft - черновик, который пишется сейчас. Живет только в сессии.
type Draft struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Content    string          `json:"content"`
	WordCount  int             `json:"wordCount"`
	Keystrokes DraftKeystrokes `json:"keystrokeData"`
}

// DraftPatch - частичное обновление черновика.
type DraftPatch struct {
	Title      *string
	Content    *string
	WordCount  *int
	Keystrokes *DraftKeystrokes
}

func (d Draft) clone() Draft {
	d.Keystrokes.Pauses = append([]float64(nil), d.Keystrokes.Pauses...)
	if d.Keystrokes.EndTime != nil {
		t := *d.Keystrokes.EndTime
		d.Keystrokes.EndTime = &t
	}
	return d
}

// PendingAnalysis - результат анализа до сохранения истории.
type PendingAnalysis struct {
	StoryID  string                `json:"storyId"`
	Analysis *models.StoryAnalysis `json:"analysis"`
}

// Snapshot - сохраняемая часть состояния.
type Snapshot struct {
	LocalStories   []models.Story `json:"localStories"`
	LibraryView    View           `json:"libraryView"`
	LibraryFilters Filters        `json:"libraryFilters"`
}

// normalize подставляет значения по умолчанию вместо пустых и неизвестных.
func (s Snapshot) normalize() Snapshot {
	if s.LocalStories == nil {
		s.LocalStories = []models.Story{}
	}
	if !s.LibraryView.Valid() {
		s.LibraryView = ViewGrid
	}
	if !s.LibraryFilters.SortBy.Valid() {
		s.LibraryFilters.SortBy = SortNewest
	}
	if s.LibraryFilters.Tags == nil {
		s.LibraryFilters.Tags = []string{}
	}
	return s
}
