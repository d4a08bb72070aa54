package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Границы объема истории в словах.
const (
	MinWordCount = 250
	MaxWordCount = 1500
)

// Статусы истории.
const (
	StoryStatusDraft    = "draft"
	StoryStatusComplete = "complete"
)

// KeystrokeData - агрегаты набора текста, собранные клиентом.
// Используются только как слабый сигнал в оценке авторства.
type KeystrokeData struct {
	TotalKeystrokes int       `json:"totalKeystrokes"`
	AverageInterval float64   `json:"averageInterval"` // мс
	TypingDuration  float64   `json:"typingDuration"`  // мс
	Deletions       int       `json:"deletions,omitempty"`
	Pauses          []float64 `json:"pauses,omitempty"`
}

// clientStoryNamespace - пространство имен UUID v5 для клиентских идентификаторов историй.
var clientStoryNamespace = uuid.MustParse("6f1c9a52-3b7e-4d0a-9c61-2f8e5b7d4a10")

// PersistentStoryID переводит storyId клиента в ключ строки stories.
// UUID используется как есть, любой другой идентификатор (например story_<ts>_<rand>)
// дает один и тот же UUID v5 при каждом вызове.
func PersistentStoryID(clientID string) uuid.UUID {
	if id, err := uuid.Parse(clientID); err == nil {
		return id
	}
	return uuid.NewSHA1(clientStoryNamespace, []byte(clientID))
}

// StorySubmission - входные данные пайплайна анализа.
type StorySubmission struct {
	StoryID       string
	UserID        *uuid.UUID
	Title         string
	Content       string
	WordCount     int
	KeystrokeData *KeystrokeData
}

// Story - сохраненная история. Формат JSON совпадает со строкой таблицы stories.
type Story struct {
	ID            uuid.UUID      `json:"id" db:"id"`
	UserID        *uuid.UUID     `json:"user_id" db:"user_id"`
	Title         string         `json:"title" db:"title"`
	Content       string         `json:"content" db:"content"`
	WordCount     int            `json:"word_count" db:"word_count"`
	KeystrokeData *KeystrokeData `json:"keystroke_data" db:"keystroke_data"`
	Analysis      *StoryAnalysis `json:"analysis" db:"analysis"`
	Category      *string        `json:"category" db:"category"`
	Tags          []string       `json:"tags" db:"tags"`
	IsPublic      bool           `json:"is_public" db:"is_public"`
	Status        string         `json:"status" db:"status"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// CategoryValue возвращает категорию или пустую строку.
func (s *Story) CategoryValue() string {
	if s.Category == nil {
		return ""
	}
	return *s.Category
}

// StoryPatch - частичное обновление истории. nil означает "не менять".
type StoryPatch struct {
	Title     *string        `json:"title,omitempty"`
	Content   *string        `json:"content,omitempty"`
	WordCount *int           `json:"word_count,omitempty"`
	Analysis  *StoryAnalysis `json:"analysis,omitempty"`
	Category  *string        `json:"category,omitempty"`
	Tags      []string       `json:"tags,omitempty"`
	IsPublic  *bool          `json:"is_public,omitempty"`
	Status    *string        `json:"status,omitempty"`
}

// IsEmpty сообщает, что патч ничего не меняет.
func (p StoryPatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.WordCount == nil && p.Analysis == nil &&
		p.Category == nil && p.Tags == nil && p.IsPublic == nil && p.Status == nil
}

// Apply применяет патч к копии истории.
func (p StoryPatch) Apply(s Story) Story {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Content != nil {
		s.Content = *p.Content
	}
	if p.WordCount != nil {
		s.WordCount = *p.WordCount
	}
	if p.Analysis != nil {
		s.Analysis = p.Analysis
	}
	if p.Category != nil {
		if *p.Category == "" {
			s.Category = nil
		} else {
			c := *p.Category
			s.Category = &c
		}
	}
	if p.Tags != nil {
		s.Tags = append([]string(nil), p.Tags...)
	}
	if p.IsPublic != nil {
		s.IsPublic = *p.IsPublic
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	return s
}

// StoryConnection - связь между двумя историями пользователя.
type StoryConnection struct {
	ID               uuid.UUID `json:"id" db:"id"`
	StoryID          uuid.UUID `json:"story_id" db:"story_id"`
	ConnectedStoryID uuid.UUID `json:"connected_story_id" db:"connected_story_id"`
	ConnectionType   string    `json:"connection_type" db:"connection_type"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// CountWords считает слова, разделенные пробельными символами.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// Clone возвращает глубокую копию данных набора.
func (k *KeystrokeData) Clone() *KeystrokeData {
	if k == nil {
		return nil
	}
	out := *k
	if k.Pauses != nil {
		out.Pauses = append([]float64{}, k.Pauses...)
	}
	return &out
}
