package library

import (
	"context"
	"fmt"
	"sync"

	"fork-your-story/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Persister сохраняет и загружает снимок библиотеки.
// Отсутствующий снимок не ошибка: Load возвращает нулевой Snapshot.
type Persister interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}

// Store - локальное состояние библиотеки пользователя.
// Изменения проходят только через методы; наружу отдаются копии.
type Store struct {
	mu     sync.RWMutex
	saveMu sync.Mutex

	draft      *Draft
	pending    *PendingAnalysis
	stories    []models.Story
	view       View
	filters    Filters
	generating map[string]struct{}

	persister Persister
	logger    *zap.Logger
}

// Option настраивает Store.
type Option func(*Store)

// WithLogger задает логгер для ошибок сохранения.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l.Named("LibraryStore") }
}

// New создает пустое хранилище без загрузки снимка.
func New(p Persister, opts ...Option) *Store {
	s := &Store{persister: p, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.resetLocked()
	return s
}

// Open создает хранилище и восстанавливает сохраненную часть состояния.
func Open(ctx context.Context, p Persister, opts ...Option) (*Store, error) {
	s := New(p, opts...)
	if p == nil {
		return s, nil
	}
	snap, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load library snapshot: %w", err)
	}
	snap = snap.normalize()

	s.mu.Lock()
	s.stories = cloneStories(snap.LocalStories)
	s.view = snap.LibraryView
	s.filters = snap.LibraryFilters.clone()
	s.mu.Unlock()

	s.logger.Debug("Library hydrated", zap.Int("stories", len(snap.LocalStories)), zap.String("view", string(snap.LibraryView)))
	return s, nil
}

func (s *Store) resetLocked() {
	s.draft = nil
	s.pending = nil
	s.stories = []models.Story{}
	s.view = ViewGrid
	s.filters = DefaultFilters()
	s.generating = make(map[string]struct{})
}

// commit сохраняет снимок после изменения. Вызывается под s.mu.Lock и снимает его.
// saveMu держится до конца записи, чтобы снимки уходили в порядке изменений.
func (s *Store) commit(ctx context.Context) {
	snap := s.snapshotLocked()
	s.saveMu.Lock()
	s.mu.Unlock()
	defer s.saveMu.Unlock()

	if s.persister == nil {
		return
	}
	if err := s.persister.Save(ctx, snap); err != nil {
		s.logger.Error("Failed to persist library snapshot", zap.Error(err))
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		LocalStories:   cloneStories(s.stories),
		LibraryView:    s.view,
		LibraryFilters: s.filters.clone(),
	}
}

// Snapshot возвращает копию сохраняемой части состояния.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// SetDraft заменяет черновик. nil удаляет его.
func (s *Store) SetDraft(d *Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d == nil {
		s.draft = nil
		return
	}
	c := d.clone()
	s.draft = &c
}

// PatchDraft обновляет черновик. Без черновика ничего не делает.
func (s *Store) PatchDraft(p DraftPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return
	}
	if p.Title != nil {
		s.draft.Title = *p.Title
	}
	if p.Content != nil {
		s.draft.Content = *p.Content
	}
	if p.WordCount != nil {
		s.draft.WordCount = *p.WordCount
	}
	if p.Keystrokes != nil {
		s.draft.Keystrokes = Draft{Keystrokes: *p.Keystrokes}.clone().Keystrokes
	}
}

// Draft возвращает копию черновика.
func (s *Store) Draft() (Draft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.draft == nil {
		return Draft{}, false
	}
	return s.draft.clone(), true
}

// SetPendingAnalysis запоминает анализ до сохранения. nil очищает.
func (s *Store) SetPendingAnalysis(p *PendingAnalysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p == nil {
		s.pending = nil
		return
	}
	c := *p
	s.pending = &c
}

// PendingAnalysis возвращает ожидающий анализ.
func (s *Store) PendingAnalysis() (PendingAnalysis, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pending == nil {
		return PendingAnalysis{}, false
	}
	return *s.pending, true
}

// AddStory добавляет историю в начало списка.
func (s *Store) AddStory(ctx context.Context, story models.Story) {
	s.mu.Lock()
	s.stories = append([]models.Story{cloneStory(story)}, s.stories...)
	s.commit(ctx)
}

// UpdateStory применяет патч к истории. false, если истории нет.
func (s *Store) UpdateStory(ctx context.Context, id uuid.UUID, p models.StoryPatch) bool {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.stories[idx] = p.Apply(s.stories[idx])
	s.commit(ctx)
	return true
}

// RemoveStory удаляет историю. false, если истории нет.
func (s *Store) RemoveStory(ctx context.Context, id uuid.UUID) bool {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	next := make([]models.Story, 0, len(s.stories)-1)
	next = append(next, s.stories[:idx]...)
	next = append(next, s.stories[idx+1:]...)
	s.stories = next
	s.commit(ctx)
	return true
}

func (s *Store) indexLocked(id uuid.UUID) int {
	for i := range s.stories {
		if s.stories[i].ID == id {
			return i
		}
	}
	return -1
}

// Stories возвращает копию всех историй в порядке хранения.
func (s *Store) Stories() []models.Story {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneStories(s.stories)
}

// Story ищет историю по id.
func (s *Store) Story(id uuid.UUID) (models.Story, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.indexLocked(id); idx >= 0 {
		return cloneStory(s.stories[idx]), true
	}
	return models.Story{}, false
}

// SetView меняет режим отображения. Неизвестный режим отклоняется.
func (s *Store) SetView(ctx context.Context, v View) error {
	if !v.Valid() {
		return fmt.Errorf("%w: unknown view %q", models.ErrInvalidInput, v)
	}
	s.mu.Lock()
	s.view = v
	s.commit(ctx)
	return nil
}

// View возвращает текущий режим отображения.
func (s *Store) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// SetFilters сливает патч с текущими фильтрами.
func (s *Store) SetFilters(ctx context.Context, p FilterPatch) error {
	if p.SortBy != nil && !p.SortBy.Valid() {
		return fmt.Errorf("%w: unknown sort key %q", models.ErrInvalidInput, *p.SortBy)
	}
	s.mu.Lock()
	if p.Search != nil {
		s.filters.Search = *p.Search
	}
	if p.Category != nil {
		s.filters.Category = *p.Category
	}
	if p.Tags != nil {
		s.filters.Tags = append([]string{}, p.Tags...)
	}
	if p.SortBy != nil {
		s.filters.SortBy = *p.SortBy
	}
	s.commit(ctx)
	return nil
}

// Filters возвращает копию фильтров.
func (s *Store) Filters() Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters.clone()
}

// Visible - истории после применения текущих фильтров.
func (s *Store) Visible() []models.Story {
	s.mu.RLock()
	stories, filters := cloneStories(s.stories), s.filters.clone()
	s.mu.RUnlock()
	return Apply(stories, filters)
}

// MarkGenerating отмечает развилку, для которой генерируется видео.
func (s *Store) MarkGenerating(forkID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generating[forkID] = struct{}{}
}

// UnmarkGenerating снимает отметку.
func (s *Store) UnmarkGenerating(forkID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.generating, forkID)
}

// IsGenerating проверяет отметку.
func (s *Store) IsGenerating(forkID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.generating[forkID]
	return ok
}

// Reset возвращает хранилище в начальное состояние и сохраняет его.
func (s *Store) Reset(ctx context.Context) {
	s.mu.Lock()
	s.resetLocked()
	s.commit(ctx)
}

func cloneStory(st models.Story) models.Story {
	if st.Tags != nil {
		st.Tags = append([]string{}, st.Tags...)
	}
	if st.Category != nil {
		c := *st.Category
		st.Category = &c
	}
	if st.UserID != nil {
		u := *st.UserID
		st.UserID = &u
	}
	st.Analysis = st.Analysis.Clone()
	st.KeystrokeData = st.KeystrokeData.Clone()
	return st
}

func cloneStories(in []models.Story) []models.Story {
	out := make([]models.Story, len(in))
	for i := range in {
		out[i] = cloneStory(in[i])
	}
	return out
}
