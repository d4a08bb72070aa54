package repository

import (
	"context"
	"time"

	"fork-your-story/internal/models"

	"github.com/google/uuid"
)

// StoryRepository - хранилище историй.
type StoryRepository interface {
	// Create вставляет историю. Пустой ID генерируется.
	Create(ctx context.Context, story *models.Story) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error)
	// ListByUser возвращает истории пользователя, новые первыми.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Story, error)
	// CountByUserSince считает истории пользователя, созданные начиная с since.
	CountByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
	Update(ctx context.Context, id uuid.UUID, patch models.StoryPatch) (*models.Story, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AnalysisRepository - хранилище результатов анализа и их дочерних строк.
type AnalysisRepository interface {
	// CreateAnalysis вставляет строку analyses и возвращает ее ID.
	CreateAnalysis(ctx context.Context, storyID uuid.UUID, analysis *models.StoryAnalysis) (uuid.UUID, error)
	CreateParallels(ctx context.Context, analysisID uuid.UUID, parallels []models.HistoricalParallel) error
	CreateForks(ctx context.Context, analysisID uuid.UUID, forks []models.NarrativeFork) error
}

// ConnectionRepository - связи между историями.
type ConnectionRepository interface {
	// ListForStory возвращает связи, где история стоит с любой стороны.
	ListForStory(ctx context.Context, storyID uuid.UUID) ([]models.StoryConnection, error)
	Create(ctx context.Context, conn *models.StoryConnection) error
}

// ProfileRepository - профили пользователей (тарифы).
type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	IncrementStoriesCount(ctx context.Context, id uuid.UUID) error
}
