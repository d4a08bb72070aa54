package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fork-your-story/internal/database"
	"fork-your-story/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var _ StoryRepository = (*pgStoryRepository)(nil)

type pgStoryRepository struct {
	db     database.DBTX
	logger *zap.Logger
}

// NewPgStoryRepository создает репозиторий историй поверх PostgreSQL.
func NewPgStoryRepository(db database.DBTX, logger *zap.Logger) StoryRepository {
	return &pgStoryRepository{db: db, logger: logger.Named("PgStoryRepo")}
}

const storyColumns = `id, user_id, title, content, word_count, keystroke_data, analysis, category, tags, is_public, status, created_at, updated_at`

const createStoryQuery = `
INSERT INTO stories (id, user_id, title, content, word_count, keystroke_data, analysis, category, tags, is_public, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

const getStoryByIDQuery = `SELECT ` + storyColumns + ` FROM stories WHERE id = $1`

const listStoriesByUserQuery = `
SELECT ` + storyColumns + `
FROM stories
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

const countStoriesByUserSinceQuery = `SELECT COUNT(*) FROM stories WHERE user_id = $1 AND created_at >= $2`

const updateStoryQuery = `
UPDATE stories
SET title = $2, content = $3, word_count = $4, analysis = $5, category = $6, tags = $7, is_public = $8, status = $9, updated_at = $10
WHERE id = $1`

const deleteStoryQuery = `DELETE FROM stories WHERE id = $1`

func (r *pgStoryRepository) Create(ctx context.Context, story *models.Story) error {
	if story.ID == uuid.Nil {
		story.ID = uuid.New()
	}
	now := time.Now().UTC()
	if story.CreatedAt.IsZero() {
		story.CreatedAt = now
	}
	story.UpdatedAt = story.CreatedAt
	if story.Status == "" {
		story.Status = models.StoryStatusComplete
	}
	if story.Tags == nil {
		story.Tags = []string{}
	}

	_, err := r.db.Exec(ctx, createStoryQuery,
		story.ID,
		story.UserID,
		story.Title,
		story.Content,
		story.WordCount,
		story.KeystrokeData,
		story.Analysis,
		story.Category,
		story.Tags,
		story.IsPublic,
		story.Status,
		story.CreatedAt,
		story.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create story", zap.String("storyID", story.ID.String()), zap.Error(err))
		return fmt.Errorf("ошибка создания истории: %w", err)
	}
	r.logger.Info("Story created", zap.String("storyID", story.ID.String()))
	return nil
}

func (r *pgStoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	var story models.Story
	if err := pgxscan.Get(ctx, r.db, &story, getStoryByIDQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get story by ID", zap.String("storyID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения истории %s: %w", id, err)
	}
	return &story, nil
}

func (r *pgStoryRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Story, error) {
	if limit <= 0 {
		limit = 50
	}
	stories := []models.Story{}
	if err := pgxscan.Select(ctx, r.db, &stories, listStoriesByUserQuery, userID, limit, offset); err != nil {
		r.logger.Error("Failed to list stories", zap.String("userID", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения списка историй: %w", err)
	}
	return stories, nil
}

func (r *pgStoryRepository) CountByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, countStoriesByUserSinceQuery, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчета историй пользователя: %w", err)
	}
	return count, nil
}

// Update читает строку, применяет патч и записывает все изменяемые поля обратно.
func (r *pgStoryRepository) Update(ctx context.Context, id uuid.UUID, patch models.StoryPatch) (*models.Story, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return current, nil
	}

	updated := patch.Apply(*current)
	updated.UpdatedAt = time.Now().UTC()
	if updated.Tags == nil {
		updated.Tags = []string{}
	}

	tag, err := r.db.Exec(ctx, updateStoryQuery,
		id,
		updated.Title,
		updated.Content,
		updated.WordCount,
		updated.Analysis,
		updated.Category,
		updated.Tags,
		updated.IsPublic,
		updated.Status,
		updated.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update story", zap.String("storyID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка обновления истории %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, models.ErrNotFound
	}
	return &updated, nil
}

func (r *pgStoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, deleteStoryQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete story", zap.String("storyID", id.String()), zap.Error(err))
		return fmt.Errorf("ошибка удаления истории %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	r.logger.Info("Story deleted", zap.String("storyID", id.String()))
	return nil
}
