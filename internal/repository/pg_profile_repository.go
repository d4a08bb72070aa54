package repository

import (
	"context"
	"errors"
	"fmt"

	"fork-your-story/internal/database"
	"fork-your-story/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var _ ProfileRepository = (*pgProfileRepository)(nil)

type pgProfileRepository struct {
	db     database.DBTX
	logger *zap.Logger
}

// NewPgProfileRepository создает репозиторий профилей.
func NewPgProfileRepository(db database.DBTX, logger *zap.Logger) ProfileRepository {
	return &pgProfileRepository{db: db, logger: logger.Named("PgProfileRepo")}
}

const getProfileByIDQuery = `
SELECT id, email, display_name, tier, stories_count, created_at, updated_at
FROM profiles
WHERE id = $1`

const incrementStoriesCountQuery = `
UPDATE profiles SET stories_count = stories_count + 1, updated_at = now() WHERE id = $1`

func (r *pgProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := pgxscan.Get(ctx, r.db, &profile, getProfileByIDQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get profile", zap.String("userID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения профиля %s: %w", id, err)
	}
	return &profile, nil
}

func (r *pgProfileRepository) IncrementStoriesCount(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, incrementStoriesCountQuery, id)
	if err != nil {
		return fmt.Errorf("ошибка обновления счетчика историй: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
