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
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

var _ ConnectionRepository = (*pgConnectionRepository)(nil)

type pgConnectionRepository struct {
	db     database.DBTX
	logger *zap.Logger
}

// NewPgConnectionRepository создает репозиторий связей историй.
func NewPgConnectionRepository(db database.DBTX, logger *zap.Logger) ConnectionRepository {
	return &pgConnectionRepository{db: db, logger: logger.Named("PgConnectionRepo")}
}

// uniqueViolation - SQLSTATE нарушения уникальности.
const uniqueViolation = "23505"

const listConnectionsQuery = `
SELECT id, story_id, connected_story_id, connection_type, created_at
FROM story_connections
WHERE story_id = $1 OR connected_story_id = $1
ORDER BY created_at DESC`

const createConnectionQuery = `
INSERT INTO story_connections (id, story_id, connected_story_id, connection_type, created_at)
VALUES ($1, $2, $3, $4, $5)`

func (r *pgConnectionRepository) ListForStory(ctx context.Context, storyID uuid.UUID) ([]models.StoryConnection, error) {
	conns := []models.StoryConnection{}
	if err := pgxscan.Select(ctx, r.db, &conns, listConnectionsQuery, storyID); err != nil {
		r.logger.Error("Failed to list story connections", zap.String("storyID", storyID.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения связей истории: %w", err)
	}
	return conns, nil
}

func (r *pgConnectionRepository) Create(ctx context.Context, conn *models.StoryConnection) error {
	if conn.ID == uuid.Nil {
		conn.ID = uuid.New()
	}
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = time.Now().UTC()
	}
	if conn.ConnectionType == "" {
		conn.ConnectionType = "related"
	}
	_, err := r.db.Exec(ctx, createConnectionQuery, conn.ID, conn.StoryID, conn.ConnectedStoryID, conn.ConnectionType, conn.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: stories are already connected", models.ErrBadRequest)
		}
		r.logger.Error("Failed to create story connection", zap.String("storyID", conn.StoryID.String()), zap.Error(err))
		return fmt.Errorf("ошибка создания связи историй: %w", err)
	}
	return nil
}
