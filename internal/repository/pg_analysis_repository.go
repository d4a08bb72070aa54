package repository

import (
	"context"
	"fmt"

	"fork-your-story/internal/database"
	"fork-your-story/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var _ AnalysisRepository = (*pgAnalysisRepository)(nil)

type pgAnalysisRepository struct {
	db     database.DBTX
	logger *zap.Logger
}

// NewPgAnalysisRepository создает репозиторий анализов поверх PostgreSQL.
func NewPgAnalysisRepository(db database.DBTX, logger *zap.Logger) AnalysisRepository {
	return &pgAnalysisRepository{db: db, logger: logger.Named("PgAnalysisRepo")}
}

const createAnalysisQuery = `
INSERT INTO analyses (story_id, is_human, authenticity_confidence, authenticity_analysis, character_map)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`

const createParallelQuery = `
INSERT INTO story_parallels (analysis_id, figure_name, figure_era, figure_icon, traits, quote)
VALUES ($1, $2, $3, $4, $5, $6)`

const createForkQuery = `
INSERT INTO forks (analysis_id, letter, title, subtitle, description, outcome, trailer_duration, trailer_scenes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func (r *pgAnalysisRepository) CreateAnalysis(ctx context.Context, storyID uuid.UUID, analysis *models.StoryAnalysis) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRow(ctx, createAnalysisQuery,
		storyID,
		analysis.Verification.IsHuman,
		analysis.Verification.Confidence,
		analysis.Verification.Analysis,
		analysis.CharacterMap,
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to create analysis", zap.String("storyID", storyID.String()), zap.Error(err))
		return uuid.Nil, fmt.Errorf("ошибка создания анализа: %w", err)
	}
	return id, nil
}

// CreateParallels вставляет фигуры одним батчем.
func (r *pgAnalysisRepository) CreateParallels(ctx context.Context, analysisID uuid.UUID, parallels []models.HistoricalParallel) error {
	if len(parallels) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range parallels {
		traits := p.Traits
		if traits == nil {
			traits = []string{}
		}
		batch.Queue(createParallelQuery, analysisID, p.Name, p.Era, p.Icon, traits, p.Quote)
	}
	if err := r.sendBatch(ctx, batch); err != nil {
		r.logger.Error("Failed to create parallels", zap.String("analysisID", analysisID.String()), zap.Error(err))
		return fmt.Errorf("ошибка создания исторических параллелей: %w", err)
	}
	return nil
}

// CreateForks вставляет развилки одним батчем.
func (r *pgAnalysisRepository) CreateForks(ctx context.Context, analysisID uuid.UUID, forks []models.NarrativeFork) error {
	if len(forks) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, f := range forks {
		duration := f.Trailer.Duration
		if duration == "" {
			duration = models.DefaultTrailerTime
		}
		scenes := f.Trailer.Scenes
		if scenes == nil {
			scenes = []string{}
		}
		batch.Queue(createForkQuery, analysisID, f.Letter, f.Title, f.Subtitle, f.Description, f.Outcome, duration, scenes)
	}
	if err := r.sendBatch(ctx, batch); err != nil {
		r.logger.Error("Failed to create forks", zap.String("analysisID", analysisID.String()), zap.Error(err))
		return fmt.Errorf("ошибка создания развилок: %w", err)
	}
	return nil
}

// batcher - *pgxpool.Pool и pgx.Tx умеют отправлять батчи, DBTX этого не требует.
type batcher interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

func (r *pgAnalysisRepository) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	if b, ok := r.db.(batcher); ok {
		return b.SendBatch(ctx, batch).Close()
	}
	for _, q := range batch.QueuedQueries {
		if _, err := r.db.Exec(ctx, q.SQL, q.Arguments...); err != nil {
			return err
		}
	}
	return nil
}
