package analysis

import (
	"context"
	"errors"

	"fork-your-story/internal/models"
	"fork-your-story/internal/repository"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var persistFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "fork_story_persistence_failures_total",
		Help: "Number of failed best-effort inserts after an analysis.",
	},
	[]string{"table"},
)

// RecordResult - что удалось сохранить. Нужен для логов и тестов, HTTP слой его игнорирует.
type RecordResult struct {
	StoryID    uuid.UUID
	AnalysisID uuid.UUID
	Story      bool
	Analysis   bool
	Parallels  bool
	Forks      bool
}

// Recorder сохраняет анализ в БД без транзакции: stories -> analyses -> story_parallels, forks.
// Ошибки логируются и считаются, но никогда не возвращаются.
type Recorder struct {
	stories  repository.StoryRepository
	analyses repository.AnalysisRepository
	profiles repository.ProfileRepository // может быть nil
	logger   *zap.Logger
}

// NewRecorder создает Recorder. profiles может быть nil.
func NewRecorder(stories repository.StoryRepository, analyses repository.AnalysisRepository, profiles repository.ProfileRepository, logger *zap.Logger) *Recorder {
	return &Recorder{stories: stories, analyses: analyses, profiles: profiles, logger: logger.Named("AnalysisRecorder")}
}

// Record сохраняет историю и анализ. Без пользователя ничего не пишется.
func (r *Recorder) Record(ctx context.Context, storyID uuid.UUID, sub models.StorySubmission, analysis *models.StoryAnalysis) RecordResult {
	res := RecordResult{StoryID: storyID}
	if sub.UserID == nil || analysis == nil {
		return res
	}
	log := r.logger.With(zap.String("story_id", storyID.String()), zap.String("user_id", sub.UserID.String()))

	story := &models.Story{
		ID:            storyID,
		UserID:        sub.UserID,
		Title:         sub.Title,
		Content:       sub.Content,
		WordCount:     sub.WordCount,
		KeystrokeData: sub.KeystrokeData,
		Analysis:      analysis,
		Status:        models.StoryStatusComplete,
	}
	if err := r.stories.Create(ctx, story); err != nil {
		r.failed(log, "stories", err)
		return res
	}
	res.Story = true

	if r.profiles != nil {
		if err := r.profiles.IncrementStoriesCount(ctx, *sub.UserID); err != nil && !errors.Is(err, models.ErrNotFound) {
			r.failed(log, "profiles", err)
		}
	}

	analysisID, err := r.analyses.CreateAnalysis(ctx, storyID, analysis)
	if err != nil {
		r.failed(log, "analyses", err)
		return res
	}
	res.Analysis = true
	res.AnalysisID = analysisID

	if err := r.analyses.CreateParallels(ctx, analysisID, analysis.Parallels); err != nil {
		r.failed(log, "story_parallels", err)
	} else {
		res.Parallels = true
	}
	if err := r.analyses.CreateForks(ctx, analysisID, analysis.Forks); err != nil {
		r.failed(log, "forks", err)
	} else {
		res.Forks = true
	}

	log.Info("Analysis persisted",
		zap.String("analysis_id", analysisID.String()),
		zap.Bool("parallels", res.Parallels),
		zap.Bool("forks", res.Forks),
	)
	return res
}

func (r *Recorder) failed(log *zap.Logger, table string, err error) {
	persistFailuresTotal.WithLabelValues(table).Inc()
	log.Error("Failed to persist analysis data", zap.String("table", table), zap.Error(err))
}
