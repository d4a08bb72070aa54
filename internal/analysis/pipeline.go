package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fork-your-story/internal/ai"
	"fork-your-story/internal/models"
	"fork-your-story/internal/prompts"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Stage - этап пайплайна анализа.
type Stage string

const (
	StageCharacterMap Stage = "character map"
	StageParallels    Stage = "historical parallels"
	StageForks        Stage = "narrative forks"
	StageAuthenticity Stage = "authenticity"
)

var stageFallbacksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "fork_story_analysis_fallbacks_total",
		Help: "Number of stage responses replaced by fallback values.",
	},
	[]string{"stage"},
)

// StageError - фатальная ошибка адаптера на конкретном этапе.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Analyzer - то, что нужно HTTP слою от пайплайна.
type Analyzer interface {
	Analyze(ctx context.Context, sub models.StorySubmission) (*models.StoryAnalysis, error)
}

// Pipeline последовательно выполняет четыре этапа анализа.
// Ошибки разбора JSON поглощаются значениями по умолчанию, ошибки адаптера прерывают анализ.
type Pipeline struct {
	client  ai.Client
	prompts *prompts.Catalog
	logger  *zap.Logger
	params  ai.GenerationParams
}

var _ Analyzer = (*Pipeline)(nil)

// NewPipeline создает пайплайн. catalog == nil означает встроенные промты.
func NewPipeline(client ai.Client, catalog *prompts.Catalog, logger *zap.Logger) *Pipeline {
	if catalog == nil {
		catalog = prompts.Default()
	}
	return &Pipeline{
		client:  client,
		prompts: catalog,
		logger:  logger.Named("AnalysisPipeline"),
		params:  ai.GenerationParams{JSON: true},
	}
}

// Analyze строит StoryAnalysis по поданной истории.
func (p *Pipeline) Analyze(ctx context.Context, sub models.StorySubmission) (*models.StoryAnalysis, error) {
	log := p.logger.With(zap.String("story_id", sub.StoryID), zap.String("title", sub.Title))
	start := time.Now()

	log.Info("Step 1: generating character map")
	characterMap, err := p.characterMap(ctx, log, sub)
	if err != nil {
		return nil, err
	}

	log.Info("Step 2: finding historical parallels")
	parallels, err := p.parallels(ctx, log, sub, characterMap)
	if err != nil {
		return nil, err
	}

	log.Info("Step 3: generating narrative forks")
	forks, err := p.forks(ctx, log, sub, characterMap, parallels)
	if err != nil {
		return nil, err
	}

	log.Info("Step 4: assessing authenticity")
	verdict, err := p.authenticity(ctx, log, sub)
	if err != nil {
		return nil, err
	}

	log.Info("All analysis steps completed", zap.Duration("duration", time.Since(start)))
	return &models.StoryAnalysis{
		Verification: verdict,
		CharacterMap: characterMap,
		Parallels:    parallels,
		Forks:        forks,
	}, nil
}

// call рендерит промт и вызывает модель. Ошибки транспорта и SDK фатальны для пайплайна;
// пустой ответ возвращается как "" и уходит в запасной вариант этапа при разборе.
func (p *Pipeline) call(ctx context.Context, stage Stage, op string, data any) (string, error) {
	prompt, err := p.prompts.Render(op, data)
	if err != nil {
		return "", &StageError{Stage: stage, Err: err}
	}
	text, _, err := p.client.GenerateText(ctx, op, prompt, p.params)
	if errors.Is(err, ai.ErrEmptyResponse) {
		return "", nil
	}
	if err != nil {
		return "", &StageError{Stage: stage, Err: err}
	}
	return text, nil
}

func (p *Pipeline) fallback(log *zap.Logger, stage Stage, raw string, err error) {
	stageFallbacksTotal.WithLabelValues(string(stage)).Inc()
	preview := raw
	if len(preview) > 200 {
		preview = preview[:200]
	}
	log.Warn("Failed to decode stage response, using fallback",
		zap.String("stage", string(stage)),
		zap.String("response_preview", preview),
		zap.Error(err),
	)
}

func (p *Pipeline) characterMap(ctx context.Context, log *zap.Logger, sub models.StorySubmission) (models.CharacterMap, error) {
	raw, err := p.call(ctx, StageCharacterMap, prompts.CharacterMap, map[string]any{
		"Title":   sub.Title,
		"Content": sub.Content,
	})
	if err != nil {
		return models.CharacterMap{}, err
	}
	cm, err := decodeCharacterMap(raw)
	if err != nil {
		p.fallback(log, StageCharacterMap, raw, err)
		return FallbackCharacterMap(), nil
	}
	return cm, nil
}

func (p *Pipeline) parallels(ctx context.Context, log *zap.Logger, sub models.StorySubmission, cm models.CharacterMap) ([]models.HistoricalParallel, error) {
	raw, err := p.call(ctx, StageParallels, prompts.HistoricalParallels, map[string]any{
		"Title":        sub.Title,
		"Content":      sub.Content,
		"CharacterMap": cm,
	})
	if err != nil {
		return nil, err
	}
	parallels, err := decodeParallels(raw)
	if err != nil {
		p.fallback(log, StageParallels, raw, err)
		return FallbackParallels(), nil
	}
	return parallels, nil
}

func (p *Pipeline) forks(ctx context.Context, log *zap.Logger, sub models.StorySubmission, cm models.CharacterMap, parallels []models.HistoricalParallel) ([]models.NarrativeFork, error) {
	names := make([]string, 0, len(parallels))
	for _, par := range parallels {
		names = append(names, par.Name)
	}
	raw, err := p.call(ctx, StageForks, prompts.NarrativeForks, map[string]any{
		"Title":         sub.Title,
		"Content":       sub.Content,
		"CharacterMap":  cm,
		"ParallelNames": strings.Join(names, ", "),
	})
	if err != nil {
		return nil, err
	}
	forks, err := decodeForks(raw)
	if err != nil {
		p.fallback(log, StageForks, raw, err)
		return FallbackForks(), nil
	}
	return forks, nil
}

func (p *Pipeline) authenticity(ctx context.Context, log *zap.Logger, sub models.StorySubmission) (models.AuthenticityVerdict, error) {
	raw, err := p.call(ctx, StageAuthenticity, prompts.Authenticity, map[string]any{
		"Content":           sub.Content,
		"KeystrokeAnalysis": KeystrokeCommentary(sub.Content, sub.KeystrokeData),
	})
	if err != nil {
		return models.AuthenticityVerdict{}, err
	}
	verdict, err := decodeVerdict(raw)
	if err != nil {
		p.fallback(log, StageAuthenticity, raw, err)
		return FallbackVerdict(), nil
	}
	return verdict, nil
}
