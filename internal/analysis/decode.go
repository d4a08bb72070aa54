package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"fork-your-story/internal/models"
)

const (
	minTraits = 2
	maxTraits = 4
)

var errSchema = errors.New("ответ не соответствует схеме")

// stripFences убирает обертку ```json ... ``` вокруг ответа модели.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Метка языка до конца первой строки.
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "json"), "JSON")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func schemaError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errSchema, fmt.Sprintf(format, args...))
}

func decodeCharacterMap(raw string) (models.CharacterMap, error) {
	var cm models.CharacterMap
	if err := json.Unmarshal([]byte(stripFences(raw)), &cm); err != nil {
		return models.CharacterMap{}, err
	}
	if strings.TrimSpace(cm.CharacterSet) == "" || strings.TrimSpace(cm.MindSet) == "" ||
		strings.TrimSpace(cm.SkillSet) == "" || strings.TrimSpace(cm.ToolSet) == "" {
		return models.CharacterMap{}, schemaError("в карте автора не заполнены обязательные поля")
	}
	return cm, nil
}

func decodeParallels(raw string) ([]models.HistoricalParallel, error) {
	var parallels []models.HistoricalParallel
	if err := json.Unmarshal([]byte(stripFences(raw)), &parallels); err != nil {
		return nil, err
	}
	if len(parallels) != models.ParallelCount {
		return nil, schemaError("ожидалось %d фигуры, получено %d", models.ParallelCount, len(parallels))
	}
	for i, p := range parallels {
		if p.Name == "" || p.Era == "" || p.Icon == "" || p.Quote == "" {
			return nil, schemaError("фигура %d: не заполнены обязательные поля", i)
		}
		if len(p.Traits) < minTraits || len(p.Traits) > maxTraits {
			return nil, schemaError("фигура %d: %d черт вне диапазона %d-%d", i, len(p.Traits), minTraits, maxTraits)
		}
	}
	return parallels, nil
}

func decodeForks(raw string) ([]models.NarrativeFork, error) {
	var forks []models.NarrativeFork
	if err := json.Unmarshal([]byte(stripFences(raw)), &forks); err != nil {
		return nil, err
	}
	if len(forks) != models.ForkCount {
		return nil, schemaError("ожидалось %d развилки, получено %d", models.ForkCount, len(forks))
	}
	for i := range forks {
		f := &forks[i]
		if f.Title == "" || f.Subtitle == "" || f.Description == "" || f.Outcome == "" {
			return nil, schemaError("развилка %d: не заполнены обязательные поля", i)
		}
		if len(f.Trailer.Scenes) != models.TrailerSceneCount {
			return nil, schemaError("развилка %d: %d сцен вместо %d", i, len(f.Trailer.Scenes), models.TrailerSceneCount)
		}
		// Буквы определяются порядком в массиве, а не ответом модели.
		f.Letter = models.ForkLetters[i]
		if f.ID == "" {
			f.ID = "path-" + strings.ToLower(f.Letter)
		}
		if f.Trailer.Duration == "" {
			f.Trailer.Duration = models.DefaultTrailerTime
		}
		f.Trailer.VideoURL = ""
	}
	return forks, nil
}

// rawVerdict нужен, чтобы отличить отсутствующее поле от нулевого значения.
type rawVerdict struct {
	IsHuman    *bool    `json:"isHuman"`
	Confidence *float64 `json:"confidence"`
	Analysis   *string  `json:"analysis"`
}

func decodeVerdict(raw string) (models.AuthenticityVerdict, error) {
	var rv rawVerdict
	if err := json.Unmarshal([]byte(stripFences(raw)), &rv); err != nil {
		return models.AuthenticityVerdict{}, err
	}
	if rv.IsHuman == nil || rv.Confidence == nil || rv.Analysis == nil {
		return models.AuthenticityVerdict{}, schemaError("в оценке авторства не заполнены обязательные поля")
	}
	if *rv.Confidence < 0 || *rv.Confidence > 100 || math.IsNaN(*rv.Confidence) {
		return models.AuthenticityVerdict{}, schemaError("уверенность %v вне диапазона 0-100", *rv.Confidence)
	}
	return models.AuthenticityVerdict{
		IsHuman:    *rv.IsHuman,
		Confidence: int(math.Round(*rv.Confidence)),
		Analysis:   *rv.Analysis,
	}, nil
}
