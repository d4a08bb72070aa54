package tier

import (
	"time"

	"fork-your-story/internal/models"
)

// Unlimited - лимит историй без ограничения.
const Unlimited = -1

// Period - окно, в котором считается лимит историй.
type Period string

const (
	PeriodLifetime Period = "lifetime"
	PeriodMonth    Period = "month"
	PeriodNone     Period = "none"
)

// Feature - возможность, зависящая от тарифа.
type Feature string

const (
	FeatureLibrary           Feature = "library"
	FeatureExtendedNarrative Feature = "extended_narrative"
	FeaturePrivateStories    Feature = "private_stories"
)

// Limits - ограничения тарифа.
type Limits struct {
	Stories  int
	Period   Period
	Features map[Feature]bool
}

var limits = map[models.Tier]Limits{
	models.TierWanderer: {
		Stories: 1,
		Period:  PeriodLifetime,
	},
	models.TierScribe: {
		Stories:  5,
		Period:   PeriodMonth,
		Features: map[Feature]bool{FeatureLibrary: true},
	},
	models.TierChronicler: {
		Stories: Unlimited,
		Period:  PeriodNone,
		Features: map[Feature]bool{
			FeatureLibrary:           true,
			FeatureExtendedNarrative: true,
			FeaturePrivateStories:    true,
		},
	},
}

// For возвращает ограничения тарифа. Неизвестный тариф трактуется как wanderer.
func For(t models.Tier) Limits {
	if l, ok := limits[t]; ok {
		return l
	}
	return limits[models.TierWanderer]
}

// Allows сообщает, доступна ли возможность на тарифе.
func Allows(t models.Tier, f Feature) bool {
	return For(t).Features[f]
}

// CanAnalyze сообщает, можно ли отправить еще одну историю при used уже отправленных в текущем окне.
func CanAnalyze(t models.Tier, used int) bool {
	l := For(t)
	if l.Stories == Unlimited {
		return true
	}
	return used < l.Stories
}

// WindowStart - начало окна подсчета историй. Для пожизненного лимита нулевое время.
func WindowStart(t models.Tier, now time.Time) time.Time {
	switch For(t).Period {
	case PeriodMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	default:
		return time.Time{}
	}
}
