package analysis

import "fork-your-story/internal/models"

// Значения по умолчанию для этапов, чей ответ модели не удалось разобрать.
// Функции всегда возвращают новые копии: вызывающий код может их менять.

const (
	fallbackCharacterSet = "Creative voice exploring profound themes"
	fallbackMindSet      = "Thoughtful observer of human experience"
	fallbackSkillSet     = "Narrative craft, emotional depth, vivid imagery"
	fallbackToolSet      = "Prose storytelling, metaphor, character development"

	FallbackIsHuman    = true
	FallbackConfidence = 75
	FallbackAnalysis   = "Unable to perform detailed analysis. Defaulting to human authorship assumption."
)

// FallbackCharacterMap - карта автора по умолчанию.
func FallbackCharacterMap() models.CharacterMap {
	return models.CharacterMap{
		CharacterSet: fallbackCharacterSet,
		MindSet:      fallbackMindSet,
		SkillSet:     fallbackSkillSet,
		ToolSet:      fallbackToolSet,
	}
}

// FallbackParallels - три литературные фигуры по умолчанию.
func FallbackParallels() []models.HistoricalParallel {
	return []models.HistoricalParallel{
		{
			Name: "Virginia Woolf",
			Era:  "1882–1941",
			Icon: "🌊",
			Traits: []string{
				"Explored consciousness through stream-of-thought prose",
				"Found profound meaning in ordinary moments",
				"Used innovative narrative techniques",
			},
			Quote: "You cannot find peace by avoiding life.",
		},
		{
			Name: "Jorge Luis Borges",
			Era:  "1899–1986",
			Icon: "🔮",
			Traits: []string{
				"Blended reality and imagination seamlessly",
				"Explored infinite possibilities in finite spaces",
				"Made the reader question perception",
			},
			Quote: "I have always imagined that Paradise will be a kind of library.",
		},
		{
			Name: "James Baldwin",
			Era:  "1924–1987",
			Icon: "✨",
			Traits: []string{
				"Used personal truth to illuminate universal experience",
				"Confronted difficult emotions with unflinching honesty",
				"Made vulnerability a source of strength",
			},
			Quote: "Not everything that is faced can be changed, but nothing can be changed until it is faced.",
		},
	}
}

// FallbackForks - пара развилок "действие / размышление".
func FallbackForks() []models.NarrativeFork {
	return []models.NarrativeFork{
		{
			ID:          "action",
			Letter:      "A",
			Title:       "The Road of Action",
			Subtitle:    "Move forward, embrace change",
			Description: "This path leads toward decisive action. The protagonist confronts what they've been avoiding, risking comfort for transformation. Like Hemingway's characters, they discover that courage is grace under pressure.",
			Outcome:     "Bold transformation through direct confrontation with fear.",
			Trailer: models.Trailer{
				Duration: "0:26",
				Scenes: []string{
					"EXT. CROSSROADS - DAWN",
					"A figure stands at the fork in the road.",
					`"I've waited long enough."`,
					"They take the first step forward.",
					"The horizon opens before them.",
					"TITLE CARD: THE ROAD OF ACTION",
				},
			},
		},
		{
			ID:          "reflection",
			Letter:      "B",
			Title:       "The Road of Reflection",
			Subtitle:    "Go inward, find understanding",
			Description: "This path turns inward. Rather than changing circumstances, the protagonist changes their relationship to them. Like Thoreau at Walden, they discover that the journey within holds unexpected depths.",
			Outcome:     "Profound understanding through patient contemplation.",
			Trailer: models.Trailer{
				Duration: "0:24",
				Scenes: []string{
					"INT. QUIET ROOM - EVENING",
					"Light shifts across the walls.",
					`"What if the answer isn't out there?"`,
					"Hands rest on an open book.",
					"A gentle smile of recognition.",
					"TITLE CARD: THE ROAD OF REFLECTION",
				},
			},
		},
	}
}

// FallbackVerdict - по умолчанию автор считается человеком.
func FallbackVerdict() models.AuthenticityVerdict {
	return models.AuthenticityVerdict{
		IsHuman:    FallbackIsHuman,
		Confidence: FallbackConfidence,
		Analysis:   FallbackAnalysis,
	}
}
