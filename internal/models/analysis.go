package models

// Количество элементов в анализе фиксировано.
const (
	ParallelCount      = 3
	ForkCount          = 2
	TrailerSceneCount  = 6
	DefaultTrailerTime = "0:26"
)

// ForkLetters - метки развилок в порядке массива.
var ForkLetters = [ForkCount]string{"A", "B"}

// CharacterMap - четыре черты творческого голоса автора.
type CharacterMap struct {
	CharacterSet string `json:"characterSet"`
	MindSet      string `json:"mindSet"`
	SkillSet     string `json:"skillSet"`
	ToolSet      string `json:"toolSet"`
}

// HistoricalParallel - историческая фигура, близкая автору истории.
type HistoricalParallel struct {
	Name   string   `json:"name"`
	Era    string   `json:"era"`
	Icon   string   `json:"icon"`
	Traits []string `json:"traits"`
	Quote  string   `json:"quote"`
}

// Trailer - сценарий трейлера развилки.
type Trailer struct {
	Duration string   `json:"duration"`
	Scenes   []string `json:"scenes"`
	VideoURL string   `json:"videoUrl,omitempty"`
}

// NarrativeFork - одна из двух альтернатив продолжения истории.
type NarrativeFork struct {
	ID          string  `json:"id"`
	Letter      string  `json:"letter"`
	Title       string  `json:"title"`
	Subtitle    string  `json:"subtitle"`
	Description string  `json:"description"`
	Outcome     string  `json:"outcome"`
	Trailer     Trailer `json:"trailer"`
}

// AuthenticityVerdict - оценка авторства (человек / AI).
type AuthenticityVerdict struct {
	IsHuman    bool   `json:"isHuman"`
	Confidence int    `json:"confidence"`
	Analysis   string `json:"analysis"`
}

// StoryAnalysis - итог работы пайплайна. После создания не изменяется.
type StoryAnalysis struct {
	Verification AuthenticityVerdict  `json:"verification"`
	CharacterMap CharacterMap         `json:"characterMap"`
	Parallels    []HistoricalParallel `json:"parallels"`
	Forks        []NarrativeFork      `json:"forks"`
}

// ParallelNames возвращает имена фигур в исходном порядке.
func (a *StoryAnalysis) ParallelNames() []string {
	if a == nil {
		return nil
	}
	names := make([]string, 0, len(a.Parallels))
	for _, p := range a.Parallels {
		names = append(names, p.Name)
	}
	return names
}

// Clone возвращает глубокую копию анализа.
func (a *StoryAnalysis) Clone() *StoryAnalysis {
	if a == nil {
		return nil
	}
	out := *a
	if a.Parallels != nil {
		out.Parallels = make([]HistoricalParallel, len(a.Parallels))
		for i, p := range a.Parallels {
			if p.Traits != nil {
				p.Traits = append([]string{}, p.Traits...)
			}
			out.Parallels[i] = p
		}
	}
	if a.Forks != nil {
		out.Forks = make([]NarrativeFork, len(a.Forks))
		for i, f := range a.Forks {
			if f.Trailer.Scenes != nil {
				f.Trailer.Scenes = append([]string{}, f.Trailer.Scenes...)
			}
			out.Forks[i] = f
		}
	}
	return &out
}
