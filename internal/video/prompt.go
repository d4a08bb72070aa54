package video

import (
	"fmt"
	"strings"
)

const cinematicSuffix = "Slow dramatic camera movement, atmospheric lighting, cinematic color grading, film grain texture, professional cinematography, 4K quality, smooth motion, dramatic tension, visual storytelling."

// BuildPrompt превращает развилку в кинематографичный промт для text-to-video.
// Точки в описании заменяются запятыми, чтобы модель не дробила сцену.
func BuildPrompt(title, description string) string {
	return fmt.Sprintf("Cinematic trailer scene: %s. %s. %s",
		title, strings.ReplaceAll(description, ".", ", "), cinematicSuffix)
}
