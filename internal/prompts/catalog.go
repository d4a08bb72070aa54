package prompts

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Имена промтов в prompts.yaml.
const (
	CharacterMap        = "character_map"
	HistoricalParallels = "historical_parallels"
	NarrativeForks      = "narrative_forks"
	Authenticity        = "authenticity"
	ExtendedNarrative   = "extended_narrative"
	Test                = "test"
)

//go:embed prompts.yaml
var embeddedPrompts []byte

// Catalog - набор разобранных шаблонов промтов.
type Catalog struct {
	templates map[string]*template.Template
}

// Default разбирает встроенный prompts.yaml. Ошибка здесь означает битый бинарь, поэтому паника.
func Default() *Catalog {
	c, err := Parse(embeddedPrompts)
	if err != nil {
		panic(fmt.Sprintf("встроенные промты не разобраны: %v", err))
	}
	return c
}

// Parse разбирает YAML вида {name: template}.
func Parse(data []byte) (*Catalog, error) {
	raw := map[string]string{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("ошибка разбора YAML промтов: %w", err)
	}
	c := &Catalog{templates: make(map[string]*template.Template, len(raw))}
	for name, text := range raw {
		tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("ошибка разбора шаблона '%s': %w", name, err)
		}
		c.templates[name] = tmpl
	}
	return c, nil
}

// Render подставляет данные в шаблон name.
func (c *Catalog) Render(name string, data any) (string, error) {
	tmpl, ok := c.templates[name]
	if !ok {
		return "", fmt.Errorf("промт '%s' не найден", name)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("ошибка рендера промта '%s': %w", name, err)
	}
	return sb.String(), nil
}

// Names - отсортированный список имен шаблонов.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.templates))
	for name := range c.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
