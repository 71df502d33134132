package classify

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed config/classify.yaml
var configFiles embed.FS

// Model describes one classification model.
type Model struct {
	ID          string  `yaml:"-"`
	DisplayName string  `yaml:"display_name"`
	JSONMode    bool    `yaml:"json_mode"`
	Temperature float32 `yaml:"temperature"`
	MaxItems    int     `yaml:"max_items"`
}

// Prompt holds the prompt fragments. {{subject}} and {{categories}} are
// substituted at render time.
type Prompt struct {
	System     string `yaml:"system"`
	Intro      string `yaml:"intro"`
	Subject    string `yaml:"subject"`
	Existing   string `yaml:"existing"`
	NoExisting string `yaml:"no_existing"`
	Format     string `yaml:"format"`
	ListHeader string `yaml:"list_header"`
}

// Registry is the embedded model list and prompt.
type Registry struct {
	Models []Model
	Prompt Prompt
}

type registryFile struct {
	Models map[string]Model `yaml:"models"`
	Prompt Prompt           `yaml:"prompt"`
}

// LoadRegistry parses the embedded classify.yaml.
func LoadRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/classify.yaml")
	if err != nil {
		return nil, fmt.Errorf("read classify.yaml: %w", err)
	}
	return parseRegistry(data)
}

func parseRegistry(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal classify.yaml: %w", err)
	}

	// Maps lose YAML order, so walk the node tree for the key order.
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("unmarshal classify.yaml: %w", err)
	}

	reg := &Registry{Prompt: file.Prompt}
	for _, id := range modelOrder(&root) {
		m := file.Models[id]
		m.ID = id
		reg.Models = append(reg.Models, m)
	}
	if len(reg.Models) == 0 {
		return nil, fmt.Errorf("classify.yaml lists no models")
	}
	return reg, nil
}

func modelOrder(root *yaml.Node) []string {
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil
	}
	doc := root.Content[0]
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value != "models" {
			continue
		}
		models := doc.Content[i+1]
		ids := make([]string, 0, len(models.Content)/2)
		for j := 0; j < len(models.Content); j += 2 {
			ids = append(ids, models.Content[j].Value)
		}
		return ids
	}
	return nil
}

// Lookup returns the named model, or the default when id is empty or unknown.
// The bool reports whether id was found.
func (r *Registry) Lookup(id string) (Model, bool) {
	for _, m := range r.Models {
		if m.ID == id {
			return m, true
		}
	}
	return r.Models[0], false
}

// Render builds the user message for one batch.
func (p Prompt) Render(subject string, categories, items []string) string {
	var b strings.Builder
	b.WriteString(p.Intro)
	b.WriteByte('\n')
	b.WriteString(strings.ReplaceAll(p.Subject, "{{subject}}", subject))
	b.WriteByte('\n')
	if len(categories) > 0 {
		b.WriteString(strings.ReplaceAll(p.Existing, "{{categories}}", strings.Join(categories, ", ")))
	} else {
		b.WriteString(p.NoExisting)
	}
	b.WriteByte('\n')
	b.WriteString(p.Format)
	b.WriteByte('\n')
	b.WriteString(p.ListHeader)
	for i, item := range items {
		fmt.Fprintf(&b, "\n%d. %s", i+1, item)
	}
	return b.String()
}
