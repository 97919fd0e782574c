package ai

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

// Prompts is the compiled prompt catalog.
type Prompts struct {
	System      string
	Identify    string
	AnalyzeItem *template.Template
	WildFind    *template.Template
	Listing     *template.Template
}

type promptFile struct {
	System      string `yaml:"system"`
	Identify    string `yaml:"identify"`
	AnalyzeItem string `yaml:"analyze_item"`
	WildFind    string `yaml:"wild_find"`
	Listing     string `yaml:"listing"`
}

// LoadPrompts parses the embedded prompt catalog.
func LoadPrompts() (*Prompts, error) {
	return ParsePrompts(promptsYAML)
}

// ParsePrompts parses a prompt catalog in the embedded YAML layout.
func ParsePrompts(data []byte) (*Prompts, error) {
	var f promptFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse prompts: %w", err)
	}
	if strings.TrimSpace(f.System) == "" || strings.TrimSpace(f.Identify) == "" {
		return nil, fmt.Errorf("prompts: system and identify are required")
	}

	p := &Prompts{System: f.System, Identify: f.Identify}
	var err error
	if p.AnalyzeItem, err = template.New("analyze_item").Parse(f.AnalyzeItem); err != nil {
		return nil, fmt.Errorf("prompts: analyze_item: %w", err)
	}
	if p.WildFind, err = template.New("wild_find").Parse(f.WildFind); err != nil {
		return nil, fmt.Errorf("prompts: wild_find: %w", err)
	}
	if p.Listing, err = template.New("listing").Parse(f.Listing); err != nil {
		return nil, fmt.Errorf("prompts: listing: %w", err)
	}
	return p, nil
}

func render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
