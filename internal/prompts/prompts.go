package prompts

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

const (
	defaultConcepts = `You are a creative director writing an inspirational slideshow.
Write {{.Count}} short, powerful, original quotes about the theme "{{.Theme}}".
Each quote must be at most 15 words.
For every quote also write a detailed image prompt describing a striking visual that matches the mood of the quote.
Describe subject, setting, composition and lighting. Do not ask for any text or lettering in the image.`

	defaultImage = `{{.Prompt}}, {{.Style}}`

	defaultSuggest = `Suggest one short, evocative theme (three to six words) for an inspirational quote slideshow.
Reply with the theme only, without quotation marks or punctuation at the end.`
)

type Prompts struct {
	Concepts string `yaml:"concepts"`
	Image    string `yaml:"image"`
	Suggest  string `yaml:"suggest"`
}

type ConceptParams struct {
	Theme string
	Count int
}

type ImageParams struct {
	Prompt string
	Style  string
}

// Default returns the built-in prompt templates
func Default() *Prompts {
	return &Prompts{
		Concepts: defaultConcepts,
		Image:    defaultImage,
		Suggest:  defaultSuggest,
	}
}

// LoadFrom reads templates from a YAML file. Templates missing from the file
// keep their built-in value.
func LoadFrom(path string) (*Prompts, error) {
	p := Default()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	var override Prompts
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}

	if override.Concepts != "" {
		p.Concepts = override.Concepts
	}
	if override.Image != "" {
		p.Image = override.Image
	}
	if override.Suggest != "" {
		p.Suggest = override.Suggest
	}

	return p, nil
}

func (p *Prompts) RenderConcepts(params ConceptParams) (string, error) {
	return render(p.Concepts, params)
}

func (p *Prompts) RenderImage(params ImageParams) (string, error) {
	if params.Style == "" {
		return params.Prompt, nil
	}
	return render(p.Image, params)
}

func (p *Prompts) RenderSuggest() (string, error) {
	return render(p.Suggest, nil)
}

func render(tmpl string, data any) (string, error) {
	t, err := template.New("prompt").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
