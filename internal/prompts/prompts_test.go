package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderConcepts(t *testing.T) {
	p := Default()

	got, err := p.RenderConcepts(ConceptParams{Theme: "The price of chasing dreams", Count: 10})
	if err != nil {
		t.Fatalf("RenderConcepts() error = %v", err)
	}

	if !strings.Contains(got, `"The price of chasing dreams"`) {
		t.Errorf("prompt missing theme: %q", got)
	}
	if !strings.Contains(got, "Write 10 short") {
		t.Errorf("prompt missing count: %q", got)
	}
}

func TestRenderImage(t *testing.T) {
	p := Default()

	tests := []struct {
		name   string
		params ImageParams
		want   string
	}{
		{name: "appends style", params: ImageParams{Prompt: "a lone runner", Style: "cinematic"}, want: "a lone runner, cinematic"},
		{name: "no style", params: ImageParams{Prompt: "a lone runner"}, want: "a lone runner"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.RenderImage(tt.params)
			if err != nil {
				t.Fatalf("RenderImage() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("RenderImage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadFromOverridesOnlyGivenTemplates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	content := "suggest: \"Give me a theme\"\nimage: \"{{.Style}} :: {{.Prompt}}\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if p.Suggest != "Give me a theme" {
		t.Errorf("Suggest = %q, want override", p.Suggest)
	}
	if p.Concepts != defaultConcepts {
		t.Error("Concepts should keep the built-in template")
	}
	got, err := p.RenderImage(ImageParams{Prompt: "sea", Style: "moody"})
	if err != nil {
		t.Fatalf("RenderImage() error = %v", err)
	}
	if got != "moody :: sea" {
		t.Errorf("RenderImage() = %q, want %q", got, "moody :: sea")
	}
}

func TestLoadFromErrors(t *testing.T) {
	if _, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFrom() on missing file expected error")
	}

	p, err := LoadFrom("")
	if err != nil {
		t.Fatalf("LoadFrom(\"\") error = %v", err)
	}
	if p.Concepts != defaultConcepts {
		t.Error("LoadFrom(\"\") should return defaults")
	}
}

func TestRenderInvalidTemplate(t *testing.T) {
	p := &Prompts{Concepts: "{{.Theme"}
	if _, err := p.RenderConcepts(ConceptParams{Theme: "x"}); err == nil {
		t.Error("expected parse error for invalid template")
	}
}
