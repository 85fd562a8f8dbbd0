package imagen

import (
	"context"
	"fmt"

	"github.com/quotedeck/quotedeck/internal/providers"
	"google.golang.org/genai"
)

// Imagen is an image provider backed by the Gemini API image models
type Imagen struct {
	client *genai.Client
}

// New returns a new Imagen provider authenticated with apiKey.
// baseURL overrides the API endpoint and is empty in production.
func New(ctx context.Context, apiKey, baseURL string) (*Imagen, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("imagen API key is empty")
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions.BaseURL = baseURL
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create new genai client: %w", err)
	}

	return &Imagen{client: client}, nil
}

// GenerateImages renders req.Prompt and returns the encoded images.
// Images filtered by the safety system carry no bytes and are skipped.
func (i *Imagen) GenerateImages(ctx context.Context, req providers.ImageRequest) ([]providers.Image, error) {
	config := &genai.GenerateImagesConfig{
		NumberOfImages: int32(req.Count),
		OutputMIMEType: req.MIMEType,
		AspectRatio:    req.AspectRatio,
	}

	resp, err := i.client.Models.GenerateImages(ctx, req.Model, req.Prompt, config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate images: %w", err)
	}

	images := make([]providers.Image, 0, len(resp.GeneratedImages))
	for _, generated := range resp.GeneratedImages {
		if generated == nil || generated.Image == nil || len(generated.Image.ImageBytes) == 0 {
			continue
		}
		mimeType := generated.Image.MIMEType
		if mimeType == "" {
			mimeType = req.MIMEType
		}
		images = append(images, providers.Image{
			Data:     generated.Image.ImageBytes,
			MIMEType: mimeType,
		})
	}

	return images, nil
}
