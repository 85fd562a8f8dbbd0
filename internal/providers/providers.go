package providers

import (
	"context"
)

// Schema types understood by every text provider
const (
	TypeObject  = "object"
	TypeArray   = "array"
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
)

// Schema describes the JSON shape a text provider must answer with
type Schema struct {
	Type        string
	Description string
	Properties  map[string]*Schema
	Items       *Schema
	Required    []string
}

// Config represents the configuration for a single text generation request.
// A non-nil ResponseSchema asks the provider for JSON constrained to it.
type Config struct {
	Model          string
	Temperature    float64
	Prompt         string
	SystemPrompt   string
	ResponseSchema *Schema
}

// TextProvider defines the interface for a hosted text model
type TextProvider interface {
	GenerateText(ctx context.Context, config Config) (string, error)
}

// ImageRequest represents a single image generation request
type ImageRequest struct {
	Model       string
	Prompt      string
	Count       int
	MIMEType    string
	AspectRatio string
}

// Image is one encoded image returned by an ImageProvider
type Image struct {
	Data     []byte
	MIMEType string
}

// ImageProvider defines the interface for a hosted image model
type ImageProvider interface {
	GenerateImages(ctx context.Context, req ImageRequest) ([]Image, error)
}
