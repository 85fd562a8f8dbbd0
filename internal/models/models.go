package models

import "time"

// Concept is a short quote paired with the prompt used to illustrate it
type Concept struct {
	Quote       string `json:"quote"`
	ImagePrompt string `json:"image_prompt"`
}

// GeneratedImage holds the encoded bytes returned by the image model
type GeneratedImage struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mime_type"`
}

// Slide pairs a concept with the image rendered from its prompt.
// Slides are built once both generation stages have completed.
type Slide struct {
	Concept Concept
	Image   GeneratedImage
}

// Document is a composed slideshow. It is immutable after creation.
type Document struct {
	ID        string    `json:"id"`
	Theme     string    `json:"theme"`
	Filename  string    `json:"filename"`
	PageCount int       `json:"pages"`
	Captions  []string  `json:"captions"`
	CreatedAt time.Time `json:"created_at"`
	Bytes     []byte    `json:"-"`
}

// Size returns the length of the encoded PDF
func (d *Document) Size() int {
	return len(d.Bytes)
}
