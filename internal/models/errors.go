package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCredential indicates an action ran before an API key was set.
	ErrNoCredential = errors.New("no API key has been set for this session")
	// ErrBusy indicates a generation action is already running for the session.
	ErrBusy = errors.New("a generation is already in progress")
)

// EmptyInputError reports a blank theme or API key
type EmptyInputError struct {
	Field string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// CredentialInitError reports that a client could not be built from an API key
type CredentialInitError struct {
	Err error
}

func (e *CredentialInitError) Error() string {
	return fmt.Sprintf("failed to initialize client from API key: %v", e.Err)
}

func (e *CredentialInitError) Unwrap() error { return e.Err }

// GenerationError reports empty or malformed text model output
type GenerationError struct {
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ImageGenerationError reports the image request that failed a batch
type ImageGenerationError struct {
	Index  int
	Prompt string
	Err    error
}

func (e *ImageGenerationError) Error() string {
	return fmt.Sprintf("image %d could not be generated: %v", e.Index+1, e.Err)
}

func (e *ImageGenerationError) Unwrap() error { return e.Err }

// LayoutError reports a failure while composing the document
type LayoutError struct {
	Err error
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("failed to lay out document: %v", e.Err)
}

func (e *LayoutError) Unwrap() error { return e.Err }

// UserMessage turns any error into the single line shown to the user
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		emptyErr  *EmptyInputError
		credErr   *CredentialInitError
		genErr    *GenerationError
		imgErr    *ImageGenerationError
		layoutErr *LayoutError
	)
	switch {
	case errors.As(err, &emptyErr):
		return fmt.Sprintf("Please enter %s.", article(emptyErr.Field))
	case errors.As(err, &credErr):
		return "That API key could not be used. Check it and try again."
	case errors.Is(err, ErrNoCredential):
		return "Please set your API key first."
	case errors.Is(err, ErrBusy):
		return "A slideshow is already being generated. Please wait for it to finish."
	case errors.As(err, &genErr):
		return genErr.Message
	case errors.As(err, &imgErr):
		return fmt.Sprintf("Image %d could not be generated, so no slideshow was produced. Please try again.", imgErr.Index+1)
	case errors.As(err, &layoutErr):
		return "The slideshow could not be assembled. Please try again."
	default:
		return "Something went wrong: " + err.Error()
	}
}

func article(field string) string {
	switch field {
	case "":
		return "a value"
	case "API key":
		return "an API key"
	default:
		return "a " + field
	}
}
