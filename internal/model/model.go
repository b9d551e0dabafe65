// Package model provides LLM client implementations for the providers the
// workflow stages call: text generation and image analysis.
package model

import (
	"context"
	"errors"
)

// ErrNoProvider is returned when stage logic asks for a capability no
// configured provider offers.
var ErrNoProvider = errors.New("no provider configured for capability")

// TextGenerator produces a completion for a prompt.
type TextGenerator interface {
	Name() string
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// VisionAnalyzer extracts information from an image.
type VisionAnalyzer interface {
	Name() string
	Analyze(ctx context.Context, imageBase64, mimeType, prompt string) (string, error)
}
