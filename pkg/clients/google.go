// Package clients constructs the Google AI model clients used for
// synthesis and structured generation.
package clients

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/googleai"
)

// ModelType is an enum for the available Google AI models.
type ModelType string

const (
	// SynthModel writes the streamed prose summaries.
	SynthModel ModelType = "gemini-2.0-flash"
	// StructuredModel produces schema-constrained item lists; the lite
	// tier is enough for field extraction.
	StructuredModel ModelType = "gemini-2.0-flash-lite"
)

// GoogleAI creates a langchaingo client bound to the given model.
func GoogleAI(ctx context.Context, apiKey string, model ModelType) (*googleai.GoogleAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google api key is required")
	}

	// See https://ai.google.dev/gemini-api/docs/models/gemini for possible models
	llm, err := googleai.New(ctx, googleai.WithAPIKey(apiKey), googleai.WithDefaultModel(string(model)))
	if err != nil {
		return nil, fmt.Errorf("failed to create google ai client: %w", err)
	}
	return llm, nil
}
