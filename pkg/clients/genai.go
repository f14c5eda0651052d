package clients

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Genai wraps the genai SDK client for schema-constrained JSON
// generation, which langchaingo does not expose.
type Genai struct {
	client *genai.Client
	model  string
}

// NewGenai creates a structured-generation client bound to model.
func NewGenai(ctx context.Context, apiKey string, model ModelType) (*Genai, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Genai{client: client, model: string(model)}, nil
}

// GenerateJSON runs prompt with a response schema and returns the raw
// JSON text of the first candidate.
func (g *Genai) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		{Parts: []*genai.Part{{Text: prompt}}},
	}, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return "", fmt.Errorf("structured generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("structured generation returned no candidates")
	}

	raw := ""
	for _, p := range resp.Candidates[0].Content.Parts {
		raw += p.Text
	}
	if raw == "" {
		return "", fmt.Errorf("structured generation returned empty content")
	}
	return raw, nil
}
