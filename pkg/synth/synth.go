// Package synth turns aggregated search results into answers: streamed
// prose for conversational categories and ranked item lists for catalog
// categories.
package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"google.golang.org/genai"

	"github.com/modootree/searchstream/pkg/aggregate"
	"github.com/modootree/searchstream/pkg/classify"
	"github.com/modootree/searchstream/pkg/enrich"
)

const (
	summaryTemperature = 0.3
	summaryMaxTokens   = 600
)

// StructuredItem is one entry of a catalog answer. Fields not requested
// by the category schema stay empty.
type StructuredItem struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
	Address string `json:"address,omitempty"`
	Rating  string `json:"rating,omitempty"`
	Price   string `json:"price,omitempty"`
	Link    string `json:"link,omitempty"`
}

// StructuredGenerator produces schema-constrained JSON.
type StructuredGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

// Synthesizer drives both answer modes.
type Synthesizer struct {
	LLM        llms.Model
	Structured StructuredGenerator
	Logger     *slog.Logger
}

// New creates a Synthesizer. structured may be nil, in which case
// catalog categories fall back to deterministic items.
func New(llm llms.Model, structured StructuredGenerator, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{LLM: llm, Structured: structured, Logger: logger}
}

const summarySystemPrompt = `당신은 검색 결과를 요약하는 도우미입니다.
주어진 검색 결과와 본문 발췌를 근거로 사용자의 질문에 한국어로 답하세요.
5~7문장으로 자연스럽게 요약하고, 검색 결과에 없는 내용은 지어내지 마세요.`

// StreamSummary generates the free-form prose answer, invoking onChunk
// for each streamed fragment. The full answer text is returned once
// generation completes.
func (s *Synthesizer) StreamSummary(ctx context.Context, q classify.Query, cands []aggregate.Candidate, pages []enrich.Page, onChunk func(string)) (string, error) {
	input := fmt.Sprintf("질문: %s\n\n%s", q.Normalized, buildContext(cands, pages))

	var acc strings.Builder
	opts := []llms.CallOption{
		llms.WithTemperature(summaryTemperature),
		llms.WithMaxTokens(summaryMaxTokens),
	}
	if onChunk != nil {
		opts = append(opts, llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			acc.Write(chunk)
			onChunk(string(chunk))
			return ctx.Err()
		}))
	}

	resp, err := s.LLM.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, summarySystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, input),
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("summary generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		if acc.Len() > 0 {
			return acc.String(), nil
		}
		return "", fmt.Errorf("summary generation returned no choices")
	}

	content := resp.Choices[0].Content
	if content == "" {
		content = acc.String()
	}
	if content == "" {
		return "", fmt.Errorf("summary generation returned empty content")
	}
	return content, nil
}

// StructuredItems generates the ranked item list for a catalog
// category. Parsed items are topped up from candidates when the model
// returns fewer than the schema asks for.
func (s *Synthesizer) StructuredItems(ctx context.Context, q classify.Query, schema classify.CategorySchema, cands []aggregate.Candidate, pages []enrich.Page) ([]StructuredItem, error) {
	if s.Structured == nil {
		return nil, fmt.Errorf("structured generator not configured")
	}

	prompt := fmt.Sprintf(
		"질문: %s\n\n아래 검색 결과에서 가장 좋은 항목 %d개를 골라 %s 기준으로 정렬해 정리하세요.\n각 항목에 %s 필드를 채우고, 검색 결과에 없는 정보는 빈 값으로 두세요.\n\n%s",
		q.Normalized, schema.Count,
		strings.Join(schema.Ranking, ", "),
		strings.Join(schema.Fields, ", "),
		buildContext(cands, pages),
	)

	maxRetries := 2
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			s.Logger.Warn("Retrying structured generation", "attempt", i+1, "last_error", lastErr)
			select {
			case <-time.After(time.Second * time.Duration(i)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		raw, err := s.Structured.GenerateJSON(ctx, prompt, genaiSchema(schema))
		if err != nil {
			lastErr = err
			continue
		}

		items, err := parseItems(raw)
		if err != nil {
			lastErr = err
			continue
		}

		return topUp(items, cands, schema.Count), nil
	}
	return nil, fmt.Errorf("structured generation failed after %d attempts: %w", maxRetries, lastErr)
}

// genaiSchema builds the response schema from the category's field
// list. Every field is a string; numbers like ratings arrive formatted.
func genaiSchema(cs classify.CategorySchema) *genai.Schema {
	props := make(map[string]*genai.Schema, len(cs.Fields))
	for _, f := range cs.Fields {
		props[f] = &genai.Schema{Type: genai.TypeString}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"items": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: props,
					Required:   []string{"name", "summary"},
				},
			},
		},
		Required: []string{"items"},
	}
}

func parseItems(raw string) ([]StructuredItem, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	var parsed struct {
		Items []StructuredItem `json:"items"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse items: %w", err)
	}

	var items []StructuredItem
	for _, it := range parsed.Items {
		if strings.TrimSpace(it.Name) == "" {
			continue
		}
		items = append(items, it)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no usable items in response")
	}
	return items, nil
}

// topUp appends deterministic candidate items until count is reached,
// skipping names the model already produced.
func topUp(items []StructuredItem, cands []aggregate.Candidate, count int) []StructuredItem {
	if len(items) >= count {
		return items[:count]
	}

	seen := make(map[string]bool, len(items))
	for _, it := range items {
		seen[strings.ToLower(it.Name)] = true
	}
	for _, fb := range FallbackItems(cands, count) {
		if len(items) >= count {
			break
		}
		if seen[strings.ToLower(fb.Name)] {
			continue
		}
		seen[strings.ToLower(fb.Name)] = true
		items = append(items, fb)
	}
	return items
}

// FallbackItems builds items straight from candidates, used when
// structured generation is unavailable or fails outright.
func FallbackItems(cands []aggregate.Candidate, count int) []StructuredItem {
	var items []StructuredItem
	for _, c := range cands {
		if len(items) >= count {
			break
		}
		items = append(items, StructuredItem{
			Name:    c.Title,
			Summary: c.Snippet,
			Address: c.Extra["address"],
			Link:    c.Link,
		})
	}
	return items
}

// FallbackSummary builds a plain listing of the top candidates, used
// when prose generation fails but results exist.
func FallbackSummary(cands []aggregate.Candidate) string {
	var sb strings.Builder
	sb.WriteString("검색 결과를 요약하지 못해 주요 결과를 그대로 전달합니다.\n")
	n := len(cands)
	if n > 5 {
		n = 5
	}
	for _, c := range cands[:n] {
		sb.WriteString("- ")
		sb.WriteString(c.Title)
		if c.Snippet != "" {
			sb.WriteString(": ")
			sb.WriteString(c.Snippet)
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

// buildContext renders candidates and page excerpts into the prompt
// context block shared by both answer modes.
func buildContext(cands []aggregate.Candidate, pages []enrich.Page) string {
	var sb strings.Builder
	sb.WriteString("## 검색 결과\n")
	for i, c := range cands {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, c.Source, c.Title)
		if c.Snippet != "" {
			fmt.Fprintf(&sb, "   %s\n", c.Snippet)
		}
		if addr := c.Extra["address"]; addr != "" {
			fmt.Fprintf(&sb, "   주소: %s\n", addr)
		}
		if c.Link != "" {
			fmt.Fprintf(&sb, "   %s\n", c.Link)
		}
	}

	ok := enrich.Succeeded(pages)
	if len(ok) > 0 {
		sb.WriteString("\n## 본문 발췌\n")
		for _, p := range ok {
			fmt.Fprintf(&sb, "### %s\n%s\n\n", p.URL, p.Content)
		}
	}
	return sb.String()
}
