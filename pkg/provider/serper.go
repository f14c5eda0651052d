package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const serperURL = "https://google.serper.dev/search"

// Serper is a client for the Serper.dev Google search API.
type Serper struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewSerper creates a Serper search client.
func NewSerper(apiKey string) *Serper {
	return &Serper{
		apiKey:  apiKey,
		baseURL: serperURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type serperRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num"`
}

type serperOrganic struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type serperResponse struct {
	Organic []serperOrganic `json:"organic"`
}

func (s *Serper) Name() string { return "google" }

// Search queries Serper for the top organic results.
func (s *Serper) Search(ctx context.Context, query string) ([]Item, error) {
	body, err := json.Marshal(serperRequest{Query: query, Num: 10})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("serper api error: %d %s", resp.StatusCode, string(b))
	}

	var sr serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	items := make([]Item, 0, len(sr.Organic))
	for _, o := range sr.Organic {
		items = append(items, Item{
			Title:   o.Title,
			Link:    o.Link,
			Snippet: o.Snippet,
		})
	}
	return items, nil
}
