package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const naverLocalURL = "https://openapi.naver.com/v1/search/local.json"

// Naver is a client for the Naver local search API.
type Naver struct {
	clientID     string
	clientSecret string
	baseURL      string
	client       *http.Client
}

// NewNaver creates a Naver local search client.
func NewNaver(clientID, clientSecret string) *Naver {
	return &Naver{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      naverLocalURL,
		client:       &http.Client{Timeout: 30 * time.Second},
	}
}

type naverItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	Address     string `json:"address"`
	RoadAddress string `json:"roadAddress"`
	Telephone   string `json:"telephone"`
	Category    string `json:"category"`
}

type naverResponse struct {
	Total int         `json:"total"`
	Items []naverItem `json:"items"`
}

func (n *Naver) Name() string { return "naver" }

// Search queries the Naver local endpoint. Titles and descriptions come
// back with embedded <b> markup; stripping is left to aggregation.
func (n *Naver) Search(ctx context.Context, query string) ([]Item, error) {
	u := fmt.Sprintf("%s?query=%s&display=10", n.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Naver-Client-Id", n.clientID)
	req.Header.Set("X-Naver-Client-Secret", n.clientSecret)

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("naver api error: %d %s", resp.StatusCode, string(body))
	}

	var nr naverResponse
	if err := json.NewDecoder(resp.Body).Decode(&nr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	items := make([]Item, 0, len(nr.Items))
	for _, it := range nr.Items {
		address := it.RoadAddress
		if address == "" {
			address = it.Address
		}
		items = append(items, Item{
			Title:   it.Title,
			Link:    it.Link,
			Snippet: it.Description,
			Extra: map[string]string{
				"address":   address,
				"telephone": it.Telephone,
				"category":  it.Category,
			},
		})
	}
	return items, nil
}
