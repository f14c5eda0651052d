package enrich

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// contentSelectors are tried in order; the first that matches anything
// on the page wins.
var contentSelectors = []string{
	"article", "[role='main']", "main",
	".post-content", ".article-content", ".entry-content", ".content",
}

// PageExtractor fetches static HTML and pulls out readable body text.
type PageExtractor struct {
	client *http.Client
}

// NewPageExtractor creates an extractor with its own HTTP client. The
// per-request deadline comes from the caller's context.
func NewPageExtractor() *PageExtractor {
	return &PageExtractor{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Extract downloads the page and returns its main text content.
func (p *PageExtractor) Extract(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en;q=0.8")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status code error: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}

	doc.Find("script, style, nav, footer, header, aside, .sidebar, .advertisement, .ads").Remove()

	var sb strings.Builder
	for _, selector := range contentSelectors {
		selection := doc.Find(selector)
		if selection.Length() == 0 {
			continue
		}
		selection.Find("p, h1, h2, h3, li").Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) > 20 {
				sb.WriteString(text)
				sb.WriteString("\n\n")
			}
		})
		break
	}

	// Fallback: all paragraphs
	if sb.Len() == 0 {
		doc.Find("body p").Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) > 30 {
				sb.WriteString(text)
				sb.WriteString("\n\n")
			}
		})
	}

	return strings.TrimSpace(sb.String()), nil
}
