// Package enrich fetches the pages behind search result links and
// extracts readable text to ground the synthesis step.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultTimeout     = 7 * time.Second
	defaultConcurrency = 5

	// At most maxLinks pages are fetched per batch regardless of how
	// many links the caller passes in.
	maxLinks = 10

	// Pages shorter than minContent are treated as failed extractions
	// (paywalls, bot walls, empty shells). Longer pages are truncated
	// to maxContent runes to bound prompt size.
	minContent = 50
	maxContent = 1500
)

// Page is the extraction outcome for one link.
type Page struct {
	URL     string
	Content string
	Err     error
}

// Extractor turns a URL into readable page text.
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Enricher fetches a batch of links with a bounded worker pool.
type Enricher struct {
	extractor   Extractor
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger
}

// New creates an Enricher. A nil extractor disables enrichment; Fetch
// then returns no pages.
func New(extractor Extractor, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		extractor:   extractor,
		timeout:     defaultTimeout,
		concurrency: defaultConcurrency,
		logger:      logger,
	}
}

// Fetch extracts all links concurrently and returns one Page per link,
// index-aligned with the input. Individual failures are recorded on the
// Page rather than aborting the batch.
func (e *Enricher) Fetch(ctx context.Context, links []string) []Page {
	if e.extractor == nil || len(links) == 0 {
		return nil
	}
	if len(links) > maxLinks {
		links = links[:maxLinks]
	}

	pages := make([]Page, len(links))

	g := new(errgroup.Group)
	g.SetLimit(e.concurrency)

	for i, link := range links {
		g.Go(func() error {
			pages[i] = e.fetchOne(ctx, link)
			return nil
		})
	}
	g.Wait()

	return pages
}

func (e *Enricher) fetchOne(ctx context.Context, link string) Page {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	content, err := e.extractor.Extract(ctx, link)
	if err != nil {
		e.logger.Debug("page extraction failed", "url", link, "error", err)
		return Page{URL: link, Err: err}
	}

	runes := []rune(content)
	if len(runes) < minContent {
		return Page{URL: link, Err: fmt.Errorf("content too short: %d chars", len(runes))}
	}
	if len(runes) > maxContent {
		content = string(runes[:maxContent])
	}
	return Page{URL: link, Content: content}
}

// Succeeded filters pages down to successful extractions.
func Succeeded(pages []Page) []Page {
	var out []Page
	for _, p := range pages {
		if p.Err == nil && p.Content != "" {
			out = append(out, p)
		}
	}
	return out
}
