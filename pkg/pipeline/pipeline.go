// Package pipeline orchestrates one query through classification,
// provider fan-out, aggregation, page enrichment, and synthesis,
// exposing progress as an event stream.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/modootree/searchstream/pkg/aggregate"
	"github.com/modootree/searchstream/pkg/cache"
	"github.com/modootree/searchstream/pkg/classify"
	"github.com/modootree/searchstream/pkg/enrich"
	"github.com/modootree/searchstream/pkg/provider"
	"github.com/modootree/searchstream/pkg/synth"
)

var (
	// ErrNoProviders means no search provider has credentials configured.
	ErrNoProviders = errors.New("no search providers configured")
	// ErrAllProvidersFailed means every provider in the fan-out errored.
	ErrAllProvidersFailed = errors.New("all search providers failed")
	// ErrNoCandidates means the providers answered but aggregation
	// produced nothing usable.
	ErrNoCandidates = errors.New("no search results")
)

// User-facing Korean messages for the terminal error events.
const (
	msgNoProviders  = "검색 API 키가 설정되지 않았습니다."
	msgAllFailed    = "검색 서비스에 연결할 수 없습니다."
	msgNoCandidates = "검색 결과가 없습니다."
	msgInternal     = "일시적인 오류가 발생했습니다."
)

const (
	defaultProviderTimeout = 5 * time.Second
	defaultReplayDelay     = 20 * time.Millisecond
	maxScrapeLinks         = 10
	replayChunkRunes       = 20
)

// Orchestrator wires the pipeline stages together.
type Orchestrator struct {
	Registry *provider.Registry
	Cache    *cache.Cache
	Enricher *enrich.Enricher
	Synth    *synth.Synthesizer
	Logger   *slog.Logger

	ProviderTimeout time.Duration

	replayDelay time.Duration
}

// New creates an Orchestrator. Enricher may be nil to disable the
// scrape stage.
func New(reg *provider.Registry, c *cache.Cache, e *enrich.Enricher, s *synth.Synthesizer, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		Registry:        reg,
		Cache:           c,
		Enricher:        e,
		Synth:           s,
		Logger:          logger,
		ProviderTimeout: defaultProviderTimeout,
		replayDelay:     defaultReplayDelay,
	}
}

// providersFor maps a category to its provider priority order. Video
// and music go to YouTube first; everything else prefers local results.
func providersFor(c classify.Category) []string {
	switch c {
	case classify.CategoryVideo, classify.CategoryMusic:
		return []string{"youtube", "google"}
	default:
		return []string{"naver", "google"}
	}
}

// Run executes the pipeline for rawQuery. The returned iterator yields
// progress events; a non-nil error accompanies the terminal error
// event and ends the stream. Stopping the iteration early cancels any
// in-flight generation.
func (o *Orchestrator) Run(ctx context.Context, rawQuery string) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		start := time.Now()
		stopped := false

		defer func() {
			if r := recover(); r != nil {
				o.Logger.Error("pipeline panic", "query", rawQuery, "panic", r)
				if !stopped {
					yield(Event{Stage: StageError, Status: StatusFinished, Message: msgInternal, Error: msgInternal}, fmt.Errorf("pipeline panic: %v", r))
				}
			}
		}()

		fail := func(msg string, err error) {
			stopped = true
			yield(Event{Stage: StageError, Status: StatusFinished, Message: msg, Error: msg}, err)
		}
		emit := func(e Event) bool {
			if !yield(e, nil) {
				stopped = true
				return false
			}
			return true
		}

		key := classify.CacheKey(rawQuery)
		bypass := classify.HasBypass(rawQuery)

		// Cache stage. The lookup happens before any frame goes out so
		// that on a hit the very first event the client sees is the hit.
		if bypass {
			if !emit(Event{Stage: StageCache, Status: StatusSkipped}) {
				return
			}
		} else if entry, ok := o.Cache.Get(key); ok {
			o.Logger.Info("cache hit", "key", key)
			if !emit(Event{Stage: StageCache, Status: StatusHit, Category: classify.Category(entry.Category), FromCache: true}) {
				return
			}
			o.replay(ctx, entry, start, emit)
			return
		} else {
			if !emit(Event{Stage: StageCache, Status: StatusStarted}) {
				return
			}
			if !emit(Event{Stage: StageCache, Status: StatusFinished}) {
				return
			}
		}

		// Classify stage.
		if !emit(Event{Stage: StageClassify, Status: StatusStarted}) {
			return
		}
		q := classify.Classify(rawQuery)
		o.Logger.Info("query classified", "query", q.Normalized, "category", q.Category)
		if !emit(Event{Stage: StageClassify, Status: StatusFinished, Category: q.Category}) {
			return
		}

		// Search stage.
		if !emit(Event{Stage: StageSearch, Status: StatusStarted, Category: q.Category}) {
			return
		}
		var providers []provider.Provider
		for _, name := range providersFor(q.Category) {
			if p, ok := o.Registry.Get(name); ok {
				providers = append(providers, p)
			}
		}
		if len(providers) == 0 {
			fail(msgNoProviders, ErrNoProviders)
			return
		}

		results := o.fanOut(ctx, providers, q.Normalized)
		total, failed := 0, 0
		for _, r := range results {
			if r.Err != nil {
				failed++
				o.Logger.Warn("provider search failed", "source", r.Source, "error", r.Err)
				continue
			}
			total += len(r.Items)
		}
		if failed == len(results) {
			fail(msgAllFailed, ErrAllProvidersFailed)
			return
		}
		if !emit(Event{Stage: StageSearch, Status: StatusFinished, Count: total}) {
			return
		}

		// Filter stage.
		if !emit(Event{Stage: StageFilter, Status: StatusStarted}) {
			return
		}
		cands := aggregate.Merge(results)
		if len(cands) == 0 {
			fail(msgNoCandidates, ErrNoCandidates)
			return
		}
		if !emit(Event{Stage: StageFilter, Status: StatusFinished, Count: len(cands)}) {
			return
		}

		// Scrape stage.
		var pages []enrich.Page
		if o.Enricher == nil {
			if !emit(Event{Stage: StageScrape, Status: StatusSkipped}) {
				return
			}
		} else {
			if !emit(Event{Stage: StageScrape, Status: StatusStarted}) {
				return
			}
			pages = o.Enricher.Fetch(ctx, aggregate.Links(cands, maxScrapeLinks))
			if !emit(Event{Stage: StageScrape, Status: StatusFinished, Count: len(enrich.Succeeded(pages))}) {
				return
			}
		}

		// Synthesis stage.
		if !emit(Event{Stage: StageSynthesis, Status: StatusStarted}) {
			return
		}

		entry := cache.Entry{Category: string(q.Category), Sources: cands}
		if schema, structured := classify.SchemaFor(q.Category); structured {
			items, err := o.Synth.StructuredItems(ctx, q, schema, cands, pages)
			if err != nil {
				o.Logger.Warn("structured synthesis failed, using candidates", "error", err)
				items = synth.FallbackItems(cands, schema.Count)
			}
			for i := range items {
				if !emit(Event{Stage: StageSynthesis, Status: StatusStreaming, Item: &items[i]}) {
					return
				}
			}
			entry.Items = items
		} else {
			sctx, cancel := context.WithCancel(ctx)
			summary, err := o.Synth.StreamSummary(sctx, q, cands, pages, func(chunk string) {
				if stopped {
					return
				}
				if !emit(Event{Stage: StageSynthesis, Status: StatusStreaming, PartialAnswer: chunk}) {
					cancel()
				}
			})
			cancel()
			if stopped {
				return
			}
			if err != nil {
				o.Logger.Warn("summary synthesis failed, using snippets", "error", err)
				summary = synth.FallbackSummary(cands)
			}
			entry.Summary = summary
		}

		if !emit(Event{Stage: StageSynthesis, Status: StatusFinished}) {
			return
		}

		o.Cache.Set(key, entry)

		emit(Event{
			Stage:    StageComplete,
			Status:   StatusFinished,
			Category: q.Category,
			Summary:  entry.Summary,
			Items:    entry.Items,
			Sources:  cands,
			Elapsed:  time.Since(start).Seconds(),
		})
	}
}

// fanOut queries all providers concurrently with a per-call timeout.
// Results come back index-aligned so priority order survives.
func (o *Orchestrator) fanOut(ctx context.Context, providers []provider.Provider, query string) []provider.Result {
	results := make([]provider.Result, len(providers))

	var wg sync.WaitGroup
	for i, p := range providers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, o.ProviderTimeout)
			defer cancel()

			items, err := p.Search(pctx, query)
			results[i] = provider.Result{Source: p.Name(), Items: items, Err: err}
		}()
	}
	wg.Wait()

	return results
}

// replay streams a cached entry back with small delays so the client
// sees the same progressive rendering as a fresh synthesis.
func (o *Orchestrator) replay(ctx context.Context, entry cache.Entry, start time.Time, emit func(Event) bool) {
	if len(entry.Items) > 0 {
		for i := range entry.Items {
			if !o.pause(ctx) {
				return
			}
			if !emit(Event{Stage: StageSynthesis, Status: StatusStreaming, Item: &entry.Items[i], FromCache: true}) {
				return
			}
		}
	} else {
		for _, chunk := range chunkRunes(entry.Summary, replayChunkRunes) {
			if !o.pause(ctx) {
				return
			}
			if !emit(Event{Stage: StageSynthesis, Status: StatusStreaming, PartialAnswer: chunk, FromCache: true}) {
				return
			}
		}
	}

	emit(Event{
		Stage:     StageComplete,
		Status:    StatusFinished,
		Category:  classify.Category(entry.Category),
		Summary:   entry.Summary,
		Items:     entry.Items,
		Sources:   entry.Sources,
		Elapsed:   time.Since(start).Seconds(),
		FromCache: true,
	})
}

func (o *Orchestrator) pause(ctx context.Context) bool {
	select {
	case <-time.After(o.replayDelay):
		return true
	case <-ctx.Done():
		return false
	}
}

func chunkRunes(s string, size int) []string {
	runes := []rune(s)
	var out []string
	for len(runes) > 0 {
		n := size
		if n > len(runes) {
			n = len(runes)
		}
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	return out
}
