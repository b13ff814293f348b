package discovery

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/scholarscout/discovery-cli/internal/config"
	"github.com/scholarscout/discovery-cli/internal/extract"
	"github.com/scholarscout/discovery-cli/internal/model"
	"github.com/scholarscout/discovery-cli/pkg/crawler"
)

// Store is the persistence surface the pipeline needs.
type Store interface {
	UpsertOpportunity(ctx context.Context, rec *model.OpportunityRecord) error
}

// Indexer adds accepted records to a vector index. Indexing is best-effort:
// failures are logged, never surfaced.
type Indexer interface {
	Index(ctx context.Context, rec *model.OpportunityRecord) error
}

// SeenCache remembers URLs that have already been processed so repeat runs
// skip them. Lookups are best-effort.
type SeenCache interface {
	Seen(ctx context.Context, url string) bool
	Mark(ctx context.Context, url string)
}

// Pipeline runs one discovery pass for a user query.
type Pipeline struct {
	searcher *Searcher
	crawler  crawler.Client
	agent    extract.Agent
	store    Store
	indexer  Indexer
	seen     SeenCache
	cfg      config.DiscoveryConfig
	emit     Emitter
	now      func() time.Time
}

// PipelineOption configures optional pipeline collaborators.
type PipelineOption func(*Pipeline)

// WithIndexer enables best-effort vector indexing of accepted records.
func WithIndexer(ix Indexer) PipelineOption {
	return func(p *Pipeline) { p.indexer = ix }
}

// WithSeenCache enables skipping of URLs processed in earlier runs.
func WithSeenCache(sc SeenCache) PipelineOption {
	return func(p *Pipeline) { p.seen = sc }
}

// NewPipeline wires a discovery pipeline from its collaborators.
func NewPipeline(searcher *Searcher, crawl crawler.Client, agent extract.Agent, st Store, cfg config.DiscoveryConfig, emit Emitter, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		searcher: searcher,
		crawler:  crawl,
		agent:    agent,
		store:    st,
		cfg:      cfg,
		emit:     emit,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// urlResult is the per-URL outcome of the crawl+extract+persist stage.
type urlResult struct {
	url    string
	card   *model.Card
	reason string // reject or failure reason; empty on success
}

// Run executes the full discovery pass: expand, search, crawl, extract,
// filter, persist. Progress is streamed through the emitter; the terminal
// event is either a complete event with the accepted count or an error event
// when the run cannot start at all.
func (p *Pipeline) Run(ctx context.Context, query string, expand bool) {
	p.emit.Emit(Event{Type: EventPlan, Message: fmt.Sprintf("Analyzing request: '%s'", query)})

	if p.store == nil {
		p.emit.Emit(Event{Type: EventError, Message: "database not configured"})
		return
	}

	p.emit.Emit(Event{Type: EventPlan, Message: "Generating targeted high school search strategies..."})

	queries := []string{query}
	if expand {
		queries = ExpandQuery(query, p.now())
	}

	urls := p.searcher.Run(ctx, queries, p.emit)

	if p.seen != nil {
		urls = p.filterSeen(ctx, urls)
	}

	toProcess := urls
	if p.cfg.MaxURLs > 0 && len(toProcess) > p.cfg.MaxURLs {
		toProcess = toProcess[:p.cfg.MaxURLs]
	}

	p.emit.Emit(Event{Type: EventPlan, Message: fmt.Sprintf("Found %d sources. Analyzing %d in parallel...", len(urls), len(toProcess))})

	for _, u := range toProcess {
		p.emit.Emit(Event{Type: EventAnalyzing, URL: u})
	}

	crawled := p.crawler.CrawlBatch(ctx, toProcess, p.cfg.CrawlConcurrency)

	results := p.processAll(ctx, crawled)

	count := 0
	for _, r := range results {
		if r.card != nil {
			count++
			p.emit.Emit(Event{Type: EventExtracted, Card: r.card})
			continue
		}
		p.emit.Emit(Event{Type: EventError, Message: fmt.Sprintf("%s: %s", r.url, truncateError(r.reason))})
	}

	p.emit.Emit(Event{Type: EventComplete, Count: &count})
}

// processAll runs extraction and persistence for each crawl outcome, with a
// semaphore bounding concurrent LLM calls independently of the crawl limit.
func (p *Pipeline) processAll(ctx context.Context, crawled []model.CrawlOutcome) []urlResult {
	results := make([]urlResult, len(crawled))

	limit := int64(p.cfg.ExtractConcurrency)
	if limit <= 0 {
		limit = 1
	}
	sem := semaphore.NewWeighted(limit)

	g, gCtx := errgroup.WithContext(ctx)
	for i, co := range crawled {
		g.Go(func() error {
			results[i] = p.processOne(gCtx, co, sem)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (p *Pipeline) processOne(ctx context.Context, co model.CrawlOutcome, sem *semaphore.Weighted) urlResult {
	res := urlResult{url: co.URL}

	if !co.Success {
		res.reason = fmt.Sprintf("Crawl failed: %s", co.Error)
		return res
	}

	minChars := p.cfg.MinContentChars
	if minChars <= 0 {
		minChars = 100
	}
	if len(co.Markdown) < minChars {
		res.reason = fmt.Sprintf("Content too short: %d chars", len(co.Markdown))
		return res
	}

	if err := sem.Acquire(ctx, 1); err != nil {
		res.reason = err.Error()
		return res
	}
	outcome := p.extractOne(ctx, co, sem)

	decision := Decide(outcome)
	if !decision.Accept {
		res.reason = decision.Reason
		return res
	}

	rec := decision.Record
	if err := p.store.UpsertOpportunity(ctx, rec); err != nil {
		res.reason = err.Error()
		return res
	}

	if p.indexer != nil {
		if err := p.indexer.Index(ctx, rec); err != nil {
			zap.L().Warn("discovery: vector indexing failed",
				zap.String("url", co.URL),
				zap.Error(err),
			)
		}
	}
	if p.seen != nil {
		p.seen.Mark(ctx, co.URL)
	}

	card := rec.Card()
	res.card = &card
	return res
}

// extractOne runs the agent while holding a semaphore slot. A panicking
// extraction is contained here: other URLs in the batch keep processing.
func (p *Pipeline) extractOne(ctx context.Context, co model.CrawlOutcome, sem *semaphore.Weighted) (outcome *model.ExtractionOutcome) {
	defer sem.Release(1)
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("discovery: extraction panicked",
				zap.String("url", co.URL),
				zap.Any("panic", r),
			)
			outcome = &model.ExtractionOutcome{Error: fmt.Sprintf("panic: %v", r)}
		}
	}()
	return p.agent.Extract(ctx, co.Markdown, co.URL)
}

func (p *Pipeline) filterSeen(ctx context.Context, urls []string) []string {
	out := urls[:0]
	for _, u := range urls {
		if p.seen.Seen(ctx, u) {
			zap.L().Debug("discovery: skipping previously processed url", zap.String("url", u))
			continue
		}
		out = append(out, u)
	}
	return out
}
