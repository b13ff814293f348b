package discovery

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/scholarscout/discovery-cli/internal/model"
	"github.com/scholarscout/discovery-cli/pkg/searxng"
)

// Searcher fans queries out to the search service and collects candidate
// URLs, filtered through the denylist and deduplicated.
type Searcher struct {
	client             searxng.Client
	denylist           *Denylist
	limiter            *rate.Limiter
	maxResultsPerQuery int
}

// NewSearcher creates a Searcher. A nil denylist falls back to the built-in
// patterns; ratePerSec <= 0 disables rate limiting.
func NewSearcher(client searxng.Client, denylist *Denylist, ratePerSec float64, maxResultsPerQuery int) *Searcher {
	if denylist == nil {
		denylist = NewDenylist()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if ratePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSec), 1)
	}
	if maxResultsPerQuery <= 0 {
		maxResultsPerQuery = 10
	}
	return &Searcher{
		client:             client,
		denylist:           denylist,
		limiter:            limiter,
		maxResultsPerQuery: maxResultsPerQuery,
	}
}

// Run executes all queries in parallel and returns the deduplicated,
// denylist-filtered candidate URLs in query order. One search event is
// emitted per query and one found event per surviving URL. Individual
// search failures degrade to zero results for that query.
func (s *Searcher) Run(ctx context.Context, queries []string, emit Emitter) []string {
	perQuery := make([][]model.SearchHit, len(queries))

	g, gCtx := errgroup.WithContext(ctx)
	for i, q := range queries {
		emit.Emit(Event{Type: EventSearch, Query: q})
		g.Go(func() error {
			if err := s.limiter.Wait(gCtx); err != nil {
				return nil
			}
			hits, err := s.client.Search(gCtx, searxng.SearchRequest{
				Query:      q,
				MaxResults: s.maxResultsPerQuery,
			})
			if err != nil {
				zap.L().Warn("discovery: search failed", zap.String("query", q), zap.Error(err))
				return nil
			}
			perQuery[i] = hits
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]bool)
	var urls []string
	for _, hits := range perQuery {
		for _, hit := range hits {
			if s.denylist.Blocked(hit.URL) || seen[hit.URL] {
				continue
			}
			seen[hit.URL] = true
			urls = append(urls, hit.URL)

			source := hit.Title
			if source == "" {
				source = "Web Result"
			}
			emit.Emit(Event{Type: EventFound, URL: hit.URL, Source: source})
		}
	}
	return urls
}
