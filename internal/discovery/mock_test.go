package discovery

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/scholarscout/discovery-cli/internal/model"
	"github.com/scholarscout/discovery-cli/pkg/searxng"
)

// captureEmitter records emitted events for assertions.
type captureEmitter struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureEmitter) Emit(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *captureEmitter) all() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func (c *captureEmitter) ofType(t string) []Event {
	var out []Event
	for _, ev := range c.all() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type mockSearchClient struct {
	mock.Mock
}

var _ searxng.Client = (*mockSearchClient)(nil)

func (m *mockSearchClient) Search(ctx context.Context, req searxng.SearchRequest) ([]model.SearchHit, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SearchHit), args.Error(1)
}

func (m *mockSearchClient) SearchOpportunities(ctx context.Context, focusArea string, opportunityTypes []string, maxResults int) ([]model.SearchHit, error) {
	args := m.Called(ctx, focusArea, opportunityTypes, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SearchHit), args.Error(1)
}

type mockCrawler struct {
	mock.Mock
}

func (m *mockCrawler) Crawl(ctx context.Context, url string) model.CrawlOutcome {
	args := m.Called(ctx, url)
	return args.Get(0).(model.CrawlOutcome)
}

func (m *mockCrawler) CrawlBatch(ctx context.Context, urls []string, maxConcurrent int) []model.CrawlOutcome {
	args := m.Called(ctx, urls, maxConcurrent)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]model.CrawlOutcome)
}

type mockAgent struct {
	mock.Mock
}

func (m *mockAgent) Extract(ctx context.Context, markdown, sourceURL string) *model.ExtractionOutcome {
	args := m.Called(ctx, markdown, sourceURL)
	return args.Get(0).(*model.ExtractionOutcome)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) UpsertOpportunity(ctx context.Context, rec *model.OpportunityRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

type mockIndexer struct {
	mock.Mock
}

func (m *mockIndexer) Index(ctx context.Context, rec *model.OpportunityRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

type mockSeenCache struct {
	mock.Mock
}

func (m *mockSeenCache) Seen(ctx context.Context, url string) bool {
	args := m.Called(ctx, url)
	return args.Bool(0)
}

func (m *mockSeenCache) Mark(ctx context.Context, url string) {
	m.Called(ctx, url)
}
