package discovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/scholarscout/discovery-cli/internal/model"
	"github.com/scholarscout/discovery-cli/pkg/searxng"
)

func matchQuery(q string) any {
	return mock.MatchedBy(func(req searxng.SearchRequest) bool {
		return req.Query == q
	})
}

func TestSearcherRunCollectsInQueryOrder(t *testing.T) {
	client := new(mockSearchClient)
	client.On("Search", mock.Anything, matchQuery("q1")).Return([]model.SearchHit{
		{URL: "https://a.edu/1", Title: "Program A"},
		{URL: "https://b.org/2", Title: "Program B"},
	}, nil)
	client.On("Search", mock.Anything, matchQuery("q2")).Return([]model.SearchHit{
		{URL: "https://b.org/2", Title: "Duplicate"},
		{URL: "https://c.org/3"},
	}, nil)

	searcher := NewSearcher(client, nil, 0, 10)
	emit := &captureEmitter{}

	urls := searcher.Run(context.Background(), []string{"q1", "q2"}, emit)

	assert.Equal(t, []string{"https://a.edu/1", "https://b.org/2", "https://c.org/3"}, urls)

	searches := emit.ofType(EventSearch)
	require.Len(t, searches, 2)
	assert.Equal(t, "q1", searches[0].Query)

	found := emit.ofType(EventFound)
	require.Len(t, found, 3)
	assert.Equal(t, "Program A", found[0].Source)
	// Hits without a title fall back to a generic source label.
	assert.Equal(t, "Web Result", found[2].Source)
	client.AssertExpectations(t)
}

func TestSearcherRunAppliesDenylist(t *testing.T) {
	client := new(mockSearchClient)
	client.On("Search", mock.Anything, mock.Anything).Return([]model.SearchHit{
		{URL: "https://reddit.com/r/internships", Title: "Reddit"},
		{URL: "https://example.edu/program", Title: "Program"},
		{URL: "https://www.youtube.com/watch?v=1", Title: "Video"},
	}, nil)

	searcher := NewSearcher(client, nil, 0, 10)
	emit := &captureEmitter{}

	urls := searcher.Run(context.Background(), []string{"q"}, emit)

	assert.Equal(t, []string{"https://example.edu/program"}, urls)
	assert.Len(t, emit.ofType(EventFound), 1)
}

func TestSearcherRunDegradesOnSearchError(t *testing.T) {
	client := new(mockSearchClient)
	client.On("Search", mock.Anything, matchQuery("bad")).Return(nil, assert.AnError)
	client.On("Search", mock.Anything, matchQuery("good")).Return([]model.SearchHit{
		{URL: "https://example.edu/p", Title: "P"},
	}, nil)

	searcher := NewSearcher(client, nil, 0, 10)
	emit := &captureEmitter{}

	urls := searcher.Run(context.Background(), []string{"bad", "good"}, emit)

	assert.Equal(t, []string{"https://example.edu/p"}, urls)
	// Both queries still announce themselves.
	assert.Len(t, emit.ofType(EventSearch), 2)
}
