package crawler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrawlSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/crawl", r.URL.Path)

		var req crawlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "https://example.org/program", req.URL)

		json.NewEncoder(w).Encode(crawlResponse{
			Success:    true,
			Markdown:   "# Summer Research Program\n\nApply by March.",
			StatusCode: 200,
		})
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	outcome := client.Crawl(context.Background(), "https://example.org/program")

	assert.True(t, outcome.Success)
	assert.Equal(t, "https://example.org/program", outcome.URL)
	assert.Contains(t, outcome.Markdown, "Summer Research Program")
	assert.Empty(t, outcome.Error)
}

func TestCrawlServiceFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(crawlResponse{
			Success:      false,
			StatusCode:   403,
			ErrorMessage: "blocked by robots.txt",
		})
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	outcome := client.Crawl(context.Background(), "https://example.org/blocked")

	assert.False(t, outcome.Success)
	assert.Equal(t, "blocked by robots.txt", outcome.Error)
	assert.Empty(t, outcome.Markdown)
}

func TestCrawlHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	outcome := client.Crawl(context.Background(), "https://example.org/page")

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "HTTP 500")
}

func TestCrawlConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(WithBaseURL(server.URL))
	outcome := client.Crawl(context.Background(), "https://example.org/page")

	assert.False(t, outcome.Success)
	assert.NotEmpty(t, outcome.Error)
}

func TestCrawlBatchPreservesOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req crawlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.URL == "https://example.org/b" {
			json.NewEncoder(w).Encode(crawlResponse{
				Success:      false,
				ErrorMessage: "timeout",
			})
			return
		}
		json.NewEncoder(w).Encode(crawlResponse{
			Success:  true,
			Markdown: "content for " + req.URL,
		})
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	urls := []string{"https://example.org/a", "https://example.org/b", "https://example.org/c"}
	outcomes := client.CrawlBatch(context.Background(), urls, 2)

	require.Len(t, outcomes, 3)
	for i, u := range urls {
		assert.Equal(t, u, outcomes[i].URL)
	}
	assert.True(t, outcomes[0].Success)
	assert.False(t, outcomes[1].Success)
	assert.Equal(t, "timeout", outcomes[1].Error)
	assert.True(t, outcomes[2].Success)
}

func TestCrawlBatchRespectsConcurrencyLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	var mu sync.Mutex

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		mu.Lock()
		if n > peak.Load() {
			peak.Store(n)
		}
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)

		json.NewEncoder(w).Encode(crawlResponse{Success: true, Markdown: "ok"})
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	urls := make([]string, 8)
	for i := range urls {
		urls[i] = "https://example.org/page"
	}

	outcomes := client.CrawlBatch(context.Background(), urls, 3)

	require.Len(t, outcomes, 8)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}
