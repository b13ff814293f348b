// Package crawler provides a client for the page-rendering crawl service.
package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/scholarscout/discovery-cli/internal/model"
)

const defaultBaseURL = "http://localhost:11235"

// Client defines the crawl service operations.
type Client interface {
	// Crawl fetches one URL. The returned outcome is never nil: fetch
	// failures are carried in the outcome, not raised.
	Crawl(ctx context.Context, targetURL string) model.CrawlOutcome
	// CrawlBatch fetches all URLs with at most maxConcurrent in flight,
	// returning one outcome per input URL in input order.
	CrawlBatch(ctx context.Context, urls []string, maxConcurrent int) []model.CrawlOutcome
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default service URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a crawl service client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// crawlRequest is the body for POST /crawl.
type crawlRequest struct {
	URL string `json:"url"`
}

// crawlResponse is the response from POST /crawl.
type crawlResponse struct {
	Success      bool   `json:"success"`
	Markdown     string `json:"markdown"`
	StatusCode   int    `json:"status_code"`
	ErrorMessage string `json:"error_message"`
}

func (c *httpClient) Crawl(ctx context.Context, targetURL string) model.CrawlOutcome {
	outcome := model.CrawlOutcome{URL: targetURL}

	resp, err := c.crawlOnce(ctx, targetURL)
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	if !resp.Success {
		reason := resp.ErrorMessage
		if reason == "" {
			reason = fmt.Sprintf("crawl returned status %d", resp.StatusCode)
		}
		outcome.Error = reason
		return outcome
	}

	outcome.Success = true
	outcome.Markdown = resp.Markdown
	return outcome
}

func (c *httpClient) CrawlBatch(ctx context.Context, urls []string, maxConcurrent int) []model.CrawlOutcome {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	outcomes := make([]model.CrawlOutcome, len(urls))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for i, u := range urls {
		g.Go(func() error {
			outcomes[i] = c.Crawl(gCtx, u)
			return nil
		})
	}

	_ = g.Wait()
	return outcomes
}

func (c *httpClient) crawlOnce(ctx context.Context, targetURL string) (*crawlResponse, error) {
	buf, err := json.Marshal(crawlRequest{URL: targetURL})
	if err != nil {
		return nil, eris.Wrap(err, "crawler: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/crawl", bytes.NewReader(buf))
	if err != nil {
		return nil, eris.Wrap(err, "crawler: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "crawler: execute request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "crawler: read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, eris.Errorf("crawler: HTTP %d: %s", resp.StatusCode, string(body))
	}

	var out crawlResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "crawler: decode response")
	}

	return &out, nil
}
