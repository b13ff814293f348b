// Package searxng provides a client for the SearXNG metasearch API.
package searxng

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/scholarscout/discovery-cli/internal/model"
)

const defaultBaseURL = "http://localhost:8080"

// DefaultEngines are the engines that return reliable results for
// opportunity searches without CAPTCHA interference.
var DefaultEngines = []string{"wikipedia", "ask", "mojeek", "yahoo"}

// DefaultExcludedEngines are engines with consistent CAPTCHA or
// rate-limit failures.
var DefaultExcludedEngines = []string{"duckduckgo", "brave", "startpage"}

// Client defines the SearXNG search operations.
type Client interface {
	// Search runs a single query. Transport errors and non-200 responses
	// degrade to an empty result list; they never surface as an error to
	// the caller.
	Search(ctx context.Context, req SearchRequest) ([]model.SearchHit, error)
	// SearchOpportunities fans a focus area out across opportunity types
	// and returns URL-deduplicated results.
	SearchOpportunities(ctx context.Context, focusArea string, opportunityTypes []string, maxResults int) ([]model.SearchHit, error)
}

// SearchRequest describes a single search.
type SearchRequest struct {
	Query           string
	Categories      []string
	Engines         []string
	ExcludedEngines []string // nil means apply DefaultExcludedEngines
	MaxResults      int
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default instance URL.
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

// NewClient creates a SearXNG client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
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

// searxngResponse mirrors the JSON payload of GET /search?format=json.
type searxngResponse struct {
	Results []struct {
		URL     string  `json:"url"`
		Title   string  `json:"title"`
		Content string  `json:"content"`
		Engine  string  `json:"engine"`
		Score   float64 `json:"score"`
	} `json:"results"`
	Infoboxes []struct {
		Infobox string `json:"infobox"`
		Content string `json:"content"`
		Engine  string `json:"engine"`
		URLs    []struct {
			URL   string `json:"url"`
			Title string `json:"title"`
		} `json:"urls"`
	} `json:"infoboxes"`
}

func (c *httpClient) Search(ctx context.Context, req SearchRequest) ([]model.SearchHit, error) {
	params := url.Values{}
	params.Set("q", req.Query)
	params.Set("format", "json")
	params.Set("pageno", "1")

	if len(req.Categories) > 0 {
		params.Set("categories", strings.Join(req.Categories, ","))
	}

	engines := req.Engines
	if len(engines) == 0 {
		engines = DefaultEngines
	}
	params.Set("engines", strings.Join(engines, ","))

	excluded := req.ExcludedEngines
	if excluded == nil {
		excluded = DefaultExcludedEngines
	}
	if len(excluded) > 0 {
		params.Set("disabled_engines", strings.Join(excluded, ","))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "searxng: create request")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		zap.L().Warn("searxng: connection error", zap.Error(err))
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		zap.L().Warn("searxng: unexpected status", zap.Int("status", resp.StatusCode))
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		zap.L().Warn("searxng: read response", zap.Error(err))
		return nil, nil
	}

	var payload searxngResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		zap.L().Warn("searxng: malformed payload", zap.Error(err))
		return nil, nil
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	var hits []model.SearchHit
	for i, r := range payload.Results {
		if i >= maxResults {
			break
		}
		engine := r.Engine
		if engine == "" {
			engine = "unknown"
		}
		hits = append(hits, model.SearchHit{
			URL:     r.URL,
			Title:   r.Title,
			Snippet: r.Content,
			Engine:  engine,
			Score:   r.Score,
		})
	}

	// Infoboxes (Wikipedia in particular) carry high-signal links of
	// their own; surface the first few from each.
	for _, box := range payload.Infoboxes {
		name := box.Infobox
		if name == "" {
			name = "Wikipedia"
		}
		engine := box.Engine
		if engine == "" {
			engine = "wikipedia"
		}
		for i, link := range box.URLs {
			if i >= 3 {
				break
			}
			title := link.Title
			if title == "" {
				title = "Link"
			}
			hits = append(hits, model.SearchHit{
				URL:     link.URL,
				Title:   name + ": " + title,
				Snippet: box.Content,
				Engine:  engine,
				Score:   0.9,
			})
		}
	}

	return hits, nil
}

func (c *httpClient) SearchOpportunities(ctx context.Context, focusArea string, opportunityTypes []string, maxResults int) ([]model.SearchHit, error) {
	types := opportunityTypes
	if len(types) == 0 {
		types = []string{"internship", "scholarship", "competition", "fellowship"}
	}
	if maxResults <= 0 {
		maxResults = 30
	}

	year := time.Now().Year() + 1
	perQuery := maxResults / len(types)
	if perQuery < 1 {
		perQuery = 1
	}

	var all []model.SearchHit
	seen := make(map[string]bool)

	for _, t := range types {
		query := fmt.Sprintf("%s %s for students %d", focusArea, t, year)
		hits, err := c.Search(ctx, SearchRequest{Query: query, MaxResults: perQuery})
		if err != nil {
			return nil, eris.Wrapf(err, "searxng: search opportunities %q", t)
		}
		for _, h := range hits {
			if seen[h.URL] {
				continue
			}
			seen[h.URL] = true
			all = append(all, h)
		}
	}

	return all, nil
}
