package model

// SearchHit is a single ranked result from the search backend. Hits are
// ephemeral: they only live long enough to survive dedup and denylisting.
type SearchHit struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Engine  string  `json:"engine"`
	Score   float64 `json:"score"`
}

// CrawlOutcome is the per-URL result of the crawl stage. A failed crawl is
// data, not an error: downstream stages report it without halting the batch.
type CrawlOutcome struct {
	URL      string `json:"url"`
	Success  bool   `json:"success"`
	Markdown string `json:"markdown,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ExtractionOutcome is the result of running the extraction agent over one
// crawled page. Confidence is nil when the agent did not report one; the
// acceptance filter treats that as 0.0.
type ExtractionOutcome struct {
	Success    bool               `json:"success"`
	Confidence *float64           `json:"confidence,omitempty"`
	Record     *OpportunityRecord `json:"record,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// ConfidenceOrZero returns the reported confidence, or 0.0 when absent.
func (o *ExtractionOutcome) ConfidenceOrZero() float64 {
	if o.Confidence == nil {
		return 0.0
	}
	return *o.Confidence
}
