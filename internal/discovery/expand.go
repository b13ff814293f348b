// Package discovery runs the on-demand opportunity discovery pipeline:
// query expansion, web search, crawling, LLM extraction, acceptance
// filtering, and persistence, with progress streamed as JSON events.
package discovery

import (
	"fmt"
	"time"
)

// queryTemplates are the expansion patterns applied to a raw user query.
// %[1]s is the query, %[2]d is the current year.
var queryTemplates = []string{
	"high school %[1]s summer program %[2]d",
	"%[1]s internship for high school students",
	"%[1]s research opportunities for high schoolers",
	"%[1]s competitions high school %[2]d",
	"%[1]s volunteer work for teens",
}

// ExpandQuery turns a raw user query into the set of search queries, in a
// fixed order. The current year is baked into the time-sensitive templates.
func ExpandQuery(query string, now time.Time) []string {
	year := now.Year()
	out := make([]string, 0, len(queryTemplates))
	for _, tmpl := range queryTemplates {
		out = append(out, fmt.Sprintf(tmpl, query, year))
	}
	return out
}
