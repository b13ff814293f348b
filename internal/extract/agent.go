// Package extract turns crawled page markdown into structured opportunity
// records using an LLM.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/scholarscout/discovery-cli/internal/config"
	"github.com/scholarscout/discovery-cli/internal/model"
	"github.com/scholarscout/discovery-cli/pkg/anthropic"
)

// maxContentChars caps how much page markdown is included in a prompt.
const maxContentChars = 12000

const systemText = `You are an analyst extracting structured data about student opportunities (internships, competitions, scholarships, summer programs, research positions, volunteer work, fellowships) from web pages. Return only a valid JSON object matching the requested schema. Use null for fields not found on the page.`

const extractionPrompt = `Extract the opportunity described on this page.

Page URL: %s
Page content:
%s

Today's date: %s

Return a valid JSON object:
{
  "title": "<official name of the opportunity>",
  "organization": "<hosting organization>",
  "opportunity_type": "<one of: internship, competition, scholarship, program, research, volunteer, fellowship, other>",
  "location": "<city/state, 'Remote', or 'Various'>",
  "description": "<2-3 sentence summary>",
  "deadline": "<application deadline as YYYY-MM-DD, or null>",
  "grade_levels": ["<eligible grades, e.g. 9, 10, 11, 12>"],
  "cost": "<cost to participate, 'Free', or null>",
  "is_expired": <true if the deadline or end date is in the past>,
  "timing_type": "<one of: one_time, annual, recurring, seasonal>",
  "confidence": <0.0-1.0, how confident you are this page describes a single concrete opportunity>
}

If the page does not describe a student opportunity, return {"title": "Unknown Opportunity", "confidence": 0.0}.`

// Agent extracts opportunity records from page content.
type Agent interface {
	Extract(ctx context.Context, markdown, sourceURL string) *model.ExtractionOutcome
}

type llmAgent struct {
	client anthropic.Client
	cfg    config.AnthropicConfig
	now    func() time.Time
}

// NewAgent creates an extraction agent over the given Anthropic client.
func NewAgent(client anthropic.Client, cfg config.AnthropicConfig) Agent {
	return &llmAgent{client: client, cfg: cfg, now: time.Now}
}

// rawCard mirrors the JSON schema the model is asked to produce.
type rawCard struct {
	Title           string   `json:"title"`
	Organization    string   `json:"organization"`
	OpportunityType string   `json:"opportunity_type"`
	Location        string   `json:"location"`
	Description     string   `json:"description"`
	Deadline        *string  `json:"deadline"`
	GradeLevels     []string `json:"grade_levels"`
	Cost            *string  `json:"cost"`
	IsExpired       bool     `json:"is_expired"`
	TimingType      string   `json:"timing_type"`
	Confidence      *float64 `json:"confidence"`
}

// Extract runs one extraction call. Failures are carried in the outcome; the
// returned value is never nil.
func (a *llmAgent) Extract(ctx context.Context, markdown, sourceURL string) *model.ExtractionOutcome {
	outcome := &model.ExtractionOutcome{}

	content := markdown
	if len(content) > maxContentChars {
		content = content[:maxContentChars]
	}

	prompt := fmt.Sprintf(extractionPrompt, sourceURL, content, a.now().Format("2006-01-02"))

	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.cfg.Model,
		MaxTokens: int64(a.cfg.MaxTokens),
		System: []anthropic.SystemBlock{
			{Text: systemText, CacheControl: &anthropic.CacheControl{}},
		},
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	resp.Usage.LogCost(a.cfg.Model, "extract")

	var raw rawCard
	cleaned := cleanJSON(resp.Text())
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		zap.L().Warn("extract: failed to parse card JSON",
			zap.String("url", sourceURL),
			zap.Error(err),
		)
		outcome.Error = "invalid JSON in model response"
		return outcome
	}

	outcome.Success = true
	outcome.Confidence = raw.Confidence
	outcome.Record = raw.toRecord(sourceURL)
	return outcome
}

// toRecord converts the model's JSON card to a domain record. Returns nil if
// there is no title at all.
func (r rawCard) toRecord(sourceURL string) *model.OpportunityRecord {
	if strings.TrimSpace(r.Title) == "" {
		return nil
	}

	rec := &model.OpportunityRecord{
		Title:        strings.TrimSpace(r.Title),
		Organization: strings.TrimSpace(r.Organization),
		Type:         model.ParseOpportunityType(r.OpportunityType),
		Location:     strings.TrimSpace(r.Location),
		Description:  strings.TrimSpace(r.Description),
		SourceURL:    sourceURL,
		GradeLevels:  r.GradeLevels,
		IsExpired:    r.IsExpired,
		TimingType:   model.ParseTimingType(r.TimingType),
	}
	if r.Deadline != nil {
		rec.Deadline = strings.TrimSpace(*r.Deadline)
	}
	if r.Cost != nil {
		rec.Cost = strings.TrimSpace(*r.Cost)
	}
	return rec
}

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find first { and last }.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
