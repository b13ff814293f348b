package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarscout/discovery-cli/internal/model"
	"github.com/scholarscout/discovery-cli/pkg/searxng"
)

// stubSearchClient serves canned hits for the search command tests.
type stubSearchClient struct {
	hits  []model.SearchHit
	err   error
	focus string
	types []string
	max   int
}

func (s *stubSearchClient) Search(ctx context.Context, req searxng.SearchRequest) ([]model.SearchHit, error) {
	return nil, nil
}

func (s *stubSearchClient) SearchOpportunities(ctx context.Context, focusArea string, opportunityTypes []string, maxResults int) ([]model.SearchHit, error) {
	s.focus, s.types, s.max = focusArea, opportunityTypes, maxResults
	return s.hits, s.err
}

func TestRunSearch_PrintsHitsAsJSON(t *testing.T) {
	client := &stubSearchClient{hits: []model.SearchHit{
		{URL: "https://nasa.gov/sees", Title: "NASA SEES", Engine: "wikipedia"},
		{URL: "https://isef.net", Title: "Intel ISEF", Engine: "mojeek"},
	}}

	var out bytes.Buffer
	err := runSearch(context.Background(), client, &out, "astronomy", []string{"internship"}, 10)
	require.NoError(t, err)

	assert.Equal(t, "astronomy", client.focus)
	assert.Equal(t, []string{"internship"}, client.types)
	assert.Equal(t, 10, client.max)

	var resp struct {
		Focus   string            `json:"focus"`
		Count   int               `json:"count"`
		Results []model.SearchHit `json:"results"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "astronomy", resp.Focus)
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "NASA SEES", resp.Results[0].Title)
}

func TestRunSearch_ClientError(t *testing.T) {
	client := &stubSearchClient{err: assert.AnError}

	var out bytes.Buffer
	err := runSearch(context.Background(), client, &out, "astronomy", nil, 0)
	require.Error(t, err)
	assert.Empty(t, out.String())
}

func TestSearchCommand_Flags(t *testing.T) {
	require.NotNil(t, searchCmd.Flags().Lookup("types"))
	require.NotNil(t, searchCmd.Flags().Lookup("max"))
}
