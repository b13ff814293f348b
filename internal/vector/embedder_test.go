package vector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarscout/discovery-cli/internal/config"
)

func TestNewOpenAIEmbedderRequiresKey(t *testing.T) {
	_, err := NewOpenAIEmbedder(config.EmbeddingsConfig{})
	assert.Error(t, err)
}

func TestNewOpenAIEmbedderDefaults(t *testing.T) {
	e, err := NewOpenAIEmbedder(config.EmbeddingsConfig{Key: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, 1536, e.Dimension())
}

func TestEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-small", req["model"])

		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": []float32{0.1, 0.2, 0.3}},
			},
			"model": "text-embedding-3-small",
			"usage": map[string]int{"prompt_tokens": 5, "total_tokens": 5},
		})
	}))
	defer server.Close()

	e, err := NewOpenAIEmbedder(config.EmbeddingsConfig{
		Key:       "sk-test",
		BaseURL:   server.URL,
		Dimension: 3,
	})
	require.NoError(t, err)

	vec, err := e.Embed(context.Background(), "Summer Research Program by State University")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestEmbedServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	e, err := NewOpenAIEmbedder(config.EmbeddingsConfig{Key: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "text")
	assert.Error(t, err)
}
