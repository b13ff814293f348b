// Package vector adds accepted opportunities to a Milvus similarity index.
// The whole path is optional and best-effort: discovery works without it.
package vector

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
	"github.com/rotisserie/eris"

	"github.com/scholarscout/discovery-cli/internal/config"
)

// Embedder generates an embedding vector for a text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

type openAIEmbedder struct {
	client    *openai.Client
	model     string
	dimension int
}

// NewOpenAIEmbedder creates an Embedder backed by an OpenAI-compatible
// embeddings endpoint.
func NewOpenAIEmbedder(cfg config.EmbeddingsConfig) (Embedder, error) {
	if cfg.Key == "" {
		return nil, eris.New("vector: embeddings api key not configured")
	}

	model := cfg.Model
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	dimension := cfg.Dimension
	if dimension == 0 {
		dimension = 1536
	}

	clientCfg := openai.DefaultConfig(cfg.Key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &openAIEmbedder{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     model,
		dimension: dimension,
	}, nil
}

func (e *openAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: e.dimension,
	})
	if err != nil {
		return nil, eris.Wrap(err, "vector: create embedding")
	}
	if len(resp.Data) == 0 {
		return nil, eris.New("vector: no embedding returned")
	}
	return resp.Data[0].Embedding, nil
}

func (e *openAIEmbedder) Dimension() int {
	return e.dimension
}
