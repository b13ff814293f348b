package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/scholarscout/discovery-cli/internal/cache"
	"github.com/scholarscout/discovery-cli/internal/discovery"
	"github.com/scholarscout/discovery-cli/internal/extract"
	"github.com/scholarscout/discovery-cli/internal/store"
	"github.com/scholarscout/discovery-cli/internal/vector"
	anthropicpkg "github.com/scholarscout/discovery-cli/pkg/anthropic"
	"github.com/scholarscout/discovery-cli/pkg/crawler"
	"github.com/scholarscout/discovery-cli/pkg/searxng"
)

// pipelineEnv holds the initialized clients and backends shared by the
// discover and serve commands. Each run builds its own Pipeline because
// the event emitter is per-consumer.
type pipelineEnv struct {
	Store    store.Store
	Searcher *discovery.Searcher
	Crawler  crawler.Client
	Agent    extract.Agent
	Indexer  *vector.MilvusIndexer // may be nil
	Seen     *cache.SeenCache      // may be nil
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Indexer != nil {
		_ = pe.Indexer.Close(context.Background())
	}
	if pe.Seen != nil {
		_ = pe.Seen.Close()
	}
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// Pipeline builds a discovery pipeline streaming events to emit.
func (pe *pipelineEnv) Pipeline(emit discovery.Emitter) *discovery.Pipeline {
	var opts []discovery.PipelineOption
	if pe.Indexer != nil {
		opts = append(opts, discovery.WithIndexer(pe.Indexer))
	}
	if pe.Seen != nil {
		opts = append(opts, discovery.WithSeenCache(pe.Seen))
	}
	return discovery.NewPipeline(pe.Searcher, pe.Crawler, pe.Agent, pe.Store, cfg.Discovery, emit, opts...)
}

// initPipeline sets up the store, search and crawl clients, the extraction
// agent, and the optional vector index and seen-URL cache. Callers should
// defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic API key is required (SCOUT_ANTHROPIC_KEY)")
	}

	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	denylist := discovery.NewDenylist()
	if cfg.Discovery.DenylistFile != "" {
		denylist, err = discovery.LoadDenylist(cfg.Discovery.DenylistFile)
		if err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "load denylist")
		}
	}

	searxngClient := searxng.NewClient(searxng.WithBaseURL(cfg.SearXNG.BaseURL))
	crawlClient := crawler.NewClient(crawler.WithBaseURL(cfg.Crawler.BaseURL))
	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)

	env := &pipelineEnv{
		Store:    st,
		Searcher: discovery.NewSearcher(searxngClient, denylist, cfg.SearXNG.RateLimit, cfg.Discovery.MaxResultsPerQuery),
		Crawler:  crawlClient,
		Agent:    extract.NewAgent(anthropicClient, cfg.Anthropic),
	}

	// Vector index (optional — discovery works without it).
	if cfg.Embeddings.Enabled {
		embedder, err := vector.NewOpenAIEmbedder(cfg.Embeddings)
		if err != nil {
			env.Close()
			return nil, eris.Wrap(err, "init embedder")
		}
		indexer, err := vector.NewMilvusIndexer(ctx, cfg.Vector, embedder)
		if err != nil {
			zap.L().Warn("milvus init failed, vector indexing disabled", zap.Error(err))
		} else {
			env.Indexer = indexer
		}
	}

	// Seen-URL cache (optional).
	if cfg.Cache.RedisURL != "" {
		seen, err := cache.New(ctx, cfg.Cache)
		if err != nil {
			zap.L().Warn("redis init failed, seen-URL cache disabled", zap.Error(err))
		} else {
			env.Seen = seen
		}
	}

	return env, nil
}
