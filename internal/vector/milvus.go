package vector

import (
	"context"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/scholarscout/discovery-cli/internal/config"
	"github.com/scholarscout/discovery-cli/internal/model"
)

// MilvusIndexer writes opportunity embeddings into a Milvus collection keyed
// by source URL, so re-indexing the same opportunity overwrites in place.
type MilvusIndexer struct {
	client     *milvusclient.Client
	embedder   Embedder
	collection string
}

// NewMilvusIndexer connects to Milvus and ensures the collection exists.
func NewMilvusIndexer(ctx context.Context, cfg config.VectorConfig, embedder Embedder) (*MilvusIndexer, error) {
	client, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address: cfg.Address,
	})
	if err != nil {
		return nil, eris.Wrap(err, "vector: connect milvus")
	}

	ix := &MilvusIndexer{
		client:     client,
		embedder:   embedder,
		collection: cfg.Collection,
	}
	if err := ix.ensureCollection(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, err
	}
	return ix, nil
}

func (ix *MilvusIndexer) ensureCollection(ctx context.Context) error {
	exists, err := ix.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(ix.collection))
	if err != nil {
		return eris.Wrap(err, "vector: check collection")
	}
	if exists {
		return nil
	}

	schema := entity.NewSchema().
		WithName(ix.collection).
		WithDescription("Opportunity embeddings keyed by source URL").
		WithField(entity.NewField().
			WithName("source_url").
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(2048).
			WithIsPrimaryKey(true)).
		WithField(entity.NewField().
			WithName("embedding").
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(ix.embedder.Dimension())))

	if err := ix.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(ix.collection, schema)); err != nil {
		return eris.Wrapf(err, "vector: create collection %s", ix.collection)
	}

	indexTask, err := ix.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(
		ix.collection, "embedding", index.NewAutoIndex(entity.COSINE)))
	if err != nil {
		return eris.Wrap(err, "vector: create index")
	}
	if err := indexTask.Await(ctx); err != nil {
		return eris.Wrap(err, "vector: await index")
	}

	loadTask, err := ix.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(ix.collection))
	if err != nil {
		return eris.Wrapf(err, "vector: load collection %s", ix.collection)
	}
	if err := loadTask.Await(ctx); err != nil {
		return eris.Wrap(err, "vector: await load")
	}

	zap.L().Info("vector collection created",
		zap.String("collection", ix.collection),
		zap.Int("dimension", ix.embedder.Dimension()),
	)
	return nil
}

// Index embeds the record text and upserts it into the collection.
func (ix *MilvusIndexer) Index(ctx context.Context, rec *model.OpportunityRecord) error {
	vec, err := ix.embedder.Embed(ctx, rec.EmbeddingText())
	if err != nil {
		return err
	}

	_, err = ix.client.Upsert(ctx, milvusclient.NewColumnBasedInsertOption(ix.collection,
		column.NewColumnVarChar("source_url", []string{rec.SourceURL}),
		column.NewColumnFloatVector("embedding", len(vec), [][]float32{vec}),
	))
	if err != nil {
		return eris.Wrapf(err, "vector: upsert %s", rec.SourceURL)
	}
	return nil
}

// Close releases the Milvus connection.
func (ix *MilvusIndexer) Close(ctx context.Context) error {
	return ix.client.Close(ctx)
}
