package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarscout/discovery-cli/internal/config"
	"github.com/scholarscout/discovery-cli/internal/model"
)

func configStore(driver, url string) config.StoreConfig {
	return config.StoreConfig{Driver: driver, DatabaseURL: url}
}

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLiteUpsertRoundTrip(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	rec := testRecord()
	require.NoError(t, st.UpsertOpportunity(ctx, rec))

	got, err := st.GetOpportunity(ctx, rec.SourceURL)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, rec.Title, got.Title)
	assert.Equal(t, rec.Organization, got.Organization)
	assert.Equal(t, model.TypeProgram, got.Type)
	assert.Equal(t, model.TimingAnnual, got.TimingType)
	assert.Equal(t, []string{"10", "11", "12"}, got.GradeLevels)
}

func TestSQLiteUpsertIsIdempotent(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	rec := testRecord()
	require.NoError(t, st.UpsertOpportunity(ctx, rec))

	// Second upsert with updated fields must update in place.
	rec.Title = "Marine Biology Summer Intensive (Updated)"
	rec.RecheckDays = 3
	require.NoError(t, st.UpsertOpportunity(ctx, rec))

	recs, err := st.ListOpportunities(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Marine Biology Summer Intensive (Updated)", recs[0].Title)
	assert.Equal(t, 3, recs[0].RecheckDays)
}

func TestSQLiteGetOpportunityNotFound(t *testing.T) {
	st := newTestSQLite(t)

	rec, err := st.GetOpportunity(context.Background(), "https://nowhere.org")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSQLiteListOrdersByUpdatedAt(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	first := testRecord()
	first.SourceURL = "https://a.org/p"
	first.Title = "First"
	require.NoError(t, st.UpsertOpportunity(ctx, first))

	second := testRecord()
	second.SourceURL = "https://b.org/p"
	second.Title = "Second"
	require.NoError(t, st.UpsertOpportunity(ctx, second))

	recs, err := st.ListOpportunities(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
}

func TestNewStoreUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), configStore("mysql", "dsn"))
	assert.Error(t, err)
}

func TestNewStoreMissingURL(t *testing.T) {
	_, err := New(context.Background(), configStore("sqlite", ""))
	assert.Error(t, err)
}

func TestNewStoreSQLite(t *testing.T) {
	st, err := New(context.Background(), configStore("sqlite", ":memory:"))
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.Migrate(context.Background()))
}
