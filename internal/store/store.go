// Package store persists discovered opportunities.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/scholarscout/discovery-cli/internal/config"
	"github.com/scholarscout/discovery-cli/internal/model"
)

// Store defines the persistence interface for discovered opportunities.
type Store interface {
	// UpsertOpportunity inserts the record or updates the existing row with
	// the same source URL. Repeated upserts of the same URL never create
	// duplicate rows.
	UpsertOpportunity(ctx context.Context, rec *model.OpportunityRecord) error

	// GetOpportunity fetches a record by source URL. Returns nil, nil when
	// no row matches.
	GetOpportunity(ctx context.Context, sourceURL string) (*model.OpportunityRecord, error)

	// ListOpportunities returns the most recently updated records.
	ListOpportunities(ctx context.Context, limit int) ([]model.OpportunityRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// New creates a Store from config. The driver selects the backend:
// "postgres" (default) or "sqlite".
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "postgres":
		if cfg.DatabaseURL == "" {
			return nil, eris.New("store: database_url not configured")
		}
		return NewPostgres(ctx, cfg.DatabaseURL)
	case "sqlite":
		if cfg.DatabaseURL == "" {
			return nil, eris.New("store: database_url not configured")
		}
		return NewSQLite(cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
