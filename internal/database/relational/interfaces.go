package relational

import (
	"context"

	"grinkit/internal/catalog"
)

// =============================================================================
// CORE INTERFACES
// =============================================================================

// GraphRepository persists a property graph in relational tables.
type GraphRepository interface {
	// Migrate creates the grin_* tables when missing.
	Migrate(ctx context.Context) error
	// Import replaces the stored graph with ds.
	Import(ctx context.Context, ds *catalog.Dataset) (ImportResult, error)
	// LoadSchema reads the stored schema back.
	LoadSchema(ctx context.Context) (*catalog.Schema, error)
	// TypeCounts returns the number of vertices and edges per type, indexed
	// like the schema.
	TypeCounts(ctx context.Context) (TypeCounts, error)
	// Close releases database resources.
	Close() error
}

var _ GraphRepository = (*Repo)(nil)
