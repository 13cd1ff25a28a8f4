package graph

import (
	"context"
	"time"

	"grinkit/internal/grin"
	"grinkit/internal/observability"
	"grinkit/internal/storage"
)

// DriverName is the registry name of the engine.
const DriverName = "neo4j"

// defaultTimeout bounds connection checks and every read of a graph opened
// through the registry.
const defaultTimeout = 10 * time.Second

func init() {
	storage.Register(DriverName, openGraph)
}

// openGraph takes [uri, user, password, db]. The database defaults to
// "neo4j".
func openGraph(ctx context.Context, args []string) (grin.Graph, error) {
	if len(args) < 3 {
		return nil, grin.InvalidValuef("neo4j open", "want [uri, user, password, db], got %d args", len(args))
	}
	cfg := Neo4jConfig{URI: args[0], Username: args[1], Password: args[2], Database: "neo4j", Timeout: defaultTimeout}
	if len(args) > 3 && args[3] != "" {
		cfg.Database = args[3]
	}
	log := observability.GetLogger().Named(DriverName)
	client, err := NewNeo4jClient(ctx, cfg, log)
	if err != nil {
		return nil, grin.Internal("neo4j open", err)
	}
	g, err := Open(ctx, client, WithTimeout(cfg.Timeout), WithLogger(log))
	if err != nil {
		_ = client.Close(ctx)
		return nil, err
	}
	return g, nil
}
