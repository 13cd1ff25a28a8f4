// Package graph serves property graphs stored in Neo4j through the grin
// navigation contract. Labels are vertex types, relationship types are edge
// types, and id(n) / id(r) are the vertex and edge handles.
package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Record is one result row keyed by column name.
type Record map[string]any

// Statement is a named Cypher statement. The name labels logs and lets
// fakes answer without parsing Cypher.
type Statement struct {
	Name   string
	Cypher string
	Params map[string]any
}

// Runner executes statements against a graph database.
type Runner interface {
	Read(ctx context.Context, st Statement) ([]Record, error)
	Write(ctx context.Context, st Statement) error
	Close(ctx context.Context) error
}

// Neo4jConfig holds the connection settings of a Neo4jClient.
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
	Timeout  time.Duration
}

// Neo4jClient implements Runner for Neo4j.
type Neo4jClient struct {
	driver neo4j.DriverWithContext
	dbName string
	log    *zap.Logger
}

var _ Runner = (*Neo4jClient)(nil)

// NewNeo4jClient creates a client and verifies the connection.
func NewNeo4jClient(ctx context.Context, cfg Neo4jConfig, log *zap.Logger) (*Neo4jClient, error) {
	if log == nil {
		log = zap.NewNop()
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	vctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(vctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to neo4j: %w", err)
	}
	log.Debug("neo4j connected", zap.String("uri", cfg.URI), zap.String("database", cfg.Database))

	return &Neo4jClient{
		driver: driver,
		dbName: cfg.Database,
		log:    log,
	}, nil
}

func (c *Neo4jClient) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// Read runs st in a read transaction and collects every record.
func (c *Neo4jClient) Read(ctx context.Context, st Statement) ([]Record, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.dbName, AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	start := time.Now()
	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, st.Cypher, st.Params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]Record, 0, len(records))
		for _, record := range records {
			row := make(Record, len(record.Keys))
			for i, key := range record.Keys {
				row[key] = convertNeo4jValue(record.Values[i])
			}
			out = append(out, row)
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("cypher %s failed: %w", st.Name, err)
	}
	c.log.Debug("cypher read", zap.String("statement", st.Name), zap.Duration("took", time.Since(start)))
	return result.([]Record), nil
}

// Write runs st in a write transaction and discards its result.
func (c *Neo4jClient) Write(ctx context.Context, st Statement) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.dbName})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, st.Cypher, st.Params)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("cypher %s failed: %w", st.Name, err)
	}
	c.log.Debug("cypher write", zap.String("statement", st.Name))
	return nil
}

// convertNeo4jValue converts Neo4j types to Go native types.
func convertNeo4jValue(val any) any {
	switch v := val.(type) {
	case neo4j.Node:
		return map[string]any{
			"labels":     v.Labels,
			"properties": v.Props,
			"id":         v.Id,
		}
	case neo4j.Relationship:
		return map[string]any{
			"type":       v.Type,
			"properties": v.Props,
			"start":      v.StartId,
			"end":        v.EndId,
		}
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = convertNeo4jValue(item)
		}
		return result
	case map[string]any:
		result := make(map[string]any)
		for k, v := range v {
			result[k] = convertNeo4jValue(v)
		}
		return result
	default:
		return v
	}
}
