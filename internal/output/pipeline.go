package output

import (
	"context"
	"fmt"

	"grinkit/internal/engine"
	"grinkit/internal/grin"
	"grinkit/internal/storage"
)

// Target names the graph a pipeline runs against.
type Target struct {
	Driver      string
	Args        []string
	Partitioned bool
	Partition   grin.Partition // local partition to check when Partitioned
}

func (t Target) String() string {
	if t.Partitioned {
		return fmt.Sprintf("%s partition %d", t.Driver, t.Partition)
	}
	return t.Driver
}

// RunPipeline executes the full check pipeline: Open -> Evaluate -> Bundle.
// The graph is closed before it returns.
func RunPipeline(ctx context.Context, t Target, opts ...engine.Option) (*ReportView, error) {
	// 1. Open
	var (
		g   grin.Graph
		pg  grin.PartitionedGraph
		err error
	)
	if t.Partitioned {
		if pg, err = storage.OpenPartitioned(ctx, t.Driver, t.Args...); err != nil {
			return nil, fmt.Errorf("open %s: %w", t.Driver, err)
		}
		defer pg.Close()
		if g, err = pg.LocalGraph(t.Partition); err != nil {
			return nil, fmt.Errorf("local graph: %w", err)
		}
	} else {
		if g, err = storage.Open(ctx, t.Driver, t.Args...); err != nil {
			return nil, fmt.Errorf("open %s: %w", t.Driver, err)
		}
	}
	defer g.Close()

	// 2. Evaluate
	results, err := engine.Evaluate(ctx, g, opts...)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	// 3. Bundle
	view := BuildReport(t.String(), g, results)
	if pg != nil {
		if err := view.AddPartitions(pg); err != nil {
			return nil, fmt.Errorf("partitions: %w", err)
		}
	}
	return &view, nil
}
