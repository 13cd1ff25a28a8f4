package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"grinkit/internal/catalog"
	"grinkit/internal/database/graph"
	"grinkit/internal/database/relational"
	"grinkit/internal/engine"
	"grinkit/internal/grin"
	"grinkit/internal/observability"
	"grinkit/internal/output"
	"grinkit/internal/partition"
	"grinkit/internal/storage/memory"
	"grinkit/ui/console"
)

// ErrCritical is returned by check when any check is CRIT.
var ErrCritical = errors.New("graph check failed")

// loadSource reads the dataset at path, or exports the configured graph
// when path is empty.
func (a *app) loadSource(ctx context.Context, path string) (*catalog.Dataset, error) {
	if path != "" {
		return catalog.LoadDataset(path)
	}
	s, err := a.open(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return graph.Export(s.graph)
}

func newCheckCmd(a *app) *cobra.Command {
	var sampleLimit int

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the health checks against the graph",
		Long:  `Opens the configured graph, walks its vertices and adjacency, and rates dangling edges, relation violations, iterator ends, ref round trips, raw values, row consistency, empty types and isolated vertices as OK, WARN or CRIT.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st := a.cfg.Storage
			t := output.Target{
				Driver:      st.Driver,
				Args:        storageArgs(a.cfg),
				Partitioned: st.Partitioned || st.Driver == partition.DriverName,
				Partition:   grin.Partition(st.Partition),
			}
			var opts []engine.Option
			if sampleLimit > 0 {
				opts = append(opts, engine.WithSampleLimit(sampleLimit))
			}
			view, err := output.RunPipeline(cmd.Context(), t, opts...)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if err := a.emit(w, view, func() error {
				console.Print(w, *view)
				return nil
			}); err != nil {
				return err
			}
			if view.Status == engine.StatusCritical {
				return ErrCritical
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&sampleLimit, "sample-limit", 0, "vertices to visit, 0 keeps the default")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the graph as a dataset file",
		Long:  `Walks the configured graph into the JSON dataset format read by the memory engine. Mirror vertices and the edges reaching them are skipped, so one partition exports as a self-contained dataset.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := a.loadSource(cmd.Context(), "")
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if outPath != "" && outPath != "-" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := ds.Encode(w); err != nil {
				return err
			}
			observability.GetLogger().Info("dataset exported",
				zap.String("path", outPath),
				zap.Int("vertices", len(ds.Vertices)),
				zap.Int("edges", len(ds.Edges)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "-", "dataset file to write")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var (
		datasetPath string
		target      string
		dsn         string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a dataset into DuckDB or Neo4j",
		Long:  `Replaces the contents of a DuckDB database or a Neo4j database with a dataset. The dataset is read from --dataset, or exported from the configured graph when --dataset is empty. Neo4j connection settings come from the neo4j config section.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := observability.GetLogger()
			ds, err := a.loadSource(ctx, datasetPath)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch target {
			case relational.DriverName:
				c := a.cfg.DuckDB
				client, err := relational.NewDuckDBClient(dsn,
					relational.WithThreads(c.Threads),
					relational.WithMemoryLimit(c.MemoryLimitGB),
					relational.WithTimeout(c.Timeout),
					relational.WithLogger(log.Named(relational.DriverName)))
				if err != nil {
					return fmt.Errorf("open duckdb: %w", err)
				}
				defer client.Close()
				res, err := relational.ImportDataset(ctx, client, ds)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "imported %d vertices, %d edges, %d values into %s\n", res.Vertices, res.Edges, res.Values, dsn)

			case graph.DriverName:
				c := a.cfg.Neo4j
				client, err := graph.NewNeo4jClient(ctx, graph.Neo4jConfig{
					URI:      c.URI,
					Username: c.Username,
					Password: c.Password,
					Database: c.Database,
					Timeout:  c.Timeout,
				}, log.Named(graph.DriverName))
				if err != nil {
					return err
				}
				defer client.Close(ctx)
				res, err := graph.Import(ctx, client, ds, log.Named(graph.DriverName))
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "imported %d vertices, %d edges in %d batches into %s\n", res.Vertices, res.Edges, res.Batches, c.URI)

			default:
				return fmt.Errorf("unknown import target %q (must be %s or %s)", target, relational.DriverName, graph.DriverName)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&datasetPath, "dataset", "", "dataset file to import, default exports the configured graph")
	cmd.Flags().StringVar(&target, "to", relational.DriverName, "target engine: duckdb or neo4j")
	cmd.Flags().StringVar(&dsn, "dsn", "grinkit.duckdb", "DuckDB database file")
	return cmd
}

func newPublishCmd(a *app) *cobra.Command {
	var (
		datasetPath string
		partitions  int
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Partition a dataset and publish it to etcd as a new epoch",
		Long:  `Splits a dataset into fragments with the memory engine and writes each fragment, its blob config and the GART schema under the etcd prefix. Readers opened with the etcd driver pick up the new epoch once every partition is written.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := observability.GetLogger()
			ds, err := a.loadSource(ctx, datasetPath)
			if err != nil {
				return err
			}
			pg, err := memory.Build(ctx, ds,
				memory.WithPartitions(partitions),
				memory.WithLogger(log.Named(memory.DriverName)))
			if err != nil {
				return err
			}
			defer pg.Close()

			e := a.cfg.Etcd
			kv, err := partition.NewEtcdKV(e.Endpoints, e.DialTimeout, log.Named(partition.DriverName))
			if err != nil {
				return fmt.Errorf("connect etcd: %w", err)
			}
			defer kv.Close()

			res, err := partition.Publish(ctx, kv, e.Prefix, pg, log.Named(partition.DriverName))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published epoch %d: %d partitions, %d bytes\n", res.Epoch, res.Partitions, res.Bytes)
			return nil
		},
	}
	cmd.Flags().StringVar(&datasetPath, "dataset", "", "dataset file to publish, default exports the configured graph")
	cmd.Flags().IntVarP(&partitions, "partitions", "n", 1, "number of partitions")
	return cmd
}
