// Package cli implements the grinkit command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"grinkit/internal/config"
	"grinkit/internal/database/graph"
	"grinkit/internal/database/relational"
	"grinkit/internal/grin"
	"grinkit/internal/observability"
	"grinkit/internal/partition"
	"grinkit/internal/storage"
)

// Version is the grinkit release, set at link time.
var Version = "0.1.0"

// app holds the state shared by one command tree.
type app struct {
	configFile string
	driver     string
	args       []string
	logLevel   string
	partition  uint32
	jsonOut    bool

	cfg config.Config
}

// NewRootCmd builds the grinkit command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "grinkit",
		Short:         "Navigate property graphs through one retrieval interface.",
		Long:          `grinkit opens a property graph from one of several storage engines (in-memory fragments, DuckDB, Neo4j, or partitions published to etcd) and serves it through a single navigation interface: schema, vertex lists, adjacency, properties, and cross-partition vertex refs.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initialize(cmd)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&a.configFile, "config", "c", "", "config file (default is ./grinkit.yaml)")
	pf.StringVarP(&a.driver, "driver", "d", "", "storage engine: "+strings.Join(storage.Drivers(), ", "))
	pf.StringArrayVarP(&a.args, "arg", "a", nil, "engine argument, repeatable and positional")
	pf.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.Uint32VarP(&a.partition, "partition", "p", 0, "open the engine partitioned and navigate this local partition")
	pf.BoolVar(&a.jsonOut, "json", false, "print JSON instead of text")

	rootCmd.AddCommand(
		newSchemaCmd(a),
		newVerticesCmd(a),
		newVertexCmd(a),
		newNeighborsCmd(a),
		newRefCmd(a),
		newPartitionsCmd(a),
		newCheckCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newPublishCmd(a),
		newServeCmd(a),
		newBrowseCmd(a),
	)
	return rootCmd
}

// Execute runs the command tree under ctx.
func Execute(ctx context.Context) error {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		if ctx.Err() == nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return err
	}
	return nil
}

// initialize loads the configuration, applies flag overrides and sets up
// the global logger.
func (a *app) initialize(cmd *cobra.Command) error {
	cfg, err := config.Load(viper.New(), a.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	switch {
	case flags.Changed("driver"):
		cfg = cfg.WithDriver(a.driver, a.args...)
	case flags.Changed("arg"):
		cfg.Storage.Args = append([]string(nil), a.args...)
	}
	if flags.Changed("partition") {
		cfg = cfg.WithPartition(a.partition)
	}
	if flags.Changed("log-level") {
		cfg = cfg.WithLogLevel(a.logLevel)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	observability.InitializeLogger(cfg.Logger)
	observability.GetLogger().Debug("configuration loaded",
		zap.String("driver", cfg.Storage.Driver),
		zap.Bool("partitioned", cfg.Storage.Partitioned))
	return nil
}

// storageArgs fills the engine argument vector from the engine's config
// section where the flags and file left it incomplete.
func storageArgs(cfg config.Config) []string {
	args := append([]string(nil), cfg.Storage.Args...)
	switch cfg.Storage.Driver {
	case relational.DriverName:
		if len(args) == 0 {
			args = append(args, "")
		}
		for _, kv := range []string{
			fmt.Sprintf("threads=%d", cfg.DuckDB.Threads),
			fmt.Sprintf("memory_limit_gb=%d", cfg.DuckDB.MemoryLimitGB),
			"timeout=" + cfg.DuckDB.Timeout.String(),
		} {
			if !hasOption(args[1:], kv) {
				args = append(args, kv)
			}
		}
	case graph.DriverName:
		if len(args) == 0 {
			args = []string{cfg.Neo4j.URI, cfg.Neo4j.Username, cfg.Neo4j.Password, cfg.Neo4j.Database}
		}
	case partition.DriverName:
		if len(args) > 0 && args[0] == "" {
			args[0] = strings.Join(cfg.Etcd.Endpoints, ",")
		}
		if len(args) == 3 {
			args = append(args, "latest")
		}
		if len(args) == 4 {
			args = append(args, cfg.Etcd.Prefix)
		}
	}
	return args
}

func hasOption(opts []string, kv string) bool {
	key, _, _ := strings.Cut(kv, "=")
	for _, o := range opts {
		if k, _, _ := strings.Cut(o, "="); k == key {
			return true
		}
	}
	return false
}

// session is an opened graph plus the partitioned graph it came from, if
// any.
type session struct {
	graph grin.Graph
	pg    grin.PartitionedGraph
	part  grin.Partition
}

func (s *session) Close() error {
	err := s.graph.Close()
	if s.pg != nil {
		err = errors.Join(err, s.pg.Close())
	}
	return err
}

// open opens the configured graph. A partitioned open navigates the
// configured local partition; engines without an unpartitioned opener are
// always opened partitioned.
func (a *app) open(ctx context.Context) (*session, error) {
	st := a.cfg.Storage
	args := storageArgs(a.cfg)
	if !st.Partitioned && st.Driver != partition.DriverName {
		g, err := storage.Open(ctx, st.Driver, args...)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", st.Driver, err)
		}
		return &session{graph: g}, nil
	}

	pg, err := storage.OpenPartitioned(ctx, st.Driver, args...)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", st.Driver, err)
	}
	p := grin.Partition(st.Partition)
	if !st.Partitioned {
		local := pg.LocalPartitions()
		if len(local) == 0 {
			_ = pg.Close()
			return nil, fmt.Errorf("open %s: no local partitions", st.Driver)
		}
		p = local[0]
	}
	g, err := pg.LocalGraph(p)
	if err != nil {
		_ = pg.Close()
		return nil, fmt.Errorf("partition %d: %w", p, err)
	}
	return &session{graph: g, pg: pg, part: p}, nil
}
