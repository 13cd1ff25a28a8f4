package relational

import (
	"context"
	"strconv"
	"strings"
	"time"

	"grinkit/internal/catalog"
	"grinkit/internal/grin"
	"grinkit/internal/observability"
	"grinkit/internal/storage"
)

// DriverName is the registry name of the engine.
const DriverName = "duckdb"

func init() {
	storage.Register(DriverName, openGraph)
}

// driverArgs is the parsed form of [dsn, key=value...].
type driverArgs struct {
	dsn    string
	opts   []DuckDBOption
	dsPath string
}

func parseDriverArgs(args []string) (driverArgs, error) {
	if len(args) < 1 {
		return driverArgs{}, grin.InvalidValuef("duckdb open", "want [dsn, key=value...], got %d args", len(args))
	}
	out := driverArgs{dsn: args[0]}
	for _, a := range args[1:] {
		key, val, ok := strings.Cut(a, "=")
		if !ok {
			return driverArgs{}, grin.InvalidValuef("duckdb open", "option %q is not key=value", a)
		}
		switch key {
		case "threads":
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				return driverArgs{}, grin.InvalidValuef("duckdb open", "bad threads %q", val)
			}
			out.opts = append(out.opts, WithThreads(n))
		case "memory_limit_gb":
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				return driverArgs{}, grin.InvalidValuef("duckdb open", "bad memory_limit_gb %q", val)
			}
			out.opts = append(out.opts, WithMemoryLimit(n))
		case "timeout":
			d, err := time.ParseDuration(val)
			if err != nil {
				return driverArgs{}, grin.InvalidValuef("duckdb open", "bad timeout %q", val)
			}
			out.opts = append(out.opts, WithTimeout(d))
		case "import":
			out.dsPath = val
		default:
			return driverArgs{}, grin.InvalidValuef("duckdb open", "unknown option %q", key)
		}
	}
	return out, nil
}

// openGraph takes [dsn, key=value...]. With import=path the dataset is
// loaded into the database before the graph is opened, which is the only
// way to get data into an in-memory database.
func openGraph(ctx context.Context, args []string) (grin.Graph, error) {
	da, err := parseDriverArgs(args)
	if err != nil {
		return nil, err
	}
	log := observability.GetLogger().Named(DriverName)
	client, err := NewDuckDBClient(da.dsn, append(da.opts, WithLogger(log))...)
	if err != nil {
		return nil, grin.Internal("duckdb open", err)
	}
	if da.dsPath != "" {
		if err := importFile(ctx, client, da.dsPath); err != nil {
			_ = client.Close()
			return nil, err
		}
	}
	g, err := OpenGraph(ctx, client)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return g, nil
}

func importFile(ctx context.Context, client *DuckDBClient, path string) error {
	ds, err := catalog.LoadDataset(path)
	if err != nil {
		return err
	}
	_, err = ImportDataset(ctx, client, ds)
	return err
}

// ImportDataset migrates the database behind client and replaces its
// contents with ds.
func ImportDataset(ctx context.Context, client *DuckDBClient, ds *catalog.Dataset) (ImportResult, error) {
	repo := NewRepo(client.DB(), client.log)
	if err := repo.Migrate(ctx); err != nil {
		return ImportResult{}, grin.Internal("duckdb migrate", err)
	}
	return repo.Import(ctx, ds)
}
