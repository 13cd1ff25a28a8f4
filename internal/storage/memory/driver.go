package memory

import (
	"context"
	"strconv"

	"grinkit/internal/catalog"
	"grinkit/internal/grin"
	"grinkit/internal/observability"
	"grinkit/internal/storage"
)

// DriverName is the registry name of the engine.
const DriverName = "memory"

func init() {
	storage.Register(DriverName, openGraph)
	storage.RegisterPartitioned(DriverName, openPartitioned)
}

// openGraph takes [dataset.json].
func openGraph(_ context.Context, args []string) (grin.Graph, error) {
	if len(args) < 1 {
		return nil, grin.InvalidValuef("memory open", "want [dataset.json], got %d args", len(args))
	}
	ds, err := catalog.LoadDataset(args[0])
	if err != nil {
		return nil, err
	}
	return BuildGraph(ds, WithLogger(observability.GetLogger().Named(DriverName)))
}

// openPartitioned takes [dataset.json, partitions, local...]. Without local
// ids every partition is resident.
func openPartitioned(ctx context.Context, args []string) (grin.PartitionedGraph, error) {
	if len(args) < 2 {
		return nil, grin.InvalidValuef("memory open", "want [dataset.json, partitions, local...], got %d args", len(args))
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n <= 0 {
		return nil, grin.InvalidValuef("memory open", "bad partition count %q", args[1])
	}
	var local []grin.Partition
	for _, a := range args[2:] {
		p, err := strconv.ParseUint(a, 10, 32)
		if err != nil {
			return nil, grin.InvalidValuef("memory open", "bad local partition %q", a)
		}
		local = append(local, grin.Partition(p))
	}
	ds, err := catalog.LoadDataset(args[0])
	if err != nil {
		return nil, err
	}
	return Build(ctx, ds,
		WithPartitions(n),
		WithLocalPartitions(local...),
		WithLogger(observability.GetLogger().Named(DriverName)))
}
