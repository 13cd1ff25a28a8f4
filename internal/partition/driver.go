package partition

import (
	"context"
	"strconv"
	"strings"
	"time"

	"grinkit/internal/grin"
	"grinkit/internal/observability"
	"grinkit/internal/storage"
)

// DriverName is the registry name of the engine.
const DriverName = "etcd"

const defaultDialTimeout = 5 * time.Second

func init() {
	storage.RegisterPartitioned(DriverName, openPartitioned)
}

type driverArgs struct {
	endpoints []string
	total     int
	local     []grin.Partition
	epoch     uint64
	prefix    string
}

// parseDriverArgs reads [endpoint, total, local_id, epoch, prefix].
// Endpoints and local ids may be comma separated lists. An empty or
// "latest" epoch reads the newest one.
func parseDriverArgs(args []string) (*driverArgs, error) {
	if len(args) < 3 {
		return nil, grin.InvalidValuef("etcd open", "want [endpoint, total, local_id, epoch, prefix], got %d args", len(args))
	}
	a := &driverArgs{epoch: LatestEpoch, prefix: DefaultPrefix}
	for _, ep := range strings.Split(args[0], ",") {
		if ep = strings.TrimSpace(ep); ep != "" {
			a.endpoints = append(a.endpoints, ep)
		}
	}
	if len(a.endpoints) == 0 {
		return nil, grin.InvalidValuef("etcd open", "no endpoint")
	}
	total, err := strconv.Atoi(args[1])
	if err != nil || total <= 0 {
		return nil, grin.InvalidValuef("etcd open", "bad partition count %q", args[1])
	}
	a.total = total
	for _, s := range strings.Split(args[2], ",") {
		p, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
		if err != nil || int(p) >= total {
			return nil, grin.InvalidValuef("etcd open", "bad local partition %q", s)
		}
		a.local = append(a.local, grin.Partition(p))
	}
	if len(args) > 3 && args[3] != "" && args[3] != "latest" {
		if a.epoch, err = strconv.ParseUint(args[3], 10, 64); err != nil {
			return nil, grin.InvalidValuef("etcd open", "bad epoch %q", args[3])
		}
	}
	if len(args) > 4 {
		a.prefix = args[4]
	}
	return a, nil
}

func openPartitioned(ctx context.Context, args []string) (grin.PartitionedGraph, error) {
	a, err := parseDriverArgs(args)
	if err != nil {
		return nil, err
	}
	log := observability.GetLogger().Named(DriverName)
	kv, err := NewEtcdKV(a.endpoints, defaultDialTimeout, log)
	if err != nil {
		return nil, grin.Internal("etcd open", err)
	}
	g, err := Open(ctx, kv, a.total, a.local, a.epoch,
		WithPrefix(a.prefix),
		WithLogger(log),
		withOwnedKV())
	if err != nil {
		_ = kv.Close()
		return nil, err
	}
	return g, nil
}
