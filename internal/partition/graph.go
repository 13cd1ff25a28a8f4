package partition

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"grinkit/internal/catalog"
	"grinkit/internal/grin"
	"grinkit/internal/storage/memory"
)

// LatestEpoch asks Open to read the newest epoch every local partition has
// published.
const LatestEpoch = ^uint64(0)

// Graph is a partitioned graph whose local fragments are loaded from etcd.
// Reload swaps every local fragment at once; graphs handed out before a
// reload keep serving the epoch they were loaded from.
type Graph struct {
	kv     KV
	ownsKV bool
	prefix string
	total  int
	local  []grin.Partition
	log    *zap.Logger

	mu        sync.RWMutex
	epoch     uint64
	fragments map[grin.Partition]*memory.Fragment
}

var _ grin.PartitionedGraph = (*Graph)(nil)

// Option configures Open.
type Option func(*Graph)

// WithPrefix sets the key prefix (default: DefaultPrefix).
func WithPrefix(prefix string) Option {
	return func(g *Graph) { g.prefix = prefix }
}

// WithLogger sets the logger for load and reload diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.log = l
		}
	}
}

// withOwnedKV makes Close close the KV as well.
func withOwnedKV() Option {
	return func(g *Graph) { g.ownsKV = true }
}

// Open loads the local partitions of a graph split into total partitions,
// at epoch or at LatestEpoch.
func Open(ctx context.Context, kv KV, total int, local []grin.Partition, epoch uint64, opts ...Option) (*Graph, error) {
	if total <= 0 {
		return nil, grin.InvalidValuef("etcd open", "bad partition count %d", total)
	}
	if len(local) == 0 {
		return nil, grin.InvalidValuef("etcd open", "no local partitions")
	}
	for _, p := range local {
		if int(p) >= total {
			return nil, grin.InvalidValuef("etcd open", "local partition %d out of range", p)
		}
	}
	g := &Graph{
		kv:     kv,
		prefix: DefaultPrefix,
		total:  total,
		local:  append([]grin.Partition(nil), local...),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if err := g.Reload(ctx, epoch); err != nil {
		return nil, err
	}
	return g, nil
}

// Epoch returns the epoch currently served.
func (g *Graph) Epoch() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.epoch
}

// LatestEpoch returns the newest epoch published by every local partition.
func (g *Graph) LatestEpoch(ctx context.Context) (uint64, error) {
	latest := LatestEpoch
	for _, p := range g.local {
		b, err := g.kv.Get(ctx, latestEpochKey(g.prefix, int(p)))
		if err != nil {
			return 0, g.kvError("latest epoch", p, err)
		}
		e, err := parseEpoch(b)
		if err != nil {
			return 0, err
		}
		latest = min(latest, e)
	}
	return latest, nil
}

// Reload loads every local fragment of epoch and swaps them in. On error
// the served epoch is unchanged.
func (g *Graph) Reload(ctx context.Context, epoch uint64) error {
	if epoch == LatestEpoch {
		var err error
		if epoch, err = g.LatestEpoch(ctx); err != nil {
			return err
		}
	}
	loaded := make([]*memory.Fragment, len(g.local))
	eg, ctx := errgroup.WithContext(ctx)
	for i, p := range g.local {
		eg.Go(func() error {
			f, err := g.loadFragment(ctx, p, epoch)
			if err != nil {
				return err
			}
			loaded[i] = f
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	fragments := make(map[grin.Partition]*memory.Fragment, len(loaded))
	for i, p := range g.local {
		fragments[p] = loaded[i]
	}

	g.mu.Lock()
	prev := g.epoch
	g.epoch = epoch
	g.fragments = fragments
	g.mu.Unlock()

	g.log.Info("partitions loaded",
		zap.Uint64("epoch", epoch),
		zap.Uint64("previous", prev),
		zap.Int("local", len(fragments)))
	return nil
}

func (g *Graph) loadFragment(ctx context.Context, p grin.Partition, epoch uint64) (*memory.Fragment, error) {
	b, err := g.kv.Get(ctx, schemaKey(g.prefix, int(p)))
	if err != nil {
		return nil, g.kvError("schema", p, err)
	}
	schema, err := catalog.ParseGARTSchema(b)
	if err != nil {
		return nil, err
	}

	if b, err = g.kv.Get(ctx, blobKey(g.prefix, int(p), epoch)); err != nil {
		return nil, g.kvError(fmt.Sprintf("blob config of epoch %d", epoch), p, err)
	}
	cfg, err := parseBlobConfig(b)
	if err != nil {
		return nil, err
	}
	switch {
	case cfg.Fnum != g.total:
		return nil, grin.InvalidValuef("blob config", "partition %d was published for %d partitions, want %d", p, cfg.Fnum, g.total)
	case cfg.Fid != int(p):
		return nil, grin.InvalidValuef("blob config", "key of partition %d holds partition %d", p, cfg.Fid)
	case cfg.VertexLabelNum != len(schema.VertexTypes):
		return nil, grin.InvalidValuef("blob config", "partition %d has %d vertex labels, schema has %d", p, cfg.VertexLabelNum, len(schema.VertexTypes))
	}

	if b, err = g.kv.Get(ctx, cfg.DataKey); err != nil {
		return nil, g.kvError("fragment data", p, err)
	}
	d, err := memory.UnmarshalFragment(b)
	if err != nil {
		return nil, grin.InvalidValuef("fragment data", "partition %d: %v", p, err)
	}
	d.Schema = *schema
	return memory.NewFragment(d, memory.WithLogger(g.log))
}

func (g *Graph) kvError(what string, p grin.Partition, err error) error {
	if errors.Is(err, ErrNoKey) {
		return grin.InvalidValuef("etcd load", "partition %d has no %s", p, what)
	}
	return grin.Internal("etcd load", err)
}

func (g *Graph) TotalPartitions() int { return g.total }

func (g *Graph) LocalPartitions() []grin.Partition {
	return append([]grin.Partition(nil), g.local...)
}

// LocalGraph returns the fragment of a local partition at the served epoch.
func (g *Graph) LocalGraph(p grin.Partition) (grin.Graph, error) {
	f, err := g.Fragment(p)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Fragment is LocalGraph with the concrete type.
func (g *Graph) Fragment(p grin.Partition) (*memory.Fragment, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	f, ok := g.fragments[p]
	if !ok {
		return nil, grin.InvalidValuef("local graph", "partition %d is not resident", p)
	}
	return f, nil
}

func (g *Graph) PartitionByID(id grin.NaturalID) grin.Partition {
	if id == grin.NullNaturalID || int(id) >= g.total {
		return grin.NullPartition
	}
	return grin.Partition(id)
}

func (g *Graph) PartitionID(p grin.Partition) grin.NaturalID {
	if p == grin.NullPartition || int(p) >= g.total {
		return grin.NullNaturalID
	}
	return grin.NaturalID(p)
}

func (g *Graph) Close() error {
	if g.ownsKV {
		return g.kv.Close()
	}
	return nil
}
