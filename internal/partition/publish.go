package partition

import (
	"context"
	"errors"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"grinkit/internal/grin"
	"grinkit/internal/storage/memory"
)

// PublishResult summarizes one Publish call.
type PublishResult struct {
	Epoch      uint64
	Partitions int
	Bytes      int
}

// Publish writes every fragment of pg as a new epoch under prefix. The
// epoch is one past the newest already published, or 0 for a fresh
// prefix. Latest-epoch keys are written last, so readers never see an
// epoch whose fragments are incomplete.
func Publish(ctx context.Context, kv KV, prefix string, pg *memory.PartitionedGraph, log *zap.Logger) (PublishResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dumps := pg.Dumps()
	epoch, err := nextEpoch(ctx, kv, prefix, len(dumps))
	if err != nil {
		return PublishResult{}, err
	}
	res := PublishResult{Epoch: epoch, Partitions: len(dumps)}

	for p, d := range dumps {
		schema, err := d.Schema.MarshalGART()
		if err != nil {
			return res, grin.Internal("publish", err)
		}
		data, err := memory.MarshalFragment(d)
		if err != nil {
			return res, grin.Internal("publish", err)
		}
		cfg := BlobConfig{
			Fnum:           d.Fnum,
			Fid:            d.Fid,
			VertexLabelNum: len(d.Schema.VertexTypes),
			Epoch:          epoch,
			DataKey:        dataKey(prefix, p, epoch),
		}
		blob, err := json.Marshal(cfg)
		if err != nil {
			return res, grin.Internal("publish", err)
		}

		for _, kvp := range []struct {
			key   string
			value []byte
		}{
			{schemaKey(prefix, p), schema},
			{cfg.DataKey, data},
			{blobKey(prefix, p, epoch), blob},
		} {
			if err := kv.Put(ctx, kvp.key, kvp.value); err != nil {
				return res, grin.Internal("publish", err)
			}
			res.Bytes += len(kvp.value)
		}
		log.Debug("fragment published",
			zap.Int("fid", p),
			zap.Uint64("epoch", epoch),
			zap.Int("inner", len(d.Inner)),
			zap.Int("outer", len(d.Outer)),
			zap.Int("bytes", len(data)))
	}

	for p := range dumps {
		if err := kv.Put(ctx, latestEpochKey(prefix, p), []byte(formatEpoch(epoch))); err != nil {
			return res, grin.Internal("publish", err)
		}
	}
	log.Info("graph published",
		zap.Uint64("epoch", epoch),
		zap.Int("partitions", res.Partitions),
		zap.Int("bytes", res.Bytes))
	return res, nil
}

func nextEpoch(ctx context.Context, kv KV, prefix string, fnum int) (uint64, error) {
	var next uint64
	for p := 0; p < fnum; p++ {
		b, err := kv.Get(ctx, latestEpochKey(prefix, p))
		if errors.Is(err, ErrNoKey) {
			continue
		}
		if err != nil {
			return 0, grin.Internal("publish", err)
		}
		e, err := parseEpoch(b)
		if err != nil {
			return 0, err
		}
		next = max(next, e+1)
	}
	return next, nil
}
