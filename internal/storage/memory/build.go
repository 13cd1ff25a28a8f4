package memory

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"grinkit/internal/catalog"
	"grinkit/internal/grin"
)

// Build splits a dataset into partitions and builds every fragment
// concurrently.
//
// Each vertex is mastered by the partition the partitioner picks. An edge
// is stored by the partitions of both endpoints; an endpoint mastered
// elsewhere becomes an outer (mirror) vertex of that fragment.
func Build(ctx context.Context, ds *catalog.Dataset, opts ...Option) (*PartitionedGraph, error) {
	o := applyOptions(opts)
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	datas, err := Split(ds, o.partitions, o.partitioner)
	if err != nil {
		return nil, err
	}

	fragments := make([]*Fragment, len(datas))
	g, ctx := errgroup.WithContext(ctx)
	for i, d := range datas {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := NewFragment(d, opts...)
			if err != nil {
				return fmt.Errorf("build partition %d: %w", i, err)
			}
			fragments[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	o.log.Info("graph built",
		zap.Int("partitions", len(fragments)),
		zap.Int("vertices", len(ds.Vertices)),
		zap.Int("edges", len(ds.Edges)))
	return NewPartitionedGraph(fragments, o.local...)
}

// BuildGraph builds a single unpartitioned graph.
func BuildGraph(ds *catalog.Dataset, opts ...Option) (*Fragment, error) {
	opts = append(opts, WithPartitions(1), WithLocalPartitions())
	pg, err := Build(context.Background(), ds, opts...)
	if err != nil {
		return nil, err
	}
	return pg.fragments[0], nil
}

type placement struct {
	fid    int
	offset int64
}

// Split computes the portable form of each of fnum fragments.
func Split(ds *catalog.Dataset, fnum int, p Partitioner) ([]*FragmentData, error) {
	if fnum <= 0 {
		return nil, grin.InvalidValuef("split", "partition count %d", fnum)
	}
	if p == nil {
		p = HashPartitioner{}
	}
	datas := make([]*FragmentData, fnum)
	for i := range datas {
		datas[i] = &FragmentData{Fnum: fnum, Fid: i, Schema: ds.Schema}
	}

	type counter struct {
		fid   int
		label string
	}
	next := make(map[counter]int64)
	placed := make(map[catalog.VertexKey]placement, len(ds.Vertices))
	innerAt := make(map[catalog.VertexKey]int, len(ds.Vertices))
	for _, v := range ds.Vertices {
		fid := p.Partition(v.Label, v.ID, fnum)
		if fid < 0 || fid >= fnum {
			return nil, grin.InvalidValuef("split", "partitioner put %s/%d on %d of %d", v.Label, v.ID, fid, fnum)
		}
		c := counter{fid, v.Label}
		key := catalog.VertexKey{Label: v.Label, ID: v.ID}
		placed[key] = placement{fid: fid, offset: next[c]}
		next[c]++
		innerAt[key] = len(datas[fid].Inner)
		datas[fid].Inner = append(datas[fid].Inner, InnerVertex{VertexRecord: v})
	}

	mirrors := make(map[catalog.VertexKey]map[int]bool)
	outerSeen := make([]map[catalog.VertexKey]bool, fnum)
	for i := range outerSeen {
		outerSeen[i] = make(map[catalog.VertexKey]bool)
	}
	addOuter := func(fid int, key catalog.VertexKey) {
		if outerSeen[fid][key] {
			return
		}
		outerSeen[fid][key] = true
		pl := placed[key]
		datas[fid].Outer = append(datas[fid].Outer, OuterVertex{Label: key.Label, ID: key.ID, Master: pl.fid, Offset: pl.offset})
		if mirrors[key] == nil {
			mirrors[key] = make(map[int]bool)
		}
		mirrors[key][fid] = true
	}

	for _, e := range ds.Edges {
		src := catalog.VertexKey{Label: e.SrcLabel, ID: e.Src}
		dst := catalog.VertexKey{Label: e.DstLabel, ID: e.Dst}
		ps, pd := placed[src].fid, placed[dst].fid
		datas[ps].Edges = append(datas[ps].Edges, e)
		if ps == pd {
			continue
		}
		datas[pd].Edges = append(datas[pd].Edges, e)
		addOuter(ps, dst)
		addOuter(pd, src)
	}

	for key, set := range mirrors {
		fid := placed[key].fid
		ms := make([]int, 0, len(set))
		for m := range set {
			ms = append(ms, m)
		}
		sort.Ints(ms)
		datas[fid].Inner[innerAt[key]].Mirrors = ms
	}
	return datas, nil
}
