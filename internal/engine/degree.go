package engine

import (
	"context"

	"grinkit/internal/grin"
)

// DegreeHistogram counts vertices by their degree in direction dir:
// hist[d] is the number of vertices with d incident edges. Mirror
// vertices are skipped.
func DegreeHistogram(ctx context.Context, g grin.Graph, dir grin.Direction) ([]int, error) {
	l, err := g.Vertices(grin.VertexQuery{Type: grin.NullVertexType, Scope: grin.ScopeMaster})
	if err != nil {
		return nil, err
	}
	hist := []int{}
	for i := 0; i < l.Len(); i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		adj, err := g.Adjacent(grin.AdjacentQuery{Vertex: l.At(i), Dir: dir, EdgeType: grin.NullEdgeType})
		if err != nil {
			return nil, err
		}
		d := adj.Len()
		for len(hist) <= d {
			hist = append(hist, 0)
		}
		hist[d]++
	}
	return hist, nil
}
