package engine

import (
	"context"
	"fmt"

	"grinkit/internal/grin"
)

const (
	StatusHealthy  = "OK"
	StatusWarning  = "WARN"
	StatusCritical = "CRIT"

	EmptyTypesWarning     = 0.0
	EmptyTypesCritical    = 1e9 // empty types never make a graph critical
	IsolatedWarningRatio  = 50.0
	IsolatedCriticalRatio = 100.0

	defaultSampleLimit = 10000
)

// Check names, also used as report keys.
const (
	CheckDanglingEdges  = "Dangling Edges"
	CheckSchemaViolated = "Relation Violations"
	CheckIteratorEnd    = "Iterator End"
	CheckRefRoundTrip   = "Ref Round Trip"
	CheckRawValues      = "Raw Values"
	CheckRows           = "Row Consistency"
	CheckEmptyTypes     = "Empty Types"
	CheckIsolated       = "Isolated Vertices"
)

type CheckResult struct {
	Name   string
	Value  float64
	Status string
	Detail string
}

func getStatus(value, warning, critical float64) string {
	if value > critical {
		return StatusCritical
	}
	if value > warning {
		return StatusWarning
	}
	return StatusHealthy
}

// failures is critical as soon as one case fails.
func failures(name string, n int, detail string) CheckResult {
	return CheckResult{Name: name, Value: float64(n), Status: getStatus(float64(n), 0, 0), Detail: detail}
}

type options struct {
	limit int
}

// Option tunes Evaluate.
type Option func(*options)

// WithSampleLimit caps how many vertices the per-vertex checks visit
// (default 10000). Zero or less visits every vertex.
func WithSampleLimit(n int) Option {
	return func(o *options) {
		o.limit = n
	}
}

// Evaluate runs the health checks over g. Checks that need an optional
// capability are left out when g does not declare it.
func Evaluate(ctx context.Context, g grin.Graph, opts ...Option) ([]CheckResult, error) {
	o := &options{limit: defaultSampleLimit}
	for _, opt := range opts {
		opt(o)
	}

	all, err := g.Vertices(grin.VertexQuery{Type: grin.NullVertexType, Scope: grin.ScopeAll})
	if err != nil {
		return nil, fmt.Errorf("list vertices: %w", err)
	}
	sample := all.Slice()
	if o.limit > 0 && len(sample) > o.limit {
		sample = sample[:o.limit]
	}

	var result []CheckResult

	adj, err := checkAdjacency(ctx, g, sample)
	if err != nil {
		return nil, err
	}
	result = append(result,
		failures(CheckDanglingEdges, adj.dangling, adj.danglingNote),
		failures(CheckSchemaViolated, adj.violations, adj.violationNote),
	)

	ends := adj.badEnds
	if !iteratesCleanly(all) {
		ends++
	}
	result = append(result, failures(CheckIteratorEnd, ends, ""))

	// Identity and storage checks (best-effort)
	if r, err := grin.Referencer(g); err == nil {
		n, note, err := checkRefs(ctx, g, r, sample)
		if err != nil {
			return nil, err
		}
		result = append(result, failures(CheckRefRoundTrip, n, note))
	}
	if _, ok := g.(grin.RawValueReader); ok && g.Capabilities().Has(grin.CapConstValuePtr) {
		n, note, err := checkRawValues(ctx, g, sample)
		if err != nil {
			return nil, err
		}
		result = append(result, failures(CheckRawValues, n, note))
	}
	n, note, err := checkRows(ctx, g, sample)
	if err != nil {
		return nil, err
	}
	result = append(result, failures(CheckRows, n, note))

	empty, note := emptyTypes(g)
	result = append(result, CheckResult{
		Name:   CheckEmptyTypes,
		Value:  float64(empty),
		Status: getStatus(float64(empty), EmptyTypesWarning, EmptyTypesCritical),
		Detail: note,
	})

	isolated := 0.0
	if len(sample) > 0 {
		isolated = float64(adj.isolated) * 100 / float64(len(sample))
	}
	result = append(result, CheckResult{
		Name:   CheckIsolated,
		Value:  isolated,
		Status: getStatus(isolated, IsolatedWarningRatio, IsolatedCriticalRatio),
		Detail: fmt.Sprintf("%d of %d sampled", adj.isolated, len(sample)),
	})
	return result, nil
}

// Worst returns the most severe status in results.
func Worst(results []CheckResult) string {
	worst := StatusHealthy
	for _, r := range results {
		switch r.Status {
		case StatusCritical:
			return StatusCritical
		case StatusWarning:
			worst = StatusWarning
		}
	}
	return worst
}

type adjacencyReport struct {
	dangling, violations, badEnds, isolated int
	danglingNote, violationNote             string
}

func checkAdjacency(ctx context.Context, g grin.Graph, vs []grin.Vertex) (*adjacencyReport, error) {
	rep := &adjacencyReport{}
	type pair struct{ src, dst grin.VertexType }
	allowed := make(map[grin.EdgeType]map[pair]bool)
	for _, et := range g.EdgeTypes() {
		srcs, dsts := g.EdgeSrcTypes(et), g.EdgeDstTypes(et)
		allowed[et] = make(map[pair]bool, len(srcs))
		for i := range srcs {
			allowed[et][pair{srcs[i], dsts[i]}] = true
		}
	}

	for _, v := range vs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vt, err := g.VertexTypeOf(v)
		if err != nil {
			return nil, fmt.Errorf("type of listed vertex: %w", err)
		}
		edges := 0
		for _, dir := range []grin.Direction{grin.Out, grin.In} {
			l, err := g.Adjacent(grin.AdjacentQuery{Vertex: v, Dir: dir, EdgeType: grin.NullEdgeType})
			if err != nil {
				return nil, fmt.Errorf("adjacency: %w", err)
			}
			edges += l.Len()
			if !adjacencyIteratesCleanly(l) {
				rep.badEnds++
			}
			for i := 0; i < l.Len(); i++ {
				nbr, e := l.Neighbor(i), l.Edge(i)
				nt, err := g.VertexTypeOf(nbr)
				if nbr == grin.NullVertex || err != nil {
					rep.dangling++
					if rep.danglingNote == "" {
						rep.danglingNote = fmt.Sprintf("%s edge without a known neighbor", g.EdgeTypeName(e.Type))
					}
					continue
				}
				p := pair{vt, nt}
				if dir == grin.In {
					p = pair{nt, vt}
				}
				if !allowed[e.Type][p] {
					rep.violations++
					if rep.violationNote == "" {
						rep.violationNote = fmt.Sprintf("%s from %s to %s", g.EdgeTypeName(e.Type), g.VertexTypeName(p.src), g.VertexTypeName(p.dst))
					}
				}
			}
		}
		if edges == 0 {
			rep.isolated++
		}
	}
	return rep, nil
}

// iteratesCleanly walks l to its end and checks that the end is sticky.
func iteratesCleanly(l *grin.VertexList) bool {
	it := l.Iter()
	defer it.Close()
	n := 0
	for ; !it.IsEnd(); it.Next() {
		n++
	}
	it.Next()
	return it.IsEnd() && it.Vertex() == grin.NullVertex && n == l.Len()
}

func adjacencyIteratesCleanly(l *grin.AdjacentList) bool {
	it := l.Iter()
	defer it.Close()
	n := 0
	for ; !it.IsEnd(); it.Next() {
		n++
	}
	it.Next()
	return it.IsEnd() && it.Edge().IsNull() && n == l.Len()
}

func checkRefs(ctx context.Context, g grin.Graph, r grin.VertexReferencer, vs []grin.Vertex) (int, string, error) {
	bad, note := 0, ""
	for _, v := range vs {
		if err := ctx.Err(); err != nil {
			return 0, "", err
		}
		ref, err := r.VertexRef(v)
		if err != nil {
			return 0, "", fmt.Errorf("vertex ref: %w", err)
		}
		s, err := r.SerializeRef(ref)
		if err != nil {
			return 0, "", fmt.Errorf("serialize ref: %w", err)
		}
		back, err := r.DeserializeRef(s)
		if err == nil && back == ref {
			var u grin.Vertex
			if u, err = r.VertexFromRef(back); err == nil && grin.EqualVertex(g, u, v) {
				continue
			}
		}
		bad++
		if note == "" {
			note = fmt.Sprintf("ref %q does not resolve back", s)
		}
	}
	return bad, note, nil
}

func checkRawValues(ctx context.Context, g grin.Graph, vs []grin.Vertex) (int, string, error) {
	bad, note := 0, ""
	for _, v := range vs {
		if err := ctx.Err(); err != nil {
			return 0, "", err
		}
		vt, err := g.VertexTypeOf(v)
		if err != nil {
			return 0, "", err
		}
		for _, vp := range g.VertexProperties(vt) {
			dt := g.VertexPropertyDatatype(vp)
			if dt == grin.String {
				continue
			}
			typed, err := g.VertexValue(v, vp)
			if err != nil {
				return 0, "", fmt.Errorf("vertex value: %w", err)
			}
			b, err := grin.VertexValueBytes(g, v, vp)
			if err == nil {
				var raw grin.Value
				if raw, err = grin.DecodeRaw(dt, b); err == nil && raw.Equal(typed) {
					continue
				}
			}
			bad++
			if note == "" {
				note = fmt.Sprintf("%s.%s", g.VertexTypeName(vt), g.VertexPropertyName(vp))
			}
		}
	}
	return bad, note, nil
}

func checkRows(ctx context.Context, g grin.Graph, vs []grin.Vertex) (int, string, error) {
	bad, note := 0, ""
	for _, v := range vs {
		if err := ctx.Err(); err != nil {
			return 0, "", err
		}
		vt, err := g.VertexTypeOf(v)
		if err != nil {
			return 0, "", err
		}
		row, err := grin.VertexRow(g, v)
		if err != nil {
			return 0, "", fmt.Errorf("vertex row: %w", err)
		}
		props := g.VertexProperties(vt)
		if row.Len() != len(props) {
			bad++
			if note == "" {
				note = fmt.Sprintf("%s row has %d values for %d properties", g.VertexTypeName(vt), row.Len(), len(props))
			}
			continue
		}
		for i, vp := range props {
			want, err := g.VertexValue(v, vp)
			if err != nil {
				return 0, "", fmt.Errorf("vertex value: %w", err)
			}
			if got, err := row.ValueAt(i); err != nil || !got.Equal(want) {
				bad++
				if note == "" {
					note = fmt.Sprintf("%s.%s", g.VertexTypeName(vt), g.VertexPropertyName(vp))
				}
			}
		}
	}
	return bad, note, nil
}

func emptyTypes(g grin.Graph) (int, string) {
	n, note := 0, ""
	for _, vt := range g.VertexTypes() {
		if g.VertexNumByType(vt) == 0 {
			n++
			if note == "" {
				note = "vertex type " + g.VertexTypeName(vt)
			}
		}
	}
	for _, et := range g.EdgeTypes() {
		if g.EdgeNumByType(et) == 0 {
			n++
			if note == "" {
				note = "edge type " + g.EdgeTypeName(et)
			}
		}
	}
	return n, note
}
