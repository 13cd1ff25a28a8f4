package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grinkit/internal/catalog"
	"grinkit/internal/grin"
	"grinkit/internal/grin/grintest"
	"grinkit/internal/storage/memory"
)

func socialGraph(t *testing.T, ds *catalog.Dataset) grin.Graph {
	t.Helper()
	g, err := memory.BuildGraph(ds)
	require.NoError(t, err)
	return g
}

func byName(results []CheckResult) map[string]CheckResult {
	out := make(map[string]CheckResult, len(results))
	for _, r := range results {
		out[r.Name] = r
	}
	return out
}

// danglingGraph reports one extra out-edge per vertex whose neighbor does
// not exist.
type danglingGraph struct{ grin.Graph }

func (g danglingGraph) Adjacent(q grin.AdjacentQuery) (*grin.AdjacentList, error) {
	l, err := g.Graph.Adjacent(q)
	if err != nil || q.Dir != grin.Out {
		return l, err
	}
	var es []grin.Adjacency
	for i := 0; i < l.Len(); i++ {
		es = append(es, l.At(i))
	}
	es = append(es, grin.Adjacency{Neighbor: grin.NullVertex, Edge: grin.Edge{Src: q.Vertex, Dst: grin.NullVertex, Type: 0}})
	return grin.NewAdjacentList(q, es), nil
}

// noRelationsGraph forgets the relations of every edge type.
type noRelationsGraph struct{ grin.Graph }

func (noRelationsGraph) EdgeSrcTypes(grin.EdgeType) []grin.VertexType { return nil }
func (noRelationsGraph) EdgeDstTypes(grin.EdgeType) []grin.VertexType { return nil }

func TestEvaluate(t *testing.T) {
	tagged := grintest.Social()
	tagged.Schema.VertexTypes = append(tagged.Schema.VertexTypes, catalog.VertexTypeDef{Name: "tag"})

	lonely := grintest.Social()
	lonely.Edges = nil

	tests := []struct {
		name     string
		graph    func(t *testing.T) grin.Graph
		expected map[string]string // Check Name -> Expected Status
		absent   []string
	}{
		{
			name:  "All Healthy",
			graph: func(t *testing.T) grin.Graph { return socialGraph(t, grintest.Social()) },
			expected: map[string]string{
				CheckDanglingEdges:  StatusHealthy,
				CheckSchemaViolated: StatusHealthy,
				CheckIteratorEnd:    StatusHealthy,
				CheckRefRoundTrip:   StatusHealthy,
				CheckRawValues:      StatusHealthy,
				CheckRows:           StatusHealthy,
				CheckEmptyTypes:     StatusHealthy,
				CheckIsolated:       StatusHealthy,
			},
		},
		{
			name:  "Dangling Neighbor",
			graph: func(t *testing.T) grin.Graph { return danglingGraph{socialGraph(t, grintest.Social())} },
			expected: map[string]string{
				CheckDanglingEdges: StatusCritical,
				CheckRows:          StatusHealthy,
			},
			// the wrapper hides the optional interfaces
			absent: []string{CheckRefRoundTrip, CheckRawValues},
		},
		{
			name:  "Undeclared Relation",
			graph: func(t *testing.T) grin.Graph { return noRelationsGraph{socialGraph(t, grintest.Social())} },
			expected: map[string]string{
				CheckSchemaViolated: StatusCritical,
				CheckDanglingEdges:  StatusHealthy,
			},
		},
		{
			name:     "Empty Type Warning",
			graph:    func(t *testing.T) grin.Graph { return socialGraph(t, tagged) },
			expected: map[string]string{CheckEmptyTypes: StatusWarning},
		},
		{
			name:  "No Edges",
			graph: func(t *testing.T) grin.Graph { return socialGraph(t, lonely) },
			expected: map[string]string{
				CheckIsolated:   StatusWarning,
				CheckEmptyTypes: StatusWarning,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := Evaluate(context.Background(), tt.graph(t))
			require.NoError(t, err)
			got := byName(results)
			for name, want := range tt.expected {
				r, ok := got[name]
				if !ok {
					t.Errorf("Expected check %q, got none", name)
					continue
				}
				if r.Status != want {
					t.Errorf("%s: Expected status %s, got %s (value %.1f, %s)", name, want, r.Status, r.Value, r.Detail)
				}
			}
			for _, name := range tt.absent {
				_, ok := got[name]
				assert.False(t, ok, "check %q should be skipped", name)
			}
		})
	}
}

func TestEvaluateDetails(t *testing.T) {
	results, err := Evaluate(context.Background(), danglingGraph{socialGraph(t, grintest.Social())})
	require.NoError(t, err)
	dangling := byName(results)[CheckDanglingEdges]
	assert.Equal(t, float64(grintest.VertexCount), dangling.Value)
	assert.Contains(t, dangling.Detail, "knows")

	results, err = Evaluate(context.Background(), socialGraph(t, grintest.Social()), WithSampleLimit(2))
	require.NoError(t, err)
	assert.Equal(t, "0 of 2 sampled", byName(results)[CheckIsolated].Detail)

	tagged := grintest.Social()
	tagged.Schema.EdgeTypes = append(tagged.Schema.EdgeTypes, catalog.EdgeTypeDef{
		Name: "follows", Relations: []catalog.Relation{{Src: "person", Dst: "person"}},
	})
	results, err = Evaluate(context.Background(), socialGraph(t, tagged))
	require.NoError(t, err)
	assert.Equal(t, "edge type follows", byName(results)[CheckEmptyTypes].Detail)
}

func TestEvaluateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Evaluate(ctx, socialGraph(t, grintest.Social()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetStatus(t *testing.T) {
	tests := []struct {
		value, warning, critical float64
		expected                 string
	}{
		{10, 50, 90, StatusHealthy},
		{50, 50, 90, StatusHealthy},
		{51, 50, 90, StatusWarning},
		{91, 50, 90, StatusCritical},
		{1, 0, 0, StatusCritical},
	}
	for _, tt := range tests {
		if got := getStatus(tt.value, tt.warning, tt.critical); got != tt.expected {
			t.Errorf("getStatus(%v, %v, %v) = %s; want %s", tt.value, tt.warning, tt.critical, got, tt.expected)
		}
	}
}

func TestWorst(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		expected string
	}{
		{"empty", nil, StatusHealthy},
		{"all ok", []string{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one warning", []string{StatusHealthy, StatusWarning}, StatusWarning},
		{"critical wins", []string{StatusWarning, StatusCritical, StatusHealthy}, StatusCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var results []CheckResult
			for _, s := range tt.statuses {
				results = append(results, CheckResult{Status: s})
			}
			if got := Worst(results); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestDegreeHistogram(t *testing.T) {
	g, err := memory.BuildGraph(grintest.Social())
	require.NoError(t, err)

	tests := []struct {
		dir      grin.Direction
		expected []int
	}{
		// alice 3, bob 2, carol 3, dave 1, both posts 0
		{grin.Out, []int{2, 1, 1, 2}},
		// alice 2, bob 1, carol 1, dave 0, hello 3, graphs 2
		{grin.In, []int{1, 2, 2, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			hist, err := DegreeHistogram(context.Background(), g, tt.dir)
			require.NoError(t, err)
			if !assert.Equal(t, tt.expected, hist) {
				t.Logf("histogram %v", hist)
			}
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := DegreeHistogram(ctx, g, grin.Both); err == nil {
		t.Error("Expected error for canceled context")
	}
}
