package state

import (
	"time"

	"grinkit/internal/engine"
	"grinkit/internal/output"
)

type Page int

const (
	PageMenu     Page = iota
	PageSchema        // "Schema Overview"
	PageVertices      // "Vertex Explorer"
	PageVertex        // one vertex and its adjacency
	PageChecks        // "Health Checks"
	PageDegrees       // "Degree Distribution"
	PageConsole       // "Activity Log"
)

// AppState holds what the browser has read from the graph so far.
type AppState struct {
	Title  string
	Report output.ReportView
	Err    error

	Results   []engine.CheckResult
	Checking  bool
	LastCheck time.Time

	Vertices    []output.VertexView
	VertexTotal int
	Offset      int

	Selected      *output.VertexView
	Neighbors     []output.NeighborView
	NeighborTotal int
	History       []uint64 // vertices visited before Selected

	Degrees []float64 // Degrees[d] is the number of vertices of degree d

	ConsoleLogs []string
	CurrentPage Page
}
