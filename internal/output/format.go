package output

import (
	"fmt"
	"strings"

	"grinkit/internal/engine"
	"grinkit/internal/grin"
)

// Section constants to avoid hardcoded strings
const (
	SectionSummary    = "summary"
	SectionVertices   = "vertices"
	SectionEdges      = "edges"
	SectionChecks     = "checks"
	SectionPartitions = "partitions"
)

// UI/view-model types (no printing here)
type Item struct {
	Key    string
	Label  string
	Value  float64
	Unit   string
	Status string
	Note   string
}

type Section struct {
	ID    string
	Title string
	Items []Item
}

type ReportView struct {
	Title     string
	Sections  []Section
	VertexNum int
	EdgeNum   int
	Status    string
}

func itemKey(label string) string {
	return strings.ReplaceAll(strings.ToLower(label), " ", "_")
}

// BuildReport converts a graph and its check results into UI-ready
// sections. results may be nil when no checks ran.
func BuildReport(title string, g grin.Graph, results []engine.CheckResult) ReportView {
	summary := Section{ID: SectionSummary, Title: "Summary", Items: []Item{
		{Key: "vertices", Label: "Vertices", Value: float64(g.VertexNum())},
		{Key: "edges", Label: "Edges", Value: float64(g.EdgeNum())},
		{Key: "vertex_types", Label: "Vertex Types", Value: float64(len(g.VertexTypes()))},
		{Key: "edge_types", Label: "Edge Types", Value: float64(len(g.EdgeTypes()))},
		{Key: "capabilities", Label: "Capabilities", Note: g.Capabilities().String()},
	}}

	vertices := Section{ID: SectionVertices, Title: "Vertex Types"}
	for _, vt := range g.VertexTypes() {
		name := g.VertexTypeName(vt)
		vertices.Items = append(vertices.Items, Item{
			Key:   itemKey(name),
			Label: name,
			Value: float64(g.VertexNumByType(vt)),
			Note:  propertyNote(len(g.VertexProperties(vt))),
		})
	}

	edges := Section{ID: SectionEdges, Title: "Edge Types"}
	for _, et := range g.EdgeTypes() {
		name := g.EdgeTypeName(et)
		edges.Items = append(edges.Items, Item{
			Key:   itemKey(name),
			Label: name,
			Value: float64(g.EdgeNumByType(et)),
			Note:  strings.Join(relations(g, et), ", "),
		})
	}

	view := ReportView{
		Title:     title,
		Sections:  []Section{summary, vertices, edges},
		VertexNum: g.VertexNum(),
		EdgeNum:   g.EdgeNum(),
	}
	if results != nil {
		view.Sections = append(view.Sections, CheckSection(results))
		view.Status = engine.Worst(results)
	}
	return view
}

// relations renders the (src, dst) pairs of et as "src->dst".
func relations(g grin.Graph, et grin.EdgeType) []string {
	srcs, dsts := g.EdgeSrcTypes(et), g.EdgeDstTypes(et)
	rels := make([]string, len(srcs))
	for i := range srcs {
		rels[i] = g.VertexTypeName(srcs[i]) + "->" + g.VertexTypeName(dsts[i])
	}
	return rels
}

// CheckSection renders check results as one section.
func CheckSection(results []engine.CheckResult) Section {
	sec := Section{ID: SectionChecks, Title: "Checks"}
	for _, r := range results {
		unit := ""
		if r.Name == engine.CheckIsolated {
			unit = "%"
		}
		sec.Items = append(sec.Items, Item{
			Key:    itemKey(r.Name),
			Label:  r.Name,
			Value:  r.Value,
			Unit:   unit,
			Status: r.Status,
			Note:   r.Detail,
		})
	}
	return sec
}

func propertyNote(n int) string {
	if n == 1 {
		return "1 property"
	}
	return fmt.Sprintf("%d properties", n)
}

// AddPartitions appends one item per local partition of pg.
func (v *ReportView) AddPartitions(pg grin.PartitionedGraph) error {
	sec := Section{ID: SectionPartitions, Title: fmt.Sprintf("Partitions (%d total)", pg.TotalPartitions())}
	for _, p := range pg.LocalPartitions() {
		g, err := pg.LocalGraph(p)
		if err != nil {
			return err
		}
		masters, err := g.Vertices(grin.VertexQuery{Type: grin.NullVertexType, Scope: grin.ScopeMaster})
		if err != nil {
			return err
		}
		label := fmt.Sprintf("Partition %d", pg.PartitionID(p))
		sec.Items = append(sec.Items, Item{
			Key:   itemKey(label),
			Label: label,
			Value: float64(g.VertexNum()),
			Note:  fmt.Sprintf("%d masters, %d edges", masters.Len(), g.EdgeNum()),
		})
	}
	v.Sections = append(v.Sections, sec)
	return nil
}

func (v ReportView) SectionByID(id string) *Section {
	for i := range v.Sections {
		if v.Sections[i].ID == id {
			return &v.Sections[i]
		}
	}
	return nil
}

func (s Section) ItemByKey(key string) *Item {
	for i := range s.Items {
		if s.Items[i].Key == key {
			return &s.Items[i]
		}
	}
	return nil
}
