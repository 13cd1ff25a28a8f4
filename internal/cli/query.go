package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"grinkit/internal/database/graph"
	"grinkit/internal/grin"
	"grinkit/internal/output"
	"grinkit/ui/console"
)

const defaultVertexLimit = 20

// emit writes v as indented JSON with --json and calls text otherwise.
func (a *app) emit(w io.Writer, v any, text func() error) error {
	if !a.jsonOut {
		return text()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
}

// formatProps renders a property map as sorted key=value pairs.
func formatProps(props map[string]any) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, props[k])
	}
	return strings.Join(parts, " ")
}

func parseVertex(s string) (grin.Vertex, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return grin.NullVertex, fmt.Errorf("bad vertex handle %q", s)
	}
	return grin.Vertex(n), nil
}

func newSchemaCmd(a *app) *cobra.Command {
	var gart bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the vertex and edge types of the graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			w := cmd.OutOrStdout()
			if gart {
				schema := graph.ExportSchema(s.graph)
				b, err := schema.MarshalGART()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(w, string(b))
				return err
			}
			return a.emit(w, output.DescribeSchema(s.graph), func() error {
				console.Print(w, output.BuildReport(a.cfg.Storage.Driver, s.graph, nil))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&gart, "gart", false, "print the schema in the GART metadata format")
	return cmd
}

func newVerticesCmd(a *app) *cobra.Command {
	var (
		typeName string
		scope    string
		offset   int
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "vertices",
		Short: "List vertices with their properties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			g := s.graph

			q := grin.VertexQuery{Type: grin.NullVertexType}
			if typeName != "" {
				if q.Type = grin.VertexTypeByName(g, typeName); q.Type == grin.NullVertexType {
					return fmt.Errorf("unknown vertex type %q", typeName)
				}
			}
			if q.Scope, err = parseScope(scope); err != nil {
				return err
			}
			l, err := g.Vertices(q)
			if err != nil {
				return err
			}

			views := []output.VertexView{}
			for i := max(offset, 0); i < l.Len() && (limit <= 0 || len(views) < limit); i++ {
				v, err := output.DescribeVertex(g, l.At(i))
				if err != nil {
					return err
				}
				views = append(views, v)
			}

			w := cmd.OutOrStdout()
			return a.emit(w, views, func() error {
				t := newTable("VERTEX", "TYPE", "ID", "PROPERTIES")
				for _, v := range views {
					t.Row(strconv.FormatUint(v.Vertex, 10), v.Type, fmt.Sprint(v.OriginalID), formatProps(v.Properties))
				}
				fmt.Fprintln(w, t.Render())
				fmt.Fprintf(w, "%d of %d vertices\n", len(views), l.Len())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&typeName, "type", "t", "", "vertex type to list")
	cmd.Flags().StringVar(&scope, "scope", "all", "all, master or mirror")
	cmd.Flags().IntVar(&offset, "offset", 0, "index of the first vertex")
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultVertexLimit, "vertices to print, 0 for all")
	return cmd
}

func parseScope(s string) (grin.Scope, error) {
	switch s {
	case "", "all":
		return grin.ScopeAll, nil
	case "master":
		return grin.ScopeMaster, nil
	case "mirror":
		return grin.ScopeMirror, nil
	}
	return grin.ScopeAll, fmt.Errorf("invalid scope %q (must be all, master or mirror)", s)
}

func newVertexCmd(a *app) *cobra.Command {
	var (
		typeName string
		oid      int64
	)

	cmd := &cobra.Command{
		Use:   "vertex [handle]",
		Short: "Print one vertex, by handle or by --type and --id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (typeName != "") {
				return fmt.Errorf("give either a vertex handle or --type with --id")
			}
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			var v grin.Vertex
			if typeName != "" {
				v, err = output.FindVertex(s.graph, typeName, oid)
			} else {
				v, err = parseVertex(args[0])
			}
			if err != nil {
				return err
			}
			view, err := output.DescribeVertex(s.graph, v)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			return a.emit(w, view, func() error {
				fmt.Fprintf(w, "vertex %d (%s)\n", view.Vertex, view.Type)
				if view.OriginalID != nil {
					fmt.Fprintf(w, "  original id: %v\n", view.OriginalID)
				}
				if view.Ref != "" {
					fmt.Fprintf(w, "  ref: %s\n", view.Ref)
				}
				t := newTable("PROPERTY", "VALUE")
				keys := make([]string, 0, len(view.Properties))
				for k := range view.Properties {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					t.Row(k, fmt.Sprint(view.Properties[k]))
				}
				fmt.Fprintln(w, t.Render())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&typeName, "type", "t", "", "vertex type, to look up by original id")
	cmd.Flags().Int64Var(&oid, "id", 0, "original id within --type")
	return cmd
}

func newNeighborsCmd(a *app) *cobra.Command {
	var (
		direction string
		edgeType  string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "neighbors <handle>",
		Short: "List the adjacent vertices of a vertex",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseVertex(args[0])
			if err != nil {
				return err
			}
			dir, err := grin.ParseDirection(direction)
			if err != nil {
				return err
			}
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			q := grin.AdjacentQuery{Vertex: v, Dir: dir, EdgeType: grin.NullEdgeType}
			if edgeType != "" {
				if q.EdgeType = grin.EdgeTypeByName(s.graph, edgeType); q.EdgeType == grin.NullEdgeType {
					return fmt.Errorf("unknown edge type %q", edgeType)
				}
			}
			total, nbrs, err := output.DescribeNeighbors(s.graph, q, limit)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			return a.emit(w, nbrs, func() error {
				t := newTable("NEIGHBOR", "TYPE", "EDGE", "DIR", "PROPERTIES")
				for _, n := range nbrs {
					t.Row(strconv.FormatUint(n.Neighbor, 10), n.NeighborType, n.EdgeType, n.Direction, formatProps(n.EdgeProperties))
				}
				fmt.Fprintln(w, t.Render())
				fmt.Fprintf(w, "%d of %d neighbors\n", len(nbrs), total)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&direction, "direction", "out", "in, out or both")
	cmd.Flags().StringVarP(&edgeType, "edge-type", "e", "", "edge type to follow")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "neighbors to print, 0 for all")
	return cmd
}

// refResult is the outcome of the ref command.
type refResult struct {
	Ref      string `json:"ref"`
	Vertex   uint64 `json:"vertex"`
	Found    bool   `json:"found"`
	Master   uint32 `json:"master_partition"`
	IsMaster bool   `json:"is_master"`
}

func newRefCmd(a *app) *cobra.Command {
	var resolve bool

	cmd := &cobra.Command{
		Use:   "ref <handle|ref>",
		Short: "Serialize the ref of a vertex, or resolve a ref with --resolve",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			r, err := grin.Referencer(s.graph)
			if err != nil {
				return err
			}
			res := refResult{Ref: args[0]}
			if !resolve {
				v, err := parseVertex(args[0])
				if err != nil {
					return err
				}
				ref, err := r.VertexRef(v)
				if err != nil {
					return err
				}
				if res.Ref, err = r.SerializeRef(ref); err != nil {
					return err
				}
			}
			v, master, err := grin.ResolveRef(s.graph, res.Ref)
			if err != nil {
				return err
			}
			res.Vertex, res.Master, res.Found = uint64(v), uint32(master), v != grin.NullVertex
			if res.Found {
				res.IsMaster = r.IsMaster(v)
			}

			w := cmd.OutOrStdout()
			return a.emit(w, res, func() error {
				if !res.Found {
					fmt.Fprintf(w, "%s: not present here, master partition %d\n", res.Ref, res.Master)
					return nil
				}
				fmt.Fprintf(w, "%s -> vertex %d, master partition %d, master here: %v\n", res.Ref, res.Vertex, res.Master, res.IsMaster)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&resolve, "resolve", false, "treat the argument as a serialized ref")
	return cmd
}

func newPartitionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "partitions",
		Short: "Summarize the local partitions of a partitioned graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			if s.pg == nil {
				return fmt.Errorf("driver %s was opened unpartitioned; pass --partition", a.cfg.Storage.Driver)
			}

			view := output.BuildReport(a.cfg.Storage.Driver, s.graph, nil)
			if err := view.AddPartitions(s.pg); err != nil {
				return err
			}
			sec := view.SectionByID(output.SectionPartitions)
			w := cmd.OutOrStdout()
			return a.emit(w, sec, func() error {
				console.Print(w, output.ReportView{
					Title:     fmt.Sprintf("%s, %d partitions", a.cfg.Storage.Driver, s.pg.TotalPartitions()),
					Sections:  []output.Section{*sec},
					VertexNum: s.graph.VertexNum(),
					EdgeNum:   s.graph.EdgeNum(),
				})
				return nil
			})
		},
	}
}
