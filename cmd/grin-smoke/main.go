package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	server := flag.String("server", "", "grinkit binary (default: search ./grinkit)")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline")
	flag.Parse()

	fmt.Println("🧪 Testing grinkit MCP tools")
	fmt.Println("=======================================")
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	serverPath := *server
	if serverPath == "" {
		serverPath = findServerBinary()
	}
	if serverPath == "" {
		log.Fatal("❌ grinkit binary not found. Run: go build -o grinkit .")
	}
	fmt.Println("✅ Test 1: grinkit binary found")

	// Everything after the flags goes to `grinkit serve`, e.g.
	// --driver memory --arg social.json
	cmd := exec.Command(serverPath, append([]string{"serve"}, flag.Args()...)...)
	cmd.Env = os.Environ()
	cmd.Stderr = os.Stderr
	transport := &mcp.CommandTransport{Command: cmd}

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "grin-smoke",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MCP server: %v", err)
	}
	defer session.Close()
	fmt.Println("✅ Test 2: Connected to MCP server")

	fmt.Println("\n✓ Test 3: Listing available tools")
	listResult, err := session.ListTools(ctx, nil)
	if err != nil {
		log.Fatalf("❌ Failed to list tools: %v", err)
	}
	fmt.Printf("  Found %d tools:\n", len(listResult.Tools))
	for _, tool := range listResult.Tools {
		fmt.Printf("  - %s\n", tool.Name)
	}

	failures := 0

	fmt.Println("\n✓ Test 4: describe_schema")
	var schema struct {
		VertexTypes []struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"vertex_types"`
		VertexNum int `json:"vertex_num"`
		EdgeNum   int `json:"edge_num"`
	}
	if err := call(ctx, session, "describe_schema", map[string]any{}, &schema); err != nil {
		fmt.Printf("  ❌ %v\n", err)
		failures++
	} else {
		fmt.Printf("  ✅ %d vertex types, %d vertices, %d edges\n", len(schema.VertexTypes), schema.VertexNum, schema.EdgeNum)
	}

	fmt.Println("\n✓ Test 5: list_vertices and get_neighbors")
	var vertices struct {
		Total    int `json:"total"`
		Vertices []struct {
			Vertex uint64 `json:"vertex"`
			Type   string `json:"type"`
		} `json:"vertices"`
	}
	if err := call(ctx, session, "list_vertices", map[string]any{"limit": 1}, &vertices); err != nil {
		fmt.Printf("  ❌ %v\n", err)
		failures++
	} else if len(vertices.Vertices) == 0 {
		fmt.Println("  ⚠️  Graph is empty, skipping adjacency")
	} else {
		first := vertices.Vertices[0]
		fmt.Printf("  ✅ first of %d vertices: %d (%s)\n", vertices.Total, first.Vertex, first.Type)

		var nbrs struct {
			Total int `json:"total"`
		}
		if err := call(ctx, session, "get_neighbors", map[string]any{"vertex": first.Vertex, "direction": "both"}, &nbrs); err != nil {
			fmt.Printf("  ❌ %v\n", err)
			failures++
		} else {
			fmt.Printf("  ✅ %d neighbors\n", nbrs.Total)
		}

		fmt.Println("\n✓ Test 6: resolve_vertex_ref round trip")
		var ref struct {
			Ref    string `json:"ref"`
			Vertex uint64 `json:"vertex"`
		}
		if err := call(ctx, session, "resolve_vertex_ref", map[string]any{"vertex": first.Vertex}, &ref); err != nil {
			fmt.Printf("  ⚠️  Refs unavailable: %v\n", err)
		} else if ref.Vertex != first.Vertex {
			fmt.Printf("  ❌ ref %s resolved to %d, want %d\n", ref.Ref, ref.Vertex, first.Vertex)
			failures++
		} else {
			fmt.Printf("  ✅ %s\n", ref.Ref)
		}
	}

	fmt.Println("\n✓ Test 7: check_graph")
	var check struct {
		Status string `json:"status"`
	}
	if err := call(ctx, session, "check_graph", map[string]any{}, &check); err != nil {
		fmt.Printf("  ❌ %v\n", err)
		failures++
	} else {
		fmt.Printf("  ✅ status %s\n", check.Status)
	}

	fmt.Println("\n=======================================")
	if failures > 0 {
		fmt.Printf("❌ %d tool calls failed\n", failures)
		os.Exit(1)
	}
	fmt.Println("✅ All MCP tool calls complete!")
	fmt.Println("\n💡 To explore interactively, run: go run ./cmd/mcp-client ./grinkit serve ...")
}

// call invokes a tool and decodes its structured result into out.
func call(ctx context.Context, session *mcp.ClientSession, name string, args map[string]any, out any) error {
	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if res.IsError {
		for _, c := range res.Content {
			if t, ok := c.(*mcp.TextContent); ok {
				return fmt.Errorf("%s: %s", name, t.Text)
			}
		}
		return fmt.Errorf("%s failed", name)
	}
	b, err := json.Marshal(res.StructuredContent)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func findServerBinary() string {
	candidates := []string{
		"./grinkit",
		"../../grinkit",
		"../../../grinkit",
	}
	for _, p := range candidates {
		if abs, err := filepath.Abs(p); err == nil {
			if _, err := os.Stat(abs); err == nil {
				return abs
			}
		}
	}
	return ""
}
