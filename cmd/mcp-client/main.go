package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	flag.Parse()
	args := flag.Args()

	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: mcp-client <server-command> [<args>]")
		fmt.Fprintln(os.Stderr, "Example: mcp-client ./grinkit serve --driver memory --arg social.json")
		os.Exit(2)
	}

	ctx := context.Background()

	// Start the server as a subprocess
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stderr = os.Stderr
	transport := &mcp.CommandTransport{Command: cmd}

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "grinkit-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer session.Close()

	fmt.Println("Connected to grinkit MCP server!")
	printHelp()

	// Interactive REPL
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		parts := strings.Fields(input)

		switch parts[0] {
		case "/exit":
			fmt.Println("Goodbye!")
			return

		case "/tools":
			listTools(ctx, session)

		case "/schema":
			callTool(ctx, session, "describe_schema", map[string]any{})

		case "/vertices":
			args := map[string]any{}
			if len(parts) > 1 {
				args["type"] = parts[1]
			}
			if len(parts) > 2 {
				args["limit"] = atoi(parts[2])
			}
			callTool(ctx, session, "list_vertices", args)

		case "/vertex":
			switch len(parts) {
			case 2:
				callTool(ctx, session, "get_vertex", map[string]any{"vertex": atoi(parts[1])})
			case 3:
				callTool(ctx, session, "get_vertex", map[string]any{"type": parts[1], "original_id": atoi(parts[2])})
			default:
				fmt.Println("usage: /vertex <handle> | /vertex <type> <original_id>")
			}

		case "/neighbors":
			if len(parts) < 2 {
				fmt.Println("usage: /neighbors <handle> [in|out|both] [edge_type]")
				continue
			}
			args := map[string]any{"vertex": atoi(parts[1])}
			if len(parts) > 2 {
				args["direction"] = parts[2]
			}
			if len(parts) > 3 {
				args["edge_type"] = parts[3]
			}
			callTool(ctx, session, "get_neighbors", args)

		case "/ref":
			if len(parts) != 2 {
				fmt.Println("usage: /ref <handle>")
				continue
			}
			callTool(ctx, session, "resolve_vertex_ref", map[string]any{"vertex": atoi(parts[1])})

		case "/resolve":
			if len(parts) != 2 {
				fmt.Println("usage: /resolve <ref>")
				continue
			}
			callTool(ctx, session, "resolve_vertex_ref", map[string]any{"ref": parts[1]})

		case "/check":
			callTool(ctx, session, "check_graph", map[string]any{})

		default:
			printHelp()
		}
	}

	if err := scanner.Err(); err != nil {
		log.Printf("Scanner error: %v", err)
	}
}

func printHelp() {
	fmt.Println("Available commands:")
	fmt.Println("  /tools                            - List available tools")
	fmt.Println("  /schema                           - Describe the graph schema")
	fmt.Println("  /vertices [type] [limit]          - List vertices")
	fmt.Println("  /vertex <handle> | <type> <id>    - Read one vertex")
	fmt.Println("  /neighbors <handle> [dir] [etype] - List adjacent vertices")
	fmt.Println("  /ref <handle>                     - Serialize a vertex ref")
	fmt.Println("  /resolve <ref>                    - Resolve a vertex ref")
	fmt.Println("  /check                            - Run the health checks")
	fmt.Println("  /exit                             - Exit the client")
	fmt.Println()
}

func atoi(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		fmt.Printf("not a number: %q\n", s)
	}
	return n
}

func listTools(ctx context.Context, session *mcp.ClientSession) {
	fmt.Println("Available Tools:")
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			log.Printf("Error listing tools: %v", err)
			return
		}
		fmt.Printf("  - %s: %s\n", tool.Name, tool.Description)
	}
	fmt.Println()
}

func callTool(ctx context.Context, session *mcp.ClientSession, toolName string, args map[string]any) {
	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		log.Printf("Error calling tool: %v", err)
		return
	}

	printResult(result)
}

func printResult(result *mcp.CallToolResult) {
	if result.IsError {
		fmt.Printf("❌ Error: ")
	} else {
		fmt.Printf("✅ Result: ")
	}

	if result.StructuredContent != nil && !result.IsError {
		if b, err := json.MarshalIndent(result.StructuredContent, "", "  "); err == nil {
			fmt.Println(string(b))
			fmt.Println()
			return
		}
	}
	for _, content := range result.Content {
		switch v := content.(type) {
		case *mcp.TextContent:
			fmt.Println(v.Text)
		default:
			jsonData, err := json.MarshalIndent(content, "", "  ")
			if err != nil {
				fmt.Printf("%+v\n", content)
			} else {
				fmt.Println(string(jsonData))
			}
		}
	}
	fmt.Println()
}
