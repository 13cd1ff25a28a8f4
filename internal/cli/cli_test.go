package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grinkit/internal/catalog"
	"grinkit/internal/config"
	"grinkit/internal/grin/grintest"
	"grinkit/internal/output"
)

func writeSocial(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "social.json")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, grintest.Social().Encode(f))
	return path
}

// run executes one grinkit command line and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func runJSON(t *testing.T, out any, args ...string) {
	t.Helper()
	text, err := run(t, append(args, "--json")...)
	require.NoError(t, err, text)
	require.NoError(t, json.Unmarshal([]byte(text), out), text)
}

func TestStorageArgs(t *testing.T) {
	base := config.Default()

	tests := []struct {
		name     string
		cfg      config.Config
		expected []string
	}{
		{
			name:     "memory untouched",
			cfg:      base.WithDriver("memory", "g.json"),
			expected: []string{"g.json"},
		},
		{
			name:     "duckdb in memory with tuning",
			cfg:      base.WithDriver("duckdb"),
			expected: []string{"", "threads=4", "memory_limit_gb=2", "timeout=10s"},
		},
		{
			name:     "duckdb keeps explicit options",
			cfg:      base.WithDriver("duckdb", "g.db", "threads=8"),
			expected: []string{"g.db", "threads=8", "memory_limit_gb=2", "timeout=10s"},
		},
		{
			name:     "neo4j from config",
			cfg:      base.WithDriver("neo4j"),
			expected: []string{"neo4j://localhost:7687", "neo4j", "", "neo4j"},
		},
		{
			name:     "etcd fills endpoint epoch and prefix",
			cfg:      base.WithDriver("etcd", "", "2", "0,1"),
			expected: []string{"127.0.0.1:2379", "2", "0,1", "latest", "gart_meta_"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, storageArgs(tt.cfg))
		})
	}
}

func TestSchemaCommand(t *testing.T) {
	path := writeSocial(t)

	out, err := run(t, "schema", "--driver", "memory", "--arg", path)
	require.NoError(t, err)
	for _, want := range []string{"GRINKIT REPORT memory", "person", "likes", "person->post"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}

	var schema output.SchemaView
	runJSON(t, &schema, "schema", "--driver", "memory", "--arg", path)
	assert.Equal(t, grintest.VertexCount, schema.VertexNum)
	assert.Equal(t, grintest.EdgeCount, schema.EdgeNum)
	assert.Len(t, schema.EdgeTypes, 3)

	out, err = run(t, "schema", "--gart", "--driver", "memory", "--arg", path)
	require.NoError(t, err)
	parsed, err := catalog.ParseGARTSchema([]byte(out))
	require.NoError(t, err)
	assert.Len(t, parsed.VertexTypes, 2)
}

func TestVertexCommands(t *testing.T) {
	path := writeSocial(t)
	flags := []string{"--driver", "memory", "--arg", path}

	var persons []output.VertexView
	runJSON(t, &persons, append([]string{"vertices", "--type", "person"}, flags...)...)
	assert.Len(t, persons, grintest.PersonCount)

	var limited []output.VertexView
	runJSON(t, &limited, append([]string{"vertices", "-n", "2", "--offset", "1"}, flags...)...)
	assert.Len(t, limited, 2)

	var post output.VertexView
	runJSON(t, &post, append([]string{"vertex", "--type", "post", "--id", "101"}, flags...)...)
	assert.Equal(t, "graphs", post.Properties["title"])

	var alice output.VertexView
	runJSON(t, &alice, append([]string{"vertex", "--type", "person", "--id", "1"}, flags...)...)
	assert.Equal(t, "alice", alice.Properties["name"])
	handle := strconv.FormatUint(alice.Vertex, 10)

	var nbrs []output.NeighborView
	runJSON(t, &nbrs, append([]string{"neighbors", handle, "--edge-type", "likes"}, flags...)...)
	require.Len(t, nbrs, 1)
	assert.Equal(t, "post", nbrs[0].NeighborType)
	assert.Equal(t, "nice", nbrs[0].EdgeProperties["note"])

	out, err := run(t, append([]string{"neighbors", handle, "--direction", "in"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "2 of 2 neighbors")

	var ref refResult
	runJSON(t, &ref, append([]string{"ref", handle}, flags...)...)
	assert.True(t, ref.Found)
	assert.True(t, ref.IsMaster)
	assert.Equal(t, alice.Vertex, ref.Vertex)

	var back refResult
	runJSON(t, &back, append([]string{"ref", "--resolve", ref.Ref}, flags...)...)
	assert.Equal(t, ref, back)
}

func TestCommandErrors(t *testing.T) {
	path := writeSocial(t)

	tests := []struct {
		name string
		args []string
	}{
		{"bad log level", []string{"schema", "--driver", "memory", "--arg", path, "--log-level", "loud"}},
		{"unknown driver", []string{"schema", "--driver", "tape"}},
		{"vertex needs a handle", []string{"vertex", "--driver", "memory", "--arg", path}},
		{"bad handle", []string{"neighbors", "abc", "--driver", "memory", "--arg", path}},
		{"bad direction", []string{"neighbors", "1", "--direction", "up", "--driver", "memory", "--arg", path}},
		{"unknown type", []string{"vertices", "--type", "robot", "--driver", "memory", "--arg", path}},
		{"bad scope", []string{"vertices", "--scope", "remote", "--driver", "memory", "--arg", path}},
		{"unpartitioned", []string{"partitions", "--driver", "memory", "--arg", path}},
		{"import target", []string{"import", "--dataset", path, "--to", "tape"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, tt.args...); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestPartitionsCommand(t *testing.T) {
	path := writeSocial(t)

	out, err := run(t, "partitions", "--driver", "memory", "--arg", path, "--arg", "2", "--partition", "1")
	require.NoError(t, err)
	for _, want := range []string{"memory, 2 partitions", "Partition 0", "Partition 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestCheckCommand(t *testing.T) {
	path := writeSocial(t)

	out, err := run(t, "check", "--driver", "memory", "--arg", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Dangling Edges")
	assert.Contains(t, out, "Status: ")

	var view output.ReportView
	runJSON(t, &view, "check", "--driver", "memory", "--arg", path, "--sample-limit", "3")
	assert.Equal(t, "OK", view.Status)
	assert.NotNil(t, view.SectionByID(output.SectionChecks))
}

func TestExportCommand(t *testing.T) {
	path := writeSocial(t)
	exported := filepath.Join(t.TempDir(), "out.json")

	_, err := run(t, "export", "-o", exported, "--driver", "memory", "--arg", path)
	require.NoError(t, err)

	ds, err := catalog.LoadDataset(exported)
	require.NoError(t, err)
	assert.Len(t, ds.Vertices, grintest.VertexCount)
	assert.Len(t, ds.Edges, grintest.EdgeCount)
}

func TestImportDuckDB(t *testing.T) {
	path := writeSocial(t)
	dsn := filepath.Join(t.TempDir(), "social.duckdb")

	out, err := run(t, "import", "--dataset", path, "--to", "duckdb", "--dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 6 vertices, 9 edges")

	var persons []output.VertexView
	runJSON(t, &persons, "vertices", "--type", "person", "--driver", "duckdb", "--arg", dsn)
	assert.Len(t, persons, grintest.PersonCount)
}
