package output

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grinkit/internal/engine"
	"grinkit/internal/grin/grintest"
	"grinkit/internal/storage/memory"
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

func TestBuildReport(t *testing.T) {
	g, err := memory.BuildGraph(grintest.Social())
	require.NoError(t, err)

	view := BuildReport("social", g, nil)
	assert.Equal(t, "social", view.Title)
	assert.Empty(t, view.Status, "no checks ran")
	assert.Nil(t, view.SectionByID(SectionChecks))

	summary := view.SectionByID(SectionSummary)
	require.NotNil(t, summary)
	if got := summary.ItemByKey("vertices").Value; got != float64(grintest.VertexCount) {
		t.Errorf("Expected %d vertices, got %v", grintest.VertexCount, got)
	}

	person := view.SectionByID(SectionVertices).ItemByKey("person")
	require.NotNil(t, person)
	assert.Equal(t, float64(grintest.PersonCount), person.Value)
	assert.Equal(t, "5 properties", person.Note)

	likes := view.SectionByID(SectionEdges).ItemByKey("likes")
	require.NotNil(t, likes)
	assert.Equal(t, "person->post", likes.Note)

	assert.Nil(t, view.SectionByID("missing"))
	assert.Nil(t, summary.ItemByKey("missing"))
}

func TestBuildReportWithChecks(t *testing.T) {
	g, err := memory.BuildGraph(grintest.Social())
	require.NoError(t, err)
	results := []engine.CheckResult{
		{Name: engine.CheckDanglingEdges, Status: engine.StatusHealthy},
		{Name: engine.CheckIsolated, Value: 60, Status: engine.StatusWarning, Detail: "3 of 5 sampled"},
	}

	view := BuildReport("social", g, results)
	assert.Equal(t, engine.StatusWarning, view.Status)

	checks := view.SectionByID(SectionChecks)
	require.NotNil(t, checks)
	isolated := checks.ItemByKey("isolated_vertices")
	require.NotNil(t, isolated)
	assert.Equal(t, "%", isolated.Unit)
	assert.Equal(t, "3 of 5 sampled", isolated.Note)
	assert.Empty(t, checks.ItemByKey("dangling_edges").Unit)
}

func TestRunPipeline(t *testing.T) {
	path := writeSocial(t)

	view, err := RunPipeline(context.Background(), Target{Driver: memory.DriverName, Args: []string{path}})
	require.NoError(t, err)
	assert.Equal(t, engine.StatusHealthy, view.Status)
	assert.Equal(t, grintest.EdgeCount, view.EdgeNum)
	assert.Nil(t, view.SectionByID(SectionPartitions))
}

func TestRunPipelinePartitioned(t *testing.T) {
	path := writeSocial(t)

	target := Target{Driver: memory.DriverName, Args: []string{path, "3"}, Partitioned: true, Partition: 1}
	assert.Equal(t, "memory partition 1", target.String())

	view, err := RunPipeline(context.Background(), target)
	require.NoError(t, err)
	parts := view.SectionByID(SectionPartitions)
	require.NotNil(t, parts)
	assert.Len(t, parts.Items, 3)
	assert.Equal(t, "Partitions (3 total)", parts.Title)
}

func TestRunPipelineErrors(t *testing.T) {
	_, err := RunPipeline(context.Background(), Target{Driver: "nope"})
	assert.Error(t, err)

	_, err = RunPipeline(context.Background(), Target{Driver: memory.DriverName, Args: []string{writeSocial(t), "2"}, Partitioned: true, Partition: 5})
	assert.Error(t, err)
}
