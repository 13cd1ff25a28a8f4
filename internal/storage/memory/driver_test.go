package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grinkit/internal/grin"
	"grinkit/internal/grin/grintest"
	"grinkit/internal/storage"
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

func TestOpenThroughRegistry(t *testing.T) {
	path := writeSocial(t)

	g, err := storage.Open(context.Background(), DriverName, path)
	require.NoError(t, err)
	defer g.Close()
	grintest.Run(t, g)
}

func TestOpenPartitionedThroughRegistry(t *testing.T) {
	path := writeSocial(t)

	pg, err := storage.OpenPartitioned(context.Background(), DriverName, path, "3", "2")
	require.NoError(t, err)
	defer pg.Close()

	assert.Equal(t, 3, pg.TotalPartitions())
	assert.Equal(t, []grin.Partition{2}, pg.LocalPartitions())
	g, err := pg.LocalGraph(2)
	require.NoError(t, err)
	assert.True(t, g.Capabilities().Has(grin.CapPartition))
}

func TestOpenArgs(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		args []string
	}{
		{"no args", nil},
		{"one arg", []string{"x.json"}},
		{"bad count", []string{"x.json", "zero"}},
		{"bad local", []string{"x.json", "2", "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := storage.OpenPartitioned(ctx, DriverName, tt.args...)
			assert.Equal(t, grin.InvalidValue, grin.CodeOf(err))
		})
	}

	_, err := storage.Open(ctx, DriverName)
	assert.Equal(t, grin.InvalidValue, grin.CodeOf(err))
	_, err = storage.Open(ctx, DriverName, filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
