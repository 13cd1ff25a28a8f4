package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grinkit/internal/grin"
)

func TestRegisterAndOpen(t *testing.T) {
	var got []string
	Register("test-echo", func(_ context.Context, args []string) (grin.Graph, error) {
		got = args
		return nil, grin.InvalidValuef("echo", "no graph")
	})

	_, err := Open(context.Background(), "test-echo", "a", "b")
	assert.Equal(t, grin.InvalidValue, grin.CodeOf(err))
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Contains(t, Drivers(), "test-echo")
	assert.False(t, IsPartitioned("test-echo"))
}

func TestRegisterTwicePanics(t *testing.T) {
	open := func(context.Context, []string) (grin.Graph, error) { return nil, nil }
	Register("test-twice", open)
	assert.Panics(t, func() { Register("test-twice", open) })
	assert.Panics(t, func() { Register("test-nil", nil) })
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "no-such-engine")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forgotten import")

	_, err = OpenPartitioned(context.Background(), "no-such-engine")
	assert.Equal(t, grin.InvalidValue, grin.CodeOf(err))
}

func TestRegisterPartitioned(t *testing.T) {
	RegisterPartitioned("test-parts", func(context.Context, []string) (grin.PartitionedGraph, error) {
		return nil, nil
	})
	assert.True(t, IsPartitioned("test-parts"))
	pg, err := OpenPartitioned(context.Background(), "test-parts")
	assert.NoError(t, err)
	assert.Nil(t, pg)
}
