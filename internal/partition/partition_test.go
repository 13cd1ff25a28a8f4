package partition

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grinkit/internal/catalog"
	"grinkit/internal/grin"
	"grinkit/internal/grin/grintest"
	"grinkit/internal/storage"
	"grinkit/internal/storage/memory"
)

type fakeKV struct {
	mu      sync.Mutex
	data    map[string][]byte
	puts    []string
	failGet string
	closed  bool
}

func newFakeKV() *fakeKV { return &fakeKV{data: map[string][]byte{}} }

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != "" && strings.Contains(key, f.failGet) {
		return nil, errors.New("connection refused")
	}
	v, ok := f.data[key]
	if !ok {
		return nil, ErrNoKey
	}
	return v, nil
}

func (f *fakeKV) Put(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = append([]byte(nil), value...)
	f.puts = append(f.puts, key)
	return nil
}

func (f *fakeKV) Close() error {
	f.closed = true
	return nil
}

func (f *fakeKV) value(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.data[key])
}

func buildSocial(t *testing.T, ds *catalog.Dataset, n int) *memory.PartitionedGraph {
	t.Helper()
	pg, err := memory.Build(context.Background(), ds,
		memory.WithPartitions(n),
		memory.WithPartitioner(memory.PartitionerFunc(grintest.SocialMaster)))
	require.NoError(t, err)
	return pg
}

func publishSocial(t *testing.T, kv KV, n int) PublishResult {
	t.Helper()
	res, err := Publish(context.Background(), kv, DefaultPrefix, buildSocial(t, grintest.Social(), n), nil)
	require.NoError(t, err)
	return res
}

func TestPublishLayout(t *testing.T) {
	kv := newFakeKV()
	res := publishSocial(t, kv, 2)
	if res.Epoch != 0 || res.Partitions != 2 {
		t.Fatalf("Expected epoch 0 over 2 partitions, got %+v", res)
	}
	assert.Positive(t, res.Bytes)

	for _, key := range []string{
		"gart_meta_gart_schema_p0",
		"gart_meta_gart_schema_p1",
		"gart_meta_gart_blob_m0_p0_e0",
		"gart_meta_gart_blob_m0_p1_e0",
		"gart_meta_gart_data_p1_e0",
	} {
		assert.NotEmpty(t, kv.value(key), key)
	}
	assert.Equal(t, "0", kv.value("gart_meta_gart_latest_epoch_p1"))
	assert.JSONEq(t,
		`{"fnum":2,"fid":1,"vertex_label_num":2,"epoch":0,"data_key":"gart_meta_gart_data_p1_e0"}`,
		kv.value("gart_meta_gart_blob_m0_p1_e0"))

	// readers must never see a latest epoch before its fragments
	assert.Equal(t, []string{"gart_meta_gart_latest_epoch_p0", "gart_meta_gart_latest_epoch_p1"}, kv.puts[len(kv.puts)-2:])

	schema, err := catalog.ParseGARTSchema([]byte(kv.value("gart_meta_gart_schema_p0")))
	require.NoError(t, err)
	assert.Equal(t, grintest.SocialSchema(), *schema)
}

func TestOpenPublishedPartitions(t *testing.T) {
	kv := newFakeKV()
	publishSocial(t, kv, 2)

	g, err := Open(context.Background(), kv, 2, []grin.Partition{0, 1}, LatestEpoch)
	require.NoError(t, err)
	defer g.Close()

	assert.Equal(t, 2, g.TotalPartitions())
	assert.Equal(t, []grin.Partition{0, 1}, g.LocalPartitions())
	assert.Equal(t, grin.Partition(1), g.PartitionByID(g.PartitionID(1)))
	assert.Equal(t, grin.NullPartition, g.PartitionByID(2))

	tests := []struct {
		p               grin.Partition
		vertices, edges int
		masters         int
	}{
		{p: 0, vertices: 5, edges: 7, masters: 3},
		{p: 1, vertices: 5, edges: 5, masters: 3},
	}
	for _, tt := range tests {
		lg, err := g.LocalGraph(tt.p)
		require.NoError(t, err)
		assert.Equal(t, tt.vertices, lg.VertexNum(), "partition %d vertices", tt.p)
		assert.Equal(t, tt.edges, lg.EdgeNum(), "partition %d edges", tt.p)

		masters, err := lg.Vertices(grin.VertexQuery{Type: grin.NullVertexType, Scope: grin.ScopeMaster})
		require.NoError(t, err)
		assert.Equal(t, tt.masters, masters.Len())
	}
	assert.False(t, kv.closed, "Close leaves a borrowed KV open")
}

func TestSinglePartitionConformance(t *testing.T) {
	kv := newFakeKV()
	publishSocial(t, kv, 1)

	g, err := Open(context.Background(), kv, 1, []grin.Partition{0}, 0)
	require.NoError(t, err)
	lg, err := g.LocalGraph(0)
	require.NoError(t, err)
	grintest.Run(t, lg)
}

func TestRefsAcrossProcesses(t *testing.T) {
	kv := newFakeKV()
	publishSocial(t, kv, 2)

	// two readers, each holding one partition
	g0, err := Open(context.Background(), kv, 2, []grin.Partition{0}, LatestEpoch)
	require.NoError(t, err)
	g1, err := Open(context.Background(), kv, 2, []grin.Partition{1}, LatestEpoch)
	require.NoError(t, err)

	_, err = g0.LocalGraph(1)
	assert.Equal(t, grin.InvalidValue, grin.CodeOf(err))

	f0, err := g0.Fragment(0)
	require.NoError(t, err)
	f1, err := g1.Fragment(1)
	require.NoError(t, err)

	alice := grintest.Find(t, f0, "person", "alice")
	ref, err := f0.VertexRef(alice)
	require.NoError(t, err)

	mirror, err := f1.VertexFromRef(ref)
	require.NoError(t, err)
	require.NotEqual(t, grin.NullVertex, mirror)
	assert.True(t, f1.IsMirror(mirror))

	master, err := f1.MasterPartition(ref)
	require.NoError(t, err)
	assert.Equal(t, grin.Partition(0), master)
}

func TestRepublishBumpsEpoch(t *testing.T) {
	kv := newFakeKV()
	publishSocial(t, kv, 2)
	res := publishSocial(t, kv, 2)
	if res.Epoch != 1 {
		t.Fatalf("Expected epoch 1, got %d", res.Epoch)
	}

	g, err := Open(context.Background(), kv, 2, []grin.Partition{0}, LatestEpoch)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), g.Epoch())

	old, err := Open(context.Background(), kv, 2, []grin.Partition{0}, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), old.Epoch())
}

func TestLatestEpochIsOldestLocal(t *testing.T) {
	kv := newFakeKV()
	publishSocial(t, kv, 2)
	publishSocial(t, kv, 2)
	require.NoError(t, kv.Put(context.Background(), latestEpochKey(DefaultPrefix, 1), []byte("0")))

	g, err := Open(context.Background(), kv, 2, []grin.Partition{0, 1}, LatestEpoch)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), g.Epoch())
}

func TestOpenErrors(t *testing.T) {
	kv := newFakeKV()
	publishSocial(t, kv, 2)

	tests := []struct {
		name  string
		kv    KV
		total int
		local []grin.Partition
		epoch uint64
		want  grin.ErrorCode
	}{
		{"unpublished epoch", kv, 2, []grin.Partition{0}, 5, grin.InvalidValue},
		{"partition count mismatch", kv, 3, []grin.Partition{0}, 0, grin.InvalidValue},
		{"local out of range", kv, 2, []grin.Partition{2}, 0, grin.InvalidValue},
		{"no local partitions", kv, 2, nil, 0, grin.InvalidValue},
		{"zero partitions", kv, 0, []grin.Partition{0}, 0, grin.InvalidValue},
		{"empty store", newFakeKV(), 2, []grin.Partition{0}, LatestEpoch, grin.InvalidValue},
		{"store failure", &fakeKV{data: kv.data, failGet: "gart_data"}, 2, []grin.Partition{0}, 0, grin.UnknownError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(context.Background(), tt.kv, tt.total, tt.local, tt.epoch)
			if grin.CodeOf(err) != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestBadBlobConfig(t *testing.T) {
	kv := newFakeKV()
	publishSocial(t, kv, 2)
	ctx := context.Background()

	require.NoError(t, kv.Put(ctx, blobKey(DefaultPrefix, 0, 0),
		[]byte(`{"fnum":2,"fid":1,"vertex_label_num":2,"epoch":0,"data_key":"x"}`)))
	_, err := Open(ctx, kv, 2, []grin.Partition{0}, 0)
	assert.Equal(t, grin.InvalidValue, grin.CodeOf(err))

	require.NoError(t, kv.Put(ctx, blobKey(DefaultPrefix, 0, 0), []byte(`{"fnum":2,"fid":0}`)))
	_, err = Open(ctx, kv, 2, []grin.Partition{0}, 0)
	assert.Equal(t, grin.InvalidValue, grin.CodeOf(err))

	require.NoError(t, kv.Put(ctx, latestEpochKey(DefaultPrefix, 0), []byte("soon")))
	_, err = Open(ctx, kv, 2, []grin.Partition{0}, LatestEpoch)
	assert.Equal(t, grin.InvalidValue, grin.CodeOf(err))
}

func TestReloadFailureKeepsEpoch(t *testing.T) {
	kv := newFakeKV()
	publishSocial(t, kv, 2)
	g, err := Open(context.Background(), kv, 2, []grin.Partition{0}, LatestEpoch)
	require.NoError(t, err)

	err = g.Reload(context.Background(), 7)
	assert.Equal(t, grin.InvalidValue, grin.CodeOf(err))
	assert.Equal(t, uint64(0), g.Epoch())
	_, err = g.LocalGraph(0)
	assert.NoError(t, err)
}

// gatedKV holds every fragment read until want of them are in flight.
type gatedKV struct {
	*fakeKV
	want    int32
	waiting atomic.Int32
	open    chan struct{}
}

func (k *gatedKV) Get(ctx context.Context, key string) ([]byte, error) {
	if strings.Contains(key, "gart_data_p") {
		if k.waiting.Add(1) == k.want {
			close(k.open)
		}
		select {
		case <-k.open:
		case <-time.After(2 * time.Second):
			return nil, errors.New("fragment reads were serialized")
		}
	}
	return k.fakeKV.Get(ctx, key)
}

func TestReloadLoadsPartitionsConcurrently(t *testing.T) {
	kv := newFakeKV()
	publishSocial(t, kv, 3)
	gated := &gatedKV{fakeKV: kv, want: 3, open: make(chan struct{})}

	g, err := Open(context.Background(), gated, 3, []grin.Partition{0, 1, 2}, LatestEpoch)
	require.NoError(t, err)
	defer g.Close()

	masters := 0
	for _, p := range []grin.Partition{0, 1, 2} {
		lg, err := g.LocalGraph(p)
		require.NoError(t, err)
		l, err := lg.Vertices(grin.VertexQuery{Type: grin.NullVertexType, Scope: grin.ScopeMaster})
		require.NoError(t, err)
		masters += l.Len()
	}
	if masters != grintest.VertexCount {
		t.Errorf("Expected %d masters across partitions, got %d", grintest.VertexCount, masters)
	}
}

func TestReloadPartialFailureKeepsEpoch(t *testing.T) {
	kv := newFakeKV()
	publishSocial(t, kv, 2)
	g, err := Open(context.Background(), kv, 2, []grin.Partition{0, 1}, LatestEpoch)
	require.NoError(t, err)
	before, err := g.LocalGraph(0)
	require.NoError(t, err)

	kv.failGet = "gart_data_p1"
	err = g.Reload(context.Background(), 0)
	assert.Equal(t, grin.UnknownError, grin.CodeOf(err))

	after, err := g.LocalGraph(0)
	require.NoError(t, err)
	assert.Same(t, before, after, "a failed reload must not swap any partition")
}

func TestWatcherPollOnce(t *testing.T) {
	kv := newFakeKV()
	publishSocial(t, kv, 2)
	g, err := Open(context.Background(), kv, 2, []grin.Partition{0, 1}, LatestEpoch)
	require.NoError(t, err)
	before, err := g.LocalGraph(0)
	require.NoError(t, err)

	var swapped []uint64
	w, err := NewEpochWatcher(g, time.Hour, func(e uint64) { swapped = append(swapped, e) })
	require.NoError(t, err)

	reloaded, err := w.PollOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, reloaded)

	ds := grintest.Social()
	ds.Edges = ds.Edges[:len(ds.Edges)-1]
	_, err = Publish(context.Background(), kv, DefaultPrefix, buildSocial(t, ds, 2), nil)
	require.NoError(t, err)

	reloaded, err = w.PollOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, reloaded)
	assert.Equal(t, []uint64{1}, swapped)
	assert.Equal(t, uint64(1), g.Epoch())

	after0, err := g.LocalGraph(0)
	require.NoError(t, err)
	after1, err := g.LocalGraph(1)
	require.NoError(t, err)
	f0, _ := g.Fragment(0)
	assert.NotSame(t, before, f0)
	assert.Less(t, after0.EdgeNum()+after1.EdgeNum(), 12)
	// graphs handed out earlier keep their epoch
	assert.Equal(t, 7, before.EdgeNum())
}

func TestWatcherLoop(t *testing.T) {
	kv := newFakeKV()
	publishSocial(t, kv, 1)
	g, err := Open(context.Background(), kv, 1, []grin.Partition{0}, LatestEpoch)
	require.NoError(t, err)

	var swaps atomic.Int32
	w, err := NewEpochWatcher(g, 5*time.Millisecond, func(uint64) { swaps.Add(1) })
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()), "second Start")

	publishSocial(t, kv, 1)
	require.Eventually(t, func() bool { return g.Epoch() == 1 }, 2*time.Second, 5*time.Millisecond)
	w.Stop()
	assert.Equal(t, int32(1), swaps.Load())

	// a stopped watcher can be started again
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
}

func TestNewEpochWatcherRequiresGraph(t *testing.T) {
	_, err := NewEpochWatcher(nil, 0, nil)
	assert.Error(t, err)
}

func TestParseDriverArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    *driverArgs
		wantErr bool
	}{
		{
			name: "defaults",
			args: []string{"127.0.0.1:2379", "4", "2"},
			want: &driverArgs{endpoints: []string{"127.0.0.1:2379"}, total: 4, local: []grin.Partition{2}, epoch: LatestEpoch, prefix: DefaultPrefix},
		},
		{
			name: "full",
			args: []string{"a:2379, b:2379", "4", "0,3", "12", "demo_"},
			want: &driverArgs{endpoints: []string{"a:2379", "b:2379"}, total: 4, local: []grin.Partition{0, 3}, epoch: 12, prefix: "demo_"},
		},
		{
			name: "latest keyword",
			args: []string{"e", "1", "0", "latest"},
			want: &driverArgs{endpoints: []string{"e"}, total: 1, local: []grin.Partition{0}, epoch: LatestEpoch, prefix: DefaultPrefix},
		},
		{name: "too few", args: []string{"e", "1"}, wantErr: true},
		{name: "no endpoint", args: []string{" , ", "1", "0"}, wantErr: true},
		{name: "bad total", args: []string{"e", "zero", "0"}, wantErr: true},
		{name: "local out of range", args: []string{"e", "2", "2"}, wantErr: true},
		{name: "bad epoch", args: []string{"e", "2", "0", "-1"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDriverArgs(tt.args)
			if tt.wantErr {
				if grin.CodeOf(err) != grin.InvalidValue {
					t.Errorf("Expected InvalidValue, got %v", err)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDriverRegistered(t *testing.T) {
	assert.True(t, storage.IsPartitioned(DriverName))
	_, err := storage.OpenPartitioned(context.Background(), DriverName, "127.0.0.1:2379")
	assert.Equal(t, grin.InvalidValue, grin.CodeOf(err))
}
