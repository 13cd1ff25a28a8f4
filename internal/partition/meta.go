// Package partition serves partitioned graphs whose fragments are published
// to etcd under the GART metadata layout. A process opens only its local
// partitions; the rest of the graph is reachable through vertex refs.
package partition

import (
	"strconv"

	"github.com/goccy/go-json"

	"grinkit/internal/grin"
)

// DefaultPrefix is the key prefix used when none is given.
const DefaultPrefix = "gart_meta_"

func schemaKey(prefix string, p int) string {
	return prefix + "gart_schema_p" + strconv.Itoa(p)
}

// blobKey follows the GART writer, which only ever publishes machine 0.
func blobKey(prefix string, p int, epoch uint64) string {
	return prefix + "gart_blob_m0_p" + strconv.Itoa(p) + "_e" + formatEpoch(epoch)
}

func dataKey(prefix string, p int, epoch uint64) string {
	return prefix + "gart_data_p" + strconv.Itoa(p) + "_e" + formatEpoch(epoch)
}

func latestEpochKey(prefix string, p int) string {
	return prefix + "gart_latest_epoch_p" + strconv.Itoa(p)
}

// BlobConfig describes one published fragment of one epoch.
type BlobConfig struct {
	Fnum           int    `json:"fnum"`
	Fid            int    `json:"fid"`
	VertexLabelNum int    `json:"vertex_label_num"`
	Epoch          uint64 `json:"epoch"`
	DataKey        string `json:"data_key"`
}

func parseBlobConfig(b []byte) (*BlobConfig, error) {
	var c BlobConfig
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, grin.InvalidValuef("blob config", "decode: %v", err)
	}
	if c.DataKey == "" {
		return nil, grin.InvalidValuef("blob config", "no data key for partition %d", c.Fid)
	}
	return &c, nil
}

func parseEpoch(b []byte) (uint64, error) {
	e, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0, grin.InvalidValuef("latest epoch", "bad epoch %q", b)
	}
	return e, nil
}

func formatEpoch(e uint64) string { return strconv.FormatUint(e, 10) }
