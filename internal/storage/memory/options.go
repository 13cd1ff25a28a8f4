package memory

import (
	"go.uber.org/zap"

	"grinkit/internal/grin"
)

type options struct {
	log         *zap.Logger
	partitions  int
	partitioner Partitioner
	local       []grin.Partition
}

// Option configures Build and NewFragment.
type Option func(*options)

// WithLogger sets the logger used for build diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithPartitions sets how many fragments Build produces (default: 1).
func WithPartitions(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.partitions = n
		}
	}
}

// WithPartitioner chooses the master partition of each vertex
// (default: HashPartitioner).
func WithPartitioner(p Partitioner) Option {
	return func(o *options) {
		if p != nil {
			o.partitioner = p
		}
	}
}

// WithLocalPartitions restricts which partitions the graph reports as
// resident (default: all).
func WithLocalPartitions(ps ...grin.Partition) Option {
	return func(o *options) {
		o.local = append([]grin.Partition(nil), ps...)
	}
}

func applyOptions(opts []Option) *options {
	o := &options{
		log:         zap.NewNop(),
		partitions:  1,
		partitioner: HashPartitioner{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
