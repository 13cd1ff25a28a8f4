package partition

import (
	"context"
	"errors"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

// ErrNoKey is returned by KV.Get when the key does not exist.
var ErrNoKey = errors.New("key not found")

// KV is the slice of etcd the partition engine needs.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// EtcdKV is a KV backed by an etcd v3 cluster.
type EtcdKV struct {
	cli *clientv3.Client
}

var _ KV = (*EtcdKV)(nil)

// NewEtcdKV dials endpoints. The etcd client logs through log.
func NewEtcdKV(endpoints []string, dialTimeout time.Duration, log *zap.Logger) (*EtcdKV, error) {
	if len(endpoints) == 0 {
		return nil, errors.New("etcd: no endpoints")
	}
	if log == nil {
		log = zap.NewNop()
	}
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: dialTimeout,
		Logger:      log,
	})
	if err != nil {
		return nil, fmt.Errorf("etcd dial %v: %w", endpoints, err)
	}
	return &EtcdKV{cli: cli}, nil
}

func (e *EtcdKV) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := e.cli.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("etcd get %s: %w", key, err)
	}
	if len(resp.Kvs) == 0 {
		return nil, fmt.Errorf("etcd get %s: %w", key, ErrNoKey)
	}
	return resp.Kvs[0].Value, nil
}

func (e *EtcdKV) Put(ctx context.Context, key string, value []byte) error {
	if _, err := e.cli.Put(ctx, key, string(value)); err != nil {
		return fmt.Errorf("etcd put %s: %w", key, err)
	}
	return nil
}

func (e *EtcdKV) Close() error { return e.cli.Close() }
