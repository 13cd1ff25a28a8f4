package partition

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultPollInterval = 10 * time.Second

// EpochWatcher polls the latest published epoch and reloads the graph when
// a newer one appears.
type EpochWatcher struct {
	graph    *Graph
	interval time.Duration
	onSwap   func(epoch uint64)
	log      *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	wg      sync.WaitGroup
}

// NewEpochWatcher creates a watcher over g. A non-positive interval uses
// the default. onSwap, if set, runs after every successful reload.
func NewEpochWatcher(g *Graph, interval time.Duration, onSwap func(epoch uint64)) (*EpochWatcher, error) {
	if g == nil {
		return nil, errors.New("graph is required")
	}
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &EpochWatcher{
		graph:    g,
		interval: interval,
		onSwap:   onSwap,
		log:      g.log.Named("watcher"),
	}, nil
}

// Start begins the polling loop.
func (w *EpochWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("watcher already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.wg.Add(1)
	w.mu.Unlock()

	go w.loop(ctx)
	return nil
}

// Stop ends the loop and waits for an in-flight reload.
func (w *EpochWatcher) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.running = false
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

// PollOnce checks for a newer epoch immediately. It reports whether the
// graph was reloaded.
func (w *EpochWatcher) PollOnce(ctx context.Context) (bool, error) {
	latest, err := w.graph.LatestEpoch(ctx)
	if err != nil {
		return false, err
	}
	current := w.graph.Epoch()
	if latest <= current {
		return false, nil
	}
	if err := w.graph.Reload(ctx, latest); err != nil {
		return false, err
	}
	if w.onSwap != nil {
		w.onSwap(latest)
	}
	return true, nil
}

func (w *EpochWatcher) loop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.PollOnce(ctx); err != nil && ctx.Err() == nil {
				w.log.Warn("epoch poll failed", zap.Error(err))
			}
		}
	}
}
