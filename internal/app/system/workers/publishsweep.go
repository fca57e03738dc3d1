// internal/app/system/workers/publishsweep.go

// Package workers holds background loops that run for the lifetime of the
// process. Each worker owns its ticker and shuts down cleanly via Stop.
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	contentstore "github.com/dalemusser/contenthub/internal/app/store/content"
)

// PublishSweep is a background worker that promotes scheduled content to
// published once its publish time has passed.
type PublishSweep struct {
	content  *contentstore.Store
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewPublishSweep creates a new scheduled-publish worker.
//
// Parameters:
//   - store: the content store
//   - logger: zap logger for logging
//   - interval: how often to sweep (e.g., 1 minute)
func NewPublishSweep(store *contentstore.Store, logger *zap.Logger, interval time.Duration) *PublishSweep {
	return &PublishSweep{
		content:  store,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *PublishSweep) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("publish sweep worker started",
		zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *PublishSweep) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("publish sweep worker stopped")
}

func (w *PublishSweep) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *PublishSweep) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := w.content.PublishDue(ctx, time.Now().UTC())
	if err != nil {
		w.log.Error("failed to publish due content", zap.Error(err))
		return
	}

	if count > 0 {
		w.log.Info("published scheduled content", zap.Int64("count", count))
	}
}
