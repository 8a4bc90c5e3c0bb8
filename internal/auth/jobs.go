package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"boutique/pkg/logger"
)

// JobProcessor periodically removes expired refresh records so the table
// does not grow with abandoned sessions.
type JobProcessor struct {
	store    RefreshTokenStore
	interval time.Duration
	log      *logger.Logger
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewJobProcessor(store RefreshTokenStore, interval time.Duration, log *logger.Logger) *JobProcessor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &JobProcessor{
		store:    store,
		interval: interval,
		log:      log,
		done:     make(chan struct{}),
	}
}

func (jp *JobProcessor) Start(ctx context.Context) {
	jp.wg.Add(1)
	go func() {
		defer jp.wg.Done()
		jp.run(ctx)
	}()
	jp.log.Info("refresh token sweeper started", slog.Duration("interval", jp.interval))
}

func (jp *JobProcessor) Stop() {
	jp.stopOnce.Do(func() { close(jp.done) })
	jp.wg.Wait()
}

func (jp *JobProcessor) run(ctx context.Context) {
	ticker := time.NewTicker(jp.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			jp.Sweep(ctx)
		case <-jp.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Sweep runs one cleanup pass and returns the number of removed records.
func (jp *JobProcessor) Sweep(ctx context.Context) int64 {
	removed, err := jp.store.DeleteExpired(ctx, time.Now())
	if err != nil {
		jp.log.Error("failed to delete expired refresh tokens", logger.Err(err))
		return 0
	}
	if removed > 0 {
		jp.log.Info("expired refresh tokens deleted", slog.Int64("count", removed))
	}
	return removed
}
