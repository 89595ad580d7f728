package achievement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	svcErr "github.com/oggyb/daily-riddle/internal/errors"
)

// RetryStore is the list backing the retry queue.
type RetryStore interface {
	EnqueueAchievementRetry(ctx context.Context, payload []byte) error
	PopAchievementRetry(ctx context.Context) ([]byte, bool, error)
}

// RetryQueue holds the mutations whose evaluation failed after commit.
type RetryQueue struct {
	store RetryStore
}

func NewRetryQueue(store RetryStore) *RetryQueue {
	return &RetryQueue{store: store}
}

// Enqueue stores the snapshot m for a later Replay.
func (q *RetryQueue) Enqueue(ctx context.Context, m Mutation) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode achievement retry: %w", err)
	}
	return q.store.EnqueueAchievementRetry(ctx, payload)
}

// Pop takes the oldest snapshot. A payload that is not a JSON object is
// read as a bare user id with zero counters.
func (q *RetryQueue) Pop(ctx context.Context) (Mutation, bool, error) {
	payload, ok, err := q.store.PopAchievementRetry(ctx)
	if err != nil || !ok {
		return Mutation{}, ok, err
	}
	var m Mutation
	if err := json.Unmarshal(payload, &m); err != nil || m.UserID == "" {
		return Mutation{UserID: string(payload)}, true, nil
	}
	return m, true, nil
}

// RetryWorker replays queued snapshots until the queue is empty.
type RetryWorker struct {
	queue    *RetryQueue
	engine   *Engine
	interval time.Duration
	log      *slog.Logger
}

func NewRetryWorker(queue *RetryQueue, engine *Engine, interval time.Duration, log *slog.Logger) *RetryWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &RetryWorker{queue: queue, engine: engine, interval: interval, log: log}
}

// Run drains the queue every interval until ctx is done.
func (w *RetryWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("achievement retry worker started", "interval", w.interval)
	for {
		select {
		case <-ctx.Done():
			w.log.Info("achievement retry worker stopped")
			return
		case <-ticker.C:
			if n, err := w.Drain(ctx); err != nil {
				w.log.Warn("achievement retry drain failed", "processed", n, "err", err)
			} else if n > 0 {
				w.log.Debug("achievement retries processed", "count", n)
			}
		}
	}
}

// Drain replays queued snapshots and returns how many were evaluated.
//
// Behavior:
//   - Unknown users are dropped.
//   - A failed evaluation puts the user back and ends this round, so a
//     broken store is not hammered in a tight loop.
func (w *RetryWorker) Drain(ctx context.Context) (int, error) {
	processed := 0
	for {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		m, ok, err := w.queue.Pop(ctx)
		if err != nil {
			return processed, err
		}
		if !ok {
			return processed, nil
		}

		_, err = w.engine.Replay(ctx, m)
		switch {
		case errors.Is(err, svcErr.ErrNotFound):
			w.log.Warn("dropping achievement retry for unknown user", "user", m.UserID)
		case err != nil:
			if qerr := w.queue.Enqueue(ctx, m); qerr != nil {
				w.log.Error("failed to requeue achievement retry", "user", m.UserID, "err", qerr)
			}
			return processed, err
		default:
			processed++
		}
	}
}
