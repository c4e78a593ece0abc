package sync

import (
	"context"
	"log/slog"
	stdsync "sync"

	"github.com/google/uuid"
)

const queueCapacity = 64

// Queue decouples local mutations from remote work. Mutating operations
// enqueue tasks without blocking or observing their outcome; a single
// worker runs them in order. Failed tasks are logged only; the next
// mutation or launch pull is the retry mechanism.
type Queue struct {
	engine    *Engine
	logger    *slog.Logger
	tasks     chan func(context.Context)
	pending   stdsync.WaitGroup
	closeOnce stdsync.Once
}

// NewQueue starts the worker goroutine.
func NewQueue(engine *Engine, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}

	q := &Queue{
		engine: engine,
		logger: logger,
		tasks:  make(chan func(context.Context), queueCapacity),
	}

	go q.run()

	return q
}

func (q *Queue) run() {
	for task := range q.tasks {
		task(context.Background())
		q.pending.Done()
	}
}

func (q *Queue) enqueue(name string, fn func(context.Context) error) {
	q.pending.Add(1)

	task := func(ctx context.Context) {
		err := fn(ctx)
		if err != nil {
			q.logger.Error(
				"sync task failed",
				"task", name,
				"error", err,
			)
		}
	}

	select {
	case q.tasks <- task:
	default:
		// A full queue means pushes are already lined up; dropping one
		// loses nothing since every push mirrors the full state.
		q.pending.Done()
		q.logger.Warn("sync queue full, dropping task", "task", name)
	}
}

// EnqueuePush schedules a full push of local state.
func (q *Queue) EnqueuePush() {
	q.enqueue("push", q.engine.PushAll)
}

// EnqueueDelete schedules a best-effort remote delete for a record removed
// locally.
func (q *Queue) EnqueueDelete(recordType string, id uuid.UUID) {
	q.enqueue("delete", func(ctx context.Context) error {
		return q.engine.DeleteRemote(ctx, recordType, id)
	})
}

// Flush blocks until every task enqueued so far has finished. Used by the
// sync command and by tests to make asynchronous work deterministic.
func (q *Queue) Flush() {
	q.pending.Wait()
}

// Close stops the worker after draining pending tasks. No task may be
// enqueued afterwards.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		q.pending.Wait()
		close(q.tasks)
	})
}
