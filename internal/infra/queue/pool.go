package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/yanqian/outfit-recommender/internal/domain/replenish"
)

// ErrQueueFull is returned when the backlog cannot accept another job.
var ErrQueueFull = errors.New("job queue full")

// ErrQueueClosed is returned after Close.
var ErrQueueClosed = errors.New("job queue closed")

// Handler executes a single job.
type Handler func(ctx context.Context, name string, payload []byte)

// HandlerQueue supports setting a handler for job delivery.
type HandlerQueue interface {
	replenish.JobQueue
	SetHandler(handler Handler)
	Close(ctx context.Context) error
}

type job struct {
	name    string
	payload []byte
}

// PoolQueue runs jobs on a fixed set of workers fed by a bounded backlog.
type PoolQueue struct {
	jobs    chan job
	workers int
	logger  *slog.Logger

	mu      sync.RWMutex
	handler Handler
	closed  bool

	startOnce sync.Once
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewPoolQueue constructs the queue. Workers start with the first SetHandler.
func NewPoolQueue(workers, backlog int, logger *slog.Logger) *PoolQueue {
	if workers <= 0 {
		workers = 2
	}
	if backlog < 0 {
		backlog = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &PoolQueue{
		jobs:    make(chan job, backlog),
		workers: workers,
		logger:  logger.With("component", "queue.pool"),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// SetHandler installs the handler and starts the workers.
func (q *PoolQueue) SetHandler(handler Handler) {
	q.mu.Lock()
	q.handler = handler
	q.mu.Unlock()
	if handler == nil {
		return
	}
	q.startOnce.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go q.work()
		}
	})
}

// Enqueue hands the job to a worker without blocking.
func (q *PoolQueue) Enqueue(_ context.Context, name string, payload []byte) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- job{name: name, payload: payload}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting jobs and waits for queued work to drain. When ctx
// expires first the running jobs are cancelled.
func (q *PoolQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	// workers never started; nothing to drain
	q.startOnce.Do(func() {})

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-done
		return ctx.Err()
	}
}

func (q *PoolQueue) work() {
	defer q.wg.Done()
	for j := range q.jobs {
		if q.ctx.Err() != nil {
			continue
		}
		q.run(j)
	}
}

func (q *PoolQueue) run(j job) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("job panicked", "name", j.name, "panic", r)
		}
	}()
	q.mu.RLock()
	handler := q.handler
	q.mu.RUnlock()
	if handler == nil {
		return
	}
	handler(q.ctx, j.name, j.payload)
}

var _ HandlerQueue = (*PoolQueue)(nil)
