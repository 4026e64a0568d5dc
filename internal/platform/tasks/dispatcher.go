package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/oklog/ulid/v2"

	"github.com/zotta/ledger-core/internal/platform/metrics"
)

// Task is a unit of background work handed off after a ledger transaction
// commits: anomaly scans, notification dispatch. Tasks retry independently
// and their failure never rolls back the committed posting.
type Task struct {
	ID   string
	Kind string
	Run  func(ctx context.Context) error
}

// Dispatcher is a bounded in-process queue with worker goroutines. Enqueue
// never blocks the caller: when the queue is full the task is dropped and
// logged, because the ledger must not wait on side effects.
type Dispatcher struct {
	queue   chan Task
	workers int
	logger  *slog.Logger

	maxRetryElapsed time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// Config for Dispatcher.
type Config struct {
	Workers         int
	QueueSize       int
	Logger          *slog.Logger
	MaxRetryElapsed time.Duration
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxRetryElapsed == 0 {
		cfg.MaxRetryElapsed = 30 * time.Second
	}
	return &Dispatcher{
		queue:           make(chan Task, cfg.QueueSize),
		workers:         cfg.Workers,
		logger:          cfg.Logger,
		maxRetryElapsed: cfg.MaxRetryElapsed,
	}
}

// NewTask builds a task with a fresh ULID.
func NewTask(kind string, run func(ctx context.Context) error) Task {
	return Task{ID: ulid.Make().String(), Kind: kind, Run: run}
}

// Start launches the worker goroutines.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		workerCtx, cancel := context.WithCancel(ctx)
		d.cancel = cancel
		for i := 0; i < d.workers; i++ {
			d.wg.Add(1)
			go d.worker(workerCtx)
		}
		d.logger.Info("task dispatcher started", slog.Int("workers", d.workers))
	})
}

// Enqueue hands off a task. Returns false when the queue is full.
func (d *Dispatcher) Enqueue(task Task) bool {
	select {
	case d.queue <- task:
		return true
	default:
		d.logger.Warn("task queue full, dropping task",
			slog.String("task_id", task.ID),
			slog.String("kind", task.Kind))
		metrics.DispatcherTasksFailed.WithLabelValues(task.Kind).Inc()
		return false
	}
}

// Stop drains in-flight work and shuts the workers down.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.queue)
		d.wg.Wait()
		if d.cancel != nil {
			d.cancel()
		}
		d.logger.Info("task dispatcher stopped")
	})
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for task := range d.queue {
		d.runWithRetry(ctx, task)
	}
}

// runWithRetry executes a task with exponential backoff until it succeeds or
// the retry budget is exhausted. Context cancellation stops retrying.
func (d *Dispatcher) runWithRetry(ctx context.Context, task Task) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = d.maxRetryElapsed

	err := backoff.Retry(func() error {
		return task.Run(ctx)
	}, backoff.WithContext(b, ctx))

	if err != nil {
		d.logger.Error("background task failed after retries",
			slog.String("task_id", task.ID),
			slog.String("kind", task.Kind),
			slog.String("error", err.Error()))
		metrics.DispatcherTasksFailed.WithLabelValues(task.Kind).Inc()
	}
}
