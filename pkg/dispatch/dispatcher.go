// Package dispatch runs background work off the request path on a bounded pool.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
)

// DefaultWorkers is the pool size used when none is configured.
const DefaultWorkers = 10

var (
	// ErrAccountBusy is returned when a job for the account is already queued or running.
	ErrAccountBusy = errors.New("account job already in flight")

	// ErrQueueFull is returned when every worker is busy and the queue has no room.
	// Submission never blocks; the caller skips the job and retries on a later pass.
	ErrQueueFull = errors.New("dispatch queue full")

	// ErrStopped is returned for jobs submitted after Stop.
	ErrStopped = errors.New("dispatcher stopped")
)

// Job is a unit of background work. ctx is the dispatcher's root context.
type Job func(ctx context.Context)

type Config struct {
	Workers   int
	QueueSize int
}

// Observer receives job lifecycle signals.
type Observer interface {
	JobFinished(name string, took time.Duration)
	JobPanicked(name string)
	JobRejected(name string)
}

type noopObserver struct{}

func (noopObserver) JobFinished(string, time.Duration) {}
func (noopObserver) JobPanicked(string)                {}
func (noopObserver) JobRejected(string)                {}

// Dispatcher is a fixed-size worker pool. Jobs from different accounts run in no
// particular order; at most one job per account is in flight at a time.
type Dispatcher struct {
	ctx      context.Context
	logger   *zap.Logger
	pool     pond.Pool
	inflight *xsync.Map[uint64, string]
	observer Observer
}

// New builds the pool. Construct it once at startup and Stop it at shutdown.
func New(ctx context.Context, logger *zap.Logger, cfg Config, obs Observer) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Workers * 100
	}
	if obs == nil {
		obs = noopObserver{}
	}
	return &Dispatcher{
		ctx:      ctx,
		logger:   logger.With(zap.String("component", "dispatcher")),
		pool:     pond.NewPool(cfg.Workers, pond.WithQueueSize(cfg.QueueSize)),
		inflight: xsync.NewMap[uint64, string](),
		observer: obs,
	}
}

// Submit enqueues job. A panicking job is logged and dropped; it never takes a worker down.
func (d *Dispatcher) Submit(name string, job Job) (pond.Task, error) {
	return d.submit(name, job, nil)
}

// SubmitForAccount enqueues job unless another job for accountID is queued or running.
// A job that cannot be enqueued gives its account slot back.
func (d *Dispatcher) SubmitForAccount(accountID uint64, name string, job Job) (pond.Task, error) {
	if running, loaded := d.inflight.LoadOrStore(accountID, name); loaded {
		d.observer.JobRejected(name)
		d.logger.Debug("Account job already in flight",
			zap.Uint64("account_id", accountID),
			zap.String("job", name),
			zap.String("running", running))
		return nil, fmt.Errorf("%w: account %d", ErrAccountBusy, accountID)
	}
	release := func() { d.inflight.Delete(accountID) }
	task, err := d.submit(name, job, release)
	if err != nil {
		return nil, fmt.Errorf("account %d: %w", accountID, err)
	}
	return task, nil
}

func (d *Dispatcher) submit(name string, job Job, release func()) (pond.Task, error) {
	if task, ok := d.pool.TrySubmit(d.wrap(name, job, release)); ok {
		return task, nil
	}
	if release != nil {
		release()
	}
	d.observer.JobRejected(name)
	if d.pool.Stopped() {
		return nil, fmt.Errorf("%w: %s", ErrStopped, name)
	}
	d.logger.Warn("Dispatch queue full, job skipped",
		zap.String("job", name),
		zap.Uint64("waiting", d.pool.WaitingTasks()))
	return nil, fmt.Errorf("%w: %s", ErrQueueFull, name)
}

// InFlight reports whether a job for accountID is queued or running.
func (d *Dispatcher) InFlight(accountID uint64) bool {
	_, ok := d.inflight.Load(accountID)
	return ok
}

func (d *Dispatcher) wrap(name string, job Job, release func()) func() {
	return func() {
		start := time.Now()
		defer func() {
			if release != nil {
				release()
			}
			if r := recover(); r != nil {
				d.observer.JobPanicked(name)
				d.logger.Error("Background job panicked",
					zap.String("job", name),
					zap.Any("panic", r),
					zap.Stack("stack"))
				return
			}
			d.observer.JobFinished(name, time.Since(start))
		}()
		job(d.ctx)
	}
}

func (d *Dispatcher) RunningWorkers() int64 { return d.pool.RunningWorkers() }

func (d *Dispatcher) WaitingTasks() uint64 { return d.pool.WaitingTasks() }

// Stop waits for queued and running jobs to finish.
func (d *Dispatcher) Stop() {
	d.pool.StopAndWait()
}
