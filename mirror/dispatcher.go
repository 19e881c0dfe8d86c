package mirror

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.uber.org/ratelimit"

	"github.com/mskvii/bot2-2/internal/workqueue"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 2 * time.Second
	defaultTimeout     = time.Minute
)

// Dispatcher delivers events to a Syncer in the background.
//
// Notify queues the event and returns at once. A single pooled worker
// drains the queue in order; each delivery waits for the rate limiter and
// is retried with exponential backoff. Final failures are logged.
type Dispatcher struct {
	syncer      Syncer
	logger      *slog.Logger
	limiter     ratelimit.Limiter
	maxAttempts int
	baseDelay   time.Duration
	timeout     time.Duration
	queue       *workqueue.Queue[Event]

	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Dispatcher.
type Option func(*Dispatcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
		return nil
	}
}

// WithRate limits deliveries to perSecond syncs per second.
// Zero removes the limit, which is the default.
func WithRate(perSecond int) Option {
	return func(d *Dispatcher) error {
		if perSecond < 0 {
			return ErrInvalidRate
		}
		if perSecond == 0 {
			d.limiter = ratelimit.NewUnlimited()
			return nil
		}
		d.limiter = ratelimit.New(perSecond, ratelimit.WithoutSlack)
		return nil
	}
}

// WithRetry sets how many times a delivery is attempted and the delay
// before the first retry. Default is 3 attempts starting at 2s.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(d *Dispatcher) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		d.maxAttempts = maxAttempts
		d.baseDelay = baseDelay
		return nil
	}
}

// WithTimeout bounds a single delivery attempt. Default is one minute.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) error {
		d.timeout = timeout
		return nil
	}
}

// NewDispatcher creates a dispatcher delivering to syncer.
// Call Close to flush queued events and stop the worker.
func NewDispatcher(syncer Syncer, opts ...Option) (*Dispatcher, error) {
	if syncer == nil {
		return nil, ErrSyncerRequired
	}

	d := &Dispatcher{
		syncer:      syncer,
		logger:      slog.Default(),
		limiter:     ratelimit.NewUnlimited(),
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		timeout:     defaultTimeout,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	queue, err := workqueue.New(1, func(batch []Event) {
		d.deliver(batch[0])
	})
	if err != nil {
		return nil, err
	}
	d.queue = queue
	d.ctx, d.cancel = context.WithCancel(context.Background())
	return d, nil
}

// Notify queues event for delivery. A zero Time is set to now.
func (d *Dispatcher) Notify(event Event) {
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	if err := d.queue.Push(event); err != nil {
		if errors.Is(err, workqueue.ErrClosed) {
			d.logger.Warn("mirror dispatcher closed, dropping event", "event", event.Description)
			return
		}
		d.logger.Error("failed to schedule mirror sync", "err", err)
	}
}

func (d *Dispatcher) deliver(event Event) {
	d.limiter.Take()

	err := retryWithBackoff(d.ctx, d.logger, func(ctx context.Context) error {
		if d.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.timeout)
			defer cancel()
		}
		return d.syncer.Sync(ctx, event)
	}, d.maxAttempts, d.baseDelay)
	if err != nil {
		d.logger.Warn("mirror sync failed", "event", event.Description, "target_id", event.TargetID, "err", err)
		return
	}
	d.logger.Debug("mirror synced", "message", event.CommitMessage())
}

// Flush waits until every queued event has been delivered or dropped.
func (d *Dispatcher) Flush() {
	d.queue.Flush()
}

// Close delivers the queued events and stops the worker. Events notified
// after Close are dropped.
func (d *Dispatcher) Close() error {
	d.queue.Close()
	d.cancel()
	return nil
}
