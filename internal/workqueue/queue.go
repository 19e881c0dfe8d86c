// Package workqueue runs a handler over queued items on one pooled worker.
package workqueue

import (
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// ErrClosed is returned by Push after Close.
var ErrClosed = errors.New("work queue closed")

// Queue hands pushed items to a handler in push order. At most one handler
// call runs at a time.
type Queue[T any] struct {
	handle   func(batch []T)
	maxBatch int
	pool     *ants.Pool

	mu       sync.Mutex
	idle     *sync.Cond
	pending  []T
	inflight int
	draining bool
	closed   bool
}

// New creates a Queue. The handler receives at most maxBatch items per call;
// maxBatch <= 0 hands it everything queued so far.
func New[T any](maxBatch int, handle func(batch []T)) (*Queue[T], error) {
	if handle == nil {
		return nil, errors.New("work queue handler required")
	}

	// Submit may wait briefly for the previous worker to return to the
	// pool; it is never called with mu held.
	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, err
	}

	q := &Queue[T]{
		handle:   handle,
		maxBatch: maxBatch,
		pool:     pool,
	}
	q.idle = sync.NewCond(&q.mu)
	return q, nil
}

// Push queues item and returns without waiting for the handler.
// If no worker can be scheduled every queued item is dropped and the
// error reports how many.
func (q *Queue[T]) Push(item T) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.pending = append(q.pending, item)
	q.inflight++
	if q.draining {
		q.mu.Unlock()
		return nil
	}
	q.draining = true
	q.mu.Unlock()

	if err := q.pool.Submit(q.drain); err != nil {
		q.mu.Lock()
		dropped := len(q.pending)
		q.pending = nil
		q.inflight -= dropped
		q.draining = false
		q.idle.Broadcast()
		q.mu.Unlock()
		return fmt.Errorf("schedule worker, %d items dropped: %w", dropped, err)
	}
	return nil
}

func (q *Queue[T]) drain() {
	for {
		q.mu.Lock()
		n := len(q.pending)
		if n == 0 {
			q.pending = nil
			q.draining = false
			q.mu.Unlock()
			return
		}
		if q.maxBatch > 0 && n > q.maxBatch {
			n = q.maxBatch
		}
		batch := q.pending[:n:n]
		q.pending = q.pending[n:]
		q.mu.Unlock()

		q.handle(batch)

		q.mu.Lock()
		q.inflight -= n
		q.idle.Broadcast()
		q.mu.Unlock()
	}
}

// Flush waits until every pushed item has been handled or dropped.
func (q *Queue[T]) Flush() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.inflight > 0 {
		q.idle.Wait()
	}
}

// Close stops accepting items, waits for the queued ones and releases the
// worker pool. It is safe to call more than once.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.Flush()
	q.pool.Release()
}
