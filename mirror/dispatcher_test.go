package mirror

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mskvii/bot2-2/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSyncer struct {
	mu     sync.Mutex
	events []Event
	fail   int
	calls  int
}

func (r *recordingSyncer) Sync(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.calls <= r.fail {
		return errors.New("remote unavailable")
	}
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSyncer) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestNewDispatcher(t *testing.T) {
	_, err := NewDispatcher(nil)
	assert.ErrorIs(t, err, ErrSyncerRequired)

	_, err = NewDispatcher(&recordingSyncer{}, WithRate(-1))
	assert.ErrorIs(t, err, ErrInvalidRate)

	_, err = NewDispatcher(&recordingSyncer{}, WithRetry(0, time.Millisecond))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)

	d, err := NewDispatcher(&recordingSyncer{}, WithLogger(nil), WithRate(100), WithTimeout(time.Second))
	require.NoError(t, err)
	require.NoError(t, d.Close())
}

func TestDispatcher_DeliversInOrder(t *testing.T) {
	syncer := &recordingSyncer{}
	d, err := NewDispatcher(syncer)
	require.NoError(t, err)
	defer d.Close()

	for i := 1; i <= 20; i++ {
		d.Notify(Event{Description: "new post", Author: "alice", TargetID: core.ID(i)})
	}
	d.Flush()

	events := syncer.Events()
	require.Len(t, events, 20)
	for i, event := range events {
		assert.Equal(t, core.ID(i+1), event.TargetID)
		assert.False(t, event.Time.IsZero())
	}
}

func TestDispatcher_RetriesFailures(t *testing.T) {
	syncer := &recordingSyncer{fail: 2}
	d, err := NewDispatcher(syncer, WithRetry(3, time.Millisecond))
	require.NoError(t, err)
	defer d.Close()

	d.Notify(Event{Description: "like", Author: "bob", TargetID: 3})
	d.Flush()

	assert.Len(t, syncer.Events(), 1)
	assert.Equal(t, 3, syncer.calls)
}

func TestDispatcher_DropsAfterFinalFailure(t *testing.T) {
	syncer := &recordingSyncer{fail: 10}
	d, err := NewDispatcher(syncer, WithRetry(2, time.Millisecond))
	require.NoError(t, err)
	defer d.Close()

	d.Notify(Event{Description: "like"})
	d.Notify(Event{Description: "unlike"})
	d.Flush()

	assert.Empty(t, syncer.Events())
	assert.Equal(t, 4, syncer.calls)
}

func TestDispatcher_NotifyDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	var delivered sync.WaitGroup
	delivered.Add(3)
	d, err := NewDispatcher(SyncerFunc(func(context.Context, Event) error {
		<-release
		delivered.Done()
		return nil
	}))
	require.NoError(t, err)
	defer d.Close()

	done := make(chan struct{})
	go func() {
		for range 3 {
			d.Notify(Event{Description: "edit post"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a slow syncer")
	}

	close(release)
	delivered.Wait()
}

func TestDispatcher_CloseDropsLateEvents(t *testing.T) {
	syncer := &recordingSyncer{}
	d, err := NewDispatcher(syncer)
	require.NoError(t, err)

	d.Notify(Event{Description: "new post"})
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	d.Notify(Event{Description: "late"})
	d.Flush()

	events := syncer.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "new post", events[0].Description)
}
