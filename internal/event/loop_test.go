package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func start(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})
	return l, cancel
}

func TestScheduledWorkRunsAfterCaller(t *testing.T) {
	l, _ := start(t)
	var order []string
	require.NoError(t, l.Do(context.Background(), func() {
		l.Schedule(func() { order = append(order, "deferred") })
		order = append(order, "caller")
	}))
	// The deferred callback runs before the next posted one.
	require.NoError(t, l.Do(context.Background(), func() {
		order = append(order, "next")
	}))
	assert.Equal(t, []string{"caller", "deferred", "next"}, order)
}

func TestScheduleFromScheduled(t *testing.T) {
	l, _ := start(t)
	var got []int
	require.NoError(t, l.Do(context.Background(), func() {
		l.Schedule(func() {
			got = append(got, 1)
			l.Schedule(func() { got = append(got, 2) })
		})
	}))
	require.NoError(t, l.Do(context.Background(), func() {}))
	assert.Equal(t, []int{1, 2}, got)
}

func TestPanicIsRecovered(t *testing.T) {
	l, _ := start(t)
	require.NoError(t, l.Do(context.Background(), func() {
		l.Schedule(func() { panic("client blew up") })
	}))
	ran := false
	require.NoError(t, l.Do(context.Background(), func() { ran = true }))
	assert.True(t, ran)
}

func TestPostIsSerialized(t *testing.T) {
	l, _ := start(t)
	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Do(context.Background(), func() { counter++ })
		}()
	}
	wg.Wait()
	var got int
	require.NoError(t, l.Do(context.Background(), func() { got = counter }))
	assert.Equal(t, 50, got)
}

func TestStoppedLoop(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
	assert.ErrorIs(t, l.Post(func() {}), ErrStopped)
	assert.ErrorIs(t, l.Do(context.Background(), func() {}), ErrStopped)
	assert.ErrorIs(t, l.Run(context.Background()), ErrRunning)
}
