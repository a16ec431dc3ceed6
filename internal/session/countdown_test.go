package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCountdown_FiresReadyOnce(t *testing.T) {
	var left int32 = 3
	remaining := func() int { return int(atomic.AddInt32(&left, -1)) + 1 }

	var (
		mu    sync.Mutex
		ticks []int
	)
	readyCount := int32(0)
	c := NewCountdown(remaining, 5*time.Millisecond, zaptest.NewLogger(t)).
		OnTick(func(n int) {
			mu.Lock()
			ticks = append(ticks, n)
			mu.Unlock()
		}).
		OnReady(func() { atomic.AddInt32(&readyCount, 1) })

	c.Run(context.Background())
	c.Run(context.Background())

	assert.Equal(t, int32(1), atomic.LoadInt32(&readyCount))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{3, 2, 1, 0}, ticks[:4])
}

func TestCountdown_RecomputesAfterSuspension(t *testing.T) {
	clock := &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
	sentAt := clock.Now().UnixMilli()
	remaining := func() int { return RemainingSeconds(120, sentAt, clock.Now()) }

	var seen []int
	c := NewCountdown(remaining, 5*time.Millisecond, zaptest.NewLogger(t)).
		OnTick(func(n int) {
			seen = append(seen, n)
			// the tab was backgrounded for most of the window
			clock.Advance(100 * time.Second)
		})

	c.Run(context.Background())

	assert.Equal(t, []int{120, 20, 0}, seen)
}

func TestCountdown_Stop(t *testing.T) {
	ready := int32(0)
	c := NewCountdown(func() int { return 60 }, 5*time.Millisecond, zaptest.NewLogger(t)).
		OnReady(func() { atomic.StoreInt32(&ready, 1) })

	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	c.Stop()
	c.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("countdown did not stop")
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&ready))
}

func TestCountdown_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := NewCountdown(func() int { return 60 }, 5*time.Millisecond, zaptest.NewLogger(t))
	c.Run(ctx)
	assert.Error(t, ctx.Err())
}

func TestManagerCountdown(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &mockAPI{})
	require.NoError(t, f.state.SetRetryTimer(ctx, 2, f.clock.Now().UnixMilli()))

	var ticks []int
	f.manager.Countdown(ctx, time.Millisecond).
		OnTick(func(n int) {
			ticks = append(ticks, n)
			f.clock.Advance(time.Second)
		}).
		Run(ctx)

	assert.Equal(t, []int{2, 1, 0}, ticks)
}

func TestManagerCountdown_FollowsStoredTimer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &mockAPI{})
	require.NoError(t, f.state.SetRetryTimer(ctx, 2, f.clock.Now().UnixMilli()))

	var ticks []int
	f.manager.Countdown(ctx, time.Millisecond).
		OnTick(func(n int) {
			if len(ticks) == 0 {
				// resend from another request while the stream is open
				require.NoError(t, f.state.SetRetryTimer(ctx, 30, f.clock.Now().UnixMilli()))
			}
			ticks = append(ticks, n)
			f.clock.Advance(10 * time.Second)
		}).
		Run(ctx)

	assert.Equal(t, []int{2, 20, 10, 0}, ticks)
	assert.Equal(t, 30, f.manager.Snapshot().RetryAfter)
}

func TestManagerCountdown_StoredTimerCleared(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &mockAPI{})
	require.NoError(t, f.state.SetRetryTimer(ctx, 60, f.clock.Now().UnixMilli()))

	var (
		ticks []int
		ready bool
	)
	f.manager.Countdown(ctx, time.Millisecond).
		OnTick(func(n int) {
			if len(ticks) == 0 {
				require.NoError(t, f.state.ClearRetryTimer(ctx))
			}
			ticks = append(ticks, n)
		}).
		OnReady(func() { ready = true }).
		Run(ctx)

	assert.Equal(t, []int{60, 0}, ticks)
	assert.True(t, ready)
}
