package pulse

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLauncher_RejectsWhenSlotsExhausted(t *testing.T) {
	l := NewLauncher(1)
	gate := make(chan struct{})

	require.NoError(t, l.Launch(func(func()) { <-gate }))
	require.Equal(t, 1, l.Active())
	require.ErrorIs(t, l.Launch(func(func()) {}), ErrResourceExhausted)

	close(gate)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, l.Wait(ctx))
	require.Equal(t, 0, l.Active())
	require.NoError(t, l.Launch(func(func()) {}))
	require.NoError(t, l.Wait(ctx))
}

func TestLauncher_EarlyReleaseFreesSlot(t *testing.T) {
	l := NewLauncher(1)
	released := make(chan struct{})
	gate := make(chan struct{})

	require.NoError(t, l.Launch(func(release func()) {
		release()
		release() // second call is a no-op
		close(released)
		<-gate
	}))
	<-released
	require.Equal(t, 0, l.Active())
	require.NoError(t, l.Launch(func(func()) {}))

	close(gate)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, l.Wait(ctx))
	require.Equal(t, 0, l.Active())
}

func TestLauncher_WaitHonoursContext(t *testing.T) {
	l := NewLauncher(0)
	require.Equal(t, 1, l.Slots())
	gate := make(chan struct{})
	defer close(gate)
	require.NoError(t, l.Launch(func(func()) { <-gate }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, l.Wait(ctx), context.DeadlineExceeded)
}

func TestLauncher_TimedOutWaitsLeaveNoGoroutines(t *testing.T) {
	l := NewLauncher(1)
	gate := make(chan struct{})
	require.NoError(t, l.Launch(func(func()) { <-gate }))

	baseline := runtime.NumGoroutine()
	for i := 0; i < 50; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		require.ErrorIs(t, l.Wait(ctx), context.DeadlineExceeded)
		cancel()
	}
	require.LessOrEqual(t, runtime.NumGoroutine(), baseline+2)

	close(gate)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, l.Wait(ctx))

	// a new run makes Wait block again until it returns
	gate2 := make(chan struct{})
	require.NoError(t, l.Launch(func(func()) { <-gate2 }))
	short, cancelShort := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancelShort()
	require.ErrorIs(t, l.Wait(short), context.DeadlineExceeded)
	close(gate2)
	require.NoError(t, l.Wait(ctx))
}
