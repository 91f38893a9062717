package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fast(attempts int) Policy {
	return Policy{
		Attempts: attempts,
		Initial:  time.Millisecond,
		Max:      2 * time.Millisecond,
		Factor:   2,
	}
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := fast(5).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not ready")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_GivesUp(t *testing.T) {
	boom := errors.New("redis down")
	var logged []int

	p := fast(3)
	p.OnRetry = func(attempt int, err error, wait time.Duration) {
		logged = append(logged, attempt)
	}
	err := p.Do(context.Background(), func(context.Context) error { return boom })

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "gave up after 3 attempts")
	assert.Equal(t, []int{1, 2}, logged)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	gone := errors.New("status 404")
	calls := 0

	err := fast(5).Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(gone)
	})

	assert.Same(t, gone, err)
	assert.Equal(t, 1, calls)
	assert.NoError(t, Permanent(nil))
}

func TestDo_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := fast(5).Do(ctx, func(context.Context) error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestDo_Budget(t *testing.T) {
	p := Policy{Attempts: 100, Initial: 20 * time.Millisecond, Factor: 1, Budget: 30 * time.Millisecond}

	err := p.Do(context.Background(), func(context.Context) error { return errors.New("still down") })

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "still down")
}

func TestPolicy_Spread(t *testing.T) {
	p := Policy{Jitter: 0.5}
	for i := 0; i < 50; i++ {
		d := p.spread(100 * time.Millisecond)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
	assert.Equal(t, time.Second, Policy{}.spread(time.Second))
	assert.Equal(t, 4*time.Second, Policy{Factor: 2, Max: 4 * time.Second}.next(3*time.Second))
}
