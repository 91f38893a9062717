// Package retry runs an operation again with exponential backoff until it
// succeeds, fails permanently, or runs out of attempts or time.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"
)

// Policy controls the backoff schedule
type Policy struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
	Factor   float64
	// Jitter spreads each wait by up to this fraction in either direction
	Jitter float64
	// Budget bounds the whole run, zero means only ctx does
	Budget time.Duration
	// OnRetry is called before each wait
	OnRetry func(attempt int, err error, wait time.Duration)
}

// Startup waits up to a minute for a dependency such as a database to accept
// connections. Failed attempts are logged under name.
func Startup(name string) Policy {
	return Policy{
		Attempts: 10,
		Initial:  100 * time.Millisecond,
		Max:      10 * time.Second,
		Factor:   2,
		Jitter:   0.2,
		Budget:   time.Minute,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			log.Warn().Err(err).Str("dependency", name).Int("attempt", attempt).Dur("retry_in", wait).Msg("dependency not ready")
		},
	}
}

// Request is a short schedule for a single outbound HTTP call
func Request() Policy {
	return Policy{
		Attempts: 3,
		Initial:  500 * time.Millisecond,
		Max:      4 * time.Second,
		Factor:   2,
		Jitter:   0.2,
	}
}

type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. Do returns the wrapped error
// unchanged.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// Do calls fn until it returns nil or a Permanent error, the attempts are
// used up, or ctx or the budget ends.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Budget)
		defer cancel()
	}
	attempts := max(p.Attempts, 1)
	wait := p.Initial

	var last error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return aborted(err, last, attempt-1)
		}

		last = fn(ctx)
		if last == nil {
			return nil
		}
		var perm permanentError
		if errors.As(last, &perm) {
			return perm.err
		}
		if attempt == attempts {
			return fmt.Errorf("gave up after %d attempts: %w", attempts, last)
		}

		delay := p.spread(wait)
		if p.OnRetry != nil {
			p.OnRetry(attempt, last, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return aborted(ctx.Err(), last, attempt)
		case <-timer.C:
		}

		wait = p.next(wait)
	}
}

func (p Policy) next(wait time.Duration) time.Duration {
	factor := p.Factor
	if factor < 1 {
		factor = 1
	}
	wait = time.Duration(float64(wait) * factor)
	if p.Max > 0 && wait > p.Max {
		wait = p.Max
	}
	return wait
}

func (p Policy) spread(wait time.Duration) time.Duration {
	if p.Jitter <= 0 || wait <= 0 {
		return wait
	}
	offset := (rand.Float64()*2 - 1) * p.Jitter * float64(wait)
	return wait + time.Duration(offset)
}

func aborted(ctxErr, last error, attempts int) error {
	if last == nil {
		return fmt.Errorf("retry aborted: %w", ctxErr)
	}
	return fmt.Errorf("retry aborted after %d attempts: %w (last error: %v)", attempts, ctxErr, last)
}
