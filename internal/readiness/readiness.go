// Package readiness decides when launched processes may be considered ready.
//
// The baseline is a fixed settle delay. Probes configured per process are
// awaited after the delay, concurrently, bounded by a shared timeout.
package readiness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/schmitthub/fixture/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Probe checks one readiness condition.
type Probe interface {
	// Name identifies the probe in logs and errors.
	Name() string
	// Check returns nil once the condition holds.
	Check(ctx context.Context) error
}

// watchingProbe is implemented by probes that can block until ready instead of
// being polled.
type watchingProbe interface {
	Probe
	Watch(ctx context.Context) error
}

// Options bounds the readiness wait.
type Options struct {
	// Delay is always waited, probes or not.
	Delay time.Duration
	// Timeout bounds probe waiting after the delay. Zero means 30s.
	Timeout time.Duration
	// Interval between polls. Zero means 250ms.
	Interval time.Duration
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return 30 * time.Second
	}
	return o.Timeout
}

func (o Options) interval() time.Duration {
	if o.Interval <= 0 {
		return 250 * time.Millisecond
	}
	return o.Interval
}

// TimeoutError is returned when a probe does not pass in time.
type TimeoutError struct {
	Probe   string
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s not ready after %s: %v", e.Probe, e.Timeout, e.Err)
	}
	return fmt.Sprintf("%s not ready after %s", e.Probe, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// Wait sleeps for the settle delay and then waits for every probe. It returns
// ctx.Err() if ctx ends first, or the first probe failure.
func Wait(ctx context.Context, probes []Probe, opts Options) error {
	if err := sleep(ctx, opts.Delay); err != nil {
		return err
	}
	if len(probes) == 0 {
		return nil
	}

	timeout := opts.timeout()
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(probeCtx)
	for _, p := range probes {
		g.Go(func() error {
			err := await(gctx, p, opts.interval(), timeout)
			if err == nil {
				logger.Debug().Str("probe", p.Name()).Msg("probe passed")
				return nil
			}
			// Parent cancellation is reported as such, not as a probe timeout.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var te *TimeoutError
			if errors.As(err, &te) {
				return err
			}
			return &TimeoutError{Probe: p.Name(), Timeout: timeout, Err: err}
		})
	}
	return g.Wait()
}

func await(ctx context.Context, p Probe, interval, timeout time.Duration) error {
	if w, ok := p.(watchingProbe); ok {
		return w.Watch(ctx)
	}
	var last error
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		last = p.Check(ctx)
		return struct{}{}, last
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(interval)),
		backoff.WithMaxElapsedTime(timeout),
	)
	if err != nil && last != nil {
		return last
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
