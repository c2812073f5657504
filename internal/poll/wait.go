package poll

import (
	"context"
	"time"

	"github.com/wskops/wskctl/internal/logger"
)

// Probe performs one lookup. It must block until the lookup has finished.
type Probe[T any] func(ctx context.Context) Result[T]

// Wait sleeps b.InitialDelay once, then calls probe until it reports Found or
// Error, or until the budget is used up. On exhaustion the last NotFound is
// returned. An invalid budget or a cancelled ctx yields an Error result.
//
// The pause between attempts is clamped to the time left, so Wait returns at
// most one probe latency after b.TotalTimeout.
func Wait[T any](ctx context.Context, b Budget, probe Probe[T]) Result[T] {
	if err := b.Validate(); err != nil {
		return Failed[T](err.Error())
	}

	deadline := time.Now().Add(b.TotalTimeout)

	if err := sleep(ctx, min(b.InitialDelay, b.TotalTimeout)); err != nil {
		return Failed[T](err.Error())
	}

	attempt := 0
	for {
		attempt++
		res := probe(ctx)
		logger.Debug("Poll attempt %d: %s", attempt, res.Kind())

		if res.kind != KindNotFound {
			return res
		}

		if b.MaxAttempts > 0 && attempt >= b.MaxAttempts {
			logger.Debug("Giving up after %d attempts", attempt)
			return res
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			logger.Debug("Giving up after %v (%d attempts)", b.TotalTimeout, attempt)
			return res
		}

		if err := sleep(ctx, min(b.Interval, remaining)); err != nil {
			return Failed[T](err.Error())
		}
	}
}

// sleep pauses for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
