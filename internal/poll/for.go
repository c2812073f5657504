package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/wskops/wskctl/internal/logger"
)

// Partial is the outcome of For. Complete is true when Items reached the
// requested count. Otherwise Items holds the listing seen on the last attempt
// and may be shorter than requested.
type Partial[T any] struct {
	Items    []T
	Complete bool
	Attempts int

	// Err is the listing error of the last attempt, if it failed.
	Err error
}

func (p Partial[T]) Len() int {
	return len(p.Items)
}

// Lister fetches the current listing. Returning an error wrapped with
// Permanent stops For at once; any other error counts as an empty listing.
type Lister[T any] func(ctx context.Context) ([]T, error)

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

var errTooFew = errors.New("listing below requested count")

// For calls list until it returns at least n items, retrying up to retries
// times with interval in between. The order of the listing is kept as is.
func For[T any](ctx context.Context, n, retries int, interval time.Duration, list Lister[T]) Partial[T] {
	n = max(n, 0)
	retries = max(retries, 0)

	var out Partial[T]

	op := func() error {
		out.Attempts++

		items, err := list(ctx)
		if err != nil {
			out.Items = nil
			var perm *backoff.PermanentError
			if errors.As(err, &perm) {
				out.Err = perm.Err
			} else {
				out.Err = err
			}
			return err
		}

		out.Items = items
		out.Err = nil
		if len(items) >= n {
			out.Complete = true
			return nil
		}
		return fmt.Errorf("%w: have %d, want %d", errTooFew, len(items), n)
	}

	notify := func(err error, next time.Duration) {
		logger.Debug("Attempt %d/%d: %v, retrying in %v", out.Attempts, retries+1, err, next)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), uint64(retries)),
		ctx,
	)

	if err := backoff.RetryNotify(op, policy, notify); err != nil && !out.Complete {
		if ctxErr := ctx.Err(); ctxErr != nil {
			out.Err = ctxErr
		}
		logger.Debug("Listing incomplete after %d attempts: %d of %d items", out.Attempts, len(out.Items), n)
	}

	return out
}
