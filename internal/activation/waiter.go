// Package activation waits for the records of asynchronous invocations.
//
// An activation id handed out by a non-blocking invoke or a trigger fire is
// valid at once, but its record shows up some time later. Until then a lookup
// answers 404, which here means "not yet" rather than "does not exist".
package activation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wskops/wskctl/internal/constants"
	"github.com/wskops/wskctl/internal/logger"
	"github.com/wskops/wskctl/internal/poll"
	"github.com/wskops/wskctl/internal/whisk"
)

// Store is the part of the activations API the waiter needs.
// *whisk.ActivationService implements it.
type Store interface {
	GetRaw(ctx context.Context, id string) (json.RawMessage, error)
	ListIDs(ctx context.Context, opts whisk.ActivationListOptions) ([]string, error)
}

type Option func(*poll.Budget)

// WithInitialWait sets the pause before the first lookup.
func WithInitialWait(d time.Duration) Option {
	return func(b *poll.Budget) { b.InitialDelay = d }
}

// WithInterval sets the pause between lookups.
func WithInterval(d time.Duration) Option {
	return func(b *poll.Budget) { b.Interval = d }
}

// WithTimeout bounds the whole wait, initial wait included.
func WithTimeout(d time.Duration) Option {
	return func(b *poll.Budget) { b.TotalTimeout = d }
}

// WithMaxAttempts stops after n lookups even if time is left. 0 means no limit.
func WithMaxAttempts(n int) Option {
	return func(b *poll.Budget) { b.MaxAttempts = n }
}

type Waiter struct {
	store       Store
	budget      poll.Budget
	concurrency int
}

// NewWaiter returns a waiter with a 1s initial wait, a 1s interval and a 30s
// total wait, changed by opts.
func NewWaiter(store Store, opts ...Option) *Waiter {
	w := &Waiter{
		store: store,
		budget: poll.Budget{
			InitialDelay: constants.DefaultActivationInitialWait,
			Interval:     constants.DefaultActivationPollPeriod,
			TotalTimeout: constants.DefaultActivationTotalWait,
		},
		concurrency: constants.DefaultWaitConcurrency,
	}
	for _, opt := range opts {
		opt(&w.budget)
	}
	return w
}

// Budget returns the waiter's default budget.
func (w *Waiter) Budget() poll.Budget {
	return w.budget
}

func (w *Waiter) budgetWith(opts []Option) poll.Budget {
	b := w.budget
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// WaitForActivation looks up id until its record is there, a lookup fails with
// anything but 404, or the budget is used up. opts override the waiter's
// budget for this call.
func (w *Waiter) WaitForActivation(ctx context.Context, id string, opts ...Option) Outcome {
	budget := w.budgetWith(opts)
	logger.Debug("Waiting for activation %s (initial %v, interval %v, timeout %v)",
		id, budget.InitialDelay, budget.Interval, budget.TotalTimeout)

	res := poll.Wait(ctx, budget, w.probe(id))

	switch res.Kind() {
	case poll.KindFound:
		raw, _ := res.Value()
		a := new(whisk.Activation)
		if err := json.Unmarshal(raw, a); err != nil {
			logger.Warn("Activation %s is not a valid record: %v", id, err)
			return left(id, fmt.Sprintf("parsing activation %s: %v", id, err))
		}
		return right(id, raw, a)
	case poll.KindError:
		return left(id, res.Message())
	default:
		return left(id, id+" not found")
	}
}

func (w *Waiter) probe(id string) poll.Probe[json.RawMessage] {
	return func(ctx context.Context) poll.Result[json.RawMessage] {
		raw, err := w.store.GetRaw(ctx, id)
		switch {
		case err == nil:
			return poll.Found(raw)
		case whisk.IsNotFound(err):
			return poll.NotFound[json.RawMessage]()
		default:
			return poll.Failed[json.RawMessage](err.Error())
		}
	}
}

// WaitAll waits for every id at the same time and returns one Outcome per id,
// in the order of ids.
func (w *Waiter) WaitAll(ctx context.Context, ids []string, opts ...Option) []Outcome {
	outcomes := make([]Outcome, len(ids))

	var g errgroup.Group
	g.SetLimit(w.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			outcomes[i] = w.WaitForActivation(ctx, id, opts...)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// WaitForActivations lists the ids of name's activations started at or after
// since until there are at least n of them, listing at most retries+1 times.
// The result may hold fewer than n ids; check Complete. Failed listings are
// retried, except for rejected credentials.
func (w *Waiter) WaitForActivations(ctx context.Context, name string, n int, since time.Time, retries int, interval time.Duration) poll.Partial[string] {
	opts := whisk.ActivationListOptions{
		Name:  name,
		Since: since,
		Limit: min(max(n, constants.DefaultListLimit), constants.MaxListLimit),
	}

	logger.Debug("Polling for %d activation(s) of %s since %v", n, name, since)
	return poll.For(ctx, n, retries, interval, func(ctx context.Context) ([]string, error) {
		ids, err := w.store.ListIDs(ctx, opts)
		if whisk.IsUnauthorized(err) {
			return nil, poll.Permanent(err)
		}
		return ids, err
	})
}
