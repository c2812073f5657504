// Package rules holds rule helpers built on top of the REST bindings.
package rules

import (
	"context"

	"github.com/wskops/wskctl/internal/logger"
	"github.com/wskops/wskctl/internal/poll"
	"github.com/wskops/wskctl/internal/whisk"
)

// StateGetter fetches the current state of a rule. *whisk.RuleService
// implements it.
type StateGetter interface {
	GetState(ctx context.Context, name string) (whisk.RuleState, error)
}

// WaitForState polls the rule until it reports want. A state other than want
// counts as not there yet. A missing rule or any other lookup failure ends
// the wait with an Error result. Running out of budget returns NotFound.
func WaitForState(ctx context.Context, svc StateGetter, name string, want whisk.RuleState, budget poll.Budget) poll.Result[whisk.RuleState] {
	logger.Debug("Waiting for rule %s to become %s", name, want)

	return poll.Wait(ctx, budget, func(ctx context.Context) poll.Result[whisk.RuleState] {
		state, err := svc.GetState(ctx, name)
		if err != nil {
			return poll.Failed[whisk.RuleState](err.Error())
		}
		if state != want {
			logger.Debug("Rule %s is %s", name, state)
			return poll.NotFound[whisk.RuleState]()
		}
		return poll.Found(state)
	})
}
