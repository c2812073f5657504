package whisk

import (
	"context"
	"fmt"

	"github.com/wskops/wskctl/internal/constants"
	"github.com/wskops/wskctl/internal/logger"
)

// RuleState is the state of a rule as owned by the platform.
type RuleState string

const (
	RuleActive   RuleState = RuleState(constants.RuleStatusActive)
	RuleInactive RuleState = RuleState(constants.RuleStatusInactive)
)

func ParseRuleState(s string) (RuleState, error) {
	switch RuleState(s) {
	case RuleActive, RuleInactive:
		return RuleState(s), nil
	default:
		return "", fmt.Errorf("unknown rule state %q", s)
	}
}

// Verb is the command name that requests the state.
func (s RuleState) Verb() string {
	if s == RuleActive {
		return "enable"
	}
	return "disable"
}

type ListOptions struct {
	Limit int
	Skip  int
}

// RuleService talks to the rules collection. It keeps no state between calls.
type RuleService struct {
	client *Client
}

func (s *RuleService) List(ctx context.Context, opts ListOptions) ([]Rule, error) {
	req, err := s.client.newRequest(ctx, "GET", constants.RulesCollection, listQuery(opts), nil)
	if err != nil {
		return nil, err
	}

	var rules []Rule
	if _, err := s.client.do(req, &rules); err != nil {
		return nil, fmt.Errorf("listing rules in namespace '%s': %w", s.client.Namespace(), err)
	}
	return rules, nil
}

func (s *RuleService) Get(ctx context.Context, name string) (*Rule, error) {
	req, err := s.client.newRequest(ctx, "GET", entityPath(constants.RulesCollection, name), nil, nil)
	if err != nil {
		return nil, ruleError("get", name, err)
	}

	rule := new(Rule)
	if _, err := s.client.do(req, rule); err != nil {
		return nil, ruleError("get", name, err)
	}
	return rule, nil
}

// GetState fetches the current state. A missing rule yields an error matching
// ErrNotFound.
func (s *RuleService) GetState(ctx context.Context, name string) (RuleState, error) {
	rule, err := s.Get(ctx, name)
	if err != nil {
		return "", err
	}

	state, err := rule.State()
	if err != nil {
		return "", ruleError("get status of", name, err)
	}
	return state, nil
}

// Insert creates the rule, or replaces it if overwrite is set. Trigger and
// action references are expected fully qualified.
func (s *RuleService) Insert(ctx context.Context, rule *Rule, overwrite bool) (*Rule, error) {
	op := "create"
	if overwrite {
		op = "update"
	}

	body := map[string]any{
		"name":    rule.Name,
		"trigger": rule.Trigger,
		"action":  rule.Action,
	}
	if len(rule.Annotations) > 0 {
		body["annotations"] = rule.Annotations
	}

	logger.Debug("Inserting rule: %+v", body)
	req, err := s.client.newRequest(ctx, "PUT", entityPath(constants.RulesCollection, rule.Name), overwriteQuery(overwrite), body)
	if err != nil {
		return nil, ruleError(op, rule.Name, err)
	}

	inserted := new(Rule)
	if _, err := s.client.do(req, inserted); err != nil {
		return nil, ruleError(op, rule.Name, err)
	}
	return inserted, nil
}

func (s *RuleService) Delete(ctx context.Context, name string) error {
	req, err := s.client.newRequest(ctx, "DELETE", entityPath(constants.RulesCollection, name), nil, nil)
	if err != nil {
		return ruleError("delete", name, err)
	}

	if _, err := s.client.do(req, nil); err != nil {
		return ruleError("delete", name, err)
	}
	return nil
}

// SetState requests a transition to state with a single request; the caller
// decides whether to retry.
func (s *RuleService) SetState(ctx context.Context, name string, state RuleState) (*Rule, error) {
	if _, err := ParseRuleState(string(state)); err != nil {
		return nil, ruleError("set state of", name, err)
	}

	logger.Info("Setting rule %s to %s", name, state)
	req, err := s.client.newRequest(ctx, "POST", entityPath(constants.RulesCollection, name), nil, map[string]string{"status": string(state)})
	if err != nil {
		return nil, ruleError(state.Verb(), name, err)
	}

	rule := new(Rule)
	if _, err := s.client.do(req, rule); err != nil {
		return nil, ruleError(state.Verb(), name, err)
	}
	return rule, nil
}
