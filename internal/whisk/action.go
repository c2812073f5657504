package whisk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/wskops/wskctl/internal/constants"
	"github.com/wskops/wskctl/internal/logger"
)

type ActionService struct {
	client *Client
}

// InvokeResult is the answer to an invocation. A non-blocking invoke, or a
// blocking one the platform stopped waiting for, only carries ActivationID.
type InvokeResult struct {
	StatusCode   int
	ActivationID string
	Activation   *Activation
	Result       json.RawMessage
}

// Accepted reports that the activation was only accepted and its result has
// to be looked up later.
func (r *InvokeResult) Accepted() bool {
	return r.StatusCode == http.StatusAccepted
}

// List lists the actions of the namespace, or of packageName if set.
func (s *ActionService) List(ctx context.Context, packageName string, opts ListOptions) ([]Action, error) {
	route := constants.ActionsCollection
	if packageName != "" {
		route = entityPath(constants.ActionsCollection, packageName) + "/"
	}

	req, err := s.client.newRequest(ctx, "GET", route, listQuery(opts), nil)
	if err != nil {
		return nil, err
	}

	var actions []Action
	if _, err := s.client.do(req, &actions); err != nil {
		return nil, fmt.Errorf("listing actions in namespace '%s': %w", s.client.Namespace(), err)
	}
	return actions, nil
}

func (s *ActionService) Get(ctx context.Context, name string) (*Action, error) {
	req, err := s.client.newRequest(ctx, "GET", entityPath(constants.ActionsCollection, name), nil, nil)
	if err != nil {
		return nil, actionError("get", name, err)
	}

	action := new(Action)
	if _, err := s.client.do(req, action); err != nil {
		return nil, actionError("get", name, err)
	}
	return action, nil
}

func (s *ActionService) Insert(ctx context.Context, action *Action, overwrite bool) (*Action, error) {
	op := "create"
	if overwrite {
		op = "update"
	}

	logger.Debug("Inserting action %s (overwrite=%v)", action.Name, overwrite)
	req, err := s.client.newRequest(ctx, "PUT", entityPath(constants.ActionsCollection, action.Name), overwriteQuery(overwrite), action)
	if err != nil {
		return nil, actionError(op, action.Name, err)
	}

	inserted := new(Action)
	if _, err := s.client.do(req, inserted); err != nil {
		return nil, actionError(op, action.Name, err)
	}
	return inserted, nil
}

func (s *ActionService) Delete(ctx context.Context, name string) error {
	req, err := s.client.newRequest(ctx, "DELETE", entityPath(constants.ActionsCollection, name), nil, nil)
	if err != nil {
		return actionError("delete", name, err)
	}

	if _, err := s.client.do(req, nil); err != nil {
		return actionError("delete", name, err)
	}
	return nil
}

// Invoke runs the action. With blocking unset the platform answers 202 with the
// activation id only. With result set a blocking invoke returns just the
// action's result object.
func (s *ActionService) Invoke(ctx context.Context, name string, payload any, blocking, result bool) (*InvokeResult, error) {
	query := url.Values{}
	query.Set("blocking", strconv.FormatBool(blocking))
	query.Set("result", strconv.FormatBool(result))

	if payload == nil {
		payload = map[string]any{}
	}

	logger.Info("Invoking action %s (blocking=%v)", name, blocking)
	req, err := s.client.newRequest(ctx, "POST", entityPath(constants.ActionsCollection, name), query, payload)
	if err != nil {
		return nil, actionError("invoke", name, err)
	}

	var body json.RawMessage
	resp, err := s.client.do(req, &body)
	if err != nil {
		return nil, actionError("invoke", name, err)
	}

	res, err := decodeInvokeResult(resp.StatusCode, body, blocking, result)
	if err != nil {
		return nil, actionError("invoke", name, err)
	}
	logger.Debug("Invoked action %s: activation %s", name, res.ActivationID)
	return res, nil
}

func decodeInvokeResult(status int, body json.RawMessage, blocking, result bool) (*InvokeResult, error) {
	res := &InvokeResult{StatusCode: status}

	if status == http.StatusAccepted || !blocking {
		var accepted struct {
			ActivationID string `json:"activationId"`
		}
		if err := json.Unmarshal(body, &accepted); err != nil {
			return nil, fmt.Errorf("unmarshalling activation id: %w", err)
		}
		res.ActivationID = accepted.ActivationID
		return res, nil
	}

	if result {
		res.Result = body
		return res, nil
	}

	activation := new(Activation)
	if err := json.Unmarshal(body, activation); err != nil {
		return nil, fmt.Errorf("unmarshalling activation: %w", err)
	}
	res.Activation = activation
	res.ActivationID = activation.ActivationID
	if activation.Response != nil {
		res.Result = activation.Response.Result
	}
	return res, nil
}

func listQuery(opts ListOptions) url.Values {
	query := url.Values{}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Skip > 0 {
		query.Set("skip", strconv.Itoa(opts.Skip))
	}
	return query
}

func overwriteQuery(overwrite bool) url.Values {
	return url.Values{"overwrite": []string{strconv.FormatBool(overwrite)}}
}
