package whisk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/wskops/wskctl/internal/constants"
)

type ActivationService struct {
	client *Client
}

// ActivationListOptions filters the activations listing. Since and Upto are
// inclusive bounds on the activation start time.
type ActivationListOptions struct {
	Name  string
	Limit int
	Skip  int
	Since time.Time
	Upto  time.Time
	Docs  bool
}

func (o ActivationListOptions) query() url.Values {
	query := listQuery(ListOptions{Limit: o.Limit, Skip: o.Skip})
	if o.Name != "" {
		query.Set("name", o.Name)
	}
	if !o.Since.IsZero() {
		query.Set("since", strconv.FormatInt(o.Since.UnixMilli(), 10))
	}
	if !o.Upto.IsZero() {
		query.Set("upto", strconv.FormatInt(o.Upto.UnixMilli(), 10))
	}
	if o.Docs {
		query.Set("docs", "true")
	}
	return query
}

// List returns the activations newest first, as ordered by the platform.
func (s *ActivationService) List(ctx context.Context, opts ActivationListOptions) ([]Activation, error) {
	req, err := s.client.newRequest(ctx, "GET", constants.ActivationsCollection, opts.query(), nil)
	if err != nil {
		return nil, err
	}

	var activations []Activation
	if _, err := s.client.do(req, &activations); err != nil {
		return nil, fmt.Errorf("listing activations in namespace '%s': %w", s.client.Namespace(), err)
	}
	return activations, nil
}

// ListIDs returns just the activation ids of List, in the same order.
func (s *ActivationService) ListIDs(ctx context.Context, opts ActivationListOptions) ([]string, error) {
	activations, err := s.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(activations))
	for _, a := range activations {
		ids = append(ids, a.ActivationID)
	}
	return ids, nil
}

// GetRaw fetches the activation record without decoding it. A record that is
// not written yet yields an error matching ErrNotFound.
func (s *ActivationService) GetRaw(ctx context.Context, id string) (json.RawMessage, error) {
	req, err := s.client.newRequest(ctx, "GET", entityPath(constants.ActivationsCollection, id), nil, nil)
	if err != nil {
		return nil, activationError("get", id, err)
	}

	var body json.RawMessage
	if _, err := s.client.do(req, &body); err != nil {
		return nil, activationError("get", id, err)
	}
	return body, nil
}

func (s *ActivationService) Get(ctx context.Context, id string) (*Activation, error) {
	body, err := s.GetRaw(ctx, id)
	if err != nil {
		return nil, err
	}

	activation := new(Activation)
	if err := json.Unmarshal(body, activation); err != nil {
		return nil, activationError("get", id, fmt.Errorf("unmarshalling activation: %w", err))
	}
	return activation, nil
}

func (s *ActivationService) Result(ctx context.Context, id string) (*ActivationResponse, error) {
	req, err := s.client.newRequest(ctx, "GET", entityPath(constants.ActivationsCollection, id)+"/result", nil, nil)
	if err != nil {
		return nil, activationError("get result of", id, err)
	}

	result := new(ActivationResponse)
	if _, err := s.client.do(req, result); err != nil {
		return nil, activationError("get result of", id, err)
	}
	return result, nil
}

func (s *ActivationService) Logs(ctx context.Context, id string) ([]string, error) {
	req, err := s.client.newRequest(ctx, "GET", entityPath(constants.ActivationsCollection, id)+"/logs", nil, nil)
	if err != nil {
		return nil, activationError("get logs of", id, err)
	}

	var logs struct {
		Logs []string `json:"logs"`
	}
	if _, err := s.client.do(req, &logs); err != nil {
		return nil, activationError("get logs of", id, err)
	}
	return logs.Logs, nil
}
