package whisk

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wskops/wskctl/internal/constants"
	"github.com/wskops/wskctl/internal/logger"
)

type TriggerService struct {
	client *Client
}

func (s *TriggerService) Get(ctx context.Context, name string) (*Trigger, error) {
	req, err := s.client.newRequest(ctx, "GET", entityPath(constants.TriggersCollection, name), nil, nil)
	if err != nil {
		return nil, triggerError("get", name, err)
	}

	trigger := new(Trigger)
	if _, err := s.client.do(req, trigger); err != nil {
		return nil, triggerError("get", name, err)
	}
	return trigger, nil
}

func (s *TriggerService) Insert(ctx context.Context, trigger *Trigger, overwrite bool) (*Trigger, error) {
	op := "create"
	if overwrite {
		op = "update"
	}

	req, err := s.client.newRequest(ctx, "PUT", entityPath(constants.TriggersCollection, trigger.Name), overwriteQuery(overwrite), trigger)
	if err != nil {
		return nil, triggerError(op, trigger.Name, err)
	}

	inserted := new(Trigger)
	if _, err := s.client.do(req, inserted); err != nil {
		return nil, triggerError(op, trigger.Name, err)
	}
	return inserted, nil
}

func (s *TriggerService) Delete(ctx context.Context, name string) error {
	req, err := s.client.newRequest(ctx, "DELETE", entityPath(constants.TriggersCollection, name), nil, nil)
	if err != nil {
		return triggerError("delete", name, err)
	}

	if _, err := s.client.do(req, nil); err != nil {
		return triggerError("delete", name, err)
	}
	return nil
}

// Fire fires the trigger and returns the trigger's activation id. The id is
// empty when no active rule is attached.
func (s *TriggerService) Fire(ctx context.Context, name string, payload any) (string, error) {
	if payload == nil {
		payload = map[string]any{}
	}

	logger.Info("Firing trigger %s", name)
	req, err := s.client.newRequest(ctx, "POST", entityPath(constants.TriggersCollection, name), nil, payload)
	if err != nil {
		return "", triggerError("fire", name, err)
	}

	var body json.RawMessage
	if _, err := s.client.do(req, &body); err != nil {
		return "", triggerError("fire", name, err)
	}
	if len(body) == 0 {
		return "", nil
	}

	var fired struct {
		ActivationID string `json:"activationId"`
	}
	if err := json.Unmarshal(body, &fired); err != nil {
		return "", triggerError("fire", name, fmt.Errorf("unmarshalling activation id: %w", err))
	}
	return fired.ActivationID, nil
}
