package whisk

import (
	"encoding/json"
	"fmt"
	"strings"
)

type KeyValue struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type KeyValues []KeyValue

// Get returns the value stored under key.
func (kvs KeyValues) Get(key string) (any, bool) {
	for _, kv := range kvs {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

// ToMap converts the list into a JSON object, the form used for invoke payloads.
func (kvs KeyValues) ToMap() map[string]any {
	m := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		m[kv.Key] = kv.Value
	}
	return m
}

type Exec struct {
	Kind       string   `json:"kind,omitempty"`
	Code       *string  `json:"code,omitempty"`
	Image      string   `json:"image,omitempty"`
	Init       string   `json:"init,omitempty"`
	Main       string   `json:"main,omitempty"`
	Binary     bool     `json:"binary,omitempty"`
	Components []string `json:"components,omitempty"`
}

type Limits struct {
	Timeout     *int `json:"timeout,omitempty"`
	Memory      *int `json:"memory,omitempty"`
	Logsize     *int `json:"logs,omitempty"`
	Concurrency *int `json:"concurrency,omitempty"`
}

type Action struct {
	Namespace   string    `json:"namespace,omitempty"`
	Name        string    `json:"name,omitempty"`
	Version     string    `json:"version,omitempty"`
	Exec        *Exec     `json:"exec,omitempty"`
	Annotations KeyValues `json:"annotations,omitempty"`
	Parameters  KeyValues `json:"parameters,omitempty"`
	Limits      *Limits   `json:"limits,omitempty"`
	Publish     *bool     `json:"publish,omitempty"`
	Updated     int64     `json:"updated,omitempty"`
}

// SortKey orders actions alphabetically by namespace and name.
func (a Action) SortKey() string {
	return strings.ToLower(a.Namespace + a.Name)
}

// Kind returns the runtime kind from the "exec" annotation, falling back to Exec.
func (a Action) Kind() string {
	if v, ok := a.Annotations.Get("exec"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	if a.Exec != nil {
		return a.Exec.Kind
	}
	return ""
}

// ListString is the line printed by "action list".
func (a Action) ListString() string {
	return listLine(a.Namespace, a.Name, publishState(a.Publish), a.Kind())
}

type Rule struct {
	Namespace   string    `json:"namespace,omitempty"`
	Name        string    `json:"name,omitempty"`
	Version     string    `json:"version,omitempty"`
	Status      string    `json:"status,omitempty"`
	Trigger     any       `json:"trigger,omitempty"`
	Action      any       `json:"action,omitempty"`
	Annotations KeyValues `json:"annotations,omitempty"`
	Publish     *bool     `json:"publish,omitempty"`
	Updated     int64     `json:"updated,omitempty"`
}

// SortKey orders rules alphabetically by namespace and name.
func (r Rule) SortKey() string {
	return strings.ToLower(r.Namespace + r.Name)
}

// State maps the status string onto a RuleState.
func (r Rule) State() (RuleState, error) {
	return ParseRuleState(r.Status)
}

// ListString is the line printed by "rule list".
func (r Rule) ListString() string {
	return listLine(r.Namespace, r.Name, publishState(r.Publish), r.Status)
}

// TriggerName returns the trigger reference, which the platform returns either
// as a fully qualified string or as a {path, name} object.
func (r Rule) TriggerName() string {
	return entityRef(r.Trigger)
}

// ActionName returns the action reference, see TriggerName.
func (r Rule) ActionName() string {
	return entityRef(r.Action)
}

type Trigger struct {
	Namespace   string    `json:"namespace,omitempty"`
	Name        string    `json:"name,omitempty"`
	Version     string    `json:"version,omitempty"`
	Annotations KeyValues `json:"annotations,omitempty"`
	Parameters  KeyValues `json:"parameters,omitempty"`
	Publish     *bool     `json:"publish,omitempty"`
}

// Activation is the recorded result of one invocation.
type Activation struct {
	Namespace    string              `json:"namespace"`
	Name         string              `json:"name"`
	Version      string              `json:"version,omitempty"`
	Subject      string              `json:"subject,omitempty"`
	ActivationID string              `json:"activationId"`
	Cause        string              `json:"cause,omitempty"`
	Start        int64               `json:"start"`
	End          int64               `json:"end"`
	Duration     int64               `json:"duration"`
	StatusCode   int                 `json:"statusCode"`
	Response     *ActivationResponse `json:"response,omitempty"`
	Logs         []string            `json:"logs"`
	Annotations  KeyValues           `json:"annotations,omitempty"`
	Publish      *bool               `json:"publish,omitempty"`
}

// ActivationResponse holds the outcome of an activation.
type ActivationResponse struct {
	Status  string          `json:"status"`
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result,omitempty"`
	Size    *int            `json:"size,omitempty"`
}

// ActivationStatus strings of ActivationResponse.Status
const (
	ActivationStatusSuccess          = "success"
	ActivationStatusApplicationError = "application error"
	ActivationStatusDeveloperError   = "action developer error"
	ActivationStatusWhiskError       = "whisk internal error"
)

// Succeeded reports whether the activation completed successfully.
func (a Activation) Succeeded() bool {
	return a.Response != nil && a.Response.Success
}

// ListString is the line printed by "activation list".
func (a Activation) ListString() string {
	return fmt.Sprintf("%s %s\n", a.ActivationID, a.Name)
}

func publishState(publish *bool) string {
	if publish != nil && *publish {
		return "shared"
	}
	return "private"
}

func listLine(namespace, name, visibility, detail string) string {
	return fmt.Sprintf("%-70s %s %s\n", fmt.Sprintf("/%s/%s", namespace, name), visibility, detail)
}

func entityRef(v any) string {
	switch ref := v.(type) {
	case string:
		return ref
	case map[string]any:
		path, _ := ref["path"].(string)
		name, _ := ref["name"].(string)
		if path == "" {
			return name
		}
		return "/" + strings.TrimPrefix(path, "/") + "/" + name
	default:
		return ""
	}
}
