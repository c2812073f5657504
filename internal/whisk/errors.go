package whisk

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound reports that the requested entity does not exist.
var ErrNotFound = errors.New("resource does not exist")

// APIError is a non-2xx answer of the platform.
type APIError struct {
	StatusCode int
	Message    string `json:"error"`
	Code       string `json:"code"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s (code %s) [HTTP %d]", msg, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("%s [HTTP %d]", msg, e.StatusCode)
}

// Is lets errors.Is(err, ErrNotFound) match a 404 answer.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// NetworkError wraps failures to reach the platform at all.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// EntityError ties a failed operation to the entity it was about.
type EntityError struct {
	Kind string
	Name string
	Op   string
	Err  error
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("Unable to %s %s '%s': %v", e.Op, e.Kind, e.Name, e.Err)
}

func (e *EntityError) Unwrap() error { return e.Err }

// RuleError is an EntityError about a rule.
type RuleError = EntityError

func ruleError(op, name string, err error) error {
	return &EntityError{Kind: "rule", Name: name, Op: op, Err: err}
}

func actionError(op, name string, err error) error {
	return &EntityError{Kind: "action", Name: name, Op: op, Err: err}
}

func triggerError(op, name string, err error) error {
	return &EntityError{Kind: "trigger", Name: name, Op: op, Err: err}
}

func activationError(op, id string, err error) error {
	return &EntityError{Kind: "activation", Name: id, Op: op, Err: err}
}

// IsNotFound reports whether err says the entity does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsNetwork reports whether err is a failure to reach the platform.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsUnauthorized reports whether the platform rejected the credentials.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}
