// Package whisk holds the REST bindings for the platform's actions, rules,
// triggers and activations.
package whisk

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wskops/wskctl/internal/config"
	"github.com/wskops/wskctl/internal/constants"
	"github.com/wskops/wskctl/internal/logger"
)

type Client struct {
	cfg        config.Config
	baseURL    *url.URL
	httpClient *http.Client

	Actions     *ActionService
	Rules       *RuleService
	Triggers    *TriggerService
	Activations *ActivationService
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for cfg. cfg must pass Validate.
func NewClient(cfg config.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	base, err := cfg.BaseURL()
	if err != nil {
		return nil, err
	}

	logger.Debug("Creating new client for %s", base)

	c := &Client{
		cfg:        cfg,
		baseURL:    base,
		httpClient: defaultHTTPClient(cfg.Insecure),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.initServices()
	return c, nil
}

func defaultHTTPClient(insecure bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opted in via --insecure
	}
	return &http.Client{Transport: transport, Timeout: constants.DefaultHTTPTimeout}
}

func (c *Client) initServices() {
	c.Actions = &ActionService{client: c}
	c.Rules = &RuleService{client: c}
	c.Triggers = &TriggerService{client: c}
	c.Activations = &ActivationService{client: c}
}

// Config returns the configuration the client was built with.
func (c *Client) Config() config.Config {
	return c.cfg
}

// Namespace returns the namespace requests are made against.
func (c *Client) Namespace() string {
	return c.cfg.Namespace
}

// WithNamespace returns a client for another namespace sharing the HTTP client.
// An empty namespace returns c.
func (c *Client) WithNamespace(namespace string) (*Client, error) {
	if namespace == "" || namespace == c.cfg.Namespace {
		return c, nil
	}
	return NewClient(c.cfg.WithNamespace(namespace), WithHTTPClient(c.httpClient))
}

// buildURL resolves a route relative to the namespace root. The route's path
// segments must already be escaped.
func (c *Client) buildURL(route string, query url.Values) (*url.URL, error) {
	rel, err := url.Parse(route)
	if err != nil {
		return nil, fmt.Errorf("parsing route %q: %w", route, err)
	}
	u := c.baseURL.ResolveReference(rel)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u, nil
}

// newRequest builds an authenticated request. body is JSON encoded when not nil.
func (c *Client) newRequest(ctx context.Context, method, route string, query url.Values, body any) (*http.Request, error) {
	u, err := c.buildURL(route, query)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			logger.Error("Failed to marshal payload: %v", err)
			return nil, fmt.Errorf("marshalling payload: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	user, password, err := c.cfg.BasicAuth()
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(user, password)
	req.Header.Set("Accept", constants.ContentType)
	req.Header.Set("User-Agent", constants.UserAgent)
	req.Header.Set(constants.RequestIDHeader, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", constants.ContentType)
	}

	if logger.DebugEnabled() {
		logCurlCommand(req, payload)
	}
	return req, nil
}

// do sends req and decodes a 2xx JSON answer into v (if v is not nil).
// Any other status is returned as *APIError.
func (c *Client) do(req *http.Request, v any) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		logger.Error("Request failed after %v: %v", duration, err)
		return nil, &NetworkError{Method: req.Method, URL: req.URL.Redacted(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	logResponseDetails(resp, duration)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, &NetworkError{Method: req.Method, URL: req.URL.Redacted(), Err: fmt.Errorf("reading response: %w", err)}
	}
	logger.Debug("Response body (%d bytes): %s", len(body), string(body))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, parseAPIError(resp.StatusCode, body)
	}

	if v != nil && len(bytes.TrimSpace(body)) > 0 {
		if raw, ok := v.(*json.RawMessage); ok {
			*raw = append((*raw)[:0], body...)
			return resp, nil
		}
		if err := json.Unmarshal(body, v); err != nil {
			logger.Error("Failed to unmarshal response: %v", err)
			return resp, fmt.Errorf("unmarshalling response: %w", err)
		}
	}

	return resp, nil
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	apiErr.StatusCode = status
	logger.Debug("Request failed with status %d: %s", status, apiErr.Message)
	return apiErr
}

// escapeForShell escapes single quotes in a string for safe use in shell commands.
func escapeForShell(s string) string {
	return strings.ReplaceAll(s, "'", "'\"'\"'")
}

// logCurlCommand logs a curl command that can be used to reproduce the request.
// The Authorization header is redacted.
func logCurlCommand(req *http.Request, body []byte) {
	var parts []string
	parts = append(parts, fmt.Sprintf("curl -X %s '%s'", req.Method, req.URL.String()))

	for key, values := range req.Header {
		for _, value := range values {
			if key == "Authorization" {
				value = "Basic <redacted>"
			}
			parts = append(parts, fmt.Sprintf("-H '%s: %s'", key, value))
		}
	}

	if len(body) > 0 {
		parts = append(parts, fmt.Sprintf("-d '%s'", escapeForShell(string(body))))
	}

	logger.Debug("Equivalent curl command:\n  %s", strings.Join(parts, " \\\n  "))
}

func logResponseDetails(resp *http.Response, duration time.Duration) {
	logger.Debug("Response status: %s", resp.Status)
	logger.Debug("Request completed in %v", duration)
}

// entityPath escapes name as a path so '?' or '#' in a name can't start a
// query or fragment. Slashes separating package and action are kept.
func entityPath(collection, name string) string {
	return collection + "/" + (&url.URL{Path: name}).EscapedPath()
}
