// Package constants defines project-wide constants used across wskctl.
// These cover the platform REST API layout, configuration sources and the
// default poll budgets used by the wait commands.
package constants

import (
	"io/fs"
	"time"
)

// Platform REST API
const (
	// DefaultAPIScheme is used when the configured API host carries no scheme
	DefaultAPIScheme string = "https://"

	// DefaultAPIVersion is the API version segment, i. e. /api/v1/
	DefaultAPIVersion string = "v1"

	// APIPathTemplate is the base path of all namespaced resources: /api/<version>/namespaces/<namespace>/
	APIPathTemplate string = "/api/%s/namespaces/%s/"

	// DefaultNamespace is the namespace alias resolved by the platform to the caller's own namespace
	DefaultNamespace string = "_"

	// ContentType is the Content-Type header for all requests with a body
	ContentType string = "application/json"

	// RequestIDHeader carries a per-request uuid so requests can be matched against platform logs
	RequestIDHeader string = "X-Request-ID"

	// UserAgent identifies the client
	UserAgent string = "wskctl"

	// DefaultHTTPTimeout bounds a single request
	DefaultHTTPTimeout time.Duration = 60 * time.Second
)

// Resource collections
const (
	ActionsCollection     string = "actions"
	RulesCollection       string = "rules"
	TriggersCollection    string = "triggers"
	ActivationsCollection string = "activations"
)

// Rule states as sent and received by the rules endpoint
const (
	RuleStatusActive   string = "active"
	RuleStatusInactive string = "inactive"
)

// List defaults
const (
	DefaultListLimit int = 30
	MaxListLimit     int = 200
	ListNameWidth    int = 70
)

// Configuration sources
const (
	// DefaultConfigFile is read from the user's home directory if it exists
	DefaultConfigFile string = ".wskctl.yaml"

	// ConfigFilePerm is used when wskctl writes a property file
	ConfigFilePerm fs.FileMode = 0600

	EnvAPIHost   string = "WSK_APIHOST"
	EnvAuth      string = "WSK_AUTH"
	EnvNamespace string = "WSK_NAMESPACE"
	EnvInsecure  string = "WSK_INSECURE"
)

// Activation waiting
const (
	// DefaultActivationInitialWait is slept once before the first lookup; an
	// activation is rarely recorded by the time a non-blocking invoke returns.
	DefaultActivationInitialWait time.Duration = 1 * time.Second

	// DefaultActivationPollPeriod is the pause between two lookups
	DefaultActivationPollPeriod time.Duration = 1 * time.Second

	// DefaultActivationTotalWait bounds the whole wait
	DefaultActivationTotalWait time.Duration = 30 * time.Second

	// DefaultWaitConcurrency caps the lookups WaitAll runs at the same time
	DefaultWaitConcurrency int = 8

	// DefaultPollRetries is the retry count of "activation poll"
	DefaultPollRetries int = 10

	// DefaultPollInterval is the pause between two listings of "activation poll"
	DefaultPollInterval time.Duration = 1 * time.Second
)

// Rule state waiting
const (
	DefaultRuleStateInterval time.Duration = 1 * time.Second
	DefaultRuleStateTimeout  time.Duration = 30 * time.Second
)

// Platform health on Kubernetes
const (
	// DefaultPlatformNamespace is the namespace the platform chart installs into
	DefaultPlatformNamespace string = "openwhisk"

	// PlatformComponentLabel selects the platform's pods by component
	PlatformComponentLabel string = "app.kubernetes.io/component"

	DefaultPlatformTimeout  time.Duration = 5 * time.Minute
	DefaultPlatformInterval time.Duration = 5 * time.Second
)

// PlatformComponents must all report ready pods before the platform counts as healthy
var PlatformComponents = []string{"controller", "invoker"}

// constants for wait progress output
const (
	ProgressSpinnerType int           = 14
	ThrottleDuration    time.Duration = 100 * time.Millisecond
	IconReady           string        = "✓"
	IconNotReady        string        = "✗"
)

// Exit codes
const (
	ExitCodeGeneral  int = 1
	ExitCodeNotFound int = 2
	ExitCodeNetwork  int = 3
)
