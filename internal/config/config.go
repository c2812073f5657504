// Package config resolves the connection settings of the platform client.
//
// Settings are layered: YAML property files in order, then environment
// variables, then command line flags. The result is a plain Config value that
// is handed to every client explicitly.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dario.cat/mergo"
	"sigs.k8s.io/yaml"

	"github.com/wskops/wskctl/internal/constants"
	"github.com/wskops/wskctl/internal/logger"
	"github.com/wskops/wskctl/internal/utils"
)

type Config struct {
	APIHost    string `json:"apihost,omitempty"`
	APIVersion string `json:"apiversion,omitempty"`
	Auth       string `json:"auth,omitempty"`
	Namespace  string `json:"namespace,omitempty"`
	Insecure   bool   `json:"insecure,omitempty"`
}

// Overrides is one layer of settings: a property file, the environment or
// the command line. Empty strings and a nil Insecure leave the value of the
// layers below untouched.
type Overrides struct {
	APIHost    string `json:"apihost,omitempty"`
	APIVersion string `json:"apiversion,omitempty"`
	Auth       string `json:"auth,omitempty"`
	Namespace  string `json:"namespace,omitempty"`
	Insecure   *bool  `json:"insecure,omitempty"`
}

// apply lays o over cfg. mergo skips zero values, so Insecure is set by hand
// to let a later layer turn it off again.
func (o Overrides) apply(cfg *Config) error {
	src := Config{
		APIHost:    o.APIHost,
		APIVersion: o.APIVersion,
		Auth:       o.Auth,
		Namespace:  o.Namespace,
	}
	if err := mergo.Merge(cfg, src, mergo.WithOverride); err != nil {
		return err
	}
	if o.Insecure != nil {
		cfg.Insecure = *o.Insecure
	}
	return nil
}

// Load merges the given property files in order, later files overriding
// earlier ones, applies the environment read through getenv and finally
// overrides. getenv may be nil.
func Load(files []string, getenv func(string) string, overrides Overrides) (Config, error) {
	logger.Debug("Loading configuration from %d file(s)", len(files))

	var cfg Config
	for _, filename := range files {
		layer, err := readLayer(filename)
		if err != nil {
			return Config{}, err
		}

		if err := layer.apply(&cfg); err != nil {
			return Config{}, fmt.Errorf("merging config from %q: %w", filename, err)
		}
	}

	if getenv != nil {
		envLayer, err := fromEnv(getenv)
		if err != nil {
			return Config{}, err
		}
		if err := envLayer.apply(&cfg); err != nil {
			return Config{}, fmt.Errorf("merging environment: %w", err)
		}
	}

	if err := overrides.apply(&cfg); err != nil {
		return Config{}, fmt.Errorf("merging flags: %w", err)
	}

	cfg.applyDefaults()
	logger.Debug("Resolved config: apihost=%s namespace=%s insecure=%v", cfg.APIHost, cfg.Namespace, cfg.Insecure)
	return cfg, nil
}

// ReadFile reads a single YAML property file.
func ReadFile(filename string) (Config, error) {
	layer, err := readLayer(filename)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := layer.apply(&cfg); err != nil {
		return Config{}, fmt.Errorf("reading config file %q: %w", filename, err)
	}
	return cfg, nil
}

func readLayer(filename string) (Overrides, error) {
	logger.Debug("Reading config file: %s", filename)

	data, err := os.ReadFile(filename)
	if err != nil {
		return Overrides{}, fmt.Errorf("reading config file %q: %w", filename, err)
	}

	var layer Overrides
	if err := yaml.UnmarshalStrict(data, &layer); err != nil {
		return Overrides{}, fmt.Errorf("unmarshaling YAML from %q: %w", filename, err)
	}
	return layer, nil
}

// WriteFile stores cfg as YAML, readable by the owner only.
func WriteFile(filename string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(filename, data, constants.ConfigFilePerm); err != nil {
		return fmt.Errorf("writing config file %q: %w", filename, err)
	}
	return nil
}

// DefaultFiles returns the per-user property file if it exists.
func DefaultFiles() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	p := filepath.Join(home, constants.DefaultConfigFile)
	if exists, err := utils.FileExists(p); err != nil || !exists {
		return nil
	}
	return []string{p}
}

func fromEnv(getenv func(string) string) (Overrides, error) {
	layer := Overrides{
		APIHost:   getenv(constants.EnvAPIHost),
		Auth:      getenv(constants.EnvAuth),
		Namespace: getenv(constants.EnvNamespace),
	}

	if v := getenv(constants.EnvInsecure); v != "" {
		insecure, err := strconv.ParseBool(v)
		if err != nil {
			return Overrides{}, fmt.Errorf("parsing %s: %w", constants.EnvInsecure, err)
		}
		layer.Insecure = &insecure
	}
	return layer, nil
}

func (c *Config) applyDefaults() {
	if c.APIVersion == "" {
		c.APIVersion = constants.DefaultAPIVersion
	}
	if c.Namespace == "" {
		c.Namespace = constants.DefaultNamespace
	}
}

// Validate checks that the settings needed to talk to the platform are present.
func (c Config) Validate() error {
	var errs []error
	if c.APIHost == "" {
		errs = append(errs, fmt.Errorf("API host is not set (use --apihost or %s)", constants.EnvAPIHost))
	}
	if c.Auth == "" {
		errs = append(errs, fmt.Errorf("authorization key is not set (use --auth or %s)", constants.EnvAuth))
	} else if _, _, err := c.BasicAuth(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// BasicAuth splits the "<uuid>:<key>" authorization key.
func (c Config) BasicAuth() (user, password string, err error) {
	user, password, ok := strings.Cut(c.Auth, ":")
	if !ok || user == "" || password == "" {
		return "", "", fmt.Errorf("authorization key must have the form <uuid>:<key>")
	}
	return user, password, nil
}

// BaseURL returns the root of all namespaced resources,
// e.g. https://host/api/v1/namespaces/_/.
func (c Config) BaseURL() (*url.URL, error) {
	host := c.APIHost
	if !strings.Contains(host, "://") {
		host = constants.DefaultAPIScheme + host
	}

	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("parsing API host %q: %w", c.APIHost, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("API host %q has no host part", c.APIHost)
	}

	version := c.APIVersion
	if version == "" {
		version = constants.DefaultAPIVersion
	}
	namespace := c.Namespace
	if namespace == "" {
		namespace = constants.DefaultNamespace
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + fmt.Sprintf(constants.APIPathTemplate, version, namespace)
	return u, nil
}

// WithNamespace returns a copy of c using namespace. An empty namespace keeps c's.
func (c Config) WithNamespace(namespace string) Config {
	if namespace != "" {
		c.Namespace = namespace
	}
	return c
}
