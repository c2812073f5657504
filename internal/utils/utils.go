package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wskops/wskctl/internal/logger"
)

// FileExists is a small helper function to check if a file already exists. It is not
// safe in concurrent usage.
func FileExists(p string) (bool, error) {
	_, err := os.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("checking existence of file %s: %w", p, err)
}

// ReadInputOrFileOrStdin reads data from either a positional argument, a file, or stdin
func ReadInputOrFileOrStdin(input, filename string, stdin io.Reader) ([]byte, error) {
	logger.Debug("Reading input: direct=%v, file=%s", input != "", filename)

	if input == "" && filename == "" {
		return nil, fmt.Errorf("either input or filename must be provided")
	}
	if input != "" && filename != "" {
		return nil, fmt.Errorf("cannot provide both input and filename")
	}

	if input != "" {
		logger.Debug("Using direct input (%d bytes)", len(input))
		return []byte(input), nil
	}

	return ReadFromFileOrStdin(filename, stdin)
}

// ReadFromFileOrStdin reads from a file or from stdin if filename is "-"
func ReadFromFileOrStdin(filename string, stdin io.Reader) ([]byte, error) {
	logger.Debug("Reading from file or stdin: %s", filename)

	var reader io.Reader
	if filename == "-" {
		logger.Debug("Reading from stdin")
		reader = stdin
	} else {
		logger.Debug("Reading from file: %s", filename)
		f, err := os.Open(filename)
		if err != nil {
			return nil, fmt.Errorf("opening file %q: %w", filename, err)
		}
		defer func() { _ = f.Close() }()
		reader = f
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}

	logger.Debug("Read %d bytes", len(data))
	return data, nil
}

// ParseParams turns "key=value" pairs into a JSON object. A value that is
// valid JSON is taken as such, anything else as a plain string.
func ParseParams(params []string) (map[string]any, error) {
	out := make(map[string]any, len(params))
	for _, p := range params {
		key, raw, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("parameter %q must have the form key=value", p)
		}

		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		out[key] = value
	}
	return out, nil
}

// BuildPayload reads an optional JSON object from input or filename and sets
// params on top of it. With neither input nor filename only params are used.
func BuildPayload(input, filename string, params []string, stdin io.Reader) (map[string]any, error) {
	payload := map[string]any{}

	if input != "" || filename != "" {
		data, err := ReadInputOrFileOrStdin(input, filename, stdin)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			logger.Error("Invalid JSON in payload")
			return nil, fmt.Errorf("payload must be a JSON object: %w", err)
		}
	}

	fromParams, err := ParseParams(params)
	if err != nil {
		return nil, err
	}
	for k, v := range fromParams {
		payload[k] = v
	}
	return payload, nil
}

// IsYAMLFile checks if filename has YAML extension
func IsYAMLFile(filename string) bool {
	ext := filepath.Ext(filename)
	return ext == ".yaml" || ext == ".yml"
}
