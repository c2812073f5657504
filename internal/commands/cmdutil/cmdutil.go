// Package cmdutil holds what the command packages share.
package cmdutil

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/wskops/wskctl/internal/k8s/client"
	"github.com/wskops/wskctl/internal/ui"
	"github.com/wskops/wskctl/internal/whisk"
)

// ClientFunc builds the platform client once flags are parsed.
type ClientFunc func() (*whisk.Client, error)

// K8sFunc builds a Kubernetes client from a kubeconfig path.
type K8sFunc func(kubeconfig string) (*client.Client, error)

// Static returns a ClientFunc that always hands out c.
func Static(c *whisk.Client) ClientFunc {
	return func() (*whisk.Client, error) { return c, nil }
}

// PrintJSON writes v indented, followed by a newline.
func PrintJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("marshalling output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// PrintList writes a bold header and one line per item, sorted by key.
func PrintList[T whisk.SortKeyer](w io.Writer, header string, items []T, line func(T) string) {
	_, _ = fmt.Fprintln(w, ui.Bold(header))
	for _, item := range whisk.Sorted(items) {
		_, _ = fmt.Fprint(w, line(item))
	}
}

// Field returns the top-level field name of v's JSON encoding.
func Field(v any, name string) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshalling entity: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("entity is not an object: %w", err)
	}

	field, ok := fields[name]
	if !ok {
		return nil, fmt.Errorf("field '%s' does not exist", name)
	}
	return field, nil
}

// KeyValues turns a parameter map into the platform's key/value list,
// ordered by key.
func KeyValues(m map[string]any) whisk.KeyValues {
	if len(m) == 0 {
		return nil
	}
	kvs := make(whisk.KeyValues, 0, len(m))
	for k, v := range m {
		kvs = append(kvs, whisk.KeyValue{Key: k, Value: v})
	}
	whisk.SortByKey(kvs, func(kv whisk.KeyValue) string { return kv.Key })
	return kvs
}
