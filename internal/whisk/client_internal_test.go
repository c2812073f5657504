package whisk

import (
	"testing"
)

func TestEscapeForShell(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{`it's`, `it'"'"'s`},
		{``, ``},
	}

	for _, tt := range tests {
		if got := escapeForShell(tt.in); got != tt.want {
			t.Errorf("escapeForShell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEntityPath(t *testing.T) {
	tests := []struct {
		collection string
		name       string
		want       string
	}{
		{"actions", "hello", "actions/hello"},
		{"actions", "pkg/hello", "actions/pkg/hello"},
		{"rules", "a b", "rules/a%20b"},
		{"rules", "what?", "rules/what%3F"},
		{"rules", "x#y", "rules/x%23y"},
	}

	for _, tt := range tests {
		if got := entityPath(tt.collection, tt.name); got != tt.want {
			t.Errorf("entityPath(%q, %q) = %q, want %q", tt.collection, tt.name, got, tt.want)
		}
	}
}

func TestDecodeInvokeResult(t *testing.T) {
	res, err := decodeInvokeResult(202, []byte(`{"activationId":"abc"}`), true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ActivationID != "abc" || !res.Accepted() {
		t.Errorf("got %+v, want accepted activation abc", res)
	}

	if _, err := decodeInvokeResult(200, []byte(`not json`), true, false); err == nil {
		t.Error("expected error for malformed activation")
	}
}
