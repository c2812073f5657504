package utils

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestReadFromFileOrStdin(t *testing.T) {
	t.Run("read from file", func(t *testing.T) {
		tmpfile := filepath.Join(t.TempDir(), "payload.json")
		content := "test content"
		if err := os.WriteFile(tmpfile, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write test content: %v", err)
		}

		data, err := ReadFromFileOrStdin(tmpfile, nil)
		if err != nil {
			t.Errorf("ReadFromFileOrStdin() error = %v", err)
		}
		if string(data) != content {
			t.Errorf("ReadFromFileOrStdin() = %s, want %s", string(data), content)
		}
	})

	t.Run("read from stdin", func(t *testing.T) {
		data, err := ReadFromFileOrStdin("-", strings.NewReader("from stdin"))
		if err != nil {
			t.Errorf("ReadFromFileOrStdin() error = %v", err)
		}
		if string(data) != "from stdin" {
			t.Errorf("ReadFromFileOrStdin() = %s", string(data))
		}
	})

	t.Run("file not found", func(t *testing.T) {
		_, err := ReadFromFileOrStdin("nonexistent-file.txt", nil)
		if err == nil {
			t.Error("Expected error for nonexistent file")
		}
	})
}

func TestReadInputOrFileOrStdin(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		filename string
		wantErr  bool
	}{
		{"both empty", "", "", true},
		{"both provided", "input", "file", true},
		{"only input", "test input", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadInputOrFileOrStdin(tt.input, tt.filename, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("ReadInputOrFileOrStdin() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	t.Run("with input", func(t *testing.T) {
		input := "test data"
		data, err := ReadInputOrFileOrStdin(input, "", nil)
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
		if string(data) != input {
			t.Errorf("Got %s, want %s", string(data), input)
		}
	})
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		params  []string
		want    map[string]any
		wantErr bool
	}{
		{
			name:   "plain strings",
			params: []string{"name=Bob", "place=Berlin"},
			want:   map[string]any{"name": "Bob", "place": "Berlin"},
		},
		{
			name:   "json values",
			params: []string{"count=3", "ok=true", `list=[1,"a"]`, `obj={"x":1}`},
			want: map[string]any{
				"count": float64(3),
				"ok":    true,
				"list":  []any{float64(1), "a"},
				"obj":   map[string]any{"x": float64(1)},
			},
		},
		{
			name:   "value with equals sign",
			params: []string{"expr=a=b"},
			want:   map[string]any{"expr": "a=b"},
		},
		{
			name:   "empty value",
			params: []string{"empty="},
			want:   map[string]any{"empty": ""},
		},
		{
			name:    "missing equals",
			params:  []string{"novalue"},
			wantErr: true,
		},
		{
			name:    "missing key",
			params:  []string{"=x"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseParams(tt.params)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseParams() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseParams() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildPayload(t *testing.T) {
	t.Run("params only", func(t *testing.T) {
		got, err := BuildPayload("", "", []string{"a=1"}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got, map[string]any{"a": float64(1)}) {
			t.Errorf("BuildPayload() = %v", got)
		}
	})

	t.Run("nothing", func(t *testing.T) {
		got, err := BuildPayload("", "", nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("BuildPayload() = %v, want empty object", got)
		}
	})

	t.Run("params override input", func(t *testing.T) {
		got, err := BuildPayload(`{"a":1,"b":2}`, "", []string{"b=three"}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := map[string]any{"a": float64(1), "b": "three"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("BuildPayload() = %v, want %v", got, want)
		}
	})

	t.Run("stdin", func(t *testing.T) {
		got, err := BuildPayload("", "-", nil, strings.NewReader(`{"x":"y"}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got["x"] != "y" {
			t.Errorf("BuildPayload() = %v", got)
		}
	})

	t.Run("not an object", func(t *testing.T) {
		if _, err := BuildPayload(`[1,2]`, "", nil, nil); err == nil {
			t.Error("expected error for a JSON array payload")
		}
	})
}

func TestFileExists(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "exists")
	if err := os.WriteFile(tmpFile, nil, 0o600); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{
			name:     "existing file",
			path:     tmpFile,
			expected: true,
		},
		{
			name:     "non-existing file",
			path:     filepath.Join(t.TempDir(), "definitely-does-not-exist"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := FileExists(tt.path)
			if err != nil {
				t.Fatalf("Failed to check if file %s exists: %v", tt.path, err)
			}
			if result != tt.expected {
				t.Errorf("FileExists(%q) = %v, want %v", tt.path, result, tt.expected)
			}
		})
	}
}

func TestIsYAMLFile(t *testing.T) {
	tests := []struct {
		filename string
		expected bool
	}{
		{"wskprops.yaml", true},
		{"wskprops.yml", true},
		{"config.json", false},
		{"wskprops", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := IsYAMLFile(tt.filename); got != tt.expected {
				t.Errorf("IsYAMLFile(%q) = %v, want %v", tt.filename, got, tt.expected)
			}
		})
	}
}
