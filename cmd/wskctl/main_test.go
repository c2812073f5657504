package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/wskops/wskctl/internal/constants"
	"github.com/wskops/wskctl/internal/whisk"
	"github.com/wskops/wskctl/internal/whisk/whisktest"
)

var ansi = regexp.MustCompile("\x1b\\[[0-9;]*m")

func TestRootCmd(t *testing.T) {
	cmd := RootCmd()

	if cmd.Use != "wskctl" {
		t.Errorf("Expected Use 'wskctl', got %s", cmd.Use)
	}

	// Check global flags
	for _, name := range []string{"log-level", "config", "apihost", "auth", "namespace", "insecure"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("Expected global flag %s to exist", name)
		}
	}

	logLevelFlag := cmd.PersistentFlags().Lookup("log-level")
	if logLevelFlag.DefValue != "warn" {
		t.Errorf("Expected default log-level 'warn', got %s", logLevelFlag.DefValue)
	}

	// Check subcommands exist
	expectedCommands := []string{"action", "activation", "rule", "trigger", "property", "platform"}

	commandNames := make(map[string]bool)
	for _, cmd := range cmd.Commands() {
		commandNames[cmd.Name()] = true
	}

	for _, expected := range expectedCommands {
		if !commandNames[expected] {
			t.Errorf("Expected command %s to exist", expected)
		}
	}
}

func TestRunClient(t *testing.T) {
	// RunClient reads os.Args and exits through main; only check it is there
	_ = RunClient
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"not found", fmt.Errorf("wrapped: %w", whisk.ErrNotFound), constants.ExitCodeNotFound},
		{"api not found", &whisk.APIError{StatusCode: 404}, constants.ExitCodeNotFound},
		{"network", &whisk.NetworkError{Method: "GET", URL: "http://x", Err: errors.New("refused")}, constants.ExitCodeNetwork},
		{"server error", &whisk.APIError{StatusCode: 500}, constants.ExitCodeGeneral},
		{"other", errors.New("boom"), constants.ExitCodeGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func execute(env map[string]string, files []string, args ...string) (string, error) {
	getenv := func(key string) string { return env[key] }
	cmd := newRootCmd(getenv, func() []string { return files })

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return ansi.ReplaceAllString(out.String(), ""), err
}

func TestClientFromFlags(t *testing.T) {
	srv := whisktest.NewServer(t)
	srv.PutRule(whisk.Rule{Name: "r1", Status: "active"})
	auth := whisktest.User + ":" + whisktest.Password

	out, err := execute(nil, nil, "rule", "status", "r1", "--apihost", srv.URL, "--auth", auth, "--namespace", whisktest.Namespace)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "ok: rule r1 is active\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestClientFromEnvAndFiles(t *testing.T) {
	srv := whisktest.NewServer(t)
	srv.PutRule(whisk.Rule{Name: "r1", Status: "inactive"})

	dir := t.TempDir()
	home := filepath.Join(dir, "home.yaml")
	extra := filepath.Join(dir, "extra.yaml")
	writeFile(t, home, "apihost: http://unreachable.invalid\nnamespace: elsewhere\n")
	writeFile(t, extra, "namespace: "+whisktest.Namespace+"\n")

	env := map[string]string{
		constants.EnvAPIHost: srv.URL,
		constants.EnvAuth:    whisktest.User + ":" + whisktest.Password,
	}

	out, err := execute(env, []string{home}, "rule", "status", "r1", "--config", extra)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "ok: rule r1 is inactive\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestInsecureLayering(t *testing.T) {
	file := filepath.Join(t.TempDir(), "insecure.yaml")
	writeFile(t, file, "insecure: true\n")

	tests := []struct {
		name string
		env  map[string]string
		args []string
		want string
	}{
		{"from file", nil, nil, "true"},
		{"env turns it off", map[string]string{constants.EnvInsecure: "false"}, nil, "false"},
		{"flag turns it off", nil, []string{"--insecure=false"}, "false"},
		{"flag over env", map[string]string{constants.EnvInsecure: "false"}, []string{"-i"}, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"property", "get", "insecure"}, tt.args...)
			out, err := execute(tt.env, []string{file}, args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if want := "insecure     " + tt.want + "\n"; out != want {
				t.Errorf("got %q, want %q", out, want)
			}
		})
	}
}

func TestMissingConnectionSettings(t *testing.T) {
	_, err := execute(nil, nil, "rule", "status", "r1")
	if err == nil {
		t.Fatal("expected an error without API host and key")
	}
	if ExitCode(err) != constants.ExitCodeGeneral {
		t.Errorf("unexpected exit code %d", ExitCode(err))
	}
}

func TestInvalidGlobalFlags(t *testing.T) {
	if _, err := execute(nil, nil, "rule", "status", "r1", "--log-level", "loud"); err == nil {
		t.Error("expected an error for an invalid log level")
	}
	if _, err := execute(nil, nil, "rule", "status", "r1", "--config", "props.json"); err == nil {
		t.Error("expected an error for a non-YAML config file")
	}
}

func TestNotFoundExitCode(t *testing.T) {
	srv := whisktest.NewServer(t)
	auth := whisktest.User + ":" + whisktest.Password

	_, err := execute(nil, nil, "rule", "get", "missing", "--apihost", srv.URL, "-u", auth, "--namespace", whisktest.Namespace)
	if got := ExitCode(err); got != constants.ExitCodeNotFound {
		t.Errorf("ExitCode() = %d, want %d (err: %v)", got, constants.ExitCodeNotFound, err)
	}
}

func writeFile(t *testing.T, p, content string) {
	t.Helper()
	if err := os.WriteFile(p, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}
