package rule

import (
	"bytes"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wskops/wskctl/internal/commands/cmdutil"
	"github.com/wskops/wskctl/internal/whisk"
	"github.com/wskops/wskctl/internal/whisk/whisktest"
)

var ansi = regexp.MustCompile("\x1b\\[[0-9;]*m")

func run(t *testing.T, srv *whisktest.Server, args ...string) (string, error) {
	t.Helper()

	cmd := Cmd(cmdutil.Static(srv.Client(t)))
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.Execute()
	return ansi.ReplaceAllString(out.String(), ""), err
}

func TestCmd(t *testing.T) {
	cmd := Cmd(nil)
	assert.Equal(t, "rule", cmd.Use)

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"create", "update", "enable", "disable", "status", "get", "delete", "list"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestCreateAndUpdate(t *testing.T) {
	srv := whisktest.NewServer(t)

	out, err := run(t, srv, "create", "r1", "t1", "/other/a1")
	require.NoError(t, err)
	assert.Equal(t, "ok: created rule r1\n", out)

	rule, ok := srv.Rule("r1")
	require.True(t, ok)
	assert.Equal(t, "/guest/t1", rule.TriggerName())
	assert.Equal(t, "/other/a1", rule.ActionName())

	_, err = run(t, srv, "create", "r1", "t1", "a1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unable to create rule 'r1'")

	out, err = run(t, srv, "update", "r1", "t2", "a1")
	require.NoError(t, err)
	assert.Equal(t, "ok: updated rule r1\n", out)
	rule, _ = srv.Rule("r1")
	assert.Equal(t, "/guest/t2", rule.TriggerName())

	_, err = run(t, srv, "create", "r2", "t1/", "a1")
	assert.Error(t, err)
}

func TestEnableDisable(t *testing.T) {
	srv := whisktest.NewServer(t)
	srv.PutRule(whisk.Rule{Name: "r1", Status: "active"})

	out, err := run(t, srv, "disable", "r1")
	require.NoError(t, err)
	assert.Equal(t, "ok: disabled rule r1\n", out)
	rule, _ := srv.Rule("r1")
	assert.Equal(t, "inactive", rule.Status)

	out, err = run(t, srv, "enable", "r1", "--wait", "--interval", "5ms", "--timeout", "1s")
	require.NoError(t, err)
	assert.Equal(t, "ok: enabled rule r1\nok: rule r1 is active\n", out)
	assert.Equal(t, 1, srv.Lookups(http.MethodGet, "/rules/r1"))
}

func TestDisableMissingRule(t *testing.T) {
	srv := whisktest.NewServer(t)

	out, err := run(t, srv, "disable", "r1")
	require.Error(t, err)
	assert.Empty(t, out)
	assert.True(t, whisk.IsNotFound(err))
	assert.Contains(t, err.Error(), "Unable to disable rule 'r1'")
}

func TestEnableWaitFailure(t *testing.T) {
	srv := whisktest.NewServer(t)
	srv.PutRule(whisk.Rule{Name: "r1", Status: "inactive"})
	srv.FailNext(http.MethodGet, "/rules/r1", http.StatusInternalServerError, "boom", -1)

	out, err := run(t, srv, "enable", "r1", "--wait", "--interval", "5ms", "--timeout", "1s")
	require.Error(t, err)
	assert.Equal(t, "ok: enabled rule r1\n", out)
	assert.Contains(t, err.Error(), "waiting for rule 'r1'")
	assert.Contains(t, err.Error(), "boom")
}

func TestStatus(t *testing.T) {
	srv := whisktest.NewServer(t)
	srv.PutRule(whisk.Rule{Name: "r1", Status: "inactive"})

	out, err := run(t, srv, "status", "r1")
	require.NoError(t, err)
	assert.Equal(t, "ok: rule r1 is inactive\n", out)

	_, err = run(t, srv, "status", "missing")
	assert.True(t, whisk.IsNotFound(err))
}

func TestGet(t *testing.T) {
	srv := whisktest.NewServer(t)
	srv.PutRule(whisk.Rule{Name: "r1", Status: "active", Trigger: "/guest/t1", Action: "/guest/a1"})

	t.Run("whole rule", func(t *testing.T) {
		out, err := run(t, srv, "get", "r1")
		require.NoError(t, err)

		header, body, ok := strings.Cut(out, "\n")
		require.True(t, ok)
		assert.Equal(t, "ok: got rule r1", header)

		var rule whisk.Rule
		require.NoError(t, json.Unmarshal([]byte(body), &rule))
		assert.Equal(t, "active", rule.Status)
	})

	t.Run("field", func(t *testing.T) {
		out, err := run(t, srv, "get", "r1", "status")
		require.NoError(t, err)
		assert.Equal(t, "ok: got rule r1, displaying field status\n\"active\"\n", out)

		_, err = run(t, srv, "get", "r1", "nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "field 'nope' does not exist")
	})

	t.Run("summary", func(t *testing.T) {
		out, err := run(t, srv, "get", "r1", "--summary")
		require.NoError(t, err)
		assert.Equal(t, "rule /guest/r1\n   (status: Active)\n   trigger: /guest/t1\n   action:  /guest/a1\n", out)
	})
}

func TestDelete(t *testing.T) {
	srv := whisktest.NewServer(t)
	srv.PutRule(whisk.Rule{Name: "r1", Status: "active"})

	out, err := run(t, srv, "delete", "r1", "--disable")
	require.NoError(t, err)
	assert.Equal(t, "ok: deleted rule r1\n", out)
	assert.Equal(t, 1, srv.Lookups(http.MethodPost, "/rules/r1"))

	_, ok := srv.Rule("r1")
	assert.False(t, ok)

	_, err = run(t, srv, "delete", "r1")
	assert.True(t, whisk.IsNotFound(err))
}

func TestList(t *testing.T) {
	srv := whisktest.NewServer(t)
	srv.PutRule(whisk.Rule{Name: "zeta", Status: "active"})
	srv.PutRule(whisk.Rule{Name: "alpha", Status: "inactive"})

	out, err := run(t, srv, "list", "--limit", "5")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "rules", lines[0])
	assert.Regexp(t, `^/guest/alpha\s+private inactive$`, lines[1])
	assert.Regexp(t, `^/guest/zeta\s+private active$`, lines[2])

	reqs := srv.Requests()
	assert.Equal(t, "5", reqs[len(reqs)-1].Query.Get("limit"))

	_, err = run(t, srv, "list", "--limit", "500")
	assert.Error(t, err)

	_, err = run(t, srv, "list", "/elsewhere")
	require.Error(t, err)
	assert.True(t, whisk.IsNotFound(err))
}
