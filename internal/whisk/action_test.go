package whisk_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wskops/wskctl/internal/whisk"
	"github.com/wskops/wskctl/internal/whisk/whisktest"
)

func strPtr(s string) *string { return &s }

func TestActionLifecycle(t *testing.T) {
	ctx := context.Background()
	srv := whisktest.NewServer(t)
	cl := srv.Client(t)

	action := &whisk.Action{
		Name: "hello",
		Exec: &whisk.Exec{Kind: "nodejs:20", Code: strPtr("function main(p) { return p }")},
	}

	created, err := cl.Actions.Insert(ctx, action, false)
	require.NoError(t, err)
	assert.Equal(t, "hello", created.Name)
	assert.Equal(t, "guest", created.Namespace)

	got, err := cl.Actions.Get(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "nodejs:20", got.Kind())

	actions, err := cl.Actions.List(ctx, "", whisk.ListOptions{})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Contains(t, actions[0].ListString(), "/guest/hello")
	assert.Contains(t, actions[0].ListString(), "private nodejs:20")

	require.NoError(t, cl.Actions.Delete(ctx, "hello"))

	_, err = cl.Actions.Get(ctx, "hello")
	require.Error(t, err)
	assert.True(t, whisk.IsNotFound(err))
	assert.Contains(t, err.Error(), "Unable to get action 'hello'")
}

func TestActionListInPackage(t *testing.T) {
	ctx := context.Background()
	srv := whisktest.NewServer(t)
	srv.PutAction(whisk.Action{Name: "utils/echo"})
	srv.PutAction(whisk.Action{Name: "top"})
	cl := srv.Client(t)

	actions, err := cl.Actions.List(ctx, "utils", whisk.ListOptions{})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "utils/echo", actions[0].Name)

	reqs := srv.Requests()
	assert.Equal(t, "/api/v1/namespaces/guest/actions/utils/", reqs[0].Path)
}

func TestActionInvoke(t *testing.T) {
	ctx := context.Background()

	t.Run("non-blocking returns activation id", func(t *testing.T) {
		srv := whisktest.NewServer(t)
		srv.PutAction(whisk.Action{Name: "hello"})
		cl := srv.Client(t)

		res, err := cl.Actions.Invoke(ctx, "hello", map[string]any{"name": "Bob"}, false, false)
		require.NoError(t, err)
		assert.True(t, res.Accepted())
		assert.Len(t, res.ActivationID, 32)
		assert.Nil(t, res.Activation)

		req := srv.Requests()[0]
		assert.Equal(t, "false", req.Query.Get("blocking"))
		assert.JSONEq(t, `{"name":"Bob"}`, string(req.Body))
	})

	t.Run("blocking returns activation", func(t *testing.T) {
		srv := whisktest.NewServer(t)
		srv.PutAction(whisk.Action{Name: "hello"})
		cl := srv.Client(t)

		res, err := cl.Actions.Invoke(ctx, "hello", map[string]any{"n": 1}, true, false)
		require.NoError(t, err)
		assert.False(t, res.Accepted())
		require.NotNil(t, res.Activation)
		assert.True(t, res.Activation.Succeeded())
		assert.Equal(t, res.Activation.ActivationID, res.ActivationID)
		assert.JSONEq(t, `{"n":1}`, string(res.Result))
	})

	t.Run("blocking result only", func(t *testing.T) {
		srv := whisktest.NewServer(t)
		srv.PutAction(whisk.Action{Name: "hello"})
		cl := srv.Client(t)

		res, err := cl.Actions.Invoke(ctx, "hello", nil, true, true)
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(res.Result))
		assert.Empty(t, res.ActivationID)
	})

	t.Run("missing action", func(t *testing.T) {
		srv := whisktest.NewServer(t)
		cl := srv.Client(t)

		_, err := cl.Actions.Invoke(ctx, "nope", nil, false, false)
		require.Error(t, err)
		assert.True(t, whisk.IsNotFound(err))
	})

	t.Run("unauthorized", func(t *testing.T) {
		srv := whisktest.NewServer(t)
		cfg := srv.Config()
		cfg.Auth = "someone:wrong"
		cl, err := whisk.NewClient(cfg)
		require.NoError(t, err)

		_, err = cl.Actions.Invoke(ctx, "hello", nil, false, false)
		require.Error(t, err)

		var apiErr *whisk.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	})
}

func TestActionInsertPayload(t *testing.T) {
	ctx := context.Background()
	srv := whisktest.NewServer(t)
	cl := srv.Client(t)

	_, err := cl.Actions.Insert(ctx, &whisk.Action{
		Name:       "hello",
		Exec:       &whisk.Exec{Kind: "python:3", Code: strPtr("def main(a): return a")},
		Parameters: whisk.KeyValues{{Key: "greeting", Value: "hi"}},
	}, true)
	require.NoError(t, err)

	req := srv.Requests()[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "true", req.Query.Get("overwrite"))

	var sent whisk.Action
	require.NoError(t, json.Unmarshal(req.Body, &sent))
	assert.Equal(t, "python:3", sent.Exec.Kind)
	v, ok := sent.Parameters.Get("greeting")
	assert.True(t, ok)
	assert.Equal(t, "hi", v)
}
