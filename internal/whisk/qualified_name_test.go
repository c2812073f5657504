package whisk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wskops/wskctl/internal/whisk"
)

func TestParseQualifiedName(t *testing.T) {
	tests := []struct {
		in        string
		namespace string
		entity    string
		wantErr   bool
	}{
		{in: "hello", entity: "hello"},
		{in: "pkg/hello", entity: "pkg/hello"},
		{in: "/guest/hello", namespace: "guest", entity: "hello"},
		{in: "/guest/pkg/hello", namespace: "guest", entity: "pkg/hello"},
		{in: "/guest", namespace: "guest"},
		{in: "", wantErr: true},
		{in: "/", wantErr: true},
		{in: "hello/", wantErr: true},
		{in: "a//b", wantErr: true},
		{in: "/guest/pkg/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			q, err := whisk.ParseQualifiedName(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.namespace, q.Namespace)
			assert.Equal(t, tt.entity, q.Entity)
			assert.Equal(t, tt.in, q.String())
		})
	}
}

func TestFullyQualify(t *testing.T) {
	got, err := whisk.FullyQualify("hello", "guest")
	require.NoError(t, err)
	assert.Equal(t, "/guest/hello", got)

	got, err = whisk.FullyQualify("/other/hello", "guest")
	require.NoError(t, err)
	assert.Equal(t, "/other/hello", got)

	_, err = whisk.FullyQualify("", "guest")
	assert.Error(t, err)
}
