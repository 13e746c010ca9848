package httpclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveHost(t *testing.T) {
	assert.Equal(t, LocalHost, ResolveHost("test"))
	assert.Equal(t, LocalHost, ResolveHost("development"))
	assert.Equal(t, RemoteHost, ResolveHost("production"))
	assert.Equal(t, RemoteHost, ResolveHost("staging"))
	assert.Equal(t, RemoteHost, ResolveHost(""))
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		base string
		path string
		want string
	}{
		{base: RemoteHost, path: "/ticker", want: "https://api.lamassu.is/ticker"},
		{base: RemoteHost, path: "ticker", want: "https://api.lamassu.is/ticker"},
		{base: LocalHost, path: "/orders?limit=5", want: "http://localhost:8085/orders?limit=5"},
		{base: "https://api.lamassu.is/v1/", path: "ticker", want: "https://api.lamassu.is/v1/ticker"},
		{base: "https://api.lamassu.is/v1/", path: "/ticker", want: "https://api.lamassu.is/ticker"},
		{base: "https://api.lamassu.is/v1/rates", path: "ticker", want: "https://api.lamassu.is/v1/ticker"},
		{base: RemoteHost, path: "https://other.example/x", want: "https://other.example/x"},
	}

	for _, tt := range tests {
		t.Run(tt.base+" "+tt.path, func(t *testing.T) {
			base, err := parseBaseURL(tt.base)
			require.NoError(t, err)

			got, err := resolveURL(base, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveURLInvalidPath(t *testing.T) {
	base, err := parseBaseURL(RemoteHost)
	require.NoError(t, err)

	_, err = resolveURL(base, "%zz")
	assert.Error(t, err)
}
