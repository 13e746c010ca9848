package httpclient

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamassu/apiclient/internal/testutil"
)

type ticker struct {
	Pair  string  `json:"pair"`
	Price float64 `json:"price"`
}

func TestResponseDecode(t *testing.T) {
	resp := &Response{Payload: json.RawMessage(`{"pair":"BTC-EUR","price":42.5}`)}

	var got ticker
	require.NoError(t, resp.Decode(&got))
	assert.Equal(t, ticker{Pair: "BTC-EUR", Price: 42.5}, got)

	var wrong []string
	err := resp.Decode(&wrong)
	assert.True(t, IsErrorType(err, DecodeError))
}

func TestRunInto(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Script(testutil.PathTicker, `{"pair":"BTC-EUR","price":42.5}`)
	c, _ := newBackendClient(t, backend.URL())

	got, resp, err := RunInto[ticker](context.Background(), c, Options{Path: testutil.PathTicker})
	require.NoError(t, err)
	assert.Equal(t, ticker{Pair: "BTC-EUR", Price: 42.5}, got)
	assert.Equal(t, 1, resp.Stats.Attempts)
}

func TestRunIntoPropagatesErrors(t *testing.T) {
	backend := testutil.NewBackend(t)
	c, _ := newBackendClient(t, backend.URL())

	_, resp, err := RunInto[ticker](context.Background(), c, Options{Path: testutil.PathMissing})
	assert.Nil(t, resp)
	assert.True(t, IsHTTPStatusError(err, 404))
}

func TestRunIntoNullPayload(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Script(testutil.PathTicker, "")
	c, _ := newBackendClient(t, backend.URL())

	got, _, err := RunInto[*ticker](context.Background(), c, Options{Path: testutil.PathTicker})
	require.NoError(t, err)
	assert.Nil(t, got)
}
