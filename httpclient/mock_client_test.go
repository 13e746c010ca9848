package httpclient_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lamassu/apiclient/httpclient"
	"github.com/lamassu/apiclient/internal/testutil"
	"github.com/lamassu/apiclient/testing/fixtures"
	"github.com/lamassu/apiclient/testing/mocks"
)

type quote struct {
	Pair  string  `json:"pair"`
	Price float64 `json:"price"`
}

func TestRunIntoWithMockClient(t *testing.T) {
	client := &mocks.MockClient{}
	client.ExpectRequest(http.MethodGet, testutil.PathTicker,
		fixtures.RetriedResponse(`{"pair":"BTC-EUR","price":61000.5}`, 3), nil)

	got, resp, err := httpclient.RunInto[quote](context.Background(), client,
		httpclient.Options{Method: http.MethodGet, Path: testutil.PathTicker})

	require.NoError(t, err)
	assert.Equal(t, quote{Pair: "BTC-EUR", Price: 61000.5}, got)
	assert.Equal(t, 3, resp.Stats.Attempts)
	client.AssertExpectations(t)
}

func TestRunIntoPropagatesClientErrors(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(t *testing.T, err error)
	}{
		{
			name: "gave up",
			err:  fixtures.GaveUp(4),
			check: func(t *testing.T, err error) {
				assert.True(t, httpclient.IsMaxRetry(err))
				attempts, ok := httpclient.Attempts(err)
				require.True(t, ok)
				assert.Equal(t, 4, attempts)
			},
		},
		{
			name: "connectivity status",
			err:  fixtures.HTTPFailure(http.StatusServiceUnavailable),
			check: func(t *testing.T, err error) {
				assert.True(t, httpclient.IsConnectivity(err))
				status, ok := httpclient.StatusCode(err)
				require.True(t, ok)
				assert.Equal(t, http.StatusServiceUnavailable, status)
			},
		},
		{
			name: "not found",
			err:  fixtures.HTTPFailure(http.StatusNotFound),
			check: func(t *testing.T, err error) {
				assert.True(t, httpclient.IsOther(err))
				assert.True(t, httpclient.IsHTTPStatusError(err, http.StatusNotFound))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mocks.MockClient{}
			client.On("Request", mock.Anything, mock.Anything).Return(nil, tt.err)

			_, resp, err := httpclient.RunInto[quote](context.Background(), client,
				httpclient.Options{Path: testutil.PathOrders})

			require.Error(t, err)
			assert.Nil(t, resp)
			tt.check(t, err)
			client.AssertExpectations(t)
		})
	}
}

func TestMockClientConvenienceMethods(t *testing.T) {
	client := &mocks.MockClient{}
	client.ExpectGet(testutil.PathTicker, fixtures.JSONResponse(`{}`), nil)
	client.ExpectPost(testutil.PathOrders, fixtures.JSONResponse(`{"id":1}`), nil)

	resp, err := client.Get(context.Background(), testutil.PathTicker)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Post(context.Background(), testutil.PathOrders, map[string]int{"amount": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1}`, string(resp.Payload))

	client.AssertExpectations(t)
}
