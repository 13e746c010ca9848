package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lamassu/apiclient/httpclient"
)

// MockClient provides a testify-based mock implementation of httpclient.Client.
//
// Example usage:
//
//	client := &mocks.MockClient{}
//	client.On("Request", mock.Anything, mock.MatchedBy(func(o httpclient.Options) bool {
//		return o.Path == "/orders"
//	})).Return(fixtures.JSONResponse(`[]`), nil)
type MockClient struct {
	mock.Mock
}

var _ httpclient.Client = (*MockClient)(nil)

// Request implements httpclient.Client
func (m *MockClient) Request(ctx context.Context, opts httpclient.Options) (*httpclient.Response, error) {
	arguments := m.Called(ctx, opts)
	return response(arguments)
}

// Get implements httpclient.Client
func (m *MockClient) Get(ctx context.Context, path string) (*httpclient.Response, error) {
	arguments := m.Called(ctx, path)
	return response(arguments)
}

// Post implements httpclient.Client
func (m *MockClient) Post(ctx context.Context, path string, payload any) (*httpclient.Response, error) {
	arguments := m.Called(ctx, path, payload)
	return response(arguments)
}

// Put implements httpclient.Client
func (m *MockClient) Put(ctx context.Context, path string, payload any) (*httpclient.Response, error) {
	arguments := m.Called(ctx, path, payload)
	return response(arguments)
}

// Delete implements httpclient.Client
func (m *MockClient) Delete(ctx context.Context, path string) (*httpclient.Response, error) {
	arguments := m.Called(ctx, path)
	return response(arguments)
}

// ExpectRequest sets up a Request expectation for the given method and path
func (m *MockClient) ExpectRequest(method, path string, resp *httpclient.Response, err error) *mock.Call {
	return m.On("Request", mock.Anything, mock.MatchedBy(func(o httpclient.Options) bool {
		return o.Method == method && o.Path == path
	})).Return(resp, err)
}

// ExpectGet sets up a Get expectation for path
func (m *MockClient) ExpectGet(path string, resp *httpclient.Response, err error) *mock.Call {
	return m.On("Get", mock.Anything, path).Return(resp, err)
}

// ExpectPost sets up a Post expectation for path with any payload
func (m *MockClient) ExpectPost(path string, resp *httpclient.Response, err error) *mock.Call {
	return m.On("Post", mock.Anything, path, mock.Anything).Return(resp, err)
}

func response(arguments mock.Arguments) (*httpclient.Response, error) {
	var resp *httpclient.Response
	if r := arguments.Get(0); r != nil {
		resp = r.(*httpclient.Response)
	}
	return resp, arguments.Error(1)
}
