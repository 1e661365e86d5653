package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCaller is a canned-response collaborator for pipeline tests.
type fakeCaller struct {
	lastRequest *Request
	calls       int

	raw     any
	body    any
	err     error
	bodyErr error
}

func (f *fakeCaller) Perform(_ context.Context, req *Request) (any, error) {
	f.calls++
	f.lastRequest = req
	if f.err != nil {
		return nil, f.err
	}
	return f.raw, nil
}

func (f *fakeCaller) ParsedBody() (any, error) {
	if f.bodyErr != nil {
		return nil, f.bodyErr
	}
	return f.body, nil
}

func TestClient_CallUnknownAction(t *testing.T) {
	c, caller := buildTestClient()

	_, err := c.Call(context.Background(), "nope", Params{})

	require.Error(t, err)
	assert.True(t, IsUnknownActionError(err))
	assert.Equal(t, 0, caller.calls)
}

func TestClient_CallNilRoute(t *testing.T) {
	c, _ := buildTestClient()
	c.RegisterAction("broken", func() *RouteSpec { return nil })

	_, err := c.Call(context.Background(), "broken", Params{})

	assert.ErrorIs(t, err, ErrNilRoute)
}

func TestClient_CallFullPipeline(t *testing.T) {
	c, caller := buildTestClient()
	caller.body = map[string]any{
		"data": []any{
			map[string]any{"symbol": "XRP-USDC", "last": 1234},
		},
	}
	c.RegisterAction("prices", func() *RouteSpec {
		return NewRoute(
			&RequestSpec{
				Method: "GET",
				Path:   "/ticker",
				Data:   map[string]*FieldRule{"pair": Field("symbol")},
			},
			&ResponseSpec{Key: "data", Row: RowSpec{"pair": "symbol", "last_price": "last"}},
		)
	})

	result, err := c.Call(context.Background(), "prices", Params{"pair": "XRP-USDC"})

	require.NoError(t, err)
	require.Equal(t, 1, caller.calls)
	assert.Equal(t, Params{"symbol": "XRP-USDC"}, caller.lastRequest.Payload)
	rows := result.([]Row)
	require.Len(t, rows, 1)
	assert.Equal(t, Row{"pair": "XRP-USDC", "last_price": 1234}, rows[0])
}

func TestClient_CallMissingArgumentSkipsNetwork(t *testing.T) {
	c, caller := buildTestClient()
	c.RegisterAction("depth", func() *RouteSpec {
		return NewRoute(
			&RequestSpec{
				Method: "GET",
				Path:   "/depth",
				Data:   map[string]*FieldRule{"pair": Field("symbol").Required()},
			},
			&ResponseSpec{Row: RowSpec{"price": "0"}},
		)
	})

	_, err := c.Call(context.Background(), "depth", Params{})

	require.Error(t, err)
	assert.True(t, IsMissingArgumentError(err))
	assert.Equal(t, 0, caller.calls)
}

func TestClient_CallTestRequestShortCircuits(t *testing.T) {
	c, caller := buildTestClient()
	c.RegisterAction("probe", func() *RouteSpec {
		return NewRoute(
			&RequestSpec{
				Method: "POST",
				Path:   "/order",
				Data:   map[string]*FieldRule{"pair": Field("symbol").Required()},
				Events: &Events{TestRequest: true},
			},
			&ResponseSpec{Row: RowSpec{"pair": "symbol"}},
		)
	})

	result, err := c.Call(context.Background(), "probe", Params{"pair": "BTC-USDT"})

	require.NoError(t, err)
	assert.Equal(t, 0, caller.calls)
	req, ok := result.(*Request)
	require.True(t, ok)
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, Params{"symbol": "BTC-USDT"}, req.Payload)
}

func TestClient_CallTestResponseReturnsRawHandle(t *testing.T) {
	c, caller := buildTestClient()
	caller.raw = "raw-handle"
	caller.body = map[string]any{"should": "not be mapped"}
	c.RegisterAction("probe", func() *RouteSpec {
		return NewRoute(
			&RequestSpec{
				Method: "GET",
				Path:   "/x",
				Events: &Events{TestResponse: true},
			},
			&ResponseSpec{Row: RowSpec{"a": "a"}},
		)
	})

	result, err := c.Call(context.Background(), "probe", Params{})

	require.NoError(t, err)
	assert.Equal(t, 1, caller.calls)
	assert.Equal(t, "raw-handle", result)
}

func TestClient_CallPerformErrorPropagates(t *testing.T) {
	c, caller := buildTestClient()
	caller.err = errors.New("boom")
	c.RegisterAction("x", func() *RouteSpec {
		return NewRoute(
			&RequestSpec{Method: "GET", Path: "/x"},
			&ResponseSpec{Row: RowSpec{"a": "a"}},
		)
	})

	_, err := c.Call(context.Background(), "x", nil)

	assert.EqualError(t, err, "boom")
}

func TestClient_CallParsedBodyErrorPropagates(t *testing.T) {
	c, caller := buildTestClient()
	caller.bodyErr = ErrNoResponseBody
	c.RegisterAction("x", func() *RouteSpec {
		return NewRoute(
			&RequestSpec{Method: "GET", Path: "/x"},
			&ResponseSpec{Row: RowSpec{"a": "a"}},
		)
	})

	_, err := c.Call(context.Background(), "x", nil)

	assert.ErrorIs(t, err, ErrNoResponseBody)
}

func TestClient_CallNilArgs(t *testing.T) {
	c, caller := buildTestClient()
	caller.body = map[string]any{"ok": true}
	c.RegisterAction("status", func() *RouteSpec {
		return NewRoute(
			&RequestSpec{Method: "GET", Path: "/status"},
			&ResponseSpec{Row: RowSpec{"ok": "ok"}},
		)
	})

	result, err := c.Call(context.Background(), "status", nil)

	require.NoError(t, err)
	assert.Equal(t, Row{"ok": true}, result)
}

func TestClient_Actions(t *testing.T) {
	c, _ := buildTestClient()
	c.RegisterAction("a", func() *RouteSpec { return nil })
	c.RegisterAction("b", func() *RouteSpec { return nil })

	assert.ElementsMatch(t, []string{"a", "b"}, c.Actions())
	assert.Equal(t, "test", c.Name())
}

func TestClient_AuthFlagReachesRequest(t *testing.T) {
	c, caller := buildTestClient()
	caller.body = map[string]any{}
	c.RegisterAction("balance", func() *RouteSpec {
		return NewRoute(
			&RequestSpec{Method: "GET", Path: "/account", Auth: true},
			&ResponseSpec{Row: RowSpec{"a": "a"}},
		)
	})

	_, err := c.Call(context.Background(), "balance", nil)

	require.NoError(t, err)
	assert.True(t, caller.lastRequest.RequireAuth)
}
