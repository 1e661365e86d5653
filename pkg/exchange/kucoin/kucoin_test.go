package kucoin

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nakula/pkg/core"
)

type fakeCaller struct {
	lastRequest *core.Request
	calls       int
	body        any
}

func (f *fakeCaller) Perform(_ context.Context, req *core.Request) (any, error) {
	f.calls++
	f.lastRequest = req
	return nil, nil
}

func (f *fakeCaller) ParsedBody() (any, error) {
	return f.body, nil
}

func TestClient_RegisteredActions(t *testing.T) {
	c := NewWithCaller(&fakeCaller{})

	assert.ElementsMatch(t, []string{"symbols", "ticker", "tickers", "accounts", "server_time"}, c.Actions())
	assert.Equal(t, "kucoin", c.Name())
}

func TestClient_SymbolsHashedByPair(t *testing.T) {
	caller := &fakeCaller{body: map[string]any{
		"code": "200000",
		"data": []any{
			map[string]any{
				"symbol": "BTC-USDT", "baseCurrency": "BTC", "quoteCurrency": "USDT",
				"baseMinSize": "0.00001", "priceIncrement": "0.1",
				"enableTrading": true, "feeCurrency": "USDT",
			},
			map[string]any{
				"symbol": "XRP-USDC", "baseCurrency": "XRP", "quoteCurrency": "USDC",
				"baseMinSize": "0.1", "priceIncrement": "0.0001",
				"enableTrading": true, "feeCurrency": "USDC",
			},
		},
	}}
	c := NewWithCaller(caller)

	result, err := c.Call(context.Background(), "symbols", nil)

	require.NoError(t, err)
	hash := result.(map[string]core.Row)
	require.Len(t, hash, 2)
	assert.Equal(t, "XRP", hash["XRP-USDC"]["base"])
	assert.Equal(t, true, hash["BTC-USDT"].Others()["enableTrading"])
}

func TestClient_TickersFiltersAndSorts(t *testing.T) {
	caller := &fakeCaller{body: map[string]any{
		"code": "200000",
		"data": map[string]any{
			"time": float64(1700000000000),
			"ticker": []any{
				map[string]any{"symbol": "OLD-USDT", "volValue": "50"},
				map[string]any{"symbol": "BTC-USDT", "last": "65000", "volValue": "900", "changeRate": "0.01"},
				map[string]any{"symbol": "ETH-USDT", "last": "3500", "volValue": "400", "changeRate": "-0.02"},
			},
		},
	}}
	c := NewWithCaller(caller)

	result, err := c.Call(context.Background(), "tickers", nil)

	require.NoError(t, err)
	rows := result.([]core.Row)
	// OLD-USDT has no last price and is dropped; the rest sort by volume.
	require.Len(t, rows, 2)
	assert.Equal(t, "BTC-USDT", rows[0]["pair"])
	assert.Equal(t, "ETH-USDT", rows[1]["pair"])
	assert.Equal(t, "3500", rows[1]["last"].(*apd.Decimal).String())
}

func TestClient_AccountsGroupedByCurrency(t *testing.T) {
	caller := &fakeCaller{body: map[string]any{
		"code": "200000",
		"data": []any{
			map[string]any{"currency": "BTC", "type": "trade", "balance": "2", "available": "2", "holds": "0"},
			map[string]any{"currency": "ETH", "type": "main", "balance": "10", "available": "9", "holds": "1"},
			map[string]any{"currency": "BTC", "type": "main", "balance": "1", "available": "1", "holds": "0"},
		},
	}}
	c := NewWithCaller(caller)

	result, err := c.Call(context.Background(), "accounts", nil)

	require.NoError(t, err)
	assert.True(t, caller.lastRequest.RequireAuth)

	groups := result.(map[string][]core.Row)
	require.Len(t, groups, 2)
	require.Len(t, groups["BTC"], 2)
	// Group sort orders account types alphabetically within each currency.
	assert.Equal(t, "main", groups["BTC"][0]["type"])
	assert.Equal(t, "trade", groups["BTC"][1]["type"])
	assert.Equal(t, "1", groups["BTC"][0]["balance"].(*apd.Decimal).String())
}

func TestClient_ServerTimeRawProcess(t *testing.T) {
	caller := &fakeCaller{body: map[string]any{
		"code": "200000",
		"data": float64(1700000000123),
	}}
	c := NewWithCaller(caller)

	result, err := c.Call(context.Background(), "server_time", nil)

	require.NoError(t, err)
	assert.Equal(t, int64(1700000000123), result)
}

func TestClient_TickerFormatsPairAndMapsSingleObject(t *testing.T) {
	caller := &fakeCaller{body: map[string]any{
		"code": "200000",
		"data": map[string]any{
			"time":    float64(1700000000000),
			"price":   "65000.5",
			"size":    "0.003",
			"bestBid": "65000.4",
			"bestAsk": "65000.6",
		},
	}}
	c := NewWithCaller(caller)

	result, err := c.Call(context.Background(), "ticker", core.Params{"pair": "BTC/USDT"})

	require.NoError(t, err)
	assert.Equal(t, "BTC-USDT", caller.lastRequest.Payload["symbol"])

	row := result.(core.Row)
	assert.Equal(t, "65000.5", row["last"].(*apd.Decimal).String())
	assert.Equal(t, "65000.4", row["best_bid"].(*apd.Decimal).String())
}

func TestClient_SymbolsMarketParamPassesThrough(t *testing.T) {
	caller := &fakeCaller{body: map[string]any{"code": "200000", "data": []any{}}}
	c := NewWithCaller(caller)

	_, err := c.Call(context.Background(), "symbols", core.Params{"market": "USDS"})

	require.NoError(t, err)
	assert.Equal(t, "USDS", caller.lastRequest.Payload["market"])
}

func TestSigner_BuildsV2Headers(t *testing.T) {
	creds := core.Credentials{APIKey: "key", SecretKey: "secret", Passphrase: "phrase"}
	now := func() time.Time { return time.UnixMilli(1700000000000) }
	sign := Signer(creds, now)

	req := &core.Request{
		Method:  "GET",
		Path:    "/api/v1/accounts",
		Payload: core.Params{"currency": "BTC"},
		Headers: map[string]string{},
	}
	require.NoError(t, sign(req))

	assert.Equal(t, "key", req.Headers["KC-API-KEY"])
	assert.Equal(t, "1700000000000", req.Headers["KC-API-TIMESTAMP"])
	assert.Equal(t, "2", req.Headers["KC-API-KEY-VERSION"])

	expectedSign := core.SignBase64("1700000000000GET/api/v1/accounts?currency=BTC", "secret")
	assert.Equal(t, expectedSign, req.Headers["KC-API-SIGN"])

	expectedPass := core.SignBase64("phrase", "secret")
	assert.Equal(t, expectedPass, req.Headers["KC-API-PASSPHRASE"])
}

func TestSigner_NoQuerySignsBarePath(t *testing.T) {
	creds := core.Credentials{APIKey: "key", SecretKey: "secret"}
	now := func() time.Time { return time.UnixMilli(1700000000000) }
	sign := Signer(creds, now)

	req := &core.Request{
		Method:  "GET",
		Path:    "/api/v1/accounts",
		Payload: core.Params{},
		Headers: map[string]string{},
	}
	require.NoError(t, sign(req))

	expected := core.SignBase64("1700000000000GET/api/v1/accounts", "secret")
	assert.Equal(t, expected, req.Headers["KC-API-SIGN"])
}

func TestSigner_RequiresSecret(t *testing.T) {
	sign := Signer(core.Credentials{}, time.Now)

	err := sign(&core.Request{Method: "GET", Path: "/x", Payload: core.Params{}, Headers: map[string]string{}})

	assert.Error(t, err)
}
