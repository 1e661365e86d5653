// Package kucoin exposes KuCoin REST endpoints through the declarative
// route engine. KuCoin wraps every body in {code, data}, so response
// specs extract through the "data" key; signed endpoints use the
// base64 HMAC-SHA256 header scheme (KC-API-SIGN et al).
package kucoin

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/spf13/cast"

	"nakula/internal/transport"
	"nakula/pkg/core"
)

// ProductionURL is the KuCoin REST endpoint.
const ProductionURL = "https://api.kucoin.com"

// Client is a declarative KuCoin client.
type Client struct {
	*core.Client
}

// New creates a KuCoin client over a real HTTP transport.
func New(cfg *core.Config, opts ...core.ClientOption) (*Client, error) {
	if cfg == nil {
		cfg = core.DefaultConfig("kucoin", ProductionURL)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = ProductionURL
	}

	var creds core.Credentials
	if cfg.Credentials != nil {
		creds = *cfg.Credentials
	}

	tr, err := transport.New(cfg, transport.WithSigner(Signer(creds, time.Now)))
	if err != nil {
		return nil, fmt.Errorf("kucoin transport: %w", err)
	}
	return NewWithCaller(tr, opts...), nil
}

// NewWithCaller creates a KuCoin client over an arbitrary collaborator.
func NewWithCaller(caller core.Caller, opts ...core.ClientOption) *Client {
	c := &Client{Client: core.NewClient("kucoin", caller, opts...)}
	c.registerFormats()
	c.registerActions()
	return c
}

// Signer returns the transport signer for KuCoin v2 authentication.
// The string to sign is timestamp + method + endpoint (query included),
// digested with base64 HMAC-SHA256; the passphrase is signed the same
// way.
func Signer(creds core.Credentials, now func() time.Time) transport.SignFunc {
	return func(req *core.Request) error {
		if creds.SecretKey == "" {
			return fmt.Errorf("kucoin: secret key required for signed endpoint %s", req.Path)
		}

		ts := strconv.FormatInt(now().UnixMilli(), 10)

		endpoint := req.Path
		if len(req.Payload) > 0 && (req.Method == "GET" || req.Method == "DELETE") {
			values := url.Values{}
			for k, v := range req.Payload {
				values.Set(k, cast.ToString(v))
			}
			endpoint += "?" + values.Encode()
		}

		req.Headers["KC-API-KEY"] = creds.APIKey
		req.Headers["KC-API-SIGN"] = core.SignBase64(ts+req.Method+endpoint, creds.SecretKey)
		req.Headers["KC-API-TIMESTAMP"] = ts
		req.Headers["KC-API-PASSPHRASE"] = core.SignBase64(creds.Passphrase, creds.SecretKey)
		req.Headers["KC-API-KEY-VERSION"] = "2"
		return nil
	}
}

func (c *Client) registerFormats() {
	c.RegisterRequestFormat("pair", func(v any) any {
		return strings.ReplaceAll(cast.ToString(v), "/", "-")
	})

	for _, alias := range []string{"last", "vol_value", "balance", "available", "holds", "best_bid", "best_ask"} {
		c.RegisterResponseFormat(alias, decimalFormat)
	}
}

func decimalFormat(v any) any {
	s := cast.ToString(v)
	if s == "" {
		return v
	}
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return v
	}
	return d
}

func (c *Client) registerActions() {
	c.RegisterAction("symbols", c.setSymbols)
	c.RegisterAction("ticker", c.setTicker)
	c.RegisterAction("tickers", c.setTickers)
	c.RegisterAction("accounts", c.setAccounts)
	c.RegisterAction("server_time", c.setServerTime)
}

// setSymbols declares the tradable symbol directory, reshaped into a
// mapping keyed by canonical pair for O(1) lookup.
func (c *Client) setSymbols() *core.RouteSpec {
	return core.NewRoute(
		&core.RequestSpec{
			Method: "GET",
			Path:   "/api/v2/symbols",
			Data: map[string]*core.FieldRule{
				"market": core.Field("market"),
			},
		},
		&core.ResponseSpec{
			Key: "data",
			Row: core.RowSpec{
				"pair":            "symbol",
				"base":            "baseCurrency",
				"quote":           "quoteCurrency",
				"base_min":        "baseMinSize",
				"price_increment": "priceIncrement",
			},
			Others: []string{"enableTrading", "feeCurrency"},
			HashBy: "pair",
		},
	)
}

// setTicker declares the level1 best bid/offer snapshot for one pair.
// The body under "data" is a single object, so the mapper returns one
// row rather than a list.
func (c *Client) setTicker() *core.RouteSpec {
	return core.NewRoute(
		&core.RequestSpec{
			Method: "GET",
			Path:   "/api/v1/market/orderbook/level1",
			Data: map[string]*core.FieldRule{
				"pair": core.Field("symbol").Required(),
			},
		},
		&core.ResponseSpec{
			Key: "data",
			Row: core.RowSpec{
				"last":     "price",
				"amount":   "size",
				"best_bid": "bestBid",
				"best_ask": "bestAsk",
				"time":     "time",
			},
		},
	)
}

// setTickers declares the all-tickers snapshot. The ticker list sits
// one level down at data.ticker; delisted symbols report no last price
// and are filtered out before the volume sort.
func (c *Client) setTickers() *core.RouteSpec {
	return core.NewRoute(
		&core.RequestSpec{
			Method: "GET",
			Path:   "/api/v1/market/allTickers",
			Data:   map[string]*core.FieldRule{},
		},
		&core.ResponseSpec{
			Key: "data.ticker",
			Row: core.RowSpec{
				"pair":        "symbol",
				"last":        "last",
				"vol_value":   "volValue",
				"change_rate": "changeRate",
			},
			RowFilter: func(row core.Row) core.FilterVerdict {
				if row["last"] == nil {
					return core.Skip
				}
				return core.Keep
			},
			SortBy: []core.SortDirective{core.NumDesc("vol_value")},
		},
	)
}

// setAccounts declares the account balance listing, grouped by currency
// (KuCoin splits each currency across main/trade/margin accounts) with
// a stable per-group order by account type.
func (c *Client) setAccounts() *core.RouteSpec {
	return core.NewRoute(
		&core.RequestSpec{
			Method: "GET",
			Path:   "/api/v1/accounts",
			Auth:   true,
			Data: map[string]*core.FieldRule{
				"currency": core.Field("currency"),
				"type":     core.Field("type"),
			},
		},
		&core.ResponseSpec{
			Key: "data",
			Row: core.RowSpec{
				"currency":  "currency",
				"type":      "type",
				"balance":   "balance",
				"available": "available",
				"holds":     "holds",
			},
			GroupBy: "currency",
			GroupSort: func(a, b core.Row) int {
				return strings.Compare(cast.ToString(a["type"]), cast.ToString(b["type"]))
			},
		},
	)
}

// setServerTime bypasses row mapping: the body is {code, data} with a
// bare millisecond timestamp under data.
func (c *Client) setServerTime() *core.RouteSpec {
	return core.NewRoute(
		&core.RequestSpec{
			Method: "GET",
			Path:   "/api/v1/timestamp",
			Data:   map[string]*core.FieldRule{},
		},
		&core.ResponseSpec{
			Key: "data",
			RawProcess: func(_ *core.CallContext, doc any) (any, error) {
				return cast.ToInt64(doc), nil
			},
		},
	)
}
