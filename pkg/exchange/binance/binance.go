// Package binance exposes Binance spot REST endpoints through the
// declarative route engine. Every action is a RouteSpec: the request
// shape, aliasing, and response mapping live in data, and the engine
// does the rest. Signed endpoints use the hex HMAC-SHA256 scheme over
// the encoded query string.
package binance

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/spf13/cast"

	"nakula/internal/transport"
	"nakula/pkg/core"
)

const (
	ProductionURL = "https://api.binance.com"
	SandboxURL    = "https://testnet.binance.vision"
)

// Client is a declarative Binance spot client. All caller-facing
// argument names and result fields use the canonical aliases shared
// across exchanges (pair, price, amount, ...), never Binance's own.
type Client struct {
	*core.Client
}

// New creates a Binance client over a real HTTP transport. A nil
// config gets production defaults; sandbox mode targets the testnet.
func New(cfg *core.Config, opts ...core.ClientOption) (*Client, error) {
	if cfg == nil {
		cfg = core.DefaultConfig("binance", ProductionURL)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = ProductionURL
	}
	if cfg.Sandbox {
		cfg.BaseURL = SandboxURL
	}

	var creds core.Credentials
	if cfg.Credentials != nil {
		creds = *cfg.Credentials
	}

	tr, err := transport.New(cfg, transport.WithSigner(Signer(creds, time.Now)))
	if err != nil {
		return nil, fmt.Errorf("binance transport: %w", err)
	}
	return NewWithCaller(tr, opts...), nil
}

// NewWithCaller creates a Binance client over an arbitrary collaborator.
// Tests use it to feed recorded responses through the full pipeline.
func NewWithCaller(caller core.Caller, opts ...core.ClientOption) *Client {
	c := &Client{Client: core.NewClient("binance", caller, opts...)}
	c.registerFormats()
	c.registerActions()
	return c
}

// Signer returns the transport signer for Binance signed endpoints:
// timestamp and recvWindow join the payload, the encoded query string
// is HMAC-SHA256 hex signed, and the API key travels as a header.
func Signer(creds core.Credentials, now func() time.Time) transport.SignFunc {
	return func(req *core.Request) error {
		if creds.SecretKey == "" {
			return fmt.Errorf("binance: secret key required for signed endpoint %s", req.Path)
		}

		req.Payload["timestamp"] = now().UnixMilli()
		req.Payload["recvWindow"] = "5000"

		values := url.Values{}
		for k, v := range req.Payload {
			values.Set(k, cast.ToString(v))
		}
		req.Payload["signature"] = core.SignHex(values.Encode(), creds.SecretKey)
		req.Headers["X-MBX-APIKEY"] = creds.APIKey
		return nil
	}
}

func (c *Client) registerFormats() {
	c.RegisterRequestFormat("pair", func(v any) any {
		return strings.ReplaceAll(cast.ToString(v), "/", "")
	})
	for _, alias := range []string{"side", "type", "time_in_force"} {
		c.RegisterRequestFormat(alias, func(v any) any {
			return strings.ToUpper(cast.ToString(v))
		})
	}

	for _, alias := range []string{
		"last_price", "open", "high", "low", "volume",
		"price", "amount", "orig_qty", "executed_qty",
	} {
		c.RegisterResponseFormat(alias, decimalFormat)
	}
}

// decimalFormat parses the string-encoded decimals Binance emits into
// apd decimals; anything unparsable passes through untouched.
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
	c.RegisterAction("prices", c.setPrices)
	c.RegisterAction("depth", c.setDepth)
	c.RegisterAction("trades", c.setTrades)
	c.RegisterAction("open_orders", c.setOpenOrders)
	c.RegisterAction("create_order", c.setCreateOrder)
	c.RegisterAction("cancel_order", c.setCancelOrder)
}

// setPrices declares the 24hr ticker. Without a pair Binance returns
// every symbol; with one it returns a single object, and the mapper
// handles both shapes from the same spec.
func (c *Client) setPrices() *core.RouteSpec {
	return core.NewRoute(
		&core.RequestSpec{
			Method: "GET",
			Path:   "/api/v3/ticker/24hr",
			Data: map[string]*core.FieldRule{
				"pair": core.Field("symbol"),
			},
		},
		&core.ResponseSpec{
			Row: core.RowSpec{
				"pair":       "symbol",
				"last_price": "lastPrice",
				"open":       "openPrice",
				"high":       "highPrice",
				"low":        "lowPrice",
				"volume":     "volume",
				"change_pct": "priceChangePercent",
			},
			SortBy: []core.SortDirective{core.NumDesc("volume")},
		},
	)
}

// setDepth declares the order book. Two response specs split the body
// into bids and asks; rows are [price, qty] pairs addressed by index.
func (c *Client) setDepth() *core.RouteSpec {
	return core.NewRoute(
		&core.RequestSpec{
			Method: "GET",
			Path:   "/api/v3/depth",
			Data: map[string]*core.FieldRule{
				"pair": core.Field("symbol").Required(),
				"limit": core.Field("limit").Default(100).
					Check(func(v any) bool { return cast.ToInt(v) <= 5000 }, "limit must not exceed 5000"),
			},
		},
		&core.ResponseSpec{
			Key:    "bids",
			Row:    core.RowSpec{"price": "0", "amount": "1"},
			SortBy: []core.SortDirective{core.NumDesc("price")},
		},
		&core.ResponseSpec{
			Key:    "asks",
			Row:    core.RowSpec{"price": "0", "amount": "1"},
			SortBy: []core.SortDirective{core.NumAsc("price")},
		},
	)
}

func (c *Client) setTrades() *core.RouteSpec {
	return core.NewRoute(
		&core.RequestSpec{
			Method: "GET",
			Path:   "/api/v3/trades",
			Data: map[string]*core.FieldRule{
				"pair":  core.Field("symbol").Required(),
				"limit": core.Field("limit").Default(500),
			},
		},
		&core.ResponseSpec{
			Row: core.RowSpec{
				"id":     "id",
				"price":  "price",
				"amount": "qty",
				"time":   "time",
			},
			Others: []string{"isBuyerMaker", "isBestMatch"},
		},
	)
}

func (c *Client) setOpenOrders() *core.RouteSpec {
	return core.NewRoute(
		&core.RequestSpec{
			Method: "GET",
			Path:   "/api/v3/openOrders",
			Auth:   true,
			Data: map[string]*core.FieldRule{
				"pair": core.Field("symbol"),
			},
		},
		&core.ResponseSpec{
			Row: core.RowSpec{
				"order_id":     "orderId",
				"pair":         "symbol",
				"price":        "price",
				"orig_qty":     "origQty",
				"executed_qty": "executedQty",
				"status":       "status",
				"side":         "side",
				"type":         "type",
				"created_at":   "time",
			},
			SortBy: []core.SortDirective{core.NumAsc("created_at")},
		},
	)
}

func (c *Client) setCreateOrder() *core.RouteSpec {
	return core.NewRoute(
		&core.RequestSpec{
			Method: "POST",
			Path:   "/api/v3/order",
			Auth:   true,
			Data: map[string]*core.FieldRule{
				"pair": core.Field("symbol").Required(),
				"side": core.Field("side").Required().
					Check(func(v any) bool {
						s := cast.ToString(v)
						return s == "BUY" || s == "SELL"
					}, "side must be buy or sell"),
				"type":            core.Field("type").Default("LIMIT"),
				"amount":          core.Field("quantity").Required(),
				"price":           core.Field("price"),
				"time_in_force":   core.Field("timeInForce").Default("GTC"),
				"client_order_id": core.Field("newClientOrderId"),
			},
		},
		&core.ResponseSpec{
			Row: core.RowSpec{
				"order_id":     "orderId",
				"pair":         "symbol",
				"price":        "price",
				"orig_qty":     "origQty",
				"executed_qty": "executedQty",
				"status":       "status",
				"side":         "side",
				"type":         "type",
			},
		},
	)
}

func (c *Client) setCancelOrder() *core.RouteSpec {
	return core.NewRoute(
		&core.RequestSpec{
			Method: "DELETE",
			Path:   "/api/v3/order",
			Auth:   true,
			Data: map[string]*core.FieldRule{
				"pair":            core.Field("symbol").Required(),
				"order_id":        core.Field("orderId"),
				"client_order_id": core.Field("origClientOrderId"),
			},
		},
		&core.ResponseSpec{
			Row: core.RowSpec{
				"order_id": "orderId",
				"pair":     "symbol",
				"status":   "status",
			},
		},
	)
}
