package core

import (
	"context"

	"github.com/rs/zerolog"
)

// SpecProvider returns the route spec for one action. Providers are
// invoked once per call; the returned spec must not be mutated.
type SpecProvider func() *RouteSpec

// Formatter transforms one argument or response value for an alias.
type Formatter func(value any) any

// Caller is the external HTTP collaborator. The engine knows exactly
// two things about it: it can perform a built request, and it can hand
// back the decoded JSON body of the most recent call. URLs, signing
// transport, retries, and TLS are its problem.
type Caller interface {
	// Perform executes the request and returns an opaque response
	// handle (surfaced verbatim when the spec asks for test_response).
	Perform(ctx context.Context, req *Request) (any, error)

	// ParsedBody returns the decoded JSON body of the most recent call.
	ParsedBody() (any, error)
}

// Client dispatches named actions through the declarative pipeline:
// resolve the spec provider, build the request, perform it via the
// collaborator, map the parsed body. Action and formatter tables are
// populated during construction and read-only afterwards; per-call
// state (payloads, events) is allocated fresh on every call.
type Client struct {
	name           string
	caller         Caller
	logger         zerolog.Logger
	actions        map[string]SpecProvider
	requestFormat  map[string]Formatter
	responseFormat map[string]Formatter
}

// ClientOption configures a Client during construction.
type ClientOption func(*Client)

// WithLogger sets the structured logger used for engine diagnostics.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates an engine client bound to the named service and its
// HTTP collaborator.
func NewClient(name string, caller Caller, opts ...ClientOption) *Client {
	c := &Client{
		name:           name,
		caller:         caller,
		logger:         zerolog.Nop(),
		actions:        make(map[string]SpecProvider),
		requestFormat:  make(map[string]Formatter),
		responseFormat: make(map[string]Formatter),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the service identifier this client dispatches for.
func (c *Client) Name() string {
	return c.name
}

// RegisterAction binds an action name to its spec provider. Call this
// during construction only; the table is not safe for mutation once
// Call is in use.
func (c *Client) RegisterAction(name string, provider SpecProvider) {
	c.actions[name] = provider
}

// RegisterRequestFormat binds a formatter applied to the named alias
// while building requests.
func (c *Client) RegisterRequestFormat(alias string, f Formatter) {
	c.requestFormat[alias] = f
}

// RegisterResponseFormat binds a formatter applied to the named alias
// (or passthrough field) while mapping responses.
func (c *Client) RegisterResponseFormat(alias string, f Formatter) {
	c.responseFormat[alias] = f
}

// Actions returns the registered action names.
func (c *Client) Actions() []string {
	names := make([]string, 0, len(c.actions))
	for name := range c.actions {
		names = append(names, name)
	}
	return names
}

// Call dispatches one action with the given arguments and returns the
// normalized result. When the route declares test_request the built
// *Request is returned without touching the network; test_response
// returns the raw collaborator response handle unmapped.
func (c *Client) Call(ctx context.Context, action string, args Params) (any, error) {
	provider, ok := c.actions[action]
	if !ok {
		return nil, NewUnknownActionError(action)
	}

	route := provider()
	if route == nil {
		return nil, ErrNilRoute
	}
	if args == nil {
		args = Params{}
	}

	req, events, err := c.buildRequest(action, route.Request, args)
	if err != nil {
		return nil, err
	}

	if events.TestRequest {
		return req, nil
	}

	c.logger.Debug().
		Str("service", c.name).
		Str("action", action).
		Str("method", req.Method).
		Str("path", req.Path).
		Msg("dispatching action")

	raw, err := c.caller.Perform(ctx, req)
	if err != nil {
		return nil, err
	}

	if events.TestResponse {
		return raw, nil
	}

	body, err := c.caller.ParsedBody()
	if err != nil {
		return nil, err
	}

	callCtx := &CallContext{Action: action, Args: args, Request: req}
	return c.mapResponse(callCtx, route.Response, body)
}
