package core

import (
	"strings"
)

// Request is the concrete outbound request materialized from a
// RequestSpec and caller arguments. Payload keys are destination field
// names, never caller aliases. The HTTP collaborator decides whether
// the payload travels as query parameters or a JSON body.
type Request struct {
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	Payload     Params            `json:"payload,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	RequireAuth bool              `json:"require_auth"`
	Events      *Events           `json:"-"`
}

// buildRequest materializes the outbound request for one action. It
// resolves every alias against the caller arguments, applies defaults,
// formatters, and checkers, and records omitted fields in the per-call
// events object.
func (c *Client) buildRequest(action string, spec *RequestSpec, args Params) (*Request, *Events, error) {
	if spec == nil {
		return nil, nil, NewConfigError(action, "route has no request spec")
	}
	if spec.Method == "" {
		return nil, nil, NewConfigError(action, "request spec has no method")
	}
	if spec.Path == "" {
		return nil, nil, NewConfigError(action, "request spec has no path")
	}

	events := spec.Events.clone()
	payload := make(Params, len(spec.Data))

	for alias, rule := range spec.Data {
		if rule == nil || rule.field == "" {
			return nil, nil, NewConfigError(action, "empty field name for alias "+quote(alias))
		}

		value, defined := args[alias]
		if !defined {
			if rule.required {
				return nil, nil, NewMissingArgumentError(action, alias)
			}
			switch {
			case rule.defFn != nil:
				value = rule.defFn(alias, rule)
			case rule.def != nil:
				value = rule.def
			}
			defined = value != nil
		}

		if f := c.requestFormat[alias]; f != nil && defined {
			value = f(value)
		}

		for _, chk := range rule.checks {
			if !chk.fn(value) {
				return nil, nil, NewValidationError(action, alias, chk.err)
			}
		}

		if !defined && !rule.always {
			events.NotInclude[alias] = rule.field
			continue
		}

		if err := assignField(action, payload, rule, value); err != nil {
			return nil, nil, err
		}
	}

	if err := resolveKeyFields(action, spec, events); err != nil {
		return nil, nil, err
	}

	headers := make(map[string]string, len(spec.Headers))
	for k, v := range spec.Headers {
		headers[k] = v
	}

	req := &Request{
		Method:      spec.Method,
		Path:        spec.Path,
		Payload:     payload,
		Headers:     headers,
		RequireAuth: spec.Auth,
		Events:      events,
	}
	return req, events, nil
}

// assignField writes one resolved value into the payload. A comma-joined
// field name fans a map-shaped value out: each destination key receives
// the same-named entry of the value, not the whole value.
func assignField(action string, payload Params, rule *FieldRule, value any) error {
	dests := rule.destinations()
	if len(dests) == 1 {
		payload[dests[0]] = value
		return nil
	}

	sub, ok := toParams(value)
	if !ok {
		return NewConfigError(action, "comma-joined field "+quote(rule.field)+" requires a map-shaped value")
	}
	for _, dest := range dests {
		payload[dest] = sub[dest]
	}
	return nil
}

// resolveKeyFields translates the declared key aliases into an ordered
// list of destination field names so the collaborator can consult it
// post hoc (for signature construction) without redoing the mapping.
func resolveKeyFields(action string, spec *RequestSpec, events *Events) error {
	aliases := events.keyAliases()
	if len(aliases) == 0 {
		return nil
	}

	resolved := make([]string, 0, len(aliases))
	for _, alias := range aliases {
		rule, ok := spec.Data[alias]
		if !ok || rule == nil {
			return NewConfigError(action, "key alias "+quote(alias)+" not present in request data")
		}
		resolved = append(resolved, rule.destinations()...)
	}
	events.resolvedKeys = resolved
	return nil
}

func toParams(value any) (Params, bool) {
	switch v := value.(type) {
	case Params:
		return v, true
	case map[string]any:
		return Params(v), true
	case Row:
		return Params(v), true
	default:
		return nil, false
	}
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
