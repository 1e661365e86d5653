package core

import "strings"

// Params is a set of named values. Callers use it for action arguments
// keyed by alias; the engine uses it for outbound payloads keyed by
// destination field name.
type Params map[string]any

// Row is one normalized unit of response data. Aliases map to values;
// verbatim passthrough fields live under the nested "_others" Row.
type Row map[string]any

// Others returns the passthrough sub-row, or nil when none was mapped.
func (r Row) Others() Row {
	if o, ok := r["_others"].(Row); ok {
		return o
	}
	return nil
}

// RowSpec maps an output alias to the source field it is read from.
// Source fields may be dotted paths into the row document.
type RowSpec map[string]string

// RouteSpec is the declarative description of one action: how to build
// the outbound request and how to reshape the response. Declared once
// per action by a spec provider and treated as immutable afterwards.
type RouteSpec struct {
	Request  *RequestSpec
	Response []*ResponseSpec
}

// NewRoute assembles a RouteSpec from a request spec and one or more
// response specs. A single response spec yields a single mapped result;
// multiple specs yield a list of results in declaration order.
func NewRoute(req *RequestSpec, resp ...*ResponseSpec) *RouteSpec {
	return &RouteSpec{Request: req, Response: resp}
}

// RequestSpec declares the outbound request shape for an action.
// Data maps each caller-facing alias to the rule that produces its
// destination field in the payload.
type RequestSpec struct {
	Method  string
	Path    string
	Data    map[string]*FieldRule
	Headers map[string]string
	Events  *Events

	// Auth marks the request for signing by the HTTP collaborator.
	Auth bool
}

// DefaultFunc computes a default value for an alias absent from the
// caller arguments. It receives the alias and its rule.
type DefaultFunc func(alias string, rule *FieldRule) any

// CheckFunc is a predicate run against a resolved argument value.
type CheckFunc func(value any) bool

type check struct {
	fn  CheckFunc
	err string
}

// FieldRule describes how one caller alias becomes a payload field.
// Rules are built fluently:
//
//	core.Field("symbol").Required()
//	core.Field("limit").Default(100).Check(maxLimit, "limit too large")
type FieldRule struct {
	field    string
	required bool
	def      any
	defFn    DefaultFunc
	always   bool
	checks   []check
}

// Field creates a rule mapping an alias to the given destination field
// name. A comma-joined name fans a map-shaped caller value out across
// the listed destination keys.
func Field(name string) *FieldRule {
	return &FieldRule{field: name}
}

// Required marks the alias as mandatory; a call without it fails before
// any outbound request is made.
func (r *FieldRule) Required() *FieldRule {
	r.required = true
	return r
}

// Default sets a literal fallback used when the alias is absent.
func (r *FieldRule) Default(v any) *FieldRule {
	r.def = v
	return r
}

// DefaultFunc sets a computed fallback used when the alias is absent.
func (r *FieldRule) DefaultFunc(fn DefaultFunc) *FieldRule {
	r.defFn = fn
	return r
}

// Always forces the destination field into the payload even when the
// resolved value is undefined.
func (r *FieldRule) Always() *FieldRule {
	r.always = true
	return r
}

// Check appends a predicate; the first failing predicate aborts the
// call with a validation error carrying errMsg.
func (r *FieldRule) Check(fn CheckFunc, errMsg string) *FieldRule {
	r.checks = append(r.checks, check{fn: fn, err: errMsg})
	return r
}

// Name returns the destination field name (possibly a comma-joined list).
func (r *FieldRule) Name() string {
	return r.field
}

// destinations returns the individual destination field names.
func (r *FieldRule) destinations() []string {
	if !strings.Contains(r.field, ",") {
		return []string{r.field}
	}
	parts := strings.Split(r.field, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// FilterVerdict is the result of a row filter.
type FilterVerdict string

// Row filter verdicts. Any other value is a configuration error.
const (
	// Keep retains the row.
	Keep FilterVerdict = ""
	// Skip drops this row and continues with the next.
	Skip FilterVerdict = "next"
	// Stop drops this row and every row after it.
	Stop FilterVerdict = "last"
)

// RowFilterFunc decides per row whether to keep, skip, or stop.
type RowFilterFunc func(row Row) FilterVerdict

// SortFunc is a pairwise comparator over rows; negative means a before b.
type SortFunc func(a, b Row) int

// PostRowFunc receives the fully reshaped result of one response spec
// for side-effecting enrichment before it is returned.
type PostRowFunc func(result any)

// RawProcessFunc replaces the whole mapping pipeline for one response
// spec. It receives the call context and the extracted sub-document and
// its return value is used as the result verbatim.
type RawProcessFunc func(ctx *CallContext, doc any) (any, error)

// CallContext carries the request-side state of the in-flight action
// into raw_process hooks.
type CallContext struct {
	Action  string
	Args    Params
	Request *Request
}

// ResponseSpec declares how the parsed response body of an action is
// reshaped into normalized rows.
type ResponseSpec struct {
	// Key is a dotted path selecting the sub-document to map. Empty
	// means the whole body. A missing intermediate segment yields an
	// undefined document with a warning; traversing into a scalar is
	// a fatal path error.
	Key string

	// Row maps output aliases to source fields.
	Row RowSpec

	// Others lists source fields passed through verbatim under the
	// row's "_others" sub-mapping.
	Others []string

	// RowFilter drops or truncates rows; see FilterVerdict.
	RowFilter RowFilterFunc

	// Sort is a pairwise comparator applied to the row collection.
	// SortBy is the declarative alternative; when both are set, Sort wins.
	Sort   SortFunc
	SortBy []SortDirective

	// HashBy reshapes the rows into a mapping keyed by the named row
	// field. Duplicate keys keep the last row encountered.
	HashBy string

	// GroupBy reshapes the rows into a mapping from the named row field
	// to the list of rows sharing that value, in input order unless
	// GroupSort is set, which sorts each group independently.
	GroupBy   string
	GroupSort SortFunc

	// PostRow is invoked once with the reshaped result.
	PostRow PostRowFunc

	// RawProcess bypasses mapping entirely; see RawProcessFunc.
	RawProcess RawProcessFunc
}
