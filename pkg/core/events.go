package core

// Events is the transient per-call signaling object shared between the
// engine and the HTTP collaborator. A fresh copy is derived from the
// spec's template for every call; nothing in it outlives the call.
type Events struct {
	// Keys lists the caller aliases whose destination fields are
	// semantically "key" fields (signature material, for example).
	// KeysFunc is the computed alternative; when set it wins.
	Keys     []string
	KeysFunc func() []string

	// NotInclude is filled by the request builder: alias to destination
	// field name for every entry omitted from the payload.
	NotInclude map[string]string

	// TestRequest short-circuits the pipeline after building the
	// request, returning it instead of performing the call.
	TestRequest bool

	// TestResponse short-circuits after the call, returning the raw
	// collaborator response handle instead of a mapped result.
	TestResponse bool

	resolvedKeys []string
}

// clone derives the per-call copy of a spec's event template. A nil
// template still yields a usable Events so the builder can record
// omitted fields unconditionally.
func (e *Events) clone() *Events {
	c := &Events{NotInclude: make(map[string]string)}
	if e == nil {
		return c
	}
	c.Keys = append([]string(nil), e.Keys...)
	c.KeysFunc = e.KeysFunc
	c.TestRequest = e.TestRequest
	c.TestResponse = e.TestResponse
	return c
}

// KeyFields returns the resolved, ordered list of destination field
// names for the declared key aliases. It is populated by the request
// builder; before that it returns nil.
func (e *Events) KeyFields() []string {
	return e.resolvedKeys
}

// keyAliases returns the declared key aliases, preferring KeysFunc.
func (e *Events) keyAliases() []string {
	if e.KeysFunc != nil {
		return e.KeysFunc()
	}
	return e.Keys
}
