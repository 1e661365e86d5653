package core

import (
	"strconv"
	"strings"
)

// Lookup resolves a dotted path inside nested maps and slices, e.g.
// "data.ticker" or "bids.0.1". It returns the value and whether the
// full path was present. A missing intermediate segment is not an
// error: the result is (nil, false, nil) and the caller decides how
// loudly to complain. Traversing into a scalar returns a path error.
func Lookup(doc any, path string) (any, bool, error) {
	if path == "" {
		return doc, true, nil
	}

	current := doc
	segments := strings.Split(path, ".")
	for i, seg := range segments {
		if current == nil {
			return nil, false, nil
		}

		switch node := current.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false, nil
			}
			current = v
		case Params:
			v, ok := node[seg]
			if !ok {
				return nil, false, nil
			}
			current = v
		case Row:
			v, ok := node[seg]
			if !ok {
				return nil, false, nil
			}
			current = v
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil {
				return nil, false, NewPathError(path, "non-numeric index "+strconv.Quote(seg)+" into sequence")
			}
			if idx < 0 || idx >= len(node) {
				return nil, false, nil
			}
			current = node[idx]
		case []Row:
			idx, err := strconv.Atoi(seg)
			if err != nil {
				return nil, false, NewPathError(path, "non-numeric index "+strconv.Quote(seg)+" into sequence")
			}
			if idx < 0 || idx >= len(node) {
				return nil, false, nil
			}
			current = node[idx]
		default:
			return nil, false, NewPathError(path, "cannot traverse scalar at segment "+strconv.Quote(strings.Join(segments[:i+1], ".")))
		}
	}

	return current, true, nil
}

// LookupDefault resolves a dotted path and falls back to def when the
// path is missing or not traversable.
func LookupDefault(doc any, path string, def any) any {
	v, ok, err := Lookup(doc, path)
	if err != nil || !ok {
		return def
	}
	return v
}
