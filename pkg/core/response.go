package core

import (
	"github.com/spf13/cast"
)

// mapResponse reshapes the parsed response body according to the
// declared response specs. A single spec yields its result directly;
// multiple specs yield a list of results in declaration order.
func (c *Client) mapResponse(ctx *CallContext, specs []*ResponseSpec, body any) (any, error) {
	if len(specs) == 0 {
		return nil, NewConfigError(ctx.Action, "route has no response spec")
	}

	results := make([]any, 0, len(specs))
	for _, spec := range specs {
		result, err := c.mapOne(ctx, spec, body)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	if len(results) == 1 {
		return results[0], nil
	}
	return results, nil
}

func (c *Client) mapOne(ctx *CallContext, spec *ResponseSpec, body any) (any, error) {
	doc := body
	if spec.Key != "" {
		v, found, err := Lookup(body, spec.Key)
		if err != nil {
			return nil, err
		}
		if !found {
			c.logger.Warn().
				Str("action", ctx.Action).
				Str("key", spec.Key).
				Msg("response key not found in body")
		}
		doc = v
	}

	if spec.RawProcess != nil {
		return spec.RawProcess(ctx, doc)
	}

	switch node := doc.(type) {
	case []any:
		return c.mapSequence(ctx, spec, node)
	case nil:
		return nil, nil
	default:
		// Single object: one row, no filtering, sorting, or grouping.
		row, err := c.mapRow(spec, node)
		if err != nil {
			return nil, err
		}
		if spec.PostRow != nil {
			spec.PostRow(row)
		}
		return row, nil
	}
}

func (c *Client) mapSequence(ctx *CallContext, spec *ResponseSpec, elems []any) (any, error) {
	rows := make([]Row, 0, len(elems))
	for _, elem := range elems {
		row, err := c.mapRow(spec, elem)
		if err != nil {
			return nil, err
		}

		if spec.RowFilter != nil {
			verdict := spec.RowFilter(row)
			if verdict == Skip {
				continue
			}
			if verdict == Stop {
				break
			}
			if verdict != Keep {
				return nil, NewConfigError(ctx.Action, "row filter returned invalid verdict "+quote(string(verdict)))
			}
		}

		rows = append(rows, row)
	}

	cmp := spec.Sort
	if cmp == nil && len(spec.SortBy) > 0 {
		built, err := BuildComparator(spec.SortBy)
		if err != nil {
			return nil, err
		}
		cmp = built
	}
	if cmp != nil {
		SortRows(rows, cmp)
	}

	result, err := reshape(ctx, spec, rows)
	if err != nil {
		return nil, err
	}
	if spec.PostRow != nil {
		spec.PostRow(result)
	}
	return result, nil
}

// mapRow produces one normalized row from a source element. Aliases
// beginning with an underscore are reserved and skipped; passthrough
// fields land under the nested "_others" row.
func (c *Client) mapRow(spec *ResponseSpec, elem any) (Row, error) {
	row := make(Row, len(spec.Row)+1)
	for alias, src := range spec.Row {
		if len(alias) > 0 && alias[0] == '_' {
			continue
		}
		v, _, err := Lookup(elem, src)
		if err != nil {
			return nil, err
		}
		if f := c.responseFormat[alias]; f != nil {
			v = f(v)
		}
		row[alias] = v
	}

	if len(spec.Others) > 0 {
		others := make(Row, len(spec.Others))
		for _, key := range spec.Others {
			v, _, err := Lookup(elem, key)
			if err != nil {
				return nil, err
			}
			if f := c.responseFormat[key]; f != nil {
				v = f(v)
			}
			others[key] = v
		}
		row["_others"] = others
	}

	return row, nil
}

// reshape applies the declared output mode to the filtered, sorted rows.
func reshape(ctx *CallContext, spec *ResponseSpec, rows []Row) (any, error) {
	if spec.HashBy != "" && spec.GroupBy != "" {
		return nil, NewConfigError(ctx.Action, "hash_by and group_by are mutually exclusive")
	}

	switch {
	case spec.HashBy != "":
		// Last row wins on duplicate keys.
		out := make(map[string]Row, len(rows))
		for _, row := range rows {
			out[cast.ToString(row[spec.HashBy])] = row
		}
		return out, nil

	case spec.GroupBy != "":
		out := make(map[string][]Row)
		for _, row := range rows {
			key := cast.ToString(row[spec.GroupBy])
			out[key] = append(out[key], row)
		}
		if spec.GroupSort != nil {
			for _, group := range out {
				SortRows(group, spec.GroupSort)
			}
		}
		return out, nil

	default:
		return rows, nil
	}
}
