package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// SortDir selects the comparison mode of one sort directive.
type SortDir int

// Sort direction constants. The Num variants compare numerically with
// missing values as 0; the plain variants compare lexicographically
// with missing values as "".
const (
	SortAsc SortDir = iota
	SortDesc
	SortNumAsc
	SortNumDesc
)

// String returns the string representation of the sort direction.
func (d SortDir) String() string {
	return [...]string{"asc", "desc", "nasc", "ndesc"}[d]
}

// SortDirective orders rows by the value at a dotted path.
type SortDirective struct {
	Dir  SortDir
	Path string
}

// Asc sorts lexicographically ascending on the given path.
func Asc(path string) SortDirective { return SortDirective{Dir: SortAsc, Path: path} }

// Desc sorts lexicographically descending on the given path.
func Desc(path string) SortDirective { return SortDirective{Dir: SortDesc, Path: path} }

// NumAsc sorts numerically ascending on the given path.
func NumAsc(path string) SortDirective { return SortDirective{Dir: SortNumAsc, Path: path} }

// NumDesc sorts numerically descending on the given path.
func NumDesc(path string) SortDirective { return SortDirective{Dir: SortNumDesc, Path: path} }

// BuildComparator folds sort directives into one composite comparator.
// Directives are combined left to right; the first is the primary key
// and later ones break ties. An unknown direction is a configuration
// error.
func BuildComparator(directives []SortDirective) (SortFunc, error) {
	if len(directives) == 0 {
		return nil, NewConfigError("", "sort_by requires at least one directive")
	}

	cmps := make([]SortFunc, 0, len(directives))
	for _, d := range directives {
		cmp, err := directiveComparator(d)
		if err != nil {
			return nil, err
		}
		cmps = append(cmps, cmp)
	}

	return func(a, b Row) int {
		for _, cmp := range cmps {
			if c := cmp(a, b); c != 0 {
				return c
			}
		}
		return 0
	}, nil
}

func directiveComparator(d SortDirective) (SortFunc, error) {
	path := d.Path
	switch d.Dir {
	case SortAsc:
		return func(a, b Row) int {
			return strings.Compare(lexValue(a, path), lexValue(b, path))
		}, nil
	case SortDesc:
		return func(a, b Row) int {
			return strings.Compare(lexValue(b, path), lexValue(a, path))
		}, nil
	case SortNumAsc:
		return func(a, b Row) int {
			return compareFloat(numValue(a, path), numValue(b, path))
		}, nil
	case SortNumDesc:
		return func(a, b Row) int {
			return compareFloat(numValue(b, path), numValue(a, path))
		}, nil
	default:
		return nil, NewConfigError("", "invalid sort direction for "+path)
	}
}

func lexValue(row Row, path string) string {
	v := LookupDefault(row, path, nil)
	if v == nil {
		return ""
	}
	return cast.ToString(v)
}

func numValue(row Row, path string) float64 {
	// Numeric strings from exchange payloads coerce; garbage counts as 0.
	// Formatted values (decimals and the like) compare via their string form.
	switch v := LookupDefault(row, path, nil).(type) {
	case nil:
		return 0
	case fmt.Stringer:
		return cast.ToFloat64(v.String())
	default:
		return cast.ToFloat64(v)
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// SortRows orders rows in place with a stable sort so equal keys keep
// their input order.
func SortRows(rows []Row, cmp SortFunc) {
	sort.SliceStable(rows, func(i, j int) bool {
		return cmp(rows[i], rows[j]) < 0
	})
}
