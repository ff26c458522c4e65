package docstring

import (
	"errors"
	"fmt"
	"strings"
)

// Filter selects which kinds of units [Locate] reports.
type Filter uint8

// Supported filters.
const (
	FilterAll Filter = iota
	FilterFunction
	FilterModule
	FilterClass
)

// Sentinel errors for locating docstrings.
var (
	ErrInvalidFilter = errors.New("invalid unit filter")
	ErrSyntax        = errors.New("syntax error")
)

// InvalidFilterError reports an unrecognized filter name.
type InvalidFilterError struct {
	Name string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("%s %q (want all, function, module or class)", ErrInvalidFilter, e.Name)
}

// Unwrap returns [ErrInvalidFilter].
func (e *InvalidFilterError) Unwrap() error { return ErrInvalidFilter }

// SyntaxError reports the first position at which the source failed to parse.
// Line and Column are 1-indexed.
type SyntaxError struct {
	Line   int
	Column int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at line %d, column %d", ErrSyntax, e.Line, e.Column)
}

// Unwrap returns [ErrSyntax].
func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// ParseFilter converts a filter name to a [Filter]. Both the short form ("function")
// and the long form ("function-only") are accepted.
func ParseFilter(name string) (Filter, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), "-only") {
	case "all":
		return FilterAll, nil
	case kindFunctionName:
		return FilterFunction, nil
	case kindModuleName:
		return FilterModule, nil
	case kindClassName:
		return FilterClass, nil
	default:
		return FilterAll, &InvalidFilterError{Name: name}
	}
}

// String implements fmt.Stringer.
func (f Filter) String() string {
	switch f {
	case FilterAll:
		return "all"
	case FilterFunction:
		return kindFunctionName
	case FilterModule:
		return kindModuleName
	case FilterClass:
		return kindClassName
	default:
		return fmt.Sprintf("Filter(%d)", uint8(f))
	}
}

// Accepts reports whether units of kind k pass the filter.
func (f Filter) Accepts(k Kind) bool {
	switch f {
	case FilterAll:
		return true
	case FilterFunction:
		return k == KindFunction
	case FilterModule:
		return k == KindModule
	case FilterClass:
		return k == KindClass
	default:
		return false
	}
}
