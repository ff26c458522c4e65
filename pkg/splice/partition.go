// Package splice rebuilds a sequence of source lines by cutting out half-open ranges
// and interleaving replacement text in their place.
package splice

import (
	"cmp"
	"errors"
	"fmt"
	"iter"
	"slices"
)

// Sentinel errors for range validation.
var (
	ErrOverlappingRange = errors.New("overlapping range")
	ErrInvalidRange     = errors.New("invalid range")
)

// Range is a half-open [Start, End) interval over a sequence's index space.
type Range struct {
	Start int
	End   int
}

// Len returns the number of elements covered by the range.
func (r Range) Len() int {
	return r.End - r.Start
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// OverlappingRangeError reports two ranges that share at least one index.
type OverlappingRangeError struct {
	First  Range
	Second Range
}

func (e *OverlappingRangeError) Error() string {
	return fmt.Sprintf("%v: %v intersects %v", ErrOverlappingRange, e.First, e.Second)
}

func (e *OverlappingRangeError) Unwrap() error {
	return ErrOverlappingRange
}

// Partition returns the chunks of seq that lie outside ranges, in original order.
//
// Exactly len(ranges)+1 chunks are produced: the chunk before the first range, one chunk
// between each pair of consecutive ranges, and the chunk after the last range. Any of
// them may be empty. Ranges may be given in any order. All validation happens before
// the sequence is returned, so iterating it never fails.
func Partition[T any](seq []T, ranges []Range) (iter.Seq[[]T], error) {
	sorted, err := validate(len(seq), ranges)
	if err != nil {
		return nil, err
	}

	return func(yield func([]T) bool) {
		pos := 0

		for _, r := range sorted {
			if !yield(seq[pos:r.Start:r.Start]) {
				return
			}

			pos = r.End
		}

		yield(seq[pos:len(seq):len(seq)])
	}, nil
}

// validate checks every range against the sequence length and returns them sorted.
func validate(length int, ranges []Range) ([]Range, error) {
	sorted := slices.Clone(ranges)
	slices.SortFunc(sorted, func(a, b Range) int {
		return cmp.Or(cmp.Compare(a.Start, b.Start), cmp.Compare(a.End, b.End))
	})

	for i, r := range sorted {
		if r.Start < 0 || r.End > length || r.Start >= r.End {
			return nil, fmt.Errorf("%w: %v over %d elements", ErrInvalidRange, r, length)
		}

		if i > 0 && sorted[i-1].End > r.Start {
			return nil, &OverlappingRangeError{First: sorted[i-1], Second: r}
		}
	}

	return sorted, nil
}
