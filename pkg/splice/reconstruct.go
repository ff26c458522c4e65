package splice

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/docsplice/pkg/docstring"
)

const (
	lf   = "\n"
	crlf = "\r\n"
)

// Reconstruct removes the lines covered by each unit and inserts the unit's replacement
// text in their place. Lines must carry their own terminators, as produced by
// [SplitLines]; kept lines are copied unchanged.
//
// Each non-blank replacement line is indented with the leading whitespace of the removed
// block's first line and terminated with that line's terminator. A trailing comment
// recorded on the unit follows the last non-blank replacement line. A unit without a
// replacement contributes no lines and is reported to obs.
func Reconstruct(lines []string, units []docstring.Unit, obs Observer) ([]string, error) {
	if obs == nil {
		obs = NopObserver{}
	}

	sorted := slices.Clone(units)
	slices.SortStableFunc(sorted, func(a, b docstring.Unit) int {
		return cmp.Compare(a.StartLine, b.StartLine)
	})

	ranges := make([]Range, len(sorted))
	for i, unit := range sorted {
		start, end := unit.Span()
		ranges[i] = Range{Start: start, End: end}
	}

	chunks, err := Partition(lines, ranges)
	if err != nil {
		return nil, fmt.Errorf("partition lines: %w", err)
	}

	out := make([]string, 0, len(lines))
	idx := 0

	for chunk := range chunks {
		out = append(out, chunk...)

		if idx < len(sorted) {
			// Indentation comes from the removed opening line, not the kept chunk: a method
			// docstring under `    def f():` in a class is indented 8 spaces, not 4.
			out = appendReplacement(out, lines, ranges[idx], sorted[idx], obs)
		}

		idx++
	}

	return out, nil
}

func appendReplacement(out, lines []string, r Range, unit docstring.Unit, obs Observer) []string {
	if !unit.HasReplacement() {
		obs.MissingReplacement(unit)

		return out
	}

	opening := lines[r.Start]

	indent := ""
	if r.Start > 0 {
		indent = leadingWhitespace(opening)
	}

	eol := lf
	if strings.HasSuffix(opening, crlf) {
		eol = crlf
	}

	text := strings.ReplaceAll(unit.Replacement(), crlf, lf)
	replacement := strings.Split(text, lf)

	last := len(replacement) - 1
	for last > 0 && strings.TrimSpace(replacement[last]) == "" {
		last--
	}

	for i, line := range replacement {
		if strings.TrimSpace(line) == "" {
			out = append(out, eol)

			continue
		}

		if i == last {
			line += unit.Comment
		}

		out = append(out, indent+line+eol)
	}

	return out
}

func leadingWhitespace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// SplitLines splits text into lines, each keeping its terminator. The final line has no
// terminator when text does not end with one. Empty text yields no lines.
func SplitLines(text string) []string {
	lines := strings.SplitAfter(text, lf)
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}

// Join concatenates lines produced by [SplitLines] or [Reconstruct].
func Join(lines []string) string {
	return strings.Join(lines, "")
}
