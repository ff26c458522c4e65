package docstring

import (
	"strings"
)

const (
	tabWidth       = 8
	stringPrefixes = "rRuUbBfF"
)

// literal is a Python string literal split into its parts.
type literal struct {
	prefix string
	quote  string
	body   string
}

// splitLiteral splits the source text of a Python string literal into prefix, quote and body.
// It returns false when raw is not a single well-formed string literal.
func splitLiteral(raw string) (literal, bool) {
	i := 0
	for i < len(raw) && strings.IndexByte(stringPrefixes, raw[i]) >= 0 {
		i++
	}

	prefix, rest := raw[:i], raw[i:]

	var quote string

	switch {
	case strings.HasPrefix(rest, `"""`), strings.HasPrefix(rest, `'''`):
		quote = rest[:3]
	case strings.HasPrefix(rest, `"`), strings.HasPrefix(rest, `'`):
		quote = rest[:1]
	default:
		return literal{}, false
	}

	if len(rest) < 2*len(quote) || !strings.HasSuffix(rest, quote) {
		return literal{}, false
	}

	return literal{
		prefix: prefix,
		quote:  quote,
		body:   rest[len(quote) : len(rest)-len(quote)],
	}, true
}

// isDocumentation reports whether a literal with this prefix can be a docstring.
// Byte strings and f-strings are expressions, not documentation.
func (l literal) isDocumentation() bool {
	return !strings.ContainsAny(l.prefix, "bBfF")
}

// Clean normalizes docstring text the way Python's inspect.cleandoc does: tabs are
// expanded, the first line is stripped of leading whitespace, the common indentation of
// the remaining lines is removed, and leading and trailing blank lines are dropped.
func Clean(text string) string {
	lines := strings.Split(expandTabs(text), "\n")

	margin := -1

	for _, line := range lines[1:] {
		content := strings.TrimLeft(line, " ")
		if content == "" {
			continue
		}

		indent := len(line) - len(content)
		if margin < 0 || indent < margin {
			margin = indent
		}
	}

	lines[0] = strings.TrimLeft(lines[0], " ")

	if margin > 0 {
		for i := 1; i < len(lines); i++ {
			if len(lines[i]) >= margin {
				lines[i] = lines[i][margin:]
			} else {
				lines[i] = strings.TrimLeft(lines[i], " ")
			}
		}
	}

	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}

	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}

	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	// The last line keeps its trailing spaces: in `"""Say "hi" """` the space is what
	// separates the text's final quote from the closing delimiter.
	for i := 0; i < len(lines)-1; i++ {
		lines[i] = strings.TrimRight(lines[i], " ")
	}

	return strings.Join(lines, "\n")
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}

	var b strings.Builder

	col := 0

	for _, r := range s {
		switch r {
		case '\t':
			pad := tabWidth - col%tabWidth
			b.WriteString(strings.Repeat(" ", pad))
			col += pad
		case '\n':
			b.WriteRune(r)

			col = 0
		default:
			b.WriteRune(r)

			col++
		}
	}

	return b.String()
}

// Quote wraps bare replacement text in the unit's original delimiters so it can be
// spliced back as a string literal. Text that already starts with a quote sequence is
// returned unchanged, trimmed of surrounding blank lines. Multi-line text gets its
// closing delimiter on a line of its own; single-line text ending in the quote
// character gets a space so the two do not merge.
func Quote(unit Unit, text string) string {
	trimmed := strings.Trim(text, "\n")

	if lit, ok := splitLiteral(strings.TrimSpace(trimmed)); ok && len(lit.quote) == 3 {
		return trimmed
	}

	delimiter := unit.Delimiter
	if delimiter == "" {
		delimiter = `"""`
	}

	prefix := delimiter[:len(delimiter)-len(strings.TrimLeft(delimiter, stringPrefixes))]
	closing := delimiter[len(prefix):]
	multiline := strings.Contains(trimmed, "\n")

	if len(closing) == 1 && multiline {
		closing = strings.Repeat(closing, 3)
		delimiter = prefix + closing
	}

	if multiline {
		return delimiter + trimmed + "\n" + closing
	}

	if strings.HasSuffix(trimmed, closing[:1]) {
		trimmed += " "
	}

	return delimiter + trimmed + closing
}
