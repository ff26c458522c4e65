// Package docstring locates Python docstrings and describes them as line-addressed units.
package docstring

import (
	"errors"
	"fmt"
)

// Kind is the kind of program element a docstring documents.
type Kind uint8

// Documentable kinds.
const (
	KindModule Kind = iota + 1
	KindFunction
	KindClass
)

// Text forms of [Kind], used in checkpoint files and CLI output.
const (
	kindModuleName   = "module"
	kindFunctionName = "function"
	kindClassName    = "class"
)

// ErrUnknownKind is returned when decoding a kind name that is not recognized.
var ErrUnknownKind = errors.New("unknown docstring kind")

// ErrReplacementAlreadySet is returned when a unit's replacement is assigned twice with different text.
var ErrReplacementAlreadySet = errors.New("replacement text already set")

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindModule:
		return kindModuleName
	case KindFunction:
		return kindFunctionName
	case KindClass:
		return kindClassName
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind converts a kind name back to a [Kind].
func ParseKind(name string) (Kind, error) {
	switch name {
	case kindModuleName:
		return KindModule, nil
	case kindFunctionName:
		return KindFunction, nil
	case kindClassName:
		return KindClass, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case KindModule, KindFunction, KindClass:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(k))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}

	*k = parsed

	return nil
}

// Unit is one docstring found in a source file.
//
// StartLine is the 1-indexed first line of the docstring statement and EndLine is
// one past its last line, so EndLine-StartLine is the number of physical lines the
// docstring occupies.
type Unit struct {
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Text      string `json:"text"`
	Kind      Kind   `json:"kind"`
	// Delimiter is the opening quote sequence including any string prefix, e.g. `"""` or `r'''`.
	Delimiter string `json:"delimiter,omitempty"`
	// Comment is a trailing comment on the docstring's last line, with its leading
	// spacing, e.g. `  # noqa: D401`. It is carried onto the replacement.
	Comment string `json:"comment,omitempty"`
	// ReplacementText is nil until a transformer has produced the new docstring source.
	ReplacementText *string `json:"replacement_text,omitempty"`
}

// Span returns the unit's lines as a 0-indexed half-open interval [start, end)
// over a slice of file lines. It is the only place where 1-indexed source lines
// are translated to slice indices.
func (u Unit) Span() (start, end int) {
	return u.StartLine - 1, u.EndLine - 1
}

// LineCount returns the number of physical lines the docstring occupies.
func (u Unit) LineCount() int {
	return u.EndLine - u.StartLine
}

// HasReplacement reports whether replacement text has been assigned.
func (u Unit) HasReplacement() bool {
	return u.ReplacementText != nil
}

// Replacement returns the replacement text, or "" when none is set.
func (u Unit) Replacement() string {
	if u.ReplacementText == nil {
		return ""
	}

	return *u.ReplacementText
}

// SetReplacement assigns the replacement text. Assigning the same text again is a no-op;
// assigning different text to a unit that already has one fails.
func (u *Unit) SetReplacement(text string) error {
	if u.ReplacementText != nil {
		if *u.ReplacementText == text {
			return nil
		}

		return fmt.Errorf("%w: lines %d-%d", ErrReplacementAlreadySet, u.StartLine, u.EndLine)
	}

	u.ReplacementText = &text

	return nil
}

// WithReplacement returns a copy of u carrying the given replacement text.
func (u Unit) WithReplacement(text string) Unit {
	u.ReplacementText = &text

	return u
}

// SameOrigin reports whether two units describe the same docstring, ignoring replacements.
func (u Unit) SameOrigin(other Unit) bool {
	return u.StartLine == other.StartLine &&
		u.EndLine == other.EndLine &&
		u.Kind == other.Kind &&
		u.Text == other.Text &&
		u.Comment == other.Comment
}
