package rewrite

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/docsplice/pkg/splice"
)

// contextLines is how many unchanged lines are shown around each change.
const contextLines = 2

// Diff renders a line-level preview of the changes between two texts: removed lines are
// prefixed with "-", added lines with "+", and up to two unchanged lines of context with
// a space. Long unchanged stretches collapse to "...". Equal texts give "".
func Diff(oldText, newText string) string {
	if oldText == newText {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var sb strings.Builder

	for i, d := range diffs {
		lines := splice.SplitLines(d.Text)

		switch d.Type {
		case diffmatchpatch.DiffDelete:
			writeLines(&sb, "-", lines)
		case diffmatchpatch.DiffInsert:
			writeLines(&sb, "+", lines)
		case diffmatchpatch.DiffEqual:
			writeContext(&sb, lines, i > 0, i < len(diffs)-1)
		}
	}

	return sb.String()
}

func writeContext(sb *strings.Builder, lines []string, afterChange, beforeChange bool) {
	var head, tail []string

	if afterChange {
		head = lines[:min(contextLines, len(lines))]
	}

	if beforeChange {
		tail = lines[max(len(lines)-contextLines, len(head)):]
	}

	writeLines(sb, " ", head)

	if len(head)+len(tail) < len(lines) {
		sb.WriteString("...\n")
	}

	writeLines(sb, " ", tail)
}

func writeLines(sb *strings.Builder, prefix string, lines []string) {
	for _, line := range lines {
		sb.WriteString(prefix)
		sb.WriteString(strings.TrimRight(line, "\r\n"))
		sb.WriteByte('\n')
	}
}
