package docstring

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Tree-sitter python node types and fields the locator cares about.
const (
	nodeModule     = "module"
	nodeFunction   = "function_definition"
	nodeClass      = "class_definition"
	nodeExpression = "expression_statement"
	nodeString     = "string"
	nodeComment    = "comment"
	fieldBody      = "body"
)

var (
	errNoRootNode = errors.New("docstring: no root node")
	errPoolType   = errors.New("docstring: pool returned unexpected type")
)

// Locate parses Python source and returns its docstrings in document order, so the
// result is sorted by StartLine and a parent's docstring precedes its children's.
//
// Only docstrings that occupy whole lines are reported: a docstring sharing a line with
// other code (for example `def f(): """doc"""`) cannot be replaced line by line and is
// skipped, as are empty docstrings. A source without docstrings yields no units.
func Locate(src []byte, filter Filter) ([]Unit, error) {
	return LocateContext(context.Background(), src, filter)
}

// LocateContext is [Locate] with a context for the parse.
func LocateContext(ctx context.Context, src []byte, filter Filter) ([]Unit, error) {
	if filter > FilterClass {
		return nil, &InvalidFilterError{Name: filter.String()}
	}

	tsParser, ok := parserPool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer parserPool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse source: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, errNoRootNode
	}

	if root.HasError() {
		return nil, syntaxErrorAt(root)
	}

	loc := &locator{src: src, filter: filter}
	loc.visit(root)

	return loc.units, nil
}

// LocateFile reads the file at path and locates its docstrings.
func LocateFile(path string, filter Filter) ([]Unit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}

	return Locate(src, filter)
}

type locator struct {
	src    []byte
	filter Filter
	units  []Unit
}

// visit walks the tree depth-first, recording a node's docstring before descending.
func (l *locator) visit(n sitter.Node) {
	switch n.Type() {
	case nodeModule:
		l.collect(n, KindModule)
	case nodeFunction:
		l.collect(n.ChildByFieldName(fieldBody), KindFunction)
	case nodeClass:
		l.collect(n.ChildByFieldName(fieldBody), KindClass)
	}

	for idx := range n.NamedChildCount() {
		l.visit(n.NamedChild(idx))
	}
}

// collect records the docstring of body, if it has one.
func (l *locator) collect(body sitter.Node, kind Kind) {
	if body.IsNull() || !l.filter.Accepts(kind) {
		return
	}

	stmt := firstStatement(body)
	if stmt.IsNull() || stmt.Type() != nodeExpression {
		return
	}

	str := firstStatement(stmt)
	if str.IsNull() || str.Type() != nodeString || stmt.NamedChildCount()-commentCount(stmt) != 1 {
		return
	}

	lit, ok := splitLiteral(l.text(str))
	if !ok || !lit.isDocumentation() {
		return
	}

	text := Clean(lit.body)
	if text == "" {
		return
	}

	comment, owned := l.ownsLines(stmt)
	if !owned {
		return
	}

	start, end := stmt.StartPoint(), stmt.EndPoint()

	l.units = append(l.units, Unit{
		StartLine: int(start.Row) + 1,
		EndLine:   int(end.Row) + 2, //nolint:mnd // 1-indexed and exclusive.
		Text:      text,
		Kind:      kind,
		Delimiter: lit.prefix + lit.quote,
		Comment:   comment,
	})
}

func (l *locator) text(n sitter.Node) string {
	return string(l.src[n.StartByte():n.EndByte()])
}

// ownsLines reports whether the node's first line holds nothing before it and its last
// line holds at most a trailing comment after it. The comment is returned with the
// spacing that separated it from the node.
func (l *locator) ownsLines(n sitter.Node) (string, bool) {
	startByte, endByte := int(n.StartByte()), int(n.EndByte())

	lineStart := bytes.LastIndexByte(l.src[:startByte], '\n') + 1
	if len(bytes.TrimSpace(l.src[lineStart:startByte])) != 0 {
		return "", false
	}

	rest := l.src[endByte:]
	if i := bytes.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[:i]
	}

	rest = bytes.TrimRight(rest, " \t\r")

	switch {
	case len(rest) == 0:
		return "", true
	case bytes.HasPrefix(bytes.TrimLeft(rest, " \t"), []byte("#")):
		return string(rest), true
	default:
		return "", false
	}
}

// firstStatement returns the first named child of body that is not a comment.
func firstStatement(body sitter.Node) sitter.Node {
	for idx := range body.NamedChildCount() {
		child := body.NamedChild(idx)
		if child.Type() != nodeComment {
			return child
		}
	}

	return sitter.Node{}
}

func commentCount(n sitter.Node) uint32 {
	var count uint32

	for idx := range n.NamedChildCount() {
		if n.NamedChild(idx).Type() == nodeComment {
			count++
		}
	}

	return count
}

// syntaxErrorAt descends through erroneous children to the innermost one.
func syntaxErrorAt(n sitter.Node) *SyntaxError {
	for {
		next := sitter.Node{}

		for idx := range n.ChildCount() {
			child := n.Child(idx)
			if child.HasError() {
				next = child

				break
			}
		}

		if next.IsNull() {
			break
		}

		n = next
	}

	pos := n.StartPoint()

	return &SyntaxError{Line: int(pos.Row) + 1, Column: int(pos.Column) + 1}
}
