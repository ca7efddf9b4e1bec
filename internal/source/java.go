package source

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/errors"
)

// DefaultMaxFileSize bounds the content handed to tree-sitter.
const DefaultMaxFileSize int64 = 4 * 1024 * 1024

// JavaParser extracts declarations from Java sources with tree-sitter. Each
// Parse call builds its own tree-sitter parser, so a JavaParser is safe for
// concurrent use.
type JavaParser struct {
	maxFileSize int64
	logger      *slog.Logger
}

// NewJavaParser returns a parser rejecting files above maxFileSize bytes.
// A non-positive size selects DefaultMaxFileSize.
func NewJavaParser(maxFileSize int64) *JavaParser {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &JavaParser{
		maxFileSize: maxFileSize,
		logger:      slog.Default().With("component", "java-parser"),
	}
}

func (p *JavaParser) Extensions() []string {
	return []string{".java"}
}

// Parse extracts every class and method declaration in content. Declarations
// whose node is missing or contains a syntax error carry ErrRangeUnavailable
// and the rest of the file is still processed.
func (p *JavaParser) Parse(ctx context.Context, path string, content []byte) (*File, error) {
	if int64(len(content)) > p.maxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", errors.ErrInvalidInput, path, len(content), p.maxFileSize)
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", errors.ErrInvalidInput, path)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse of %s failed: %w", path, err)
	}
	defer tree.Close()

	f := &File{Path: path}
	root := tree.RootNode()
	if root == nil {
		return f, nil
	}
	w := &javaWalker{content: content, file: f, logger: p.logger}
	w.walk(root, "")
	return f, nil
}

type javaWalker struct {
	content []byte
	file    *File
	logger  *slog.Logger
}

func (w *javaWalker) walk(node *sitter.Node, enclosing string) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
			name := w.text(child.ChildByFieldName("name"))
			if name == "" {
				w.walk(child, enclosing)
				continue
			}
			r, err := w.rangeOf(child, name)
			w.file.Classes = append(w.file.Classes, Class{Name: name, Range: r, RangeErr: err})
			w.walk(child, name)
		case "method_declaration":
			if m, ok := w.method(child, enclosing); ok {
				w.file.Methods = append(w.file.Methods, m)
			}
			w.walk(child, enclosing)
		default:
			w.walk(child, enclosing)
		}
	}
}

func (w *javaWalker) method(node *sitter.Node, enclosing string) (Method, bool) {
	name := w.text(node.ChildByFieldName("name"))
	if name == "" {
		return Method{}, false
	}
	m := Method{Name: name, Class: enclosing}
	m.Range, m.RangeErr = w.rangeOf(node, name)

	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(i); child != nil && child.Type() == "modifiers" {
			m.Annotations = w.annotations(child)
		}
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		m.Parameters = w.parameterTypes(params)
	}
	m.DocComment = w.docComment(node)
	if body := node.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			stmt := body.NamedChild(i)
			if stmt == nil || isComment(stmt) {
				continue
			}
			m.Statements = append(m.Statements, w.text(stmt))
		}
	}
	return m, true
}

func (w *javaWalker) annotations(modifiers *sitter.Node) []string {
	var names []string
	for i := 0; i < int(modifiers.NamedChildCount()); i++ {
		child := modifiers.NamedChild(i)
		if child == nil {
			continue
		}
		if child.Type() != "marker_annotation" && child.Type() != "annotation" {
			continue
		}
		name := w.text(child.ChildByFieldName("name"))
		if dot := strings.LastIndex(name, "."); dot >= 0 {
			name = name[dot+1:]
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

func (w *javaWalker) parameterTypes(params *sitter.Node) []string {
	var types []string
	for i := 0; i < int(params.NamedChildCount()); i++ {
		param := params.NamedChild(i)
		if param == nil {
			continue
		}
		switch param.Type() {
		case "formal_parameter":
			types = append(types, collapse(w.text(param.ChildByFieldName("type"))))
		case "spread_parameter":
			for j := 0; j < int(param.NamedChildCount()); j++ {
				part := param.NamedChild(j)
				if part == nil || part.Type() == "modifiers" {
					continue
				}
				types = append(types, collapse(w.text(part))+"...")
				break
			}
		}
	}
	return types
}

// docComment returns the Javadoc block that ends on the line right above the
// declaration, if any.
func (w *javaWalker) docComment(node *sitter.Node) string {
	prev := node.PrevNamedSibling()
	if prev == nil || !isComment(prev) {
		return ""
	}
	if prev.EndPoint().Row+1 < node.StartPoint().Row {
		return ""
	}
	raw := w.text(prev)
	if !strings.HasPrefix(raw, "/**") {
		return ""
	}
	return cleanJavadoc(raw)
}

func (w *javaWalker) rangeOf(node *sitter.Node, name string) (SourceRange, error) {
	if node.IsMissing() || node.HasError() {
		w.logger.Warn("declaration has no reliable source range",
			"file", w.file.Path,
			"declaration", name,
			"line", node.StartPoint().Row+1,
		)
		return SourceRange{}, fmt.Errorf("%w: %s in %s", errors.ErrRangeUnavailable, name, w.file.Path)
	}
	return NewRange(int(node.StartPoint().Row)+1, int(node.EndPoint().Row)+1), nil
}

func (w *javaWalker) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return node.Content(w.content)
}

func isComment(node *sitter.Node) bool {
	switch node.Type() {
	case "comment", "block_comment", "line_comment":
		return true
	}
	return false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func cleanJavadoc(raw string) string {
	raw = strings.TrimPrefix(raw, "/**")
	raw = strings.TrimSuffix(raw, "*/")
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimLeft(line, "*"))
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, " ")
}
