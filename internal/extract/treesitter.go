package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/sha1n/mcp-reflookup-server/internal/domain"
)

// ErrParseFailed indicates the structured parser produced no syntax tree.
var ErrParseFailed = errors.New("structured parse failed")

// literalKinds are tree-sitter-java node kinds holding a plain literal.
var literalKinds = map[string]bool{
	"string_literal":                 true,
	"character_literal":              true,
	"decimal_integer_literal":        true,
	"hex_integer_literal":            true,
	"octal_integer_literal":          true,
	"binary_integer_literal":         true,
	"decimal_floating_point_literal": true,
	"hex_floating_point_literal":     true,
	"true":                           true,
	"false":                          true,
}

// TreeSitterExtractor walks a Java syntax tree and extracts constant fields,
// interface constants and enum constants.
type TreeSitterExtractor struct {
	language *sitter.Language
}

// NewTreeSitterExtractor creates an extractor backed by the tree-sitter Java grammar.
func NewTreeSitterExtractor() *TreeSitterExtractor {
	return &TreeSitterExtractor{
		language: sitter.NewLanguage(java.Language()),
	}
}

// Name returns the strategy name.
func (e *TreeSitterExtractor) Name() string {
	return StrategyTreeSitter
}

// Extract parses the source and returns one record per constant declarator.
func (e *TreeSitterExtractor) Extract(ctx context.Context, source []byte) ([]*domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(e.language); err != nil {
		return nil, fmt.Errorf("failed to set parser language: %w", err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, ErrParseFailed
	}
	defer tree.Close()

	var records []*domain.Record
	walkTree(tree.RootNode(), func(n *sitter.Node) bool {
		switch n.Kind() {
		case "field_declaration":
			if isConstantField(n, source) {
				records = append(records, fieldRecords(n, source)...)
			}
			return false
		case "constant_declaration":
			// interface fields are implicitly public static final
			records = append(records, fieldRecords(n, source)...)
			return false
		case "enum_constant":
			if r := enumConstantRecord(n, source); r != nil {
				records = append(records, r)
			}
			return false
		}
		return true
	})

	return records, nil
}

// isConstantField reports whether a field declaration is both static and final.
func isConstantField(node *sitter.Node, source []byte) bool {
	modifiers := findChildByType(node, "modifiers")
	if modifiers == nil {
		return false
	}
	words := strings.Fields(nodeText(modifiers, source))
	return hasModifier(words, "static") && hasModifier(words, "final")
}

// fieldRecords builds records for every declarator of a field declaration.
// All declarators share the documentation attached to the declaration.
func fieldRecords(node *sitter.Node, source []byte) []*domain.Record {
	description := describeNode(node, source)

	var records []*domain.Record
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "variable_declarator" {
			continue
		}

		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := nodeText(nameNode, source)
		if name == "" {
			continue
		}

		var value string
		if valueNode := child.ChildByFieldName("value"); valueNode != nil {
			value = normalizeValue(nodeText(valueNode, source))
		}

		records = append(records, newConstantRecord(name, value, description))
	}
	return records
}

// enumConstantRecord builds a record for an enum constant.
// A literal first constructor argument becomes the value; otherwise the name is used.
func enumConstantRecord(node *sitter.Node, source []byte) *domain.Record {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, source)
	if name == "" {
		return nil
	}

	value := name
	if args := node.ChildByFieldName("arguments"); args != nil && args.NamedChildCount() > 0 {
		first := args.NamedChild(0)
		if first != nil && literalKinds[first.Kind()] {
			value = normalizeValue(nodeText(first, source))
		}
	}

	return newConstantRecord(name, value, describeNode(node, source))
}

// describeNode resolves documentation for a declaration node: a leading comment
// (doc comment or line comment) first, then a trailing comment on the same line.
func describeNode(node *sitter.Node, source []byte) string {
	if c := leadingComment(node, source); c != nil {
		return cleanComment(nodeText(c, source))
	}
	if c := trailingCommentNode(node); c != nil {
		return cleanComment(nodeText(c, source))
	}
	return ""
}

// leadingComment returns the comment directly above a node.
// Doc comments may be separated by blank lines; other comments must sit on the
// line right above. A comment that trails another statement does not count.
func leadingComment(node *sitter.Node, source []byte) *sitter.Node {
	prev := node.PrevSibling()
	if prev == nil || !isComment(prev) {
		return nil
	}

	if before := prev.PrevSibling(); before != nil && before.EndPosition().Row == prev.StartPosition().Row {
		return nil
	}

	if prev.Kind() == "block_comment" && strings.HasPrefix(nodeText(prev, source), "/**") {
		return prev
	}
	if prev.EndPosition().Row+1 >= node.StartPosition().Row {
		return prev
	}
	return nil
}

// trailingCommentNode returns a comment that starts on the last line of a node.
// Separator tokens between the node and the comment are skipped.
func trailingCommentNode(node *sitter.Node) *sitter.Node {
	next := node.NextSibling()
	for next != nil && (next.Kind() == "," || next.Kind() == ";") {
		next = next.NextSibling()
	}
	if next == nil || !isComment(next) {
		return nil
	}
	if next.StartPosition().Row != node.EndPosition().Row {
		return nil
	}
	return next
}

func isComment(node *sitter.Node) bool {
	switch node.Kind() {
	case "line_comment", "block_comment", "comment":
		return true
	}
	return false
}
