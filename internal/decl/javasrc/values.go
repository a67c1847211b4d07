package javasrc

import (
	"strconv"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/conduit-lang/declgen/internal/decl"
)

// annotation converts an annotation node, returning nil for anything else.
// A single unnamed argument is the "value" element.
func (s *scope) annotation(n *sitter.Node) *decl.Annotation {
	if n == nil || (n.Kind() != "annotation" && n.Kind() != "marker_annotation") {
		return nil
	}
	a := decl.NewAnnotation(s.resolve(s.u.text(n.ChildByFieldName("name"))))

	args := n.ChildByFieldName("arguments")
	if args == nil {
		return a
	}
	for i := uint(0); i < args.NamedChildCount(); i++ {
		c := args.NamedChild(i)
		switch c.Kind() {
		case "line_comment", "block_comment":
		case "element_value_pair":
			a.Values = append(a.Values, decl.Pair(s.u.text(c.ChildByFieldName("key")), s.value(c.ChildByFieldName("value"))))
		default:
			a.Values = append(a.Values, decl.Pair("value", s.value(c)))
		}
	}
	return a
}

// value converts an element value. Enum constants and other names become
// constants as written; class literals become the qualified class name
// followed by ".class"; literals other than strings keep their source text.
func (s *scope) value(n *sitter.Node) decl.Value {
	if n == nil {
		return decl.String("")
	}
	switch n.Kind() {
	case "string_literal":
		return decl.String(unquote(s.u.text(n)))
	case "element_value_array_initializer":
		list := decl.List{}
		for i := uint(0); i < n.NamedChildCount(); i++ {
			c := n.NamedChild(i)
			if c.Kind() == "line_comment" || c.Kind() == "block_comment" {
				continue
			}
			list = append(list, s.value(c))
		}
		return list
	case "annotation", "marker_annotation":
		return s.annotation(n)
	case "class_literal":
		return decl.String(s.typeText(n.NamedChild(0)) + ".class")
	case "parenthesized_expression":
		return s.value(n.NamedChild(0))
	case "binary_expression":
		if op := n.ChildByFieldName("operator"); op != nil && s.u.text(op) == "+" {
			left, lok := s.value(n.ChildByFieldName("left")).(decl.String)
			right, rok := s.value(n.ChildByFieldName("right")).(decl.String)
			if lok && rok {
				return left + right
			}
		}
	case "identifier", "field_access", "scoped_identifier", "true", "false",
		"decimal_integer_literal", "hex_integer_literal", "octal_integer_literal",
		"binary_integer_literal", "decimal_floating_point_literal",
		"hex_floating_point_literal", "character_literal", "null_literal":
		return decl.Constant(strings.Join(strings.Fields(s.u.text(n)), ""))
	}
	return decl.String(s.u.text(n))
}

func unquote(lit string) string {
	if strings.HasPrefix(lit, `"""`) {
		body := strings.TrimSuffix(strings.TrimPrefix(lit, `"""`), `"""`)
		return strings.TrimPrefix(strings.TrimLeft(body, " \t"), "\n")
	}
	if v, err := strconv.Unquote(lit); err == nil {
		return v
	}
	return strings.TrimSuffix(strings.TrimPrefix(lit, `"`), `"`)
}
