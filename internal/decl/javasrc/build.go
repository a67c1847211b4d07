package javasrc

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/conduit-lang/declgen/internal/decl"
)

var typeKinds = map[string]decl.Kind{
	"class_declaration":           decl.KindClass,
	"interface_declaration":       decl.KindInterface,
	"enum_declaration":            decl.KindEnum,
	"record_declaration":          decl.KindRecord,
	"annotation_type_declaration": decl.KindAnnotationType,
}

// build adds the unit's package and types to b and returns the package
func (u *unit) build(b *decl.Builder, known map[string]bool) decl.NodeID {
	pkg := b.Package(u.pkg)
	s := &scope{u: u, known: known}

	root := u.tree.RootNode()
	for i := uint(0); i < root.NamedChildCount(); i++ {
		n := root.NamedChild(i)
		if n.Kind() == "package_declaration" {
			for j := uint(0); j < n.NamedChildCount(); j++ {
				if a := s.annotation(n.NamedChild(j)); a != nil {
					b.Annotate(pkg, a)
				}
			}
			continue
		}
		if _, ok := typeKinds[n.Kind()]; ok {
			s.buildType(b, pkg, decl.KindPackage, n)
		}
	}
	return pkg
}

func (s *scope) buildType(b *decl.Builder, parent decl.NodeID, parentKind decl.Kind, n *sitter.Node) {
	kind := typeKinds[n.Kind()]
	id := b.Type(parent, kind, s.u.text(n.ChildByFieldName("name")))
	inner := s.nest(b.Graph().Node(id).QualifiedName())

	s.modifiers(b, id, n)
	if parentKind == decl.KindInterface || parentKind == decl.KindAnnotationType {
		b.Modify(id, decl.ModPublic, decl.ModStatic)
	}
	if kind == decl.KindInterface || kind == decl.KindAnnotationType {
		b.Modify(id, decl.ModAbstract)
	}

	inner = inner.typeParams(b, id, childOfKind(n, "type_parameters"))

	switch kind {
	case decl.KindClass:
		if sup := childOfKind(n, "superclass"); sup != nil && sup.NamedChildCount() > 0 {
			b.Extends(id, inner.typeRef(sup.NamedChild(0)))
		} else {
			b.Extends(id, "java.lang.Object")
		}
	case decl.KindEnum:
		b.Extends(id, decl.TypeRef("java.lang.Enum<"+b.Graph().Node(id).QualifiedName()+">"))
	case decl.KindRecord:
		b.Extends(id, "java.lang.Record")
	case decl.KindAnnotationType:
		b.Implements(id, "java.lang.annotation.Annotation")
	}
	for _, list := range []string{"super_interfaces", "extends_interfaces"} {
		if c := childOfKind(n, list); c != nil {
			b.Implements(id, inner.typeList(childOfKind(c, "type_list"))...)
		}
	}

	if kind == decl.KindRecord {
		inner.recordComponents(b, id, n.ChildByFieldName("parameters"))
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	forEachMember(body, func(m *sitter.Node) {
		inner.buildMember(b, id, kind, m)
	})
}

func (s *scope) buildMember(b *decl.Builder, owner decl.NodeID, ownerKind decl.Kind, m *sitter.Node) {
	inInterface := ownerKind == decl.KindInterface || ownerKind == decl.KindAnnotationType

	switch m.Kind() {
	case "class_declaration", "interface_declaration", "enum_declaration",
		"record_declaration", "annotation_type_declaration":
		s.buildType(b, owner, ownerKind, m)

	case "field_declaration", "constant_declaration":
		typ := m.ChildByFieldName("type")
		for i := uint(0); i < m.NamedChildCount(); i++ {
			d := m.NamedChild(i)
			if d.Kind() != "variable_declarator" {
				continue
			}
			ref := s.typeRef(typ) + decl.TypeRef(s.u.text(childOfKind(d, "dimensions")))
			id := b.Field(owner, s.u.text(d.ChildByFieldName("name")), ref)
			s.modifiers(b, id, m)
			if inInterface {
				b.Modify(id, decl.ModPublic, decl.ModStatic, decl.ModFinal)
			}
		}

	case "enum_constant":
		id := b.EnumConstant(owner, s.u.text(m.ChildByFieldName("name")))
		s.modifiers(b, id, m)
		b.Modify(id, decl.ModPublic, decl.ModStatic, decl.ModFinal)

	case "method_declaration":
		id := b.Method(owner, s.u.text(m.ChildByFieldName("name")))
		s.modifiers(b, id, m)
		inner := s.typeParams(b, id, childOfKind(m, "type_parameters"))
		b.Returns(id, inner.typeRef(m.ChildByFieldName("type")))
		inner.params(b, id, m.ChildByFieldName("parameters"))
		inner.throws(b, id, childOfKind(m, "throws"))
		if inInterface {
			mods := b.Graph().Node(id).Modifiers
			if !mods.Has(decl.ModPrivate) {
				b.Modify(id, decl.ModPublic)
			}
			if m.ChildByFieldName("body") == nil && !mods.Has(decl.ModStatic) && !mods.Has(decl.ModDefault) {
				b.Modify(id, decl.ModAbstract)
			}
		}

	case "constructor_declaration":
		id := b.Constructor(owner)
		s.modifiers(b, id, m)
		inner := s.typeParams(b, id, childOfKind(m, "type_parameters"))
		inner.params(b, id, m.ChildByFieldName("parameters"))
		inner.throws(b, id, childOfKind(m, "throws"))

	case "annotation_type_element_declaration":
		id := b.Method(owner, s.u.text(m.ChildByFieldName("name")))
		s.modifiers(b, id, m)
		b.Modify(id, decl.ModPublic, decl.ModAbstract)
		ref := s.typeRef(m.ChildByFieldName("type")) + decl.TypeRef(s.u.text(m.ChildByFieldName("dimensions")))
		b.Returns(id, ref)
		if v := m.ChildByFieldName("value"); v != nil {
			b.Default(id, s.value(v))
		}
	}
}

// modifiers applies the keywords and annotations of n's modifier list
func (s *scope) modifiers(b *decl.Builder, id decl.NodeID, n *sitter.Node) {
	mods := childOfKind(n, "modifiers")
	if mods == nil {
		return
	}
	for i := uint(0); i < mods.ChildCount(); i++ {
		c := mods.Child(i)
		if a := s.annotation(c); a != nil {
			b.Annotate(id, a)
			continue
		}
		if m, err := decl.ParseModifier(s.u.text(c)); err == nil {
			b.Modify(id, m)
		}
	}
}

// typeParams declares the type parameters of owner and returns a scope in
// which their names resolve to themselves
func (s *scope) typeParams(b *decl.Builder, owner decl.NodeID, n *sitter.Node) *scope {
	if n == nil {
		return s
	}
	var decls []*sitter.Node
	var names []string
	for i := uint(0); i < n.NamedChildCount(); i++ {
		tp := n.NamedChild(i)
		if tp.Kind() != "type_parameter" {
			continue
		}
		decls = append(decls, tp)
		names = append(names, s.u.text(childOfKind(tp, "type_identifier")))
	}

	inner := s.withTypeVars(names)
	for i, tp := range decls {
		var bounds []decl.TypeRef
		if bound := childOfKind(tp, "type_bound"); bound != nil {
			for j := uint(0); j < bound.NamedChildCount(); j++ {
				bounds = append(bounds, inner.typeRef(bound.NamedChild(j)))
			}
		}
		id := b.TypeParam(owner, names[i], bounds...)
		for j := uint(0); j < tp.NamedChildCount(); j++ {
			if a := inner.annotation(tp.NamedChild(j)); a != nil {
				b.Annotate(id, a)
			}
		}
	}
	return inner
}

func (s *scope) params(b *decl.Builder, exec decl.NodeID, n *sitter.Node) {
	if n == nil {
		return
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		p := n.NamedChild(i)
		switch p.Kind() {
		case "formal_parameter":
			ref := s.typeRef(p.ChildByFieldName("type")) + decl.TypeRef(s.u.text(childOfKind(p, "dimensions")))
			id := b.Param(exec, s.u.text(p.ChildByFieldName("name")), ref)
			s.modifiers(b, id, p)
		case "spread_parameter":
			var typ, name *sitter.Node
			for j := uint(0); j < p.NamedChildCount(); j++ {
				c := p.NamedChild(j)
				switch {
				case c.Kind() == "modifiers":
				case c.Kind() == "variable_declarator":
					name = c.ChildByFieldName("name")
				case typ == nil:
					typ = c
				}
			}
			id := b.Param(exec, s.u.text(name), s.typeRef(typ)+"...")
			s.modifiers(b, id, p)
		}
	}
}

func (s *scope) recordComponents(b *decl.Builder, record decl.NodeID, n *sitter.Node) {
	if n == nil {
		return
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		p := n.NamedChild(i)
		if p.Kind() != "formal_parameter" {
			continue
		}
		id := b.Field(record, s.u.text(p.ChildByFieldName("name")), s.typeRef(p.ChildByFieldName("type")))
		s.modifiers(b, id, p)
		b.Modify(id, decl.ModPrivate, decl.ModFinal)
	}
}

func (s *scope) throws(b *decl.Builder, exec decl.NodeID, n *sitter.Node) {
	if n == nil {
		return
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		b.Throws(exec, s.typeRef(n.NamedChild(i)))
	}
}

func (s *scope) typeList(n *sitter.Node) []decl.TypeRef {
	if n == nil {
		return nil
	}
	refs := make([]decl.TypeRef, 0, n.NamedChildCount())
	for i := uint(0); i < n.NamedChildCount(); i++ {
		refs = append(refs, s.typeRef(n.NamedChild(i)))
	}
	return refs
}

// typeRef renders a type node with every class name qualified
func (s *scope) typeRef(n *sitter.Node) decl.TypeRef {
	return decl.TypeRef(s.typeText(n))
}

func (s *scope) typeText(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	switch n.Kind() {
	case "type_identifier", "scoped_type_identifier":
		return s.resolve(stripAnnotations(s.u.text(n)))
	case "generic_type":
		var base string
		var args []string
		for i := uint(0); i < n.NamedChildCount(); i++ {
			c := n.NamedChild(i)
			if c.Kind() == "type_arguments" {
				for j := uint(0); j < c.NamedChildCount(); j++ {
					args = append(args, s.typeText(c.NamedChild(j)))
				}
				continue
			}
			base = s.typeText(c)
		}
		return base + "<" + strings.Join(args, ",") + ">"
	case "array_type":
		return s.typeText(n.ChildByFieldName("element")) + s.u.text(n.ChildByFieldName("dimensions"))
	case "wildcard":
		out := "?"
		for i := uint(0); i < n.ChildCount(); i++ {
			c := n.Child(i)
			switch c.Kind() {
			case "extends", "super":
				out += " " + c.Kind() + " "
			default:
				if c.IsNamed() && c.Kind() != "annotation" && c.Kind() != "marker_annotation" {
					out += s.typeText(c)
				}
			}
		}
		return out
	case "annotated_type":
		for i := uint(0); i < n.NamedChildCount(); i++ {
			c := n.NamedChild(i)
			if c.Kind() != "annotation" && c.Kind() != "marker_annotation" {
				return s.typeText(c)
			}
		}
	}
	return strings.TrimSpace(s.u.text(n))
}

// stripAnnotations drops type-use annotations inside a scoped name
func stripAnnotations(name string) string {
	if !strings.Contains(name, "@") {
		return strings.Join(strings.Fields(name), "")
	}
	var parts []string
	for _, seg := range strings.Split(name, ".") {
		fields := strings.Fields(seg)
		if len(fields) > 0 {
			parts = append(parts, fields[len(fields)-1])
		}
	}
	return strings.Join(parts, ".")
}

func childOfKind(n *sitter.Node, kind string) *sitter.Node {
	if n == nil {
		return nil
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		if c := n.Child(i); c.Kind() == kind {
			return c
		}
	}
	return nil
}
