package javasrc

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// javaLang lists the java.lang types that sources use without importing
var javaLang = map[string]bool{
	"AutoCloseable": true, "Boolean": true, "Byte": true, "Character": true,
	"CharSequence": true, "Class": true, "Cloneable": true, "Comparable": true,
	"Deprecated": true, "Double": true, "Enum": true, "Error": true,
	"Exception": true, "Float": true, "FunctionalInterface": true,
	"IllegalArgumentException": true, "IllegalStateException": true,
	"Integer": true, "Iterable": true, "Long": true, "Number": true,
	"Object": true, "Override": true, "Record": true, "Runnable": true,
	"RuntimeException": true, "SafeVarargs": true, "Short": true,
	"String": true, "StringBuilder": true, "SuppressWarnings": true,
	"Thread": true, "Throwable": true, "UnsupportedOperationException": true,
	"Void": true,
}

var primitives = map[string]bool{
	"boolean": true, "byte": true, "char": true, "short": true, "int": true,
	"long": true, "float": true, "double": true, "void": true,
}

var typeDeclarations = map[string]bool{
	"class_declaration":           true,
	"interface_declaration":       true,
	"enum_declaration":            true,
	"record_declaration":          true,
	"annotation_type_declaration": true,
}

// unit is one parsed compilation unit. The tree stays open until the
// graph is built.
type unit struct {
	path      string
	src       []byte
	tree      *sitter.Tree
	pkg       string
	imports   map[string]string
	wildcards []string
}

func newUnit(path string, src []byte, tree *sitter.Tree) *unit {
	u := &unit{path: path, src: src, tree: tree, imports: make(map[string]string)}
	root := tree.RootNode()
	for i := uint(0); i < root.NamedChildCount(); i++ {
		n := root.NamedChild(i)
		switch n.Kind() {
		case "package_declaration":
			u.pkg = u.packageName(n)
		case "import_declaration":
			u.addImport(n)
		}
	}
	return u
}

func (u *unit) close() {
	if u.tree != nil {
		u.tree.Close()
		u.tree = nil
	}
}

func (u *unit) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(u.src[n.StartByte():n.EndByte()])
}

func (u *unit) packageName(n *sitter.Node) string {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		if c.Kind() == "identifier" || c.Kind() == "scoped_identifier" {
			return u.text(c)
		}
	}
	return ""
}

// addImport records single-type and on-demand imports. Static imports
// name members, not types, and are ignored.
func (u *unit) addImport(n *sitter.Node) {
	var name string
	wildcard := false
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		switch c.Kind() {
		case "static":
			return
		case "identifier", "scoped_identifier":
			name = u.text(c)
		case "asterisk":
			wildcard = true
		}
	}
	if name == "" {
		return
	}
	if wildcard {
		u.wildcards = append(u.wildcards, name)
		return
	}
	u.imports[simpleName(name)] = name
}

// declare records the qualified name of every type in the unit
func (u *unit) declare(known map[string]bool) {
	known[u.pkg] = true
	root := u.tree.RootNode()
	for i := uint(0); i < root.NamedChildCount(); i++ {
		u.declareType(root.NamedChild(i), u.pkg, known)
	}
}

func (u *unit) declareType(n *sitter.Node, prefix string, known map[string]bool) {
	if !typeDeclarations[n.Kind()] {
		return
	}
	name := qualify(prefix, u.text(n.ChildByFieldName("name")))
	known[name] = true

	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	forEachMember(body, func(m *sitter.Node) {
		u.declareType(m, name, known)
	})
}

// forEachMember visits the member declarations of a type body, including
// those of an enum body's declaration section
func forEachMember(body *sitter.Node, fn func(*sitter.Node)) {
	for i := uint(0); i < body.NamedChildCount(); i++ {
		m := body.NamedChild(i)
		if m.Kind() == "enum_body_declarations" {
			forEachMember(m, fn)
			continue
		}
		fn(m)
	}
}

// scope resolves simple type names inside one declaration
type scope struct {
	u         *unit
	known     map[string]bool
	enclosing []string
	typeVars  map[string]bool
}

func (s *scope) nest(qualified string) *scope {
	c := *s
	c.enclosing = append(append([]string(nil), s.enclosing...), qualified)
	return &c
}

func (s *scope) withTypeVars(names []string) *scope {
	if len(names) == 0 {
		return s
	}
	c := *s
	c.typeVars = make(map[string]bool, len(s.typeVars)+len(names))
	for k := range s.typeVars {
		c.typeVars[k] = true
	}
	for _, n := range names {
		c.typeVars[n] = true
	}
	return &c
}

// resolve qualifies a possibly dotted type name. Names that cannot be
// resolved are returned as written.
func (s *scope) resolve(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || primitives[name] || s.known[name] {
		return name
	}
	head, rest := name, ""
	if i := strings.Index(name, "."); i >= 0 {
		head, rest = name[:i], name[i:]
	}
	if s.typeVars[head] {
		return name
	}
	for i := len(s.enclosing) - 1; i >= 0; i-- {
		if q := s.enclosing[i] + "." + head; s.known[q] {
			return q + rest
		}
	}
	if q, ok := s.u.imports[head]; ok {
		return q + rest
	}
	if q := qualify(s.u.pkg, head); s.known[q] {
		return q + rest
	}
	for _, w := range s.u.wildcards {
		if q := w + "." + head; s.known[q] {
			return q + rest
		}
	}
	if javaLang[head] {
		return "java.lang." + head + rest
	}
	return name
}

func qualify(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func simpleName(qualified string) string {
	if i := strings.LastIndex(qualified, "."); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}
