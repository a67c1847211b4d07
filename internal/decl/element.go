package decl

// Element is a read-only handle on a node, shaped for template use: every
// accessor navigates the graph and returns further Elements.
type Element struct {
	graph *Graph
	id    NodeID
}

// ElementOf returns a handle on id
func (g *Graph) ElementOf(id NodeID) Element {
	return Element{graph: g, id: id}
}

// ElementsOf returns handles on ids, preserving order. The result is never
// nil so templates can range over it safely.
func (g *Graph) ElementsOf(ids []NodeID) []Element {
	out := make([]Element, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.ElementOf(id))
	}
	return out
}

// ID returns the node ID
func (e Element) ID() NodeID { return e.id }

// Graph returns the graph the element belongs to
func (e Element) Graph() *Graph { return e.graph }

// Valid reports whether the handle points at a node
func (e Element) Valid() bool { return e.graph != nil && e.graph.Node(e.id) != nil }

func (e Element) node() *Node {
	if e.graph == nil {
		return nil
	}
	return e.graph.Node(e.id)
}

// Kind returns the element kind
func (e Element) Kind() Kind {
	if n := e.node(); n != nil {
		return n.Kind
	}
	return 0
}

// SimpleName returns the simple name
func (e Element) SimpleName() string {
	if n := e.node(); n != nil {
		return n.Name
	}
	return ""
}

// QualifiedName returns the qualified name for packages and types and the
// simple name otherwise
func (e Element) QualifiedName() string {
	if n := e.node(); n != nil {
		return n.QualifiedName()
	}
	return ""
}

// Modifiers returns the modifiers in lexical order
func (e Element) Modifiers() []Modifier {
	if n := e.node(); n != nil {
		return n.Modifiers.Sorted()
	}
	return nil
}

// HasModifier reports whether the element carries the named modifier
func (e Element) HasModifier(name string) bool {
	m, err := ParseModifier(name)
	if err != nil {
		return false
	}
	n := e.node()
	return n != nil && n.Modifiers.Has(m)
}

// Annotations returns the annotations present on the element, inherited
// ones included
func (e Element) Annotations() []*Annotation {
	if e.graph == nil {
		return nil
	}
	return e.graph.AllAnnotations(e.id)
}

// Enclosing returns the enclosing element
func (e Element) Enclosing() Element {
	if n := e.node(); n != nil {
		return e.graph.ElementOf(n.Enclosing)
	}
	return Element{}
}

// Enclosed returns the enclosed elements
func (e Element) Enclosed() []Element {
	if n := e.node(); n != nil {
		return e.graph.ElementsOf(n.Enclosed)
	}
	return []Element{}
}

// Package returns the enclosing package
func (e Element) Package() Element {
	if e.graph == nil {
		return Element{}
	}
	return e.graph.ElementOf(e.graph.PackageOf(e.id))
}

// TypeParameters returns the type parameters of a type or executable
func (e Element) TypeParameters() []Element {
	switch s := e.shape().(type) {
	case *TypeShape:
		return e.graph.ElementsOf(s.TypeParameters)
	case *ExecutableShape:
		return e.graph.ElementsOf(s.TypeParameters)
	}
	return []Element{}
}

// Parameters returns the parameters of an executable
func (e Element) Parameters() []Element {
	if s, ok := e.shape().(*ExecutableShape); ok {
		return e.graph.ElementsOf(s.Parameters)
	}
	return []Element{}
}

// Type returns the declared type of a variable, the return type of an
// executable or the superclass of a type, as written
func (e Element) Type() TypeRef {
	switch s := e.shape().(type) {
	case *VariableShape:
		return s.Type
	case *ExecutableShape:
		return s.ReturnType
	case *TypeShape:
		return s.Superclass
	}
	return ""
}

// Interfaces returns the implemented interfaces of a type, as written
func (e Element) Interfaces() []TypeRef {
	if s, ok := e.shape().(*TypeShape); ok {
		return s.Interfaces
	}
	return nil
}

// Thrown returns the thrown types of an executable, as written
func (e Element) Thrown() []TypeRef {
	if s, ok := e.shape().(*ExecutableShape); ok {
		return s.Thrown
	}
	return nil
}

// Bounds returns the bounds of a type parameter, as written
func (e Element) Bounds() []TypeRef {
	if s, ok := e.shape().(*TypeParameterShape); ok {
		return s.Bounds
	}
	return nil
}

// GenericElement returns the declaration a type parameter belongs to
func (e Element) GenericElement() Element {
	if s, ok := e.shape().(*TypeParameterShape); ok {
		return e.graph.ElementOf(s.Owner)
	}
	return Element{}
}

// String returns the diagnostic description of the element
func (e Element) String() string {
	if e.graph == nil {
		return "<none>"
	}
	return e.graph.Describe(e.id)
}

func (e Element) shape() Shape {
	if n := e.node(); n != nil {
		return n.Shape
	}
	return nil
}
