package decl

import (
	"context"
	"strings"
)

// InheritedAnnotation marks annotation types whose instances on a class are
// inherited by its subclasses
const InheritedAnnotation = "java.lang.annotation.Inherited"

// Source supplies a declaration graph and its root nodes for one round
type Source interface {
	Load(ctx context.Context) (*Graph, []NodeID, error)
}

// Graph is an arena of declaration nodes. Node identity is stable for the
// lifetime of the graph, which makes NodeID usable as a visited-set key.
type Graph struct {
	nodes  []*Node
	byName map[string]NodeID
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{
		// slot 0 is reserved for NoNode
		nodes:  []*Node{nil},
		byName: make(map[string]NodeID),
	}
}

// Add stores n in the arena, assigns its ID and indexes packages and types
// by qualified name. The first declaration of a qualified name wins.
func (g *Graph) Add(n *Node) NodeID {
	n.ID = NodeID(len(g.nodes))
	if n.Modifiers == nil {
		n.Modifiers = NewModifierSet()
	}
	g.nodes = append(g.nodes, n)

	switch s := n.Shape.(type) {
	case *PackageShape:
		g.index(s.QualifiedName, n.ID)
	case *TypeShape:
		g.index(s.QualifiedName, n.ID)
	}
	return n.ID
}

func (g *Graph) index(name string, id NodeID) {
	if name == "" {
		return
	}
	if _, exists := g.byName[name]; !exists {
		g.byName[name] = id
	}
}

// Enclose records child as the last enclosed node of parent
func (g *Graph) Enclose(parent, child NodeID) {
	p, c := g.Node(parent), g.Node(child)
	if p == nil || c == nil {
		return
	}
	c.Enclosing = parent
	p.Enclosed = append(p.Enclosed, child)
}

// Node returns the node with the given ID, or nil
func (g *Graph) Node(id NodeID) *Node {
	if id <= NoNode || int(id) >= len(g.nodes) {
		return nil
	}
	return g.nodes[id]
}

// Len returns the number of arena slots, including the reserved NoNode slot
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Lookup finds a package or type by qualified name
func (g *Graph) Lookup(qualifiedName string) (NodeID, bool) {
	id, ok := g.byName[qualifiedName]
	return id, ok
}

// Resolve resolves a type reference to its declaration. Type arguments are
// ignored; arrays, primitives and undeclared types do not resolve.
func (g *Graph) Resolve(ref TypeRef) (NodeID, bool) {
	name := strings.TrimSpace(string(ref))
	if name == "" || strings.HasSuffix(name, "]") || strings.HasSuffix(name, "...") {
		return NoNode, false
	}
	if i := strings.Index(name, "<"); i >= 0 {
		name = name[:i]
	}
	return g.Lookup(name)
}

// PackageOf returns the package enclosing id (id itself for packages)
func (g *Graph) PackageOf(id NodeID) NodeID {
	seen := make(map[NodeID]bool)
	for n := g.Node(id); n != nil; n = g.Node(n.Enclosing) {
		if n.Kind == KindPackage {
			return n.ID
		}
		if seen[n.ID] {
			break
		}
		seen[n.ID] = true
	}
	return NoNode
}

// PackageName returns the qualified name of the package enclosing id, or
// "" for the unnamed package
func (g *Graph) PackageName(id NodeID) string {
	if pkg := g.Node(g.PackageOf(id)); pkg != nil {
		return pkg.QualifiedName()
	}
	return ""
}

// AllAnnotations returns the annotations present on id: its own, followed
// by inheritable annotations of its superclass chain that it does not
// already carry. Only classes inherit annotations.
func (g *Graph) AllAnnotations(id NodeID) []*Annotation {
	n := g.Node(id)
	if n == nil {
		return nil
	}
	out := append([]*Annotation(nil), n.Annotations...)
	if n.Kind != KindClass {
		return out
	}

	present := make(map[string]bool, len(out))
	for _, a := range out {
		present[a.Type] = true
	}

	visited := map[NodeID]bool{id: true}
	for super := superclassOf(n); super != ""; {
		sid, ok := g.Resolve(super)
		if !ok || visited[sid] {
			break
		}
		visited[sid] = true

		s := g.Node(sid)
		for _, a := range s.Annotations {
			if present[a.Type] || !g.isInherited(a.Type) {
				continue
			}
			present[a.Type] = true
			out = append(out, a)
		}
		super = superclassOf(s)
	}
	return out
}

func superclassOf(n *Node) TypeRef {
	if ts, ok := n.Shape.(*TypeShape); ok {
		return ts.Superclass
	}
	return ""
}

func (g *Graph) isInherited(annotationType string) bool {
	id, ok := g.Lookup(annotationType)
	if !ok {
		return false
	}
	for _, a := range g.Node(id).Annotations {
		if a.Type == InheritedAnnotation {
			return true
		}
	}
	return false
}

// ValuesWithDefaults returns the element values of a, completed with the
// defaults declared on its annotation type. Elements come in the annotation
// type's declaration order, followed by explicit values that the type does
// not declare (or all explicit values when the type is not in the graph).
func (g *Graph) ValuesWithDefaults(a *Annotation) []ElementValue {
	var out []ElementValue
	declared := make(map[string]bool)

	if typeID, ok := g.Lookup(a.Type); ok {
		for _, eid := range g.Node(typeID).Enclosed {
			e := g.Node(eid)
			if e == nil || e.Kind != KindMethod {
				continue
			}
			declared[e.Name] = true
			if v, ok := a.Get(e.Name); ok {
				out = append(out, ElementValue{Name: e.Name, Value: v})
				continue
			}
			if es, ok := e.Shape.(*ExecutableShape); ok && es.Default != nil {
				out = append(out, ElementValue{Name: e.Name, Value: es.Default})
			}
		}
	}

	for _, ev := range a.Values {
		if !declared[ev.Name] {
			out = append(out, ev)
		}
	}
	return out
}

// Describe returns a human-readable reference to id for diagnostics, such
// as "com.example.Foo#bar".
func (g *Graph) Describe(id NodeID) string {
	n := g.Node(id)
	if n == nil {
		return "<none>"
	}
	switch n.Shape.(type) {
	case *PackageShape, *TypeShape:
		return n.QualifiedName()
	}
	if parent := g.Node(n.Enclosing); parent != nil {
		sep := "#"
		if n.Kind == KindTypeParameter || n.Kind == KindParameter {
			sep = ":"
		}
		return g.Describe(parent.ID) + sep + n.Name
	}
	return n.Name
}
