package decl

// Builder assembles a Graph. Hosts use it while translating their own
// symbol tables; tests use it to describe small graphs inline.
type Builder struct {
	g       *Graph
	roots   []NodeID
	unnamed NodeID
}

// NewBuilder creates a builder over an empty graph
func NewBuilder() *Builder {
	return &Builder{g: NewGraph()}
}

// Graph returns the graph under construction
func (b *Builder) Graph() *Graph {
	return b.g
}

// Roots returns the nodes marked as roots, in marking order
func (b *Builder) Roots() []NodeID {
	return append([]NodeID(nil), b.roots...)
}

// Root marks id as a root of the round
func (b *Builder) Root(id NodeID) NodeID {
	b.roots = append(b.roots, id)
	return id
}

// Package declares a package. Declaring an existing package returns it.
func (b *Builder) Package(qualifiedName string) NodeID {
	if qualifiedName == "" && b.unnamed != NoNode {
		return b.unnamed
	}
	if id, ok := b.g.Lookup(qualifiedName); ok && b.g.Node(id).Kind == KindPackage {
		return id
	}
	id := b.g.Add(&Node{
		Kind:  KindPackage,
		Name:  lastSegment(qualifiedName),
		Shape: &PackageShape{QualifiedName: qualifiedName},
	})
	if qualifiedName == "" {
		b.unnamed = id
	}
	return id
}

// Type declares a type enclosed by parent (a package or another type)
func (b *Builder) Type(parent NodeID, kind Kind, name string) NodeID {
	qualified := name
	if p := b.g.Node(parent); p != nil && p.QualifiedName() != "" {
		qualified = p.QualifiedName() + "." + name
	}
	id := b.g.Add(&Node{
		Kind:  kind,
		Name:  name,
		Shape: &TypeShape{QualifiedName: qualified},
	})
	b.g.Enclose(parent, id)
	return id
}

// Method declares a method enclosed by parent
func (b *Builder) Method(parent NodeID, name string) NodeID {
	id := b.g.Add(&Node{
		Kind:  KindMethod,
		Name:  name,
		Shape: &ExecutableShape{ReturnType: "void"},
	})
	b.g.Enclose(parent, id)
	return id
}

// Constructor declares a constructor enclosed by parent
func (b *Builder) Constructor(parent NodeID) NodeID {
	id := b.g.Add(&Node{
		Kind:  KindConstructor,
		Name:  "<init>",
		Shape: &ExecutableShape{ReturnType: "void"},
	})
	b.g.Enclose(parent, id)
	return id
}

// Field declares a field enclosed by parent
func (b *Builder) Field(parent NodeID, name string, typ TypeRef) NodeID {
	id := b.g.Add(&Node{
		Kind:  KindField,
		Name:  name,
		Shape: &VariableShape{Type: typ},
	})
	b.g.Enclose(parent, id)
	return id
}

// EnumConstant declares an enum constant enclosed by parent
func (b *Builder) EnumConstant(parent NodeID, name string) NodeID {
	typ := TypeRef("")
	if p := b.g.Node(parent); p != nil {
		typ = TypeRef(p.QualifiedName())
	}
	id := b.g.Add(&Node{
		Kind:  KindEnumConstant,
		Name:  name,
		Shape: &VariableShape{Type: typ},
	})
	b.g.Enclose(parent, id)
	return id
}

// Param declares a parameter of an executable. Parameters point at their
// executable but are not among its enclosed nodes.
func (b *Builder) Param(exec NodeID, name string, typ TypeRef) NodeID {
	id := b.g.Add(&Node{
		Kind:      KindParameter,
		Name:      name,
		Enclosing: exec,
		Shape:     &VariableShape{Type: typ},
	})
	if s, ok := b.executable(exec); ok {
		s.Parameters = append(s.Parameters, id)
	}
	return id
}

// TypeParam declares a type parameter of a type or executable. Like
// parameters, type parameters point at their owner without being enclosed.
func (b *Builder) TypeParam(owner NodeID, name string, bounds ...TypeRef) NodeID {
	id := b.g.Add(&Node{
		Kind:      KindTypeParameter,
		Name:      name,
		Enclosing: owner,
		Shape:     &TypeParameterShape{Owner: owner, Bounds: bounds},
	})
	switch s := b.shape(owner).(type) {
	case *TypeShape:
		s.TypeParameters = append(s.TypeParameters, id)
	case *ExecutableShape:
		s.TypeParameters = append(s.TypeParameters, id)
	}
	return id
}

// Modify adds modifiers to id
func (b *Builder) Modify(id NodeID, mods ...Modifier) NodeID {
	if n := b.g.Node(id); n != nil {
		for _, m := range mods {
			n.Modifiers[m] = struct{}{}
		}
	}
	return id
}

// Annotate appends annotation instances to id
func (b *Builder) Annotate(id NodeID, anns ...*Annotation) NodeID {
	if n := b.g.Node(id); n != nil {
		n.Annotations = append(n.Annotations, anns...)
	}
	return id
}

// Extends sets the superclass of a type
func (b *Builder) Extends(typ NodeID, super TypeRef) NodeID {
	if s, ok := b.shape(typ).(*TypeShape); ok {
		s.Superclass = super
	}
	return typ
}

// Implements appends implemented interfaces to a type
func (b *Builder) Implements(typ NodeID, ifaces ...TypeRef) NodeID {
	if s, ok := b.shape(typ).(*TypeShape); ok {
		s.Interfaces = append(s.Interfaces, ifaces...)
	}
	return typ
}

// Returns sets the return type of an executable
func (b *Builder) Returns(exec NodeID, typ TypeRef) NodeID {
	if s, ok := b.executable(exec); ok {
		s.ReturnType = typ
	}
	return exec
}

// Throws appends thrown types to an executable
func (b *Builder) Throws(exec NodeID, types ...TypeRef) NodeID {
	if s, ok := b.executable(exec); ok {
		s.Thrown = append(s.Thrown, types...)
	}
	return exec
}

// Default sets the default value of an annotation type element
func (b *Builder) Default(exec NodeID, v Value) NodeID {
	if s, ok := b.executable(exec); ok {
		s.Default = v
	}
	return exec
}

func (b *Builder) shape(id NodeID) Shape {
	if n := b.g.Node(id); n != nil {
		return n.Shape
	}
	return nil
}

func (b *Builder) executable(id NodeID) (*ExecutableShape, bool) {
	s, ok := b.shape(id).(*ExecutableShape)
	return s, ok
}

// NewAnnotation creates an annotation instance
func NewAnnotation(typ string, values ...ElementValue) *Annotation {
	return &Annotation{Type: typ, Values: values}
}

// Pair creates an element value pair
func Pair(name string, v Value) ElementValue {
	return ElementValue{Name: name, Value: v}
}

// Strings creates a list of string values
func Strings(values ...string) List {
	list := make(List, 0, len(values))
	for _, v := range values {
		list = append(list, String(v))
	}
	return list
}

// Constants creates a list of constant values
func Constants(values ...string) List {
	list := make(List, 0, len(values))
	for _, v := range values {
		list = append(list, Constant(v))
	}
	return list
}
