// Package decl models the declaration graph handed to the generator by a
// host: packages, types, executables, variables and type parameters stored
// in an arena and addressed by stable NodeIDs.
//
// The graph is cyclic by nature (a type parameter points back at the
// declaration it parameterizes, which encloses it), so every consumer walks
// it with a visited set keyed by NodeID.
package decl

// NodeID identifies a node within one Graph. The zero value is NoNode.
type NodeID int

// NoNode is the absent node reference
const NoNode NodeID = 0

// TypeRef is a reference to a type by qualified name. References are
// resolved through Graph.Resolve; primitives, arrays and undeclared types
// resolve to nothing.
type TypeRef string

// Node is a single declaration
type Node struct {
	ID          NodeID
	Kind        Kind
	Name        string
	Modifiers   ModifierSet
	Annotations []*Annotation
	Enclosing   NodeID
	Enclosed    []NodeID
	Shape       Shape
}

// Shape carries the kind-specific part of a node. It is one of
// *PackageShape, *TypeShape, *ExecutableShape, *VariableShape or
// *TypeParameterShape.
type Shape interface {
	shape()
}

// PackageShape describes a package
type PackageShape struct {
	QualifiedName string
}

// TypeShape describes a class, interface, enum, record or annotation type
type TypeShape struct {
	QualifiedName  string
	Superclass     TypeRef
	Interfaces     []TypeRef
	TypeParameters []NodeID
}

// ExecutableShape describes a method or constructor
type ExecutableShape struct {
	TypeParameters []NodeID
	ReturnType     TypeRef
	Parameters     []NodeID
	Thrown         []TypeRef
	// Default is the default value of an annotation type element
	Default Value
}

// VariableShape describes a field, parameter or enum constant
type VariableShape struct {
	Type TypeRef
}

// TypeParameterShape describes a type parameter
type TypeParameterShape struct {
	Owner  NodeID
	Bounds []TypeRef
}

func (*PackageShape) shape()       {}
func (*TypeShape) shape()          {}
func (*ExecutableShape) shape()    {}
func (*VariableShape) shape()      {}
func (*TypeParameterShape) shape() {}

// QualifiedName returns the qualified name of a package or type node and
// the simple name otherwise.
func (n *Node) QualifiedName() string {
	switch s := n.Shape.(type) {
	case *PackageShape:
		return s.QualifiedName
	case *TypeShape:
		return s.QualifiedName
	}
	return n.Name
}

// IsVoid reports whether the executable returns nothing
func (s *ExecutableShape) IsVoid() bool {
	return s.ReturnType == "" || s.ReturnType == "void"
}
