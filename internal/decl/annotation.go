package decl

import "strings"

// Value is an annotation element value. It is one of String, Constant,
// List or *Annotation.
type Value interface {
	value()
}

// String is a string literal value
type String string

// Constant is any non-string literal kept as source text: enum constants
// ("ElementKind.CLASS"), numbers, booleans and class literals.
type Constant string

// List is an array value
type List []Value

// Name returns the unqualified constant name ("CLASS" for "ElementKind.CLASS")
func (c Constant) Name() string {
	return lastSegment(string(c))
}

func (String) value()      {}
func (Constant) value()    {}
func (List) value()        {}
func (*Annotation) value() {}

// ElementValue is a single name/value pair of an annotation instance
type ElementValue struct {
	Name  string
	Value Value
}

// Annotation is an annotation instance attached to a declaration
type Annotation struct {
	// Type is the fully qualified name of the annotation type
	Type   string
	Values []ElementValue
}

// Get returns the explicit value of the named element
func (a *Annotation) Get(name string) (Value, bool) {
	for _, ev := range a.Values {
		if ev.Name == name {
			return ev.Value, true
		}
	}
	return nil, false
}

// SimpleName returns the last segment of the annotation type name
func (a *Annotation) SimpleName() string {
	return lastSegment(a.Type)
}

// InNamespace reports whether the annotation type lives in the given
// package namespace (the package itself or any sub-package).
func (a *Annotation) InNamespace(ns string) bool {
	return a.Type == ns || strings.HasPrefix(a.Type, ns+".")
}

// AsList returns v as a list. A single value is treated as a one-element
// list, matching the source shorthand for single-element arrays.
func AsList(v Value) List {
	switch x := v.(type) {
	case nil:
		return nil
	case List:
		return x
	default:
		return List{x}
	}
}

// AsStrings converts v to strings. String values keep their literal text
// and constants keep their source text.
func AsStrings(v Value) []string {
	list := AsList(v)
	out := make([]string, 0, len(list))
	for _, item := range list {
		switch x := item.(type) {
		case String:
			out = append(out, string(x))
		case Constant:
			out = append(out, string(x))
		}
	}
	return out
}
