package generator

import (
	"github.com/conduit-lang/declgen/internal/decl"
	"github.com/conduit-lang/declgen/internal/match"
	"github.com/conduit-lang/declgen/internal/pipeline"
)

// Names of the bindings available to every template
const (
	GoodiesBinding = "goodies"
	FilterBinding  = "filter"
	KindsBinding   = "kinds"
)

// Goodies offers element helpers to templates
type Goodies struct {
	metadata *match.MetadataResolver
}

// PackageOf returns the package enclosing e
func (g Goodies) PackageOf(e decl.Element) decl.Element {
	return e.Package()
}

// HasAnnotation reports whether e carries the annotation type, directly or
// inherited
func (g Goodies) HasAnnotation(e decl.Element, annotationType string) bool {
	return pipeline.HasAnnotation(e, annotationType)
}

// AnnotationNames returns the qualified annotation type names present on e
func (g Goodies) AnnotationNames(e decl.Element) []string {
	anns := e.Annotations()
	names := make([]string, 0, len(anns))
	for _, a := range anns {
		names = append(names, a.Type)
	}
	return names
}

// MetadataOf returns the metadata of e, or nil
func (g Goodies) MetadataOf(e decl.Element) *match.Metadata {
	if g.metadata == nil || !e.Valid() {
		return nil
	}
	md, _ := g.metadata.Resolve(e.ID())
	return md
}

// Filter selects elements by kind
type Filter struct{}

// MethodsIn returns the methods among elements
func (Filter) MethodsIn(elements []decl.Element) []decl.Element {
	return byKind(elements, func(k decl.Kind) bool { return k == decl.KindMethod })
}

// ConstructorsIn returns the constructors among elements
func (Filter) ConstructorsIn(elements []decl.Element) []decl.Element {
	return byKind(elements, func(k decl.Kind) bool { return k == decl.KindConstructor })
}

// FieldsIn returns the fields and enum constants among elements
func (Filter) FieldsIn(elements []decl.Element) []decl.Element {
	return byKind(elements, func(k decl.Kind) bool { return k == decl.KindField || k == decl.KindEnumConstant })
}

// TypesIn returns the types among elements
func (Filter) TypesIn(elements []decl.Element) []decl.Element {
	return byKind(elements, decl.Kind.IsType)
}

// PackagesIn returns the packages among elements
func (Filter) PackagesIn(elements []decl.Element) []decl.Element {
	return byKind(elements, func(k decl.Kind) bool { return k == decl.KindPackage })
}

func byKind(elements []decl.Element, keep func(decl.Kind) bool) []decl.Element {
	out := []decl.Element{}
	for _, e := range elements {
		if keep(e.Kind()) {
			out = append(out, e)
		}
	}
	return out
}

// Ambient returns the bindings shared by every rendering of a round
func Ambient(resolver *match.MetadataResolver) map[string]interface{} {
	kinds := make(map[string]decl.Kind)
	for _, k := range decl.Kinds() {
		kinds[k.String()] = k
	}
	return map[string]interface{}{
		GoodiesBinding: Goodies{metadata: resolver},
		FilterBinding:  Filter{},
		KindsBinding:   kinds,
	}
}
