package match

import (
	"strings"

	"github.com/conduit-lang/declgen/internal/decl"
)

// MetaDataAnnotation is the qualified name of the metadata annotation type
const MetaDataAnnotation = "declgen.api.MetaData"

// BuiltinAnnotationNamespace holds the host's annotation-definition
// annotations (Retention, Target, ...). They are never searched for nested
// metadata.
const BuiltinAnnotationNamespace = "java.lang.annotation"

// Properties maps property names to optional values. A nil value means the
// property was declared without "=", which is distinct from an empty value.
type Properties map[string]*string

// Metadata is a decoded metadata annotation
type Metadata struct {
	Kind       string
	Properties Properties
	// Target holds the string-valued elements of the annotation that carried
	// the metadata annotation. It is nil when the metadata annotation was
	// present directly.
	Target map[string]string
}

// ParseProperty splits "name=value" on the first "=". Without "=" the
// value is nil.
func ParseProperty(expr string) (string, *string) {
	name, value, found := strings.Cut(expr, "=")
	if !found {
		return name, nil
	}
	return name, &value
}

// MetadataResolver finds the metadata annotation of a node, either directly
// present or nested as a meta-annotation of one of its annotations. A
// resolver caches its answers and belongs to a single round.
type MetadataResolver struct {
	graph          *decl.Graph
	annotationType string
	builtin        []string
	cache          map[decl.NodeID]*Metadata
}

// ResolverOption configures a MetadataResolver
type ResolverOption func(*MetadataResolver)

// WithMetadataAnnotation overrides the metadata annotation type name
func WithMetadataAnnotation(name string) ResolverOption {
	return func(r *MetadataResolver) {
		r.annotationType = name
	}
}

// WithBuiltinNamespaces replaces the annotation namespaces skipped while
// searching nested annotations
func WithBuiltinNamespaces(namespaces ...string) ResolverOption {
	return func(r *MetadataResolver) {
		r.builtin = namespaces
	}
}

// NewMetadataResolver creates a resolver over g
func NewMetadataResolver(g *decl.Graph, opts ...ResolverOption) *MetadataResolver {
	r := &MetadataResolver{
		graph:          g,
		annotationType: MetaDataAnnotation,
		builtin:        []string{BuiltinAnnotationNamespace},
		cache:          make(map[decl.NodeID]*Metadata),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the metadata of id. Annotations are searched in host
// order and the first metadata found wins.
func (r *MetadataResolver) Resolve(id decl.NodeID) (*Metadata, bool) {
	if md, ok := r.cache[id]; ok {
		return md, md != nil
	}
	md := r.find(id, map[decl.NodeID]bool{})
	r.cache[id] = md
	return md, md != nil
}

// find searches id's annotations. visiting holds annotation types already
// searched during this lookup; it stops self- and mutually-annotated
// annotation types from recursing forever.
func (r *MetadataResolver) find(id decl.NodeID, visiting map[decl.NodeID]bool) *Metadata {
	for _, a := range r.graph.AllAnnotations(id) {
		if a.Type == r.annotationType {
			return r.decode(a)
		}
		if r.isBuiltin(a) {
			continue
		}

		typeID, ok := r.graph.Lookup(a.Type)
		if !ok || visiting[typeID] {
			continue
		}
		visiting[typeID] = true

		if nested := r.find(typeID, visiting); nested != nil {
			// only the immediate carrier's fields are kept
			return &Metadata{
				Kind:       nested.Kind,
				Properties: nested.Properties,
				Target:     r.stringFields(a),
			}
		}
	}
	return nil
}

func (r *MetadataResolver) isBuiltin(a *decl.Annotation) bool {
	for _, ns := range r.builtin {
		if a.InNamespace(ns) {
			return true
		}
	}
	return false
}

func (r *MetadataResolver) decode(a *decl.Annotation) *Metadata {
	md := &Metadata{Properties: Properties{}}
	for _, ev := range r.graph.ValuesWithDefaults(a) {
		switch ev.Name {
		case "kind":
			if s, ok := ev.Value.(decl.String); ok {
				md.Kind = string(s)
			}
		case "properties":
			for _, p := range decl.AsStrings(ev.Value) {
				name, value := ParseProperty(p)
				md.Properties[name] = value
			}
		}
	}
	return md
}

func (r *MetadataResolver) stringFields(a *decl.Annotation) map[string]string {
	fields := make(map[string]string)
	for _, ev := range r.graph.ValuesWithDefaults(a) {
		if s, ok := ev.Value.(decl.String); ok {
			fields[ev.Name] = string(s)
		}
	}
	return fields
}
