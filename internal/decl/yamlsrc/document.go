package yamlsrc

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/declgen/internal/decl"
)

// ConstTag marks a scalar as a constant (enum constant, class literal)
// rather than a string: `kind: !const ElementKind.CLASS`
const ConstTag = "!const"

// Document is one YAML graph document
type Document struct {
	Packages []PackageDoc `yaml:"packages"`
}

// PackageDoc declares a package and its top-level types
type PackageDoc struct {
	Name        string          `yaml:"name"`
	Annotations []AnnotationDoc `yaml:"annotations"`
	Types       []TypeDoc       `yaml:"types"`
	// Root defaults to true; library packages set it to false so they are
	// resolvable without being scanned from
	Root *bool `yaml:"root"`
}

// TypeDoc declares a type with its members
type TypeDoc struct {
	Name           string             `yaml:"name"`
	Kind           string             `yaml:"kind"`
	Modifiers      []string           `yaml:"modifiers"`
	Annotations    []AnnotationDoc    `yaml:"annotations"`
	Extends        string             `yaml:"extends"`
	Implements     []string           `yaml:"implements"`
	TypeParameters []TypeParameterDoc `yaml:"typeParameters"`
	Fields         []VariableDoc      `yaml:"fields"`
	EnumConstants  []VariableDoc      `yaml:"enumConstants"`
	Constructors   []MethodDoc        `yaml:"constructors"`
	Methods        []MethodDoc        `yaml:"methods"`
	Types          []TypeDoc          `yaml:"types"`
}

// MethodDoc declares a method or constructor
type MethodDoc struct {
	Name           string             `yaml:"name"`
	Modifiers      []string           `yaml:"modifiers"`
	Annotations    []AnnotationDoc    `yaml:"annotations"`
	Returns        string             `yaml:"returns"`
	Parameters     []VariableDoc      `yaml:"parameters"`
	Throws         []string           `yaml:"throws"`
	TypeParameters []TypeParameterDoc `yaml:"typeParameters"`
	// Default is the default value of an annotation type element
	Default *ValueDoc `yaml:"default"`
}

// VariableDoc declares a field, enum constant or parameter
type VariableDoc struct {
	Name        string          `yaml:"name"`
	Type        string          `yaml:"type"`
	Modifiers   []string        `yaml:"modifiers"`
	Annotations []AnnotationDoc `yaml:"annotations"`
}

// TypeParameterDoc declares a type parameter
type TypeParameterDoc struct {
	Name   string   `yaml:"name"`
	Bounds []string `yaml:"bounds"`
}

// AnnotationDoc is an annotation instance. Values keep their document
// order.
type AnnotationDoc struct {
	Type   string
	Values []decl.ElementValue
}

var _ yaml.Unmarshaler = (*AnnotationDoc)(nil)

// UnmarshalYAML accepts either a bare type name or a mapping with "type"
// and an optional "values" mapping
func (a *AnnotationDoc) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		a.Type = node.Value
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: annotation must be a type name or a mapping", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "type":
			a.Type = value.Value
		case "values":
			if value.Kind != yaml.MappingNode {
				return fmt.Errorf("line %d: annotation values must be a mapping", value.Line)
			}
			for j := 0; j+1 < len(value.Content); j += 2 {
				v, err := decodeValue(value.Content[j+1])
				if err != nil {
					return err
				}
				a.Values = append(a.Values, decl.ElementValue{Name: value.Content[j].Value, Value: v})
			}
		default:
			return fmt.Errorf("line %d: unknown annotation field %q", key.Line, key.Value)
		}
	}
	if a.Type == "" {
		return fmt.Errorf("line %d: annotation without type", node.Line)
	}
	return nil
}

// Annotation converts the document form into a graph annotation
func (a AnnotationDoc) Annotation() *decl.Annotation {
	return decl.NewAnnotation(a.Type, a.Values...)
}

// ValueDoc is an annotation element value
type ValueDoc struct {
	Value decl.Value
}

var _ yaml.Unmarshaler = (*ValueDoc)(nil)

// UnmarshalYAML decodes any annotation value form
func (v *ValueDoc) UnmarshalYAML(node *yaml.Node) error {
	val, err := decodeValue(node)
	if err != nil {
		return err
	}
	v.Value = val
	return nil
}

// decodeValue maps YAML onto annotation values: strings stay strings,
// other scalars and !const scalars become constants, sequences become lists
// and mappings with a "type" key become nested annotations
func decodeValue(node *yaml.Node) (decl.Value, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() != "!!str" {
			return decl.Constant(node.Value), nil
		}
		return decl.String(node.Value), nil

	case yaml.SequenceNode:
		list := make(decl.List, 0, len(node.Content))
		for _, item := range node.Content {
			v, err := decodeValue(item)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil

	case yaml.MappingNode:
		var a AnnotationDoc
		if err := a.UnmarshalYAML(node); err != nil {
			return nil, err
		}
		return a.Annotation(), nil

	case yaml.AliasNode:
		return decodeValue(node.Alias)
	}
	return nil, fmt.Errorf("line %d: unsupported annotation value", node.Line)
}
