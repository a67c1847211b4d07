// Package generator discovers generation rules declared on generator
// interfaces and executes them against the match index of a round.
package generator

import (
	"fmt"

	"github.com/conduit-lang/declgen/internal/decl"
	"github.com/conduit-lang/declgen/internal/match"
	"github.com/conduit-lang/declgen/internal/pipeline"
)

// Annotation types that declare generation rules
const (
	APINamespace             = "declgen.api"
	GeneratorAnnotation      = APINamespace + ".Generator"
	ProducesAnnotation       = APINamespace + ".Produces"
	ForAllElementsAnnotation = APINamespace + ".ForAllElements"
	ForEachElementAnnotation = APINamespace + ".ForEachElement"
	WhereAnnotation          = APINamespace + ".Where"
)

// Output path placeholders substituted for every loop match
const (
	ElementSimpleNameVar  = "{elementSimpleName}"
	PackageElementPathVar = "{packageElementPath}"
)

// Cardinality decides how many renderings a rule produces
type Cardinality int

const (
	// CardinalityNone renders once without match bindings
	CardinalityNone Cardinality = iota
	// CardinalityGroup renders once with every result set bound
	CardinalityGroup
	// CardinalityLoop renders once per primary match
	CardinalityLoop
)

func (c Cardinality) String() string {
	switch c {
	case CardinalityNone:
		return "none"
	case CardinalityGroup:
		return "group"
	case CardinalityLoop:
		return "loop"
	default:
		return "unknown"
	}
}

// Rule is one generation rule, declared by a method of a generator
// interface. Rules are discovered anew every round.
type Rule struct {
	// Method is the declaring method
	Method decl.NodeID
	// Element describes Method for diagnostics
	Element string

	// Output is the output path, relative to Area. Loop rules may use
	// ElementSimpleNameVar and PackageElementPathVar.
	Output   string
	Template string
	Area     pipeline.Area

	Cardinality Cardinality
	// Group holds the criteria of a group rule
	Group []*match.Criteria
	// Primary and Extras hold the criteria of a loop rule
	Primary *match.Criteria
	Extras  []*match.Criteria
}

// Criteria returns every criteria record the rule reads from the index
func (r *Rule) Criteria() []*match.Criteria {
	switch r.Cardinality {
	case CardinalityGroup:
		return append([]*match.Criteria(nil), r.Group...)
	case CardinalityLoop:
		out := make([]*match.Criteria, 0, len(r.Extras)+1)
		out = append(out, r.Primary)
		return append(out, r.Extras...)
	default:
		return nil
	}
}

func (r *Rule) String() string {
	return fmt.Sprintf("%s (%s -> %s:%s)", r.Element, r.Template, r.Area, r.Output)
}
