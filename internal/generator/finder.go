package generator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/conduit-lang/declgen/internal/decl"
	"github.com/conduit-lang/declgen/internal/diag"
	"github.com/conduit-lang/declgen/internal/match"
	"github.com/conduit-lang/declgen/internal/pipeline"
)

var errMalformed = errors.New("malformed rule annotation")

// Finder discovers rules on generator interfaces reachable from the roots
// of a round
type Finder struct {
	log *diag.Logger

	graph   *decl.Graph
	visited map[decl.NodeID]bool
	methods map[decl.NodeID]bool
	rules   []*Rule
}

// NewFinder creates a finder reporting to log
func NewFinder(log *diag.Logger) *Finder {
	if log == nil {
		log = diag.NewLogger(nil, false)
	}
	return &Finder{log: log}
}

// Find returns the valid rules in declaration order. Invalid rules are
// reported and left out.
func (f *Finder) Find(g *decl.Graph, roots []decl.NodeID) []*Rule {
	f.graph = g
	f.visited = make(map[decl.NodeID]bool)
	f.methods = make(map[decl.NodeID]bool)
	f.rules = nil

	for _, root := range roots {
		f.walk(root)
	}

	rules := f.rules
	f.graph, f.visited, f.methods, f.rules = nil, nil, nil, nil
	return rules
}

// walk looks for generator types among packages and types, including
// nested types
func (f *Finder) walk(id decl.NodeID) {
	n := f.graph.Node(id)
	if n == nil || f.visited[id] {
		return
	}
	f.visited[id] = true

	switch n.Shape.(type) {
	case *decl.PackageShape:
	case *decl.TypeShape:
		if annotation(n, GeneratorAnnotation) != nil {
			f.generator(n)
		}
	default:
		return
	}

	for _, child := range n.Enclosed {
		f.walk(child)
	}
}

func (f *Finder) generator(n *decl.Node) {
	element := f.graph.Describe(n.ID)
	f.log.Report(diag.NewInfo(element, "Found generator "+element))

	if n.Kind != decl.KindInterface {
		f.log.Report(diag.NewNotInterface(element, "Generator", n.Kind.String()))
		return
	}
	f.scanMethods(n)
}

// scanMethods collects rules from a generator interface and the types
// nested in it
func (f *Finder) scanMethods(n *decl.Node) {
	for _, child := range n.Enclosed {
		c := f.graph.Node(child)
		if c == nil {
			continue
		}
		switch {
		case c.Kind == decl.KindMethod:
			if f.methods[c.ID] {
				continue
			}
			f.methods[c.ID] = true
			if rule := f.decode(c); rule != nil {
				f.rules = append(f.rules, rule)
			}
		case c.Kind.IsType():
			f.scanMethods(c)
		}
	}
}

func (f *Finder) decode(n *decl.Node) *Rule {
	produces := annotation(n, ProducesAnnotation)
	if produces == nil {
		return nil
	}
	element := f.graph.Describe(n.ID)
	f.log.Report(diag.NewInfo(element, "Found generator method "+n.Name))

	group := annotation(n, ForAllElementsAnnotation)
	loop := annotation(n, ForEachElementAnnotation)

	var rule *Rule
	if group != nil && loop != nil {
		f.log.Report(diag.NewAmbiguousCardinality(element, "ForAllElements", "ForEachElement"))
	} else {
		rule = f.build(n, element, produces, group, loop)
	}

	if irrelevantSignature(n) {
		f.log.Report(diag.NewIrrelevantSignature(element))
	}
	return rule
}

func (f *Finder) build(n *decl.Node, element string, produces, group, loop *decl.Annotation) *Rule {
	rule := &Rule{
		Method:      n.ID,
		Element:     element,
		Area:        pipeline.SourceOutput,
		Cardinality: CardinalityNone,
	}

	var err error
	values := f.values(produces)
	if rule.Output, err = requiredString(values, "output"); err != nil {
		f.log.Report(diag.NewMalformedRule(element, err.Error()))
		return nil
	}
	if rule.Template, err = requiredString(values, "template"); err != nil {
		f.log.Report(diag.NewMalformedRule(element, err.Error()))
		return nil
	}
	if v, ok := values["outputRootLocation"]; ok {
		name, ok := scalar(v)
		if !ok {
			f.log.Report(diag.NewMalformedRule(element, "outputRootLocation must be a location constant"))
			return nil
		}
		if rule.Area, err = pipeline.ParseArea(name); err != nil {
			f.log.Report(diag.NewMalformedRule(element, err.Error()))
			return nil
		}
	}

	switch {
	case group != nil:
		rule.Cardinality = CardinalityGroup
		rule.Group, err = f.criteriaList(f.values(group)["value"])
	case loop != nil:
		rule.Cardinality = CardinalityLoop
		values := f.values(loop)
		var primary []*match.Criteria
		if primary, err = f.criteriaList(values["value"]); err == nil {
			if len(primary) != 1 {
				err = fmt.Errorf("%w: ForEachElement requires exactly one Where, found %d", errMalformed, len(primary))
			} else {
				rule.Primary = primary[0]
				rule.Extras, err = f.criteriaList(values["matchExtraElements"])
			}
		}
	}

	if err != nil {
		if errors.Is(err, match.ErrInvalidCriteria) {
			f.log.Report(diag.NewInvalidCriteria(element, err))
		} else {
			f.log.Report(diag.NewMalformedRule(element, err.Error()))
		}
		return nil
	}
	return rule
}

func (f *Finder) values(a *decl.Annotation) map[string]decl.Value {
	out := make(map[string]decl.Value)
	for _, ev := range f.graph.ValuesWithDefaults(a) {
		out[ev.Name] = ev.Value
	}
	return out
}

func (f *Finder) criteriaList(v decl.Value) ([]*match.Criteria, error) {
	var out []*match.Criteria
	for _, item := range decl.AsList(v) {
		where, ok := item.(*decl.Annotation)
		if !ok || (where.Type != WhereAnnotation && where.SimpleName() != "Where") {
			return nil, fmt.Errorf("%w: expected @Where", errMalformed)
		}
		c, err := f.criteria(where)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// criteria decodes one @Where annotation
func (f *Finder) criteria(where *decl.Annotation) (*match.Criteria, error) {
	c := match.NewCriteria()
	values := f.values(where)

	if v, ok := values["matchResultVariable"]; ok {
		if s, ok := scalar(v); ok && s != "" {
			c.Binding = s
		}
	}
	for _, s := range decl.AsStrings(values["kind"]) {
		k, err := decl.ParseKind(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errMalformed, err)
		}
		c.Kinds = append(c.Kinds, k)
	}
	for _, s := range decl.AsStrings(values["modifiers"]) {
		m, err := decl.ParseModifier(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errMalformed, err)
		}
		c.Modifiers = append(c.Modifiers, m)
	}
	if v, ok := values["simpleNameMatches"]; ok {
		c.SimpleNameMatches, _ = scalar(v)
	}
	for _, s := range decl.AsStrings(values["annotations"]) {
		c.Annotations = append(c.Annotations, strings.TrimSuffix(s, ".class"))
	}
	if v, ok := values["metaData"]; ok {
		c.MetaData, _ = scalar(v)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func annotation(n *decl.Node, typ string) *decl.Annotation {
	for _, a := range n.Annotations {
		if a.Type == typ {
			return a
		}
	}
	return nil
}

func irrelevantSignature(n *decl.Node) bool {
	s, ok := n.Shape.(*decl.ExecutableShape)
	if !ok {
		return false
	}
	return !s.IsVoid() || len(s.Parameters) > 0 || len(s.Thrown) > 0 || len(s.TypeParameters) > 0
}

func requiredString(values map[string]decl.Value, name string) (string, error) {
	v, ok := values[name]
	if !ok {
		return "", fmt.Errorf("%w: missing %s", errMalformed, name)
	}
	s, ok := v.(decl.String)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: %s must be a non-empty string", errMalformed, name)
	}
	return string(s), nil
}

// scalar returns the text of a string or constant, unwrapping one-element
// lists
func scalar(v decl.Value) (string, bool) {
	if l, ok := v.(decl.List); ok && len(l) == 1 {
		v = l[0]
	}
	switch x := v.(type) {
	case decl.String:
		return string(x), true
	case decl.Constant:
		return string(x), true
	}
	return "", false
}
