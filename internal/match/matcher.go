package match

import (
	"regexp"

	"github.com/conduit-lang/declgen/internal/decl"
)

// Matcher evaluates single nodes against criteria. Compiled patterns and
// parsed expressions are cached, so a Matcher should live for one round.
type Matcher struct {
	graph    *decl.Graph
	metadata *MetadataResolver
	patterns map[string]*regexp.Regexp
	exprs    map[string]*Expr
}

// NewMatcher creates a matcher over g. Metadata filters are answered by
// resolver; a nil resolver gets a default one.
func NewMatcher(g *decl.Graph, resolver *MetadataResolver) *Matcher {
	if resolver == nil {
		resolver = NewMetadataResolver(g)
	}
	return &Matcher{
		graph:    g,
		metadata: resolver,
		patterns: make(map[string]*regexp.Regexp),
		exprs:    make(map[string]*Expr),
	}
}

// Matches reports whether node id satisfies every filter of c. Filters run
// cheapest first and stop at the first failure.
func (m *Matcher) Matches(id decl.NodeID, c *Criteria) bool {
	n := m.graph.Node(id)
	if n == nil {
		return false
	}

	if len(c.Kinds) > 0 && !containsKind(c.Kinds, n.Kind) {
		return false
	}

	if len(c.Modifiers) > 0 && !n.Modifiers.ContainsAll(c.Modifiers) {
		return false
	}

	if restricted(c.SimpleNameMatches) {
		re := m.pattern(c.SimpleNameMatches)
		if re == nil || !re.MatchString(n.Name) {
			return false
		}
	}

	if len(c.Annotations) > 0 && !m.hasAnnotations(id, c.Annotations) {
		return false
	}

	if restricted(c.MetaData) {
		md, ok := m.metadata.Resolve(id)
		if !ok || !m.expr(c.MetaData).Matches(md) {
			return false
		}
	}

	return true
}

func containsKind(kinds []decl.Kind, k decl.Kind) bool {
	for _, kind := range kinds {
		if kind == k {
			return true
		}
	}
	return false
}

func (m *Matcher) hasAnnotations(id decl.NodeID, required []string) bool {
	present := make(map[string]bool)
	for _, a := range m.graph.AllAnnotations(id) {
		present[a.Type] = true
	}
	for _, name := range required {
		if !present[name] {
			return false
		}
	}
	return true
}

// pattern returns the compiled full-match pattern, or nil when it does not
// compile. Invalid patterns are rejected when rules are discovered, so a
// nil here only fails the single filter.
func (m *Matcher) pattern(p string) *regexp.Regexp {
	if re, ok := m.patterns[p]; ok {
		return re
	}
	re, err := compileFull(p)
	if err != nil {
		re = nil
	}
	m.patterns[p] = re
	return re
}

func (m *Matcher) expr(s string) *Expr {
	if e, ok := m.exprs[s]; ok {
		return e
	}
	e := ParseExpr(s)
	m.exprs[s] = e
	return e
}
