package match

import (
	"fmt"
	"regexp"

	"github.com/conduit-lang/declgen/internal/decl"
)

// PackageFilter gates scanning by qualified package name. A nil filter
// includes every package.
type PackageFilter struct {
	re *regexp.Regexp
}

// NewPackageFilter compiles a filter that must match the whole package name
func NewPackageFilter(pattern string) (*PackageFilter, error) {
	if pattern == "" {
		pattern = ".*"
	}
	re, err := compileFull(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid package pattern %q: %w", pattern, err)
	}
	return &PackageFilter{re: re}, nil
}

// Includes reports whether the package may be matched and descended into
func (f *PackageFilter) Includes(qualifiedName string) bool {
	return f == nil || f.re.MatchString(qualifiedName)
}

// Index holds the scan results of one round, keyed by criteria Key. It is
// never modified after Scan returns it.
type Index struct {
	graph   *decl.Graph
	buckets map[Key]*bucket
	visited int
}

type bucket struct {
	ids  []decl.NodeID
	seen map[decl.NodeID]struct{}
}

func (ix *Index) add(k Key, id decl.NodeID) {
	b := ix.buckets[k]
	if b == nil {
		b = &bucket{seen: make(map[decl.NodeID]struct{})}
		ix.buckets[k] = b
	}
	if _, ok := b.seen[id]; ok {
		return
	}
	b.seen[id] = struct{}{}
	b.ids = append(b.ids, id)
}

// Lookup returns the nodes matching c in first-visit order. The result is
// a copy and never nil.
func (ix *Index) Lookup(c *Criteria) []decl.NodeID {
	b := ix.buckets[c.Key()]
	if b == nil {
		return []decl.NodeID{}
	}
	return append([]decl.NodeID{}, b.ids...)
}

// Elements returns the nodes matching c as template elements
func (ix *Index) Elements(c *Criteria) []decl.Element {
	return ix.graph.ElementsOf(ix.Lookup(c))
}

// Count returns the number of nodes matching c
func (ix *Index) Count(c *Criteria) int {
	if b := ix.buckets[c.Key()]; b != nil {
		return len(b.ids)
	}
	return 0
}

// Visited returns the number of distinct nodes the scan visited
func (ix *Index) Visited() int {
	return ix.visited
}

// Scanner walks the declaration graph and records, for every criteria
// record, the nodes that satisfy it. One walk answers every record at once.
type Scanner struct {
	graph   *decl.Graph
	filter  *PackageFilter
	matcher *Matcher
	onVisit func(decl.NodeID)

	visited  []bool
	criteria []*Criteria
	keys     []Key
	index    *Index
}

// ScannerOption configures a Scanner
type ScannerOption func(*Scanner)

// WithVisitHook calls fn for every node the scan visits
func WithVisitHook(fn func(decl.NodeID)) ScannerOption {
	return func(s *Scanner) {
		s.onVisit = fn
	}
}

// NewScanner creates a scanner over g
func NewScanner(g *decl.Graph, filter *PackageFilter, matcher *Matcher, opts ...ScannerOption) *Scanner {
	if matcher == nil {
		matcher = NewMatcher(g, nil)
	}
	s := &Scanner{graph: g, filter: filter, matcher: matcher}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan walks the graph depth-first from roots, visiting every reachable
// node at most once, and returns a fresh Index.
func (s *Scanner) Scan(roots []decl.NodeID, criteria []*Criteria) *Index {
	s.visited = make([]bool, s.graph.Len())
	s.criteria = Dedupe(criteria)
	s.keys = make([]Key, len(s.criteria))
	for i, c := range s.criteria {
		s.keys[i] = c.Key()
	}
	s.index = &Index{graph: s.graph, buckets: make(map[Key]*bucket)}

	s.scanAll(roots)

	ix := s.index
	s.index, s.visited, s.criteria, s.keys = nil, nil, nil, nil
	return ix
}

func (s *Scanner) scanAll(ids []decl.NodeID) {
	for _, id := range ids {
		s.scan(id)
	}
}

func (s *Scanner) scanRef(ref decl.TypeRef) {
	if id, ok := s.graph.Resolve(ref); ok {
		s.scan(id)
	}
}

func (s *Scanner) scanRefs(refs []decl.TypeRef) {
	for _, ref := range refs {
		s.scanRef(ref)
	}
}

func (s *Scanner) scan(id decl.NodeID) {
	n := s.graph.Node(id)
	if n == nil || s.visited[id] {
		return
	}
	s.visited[id] = true
	s.index.visited++
	if s.onVisit != nil {
		s.onVisit(id)
	}

	switch shape := n.Shape.(type) {
	case *decl.PackageShape:
		if !s.filter.Includes(shape.QualifiedName) {
			return
		}
		s.match(id)
		s.scanAll(n.Enclosed)

	case *decl.TypeShape:
		if !s.filter.Includes(s.graph.PackageName(id)) {
			return
		}
		s.match(id)
		s.scanRef(shape.Superclass)
		s.scanRefs(shape.Interfaces)
		s.scanAll(shape.TypeParameters)
		s.scanAll(n.Enclosed)

	case *decl.ExecutableShape:
		// executables are only reached through already filtered types
		s.match(id)
		s.scanAll(shape.TypeParameters)
		s.scanRef(shape.ReturnType)
		s.scanAll(shape.Parameters)
		s.scanRefs(shape.Thrown)
		s.scanAll(n.Enclosed)

	case *decl.VariableShape:
		s.match(id)
		s.scanAll(n.Enclosed)

	case *decl.TypeParameterShape:
		s.match(id)
		// the owner contributes matches without being descended again
		s.match(shape.Owner)
		s.scanRefs(shape.Bounds)
		s.scanAll(n.Enclosed)

	default:
		s.match(id)
		s.scanAll(n.Enclosed)
	}
}

func (s *Scanner) match(id decl.NodeID) {
	if s.graph.Node(id) == nil {
		return
	}
	for i, c := range s.criteria {
		if s.matcher.Matches(id, c) {
			s.index.add(s.keys[i], id)
		}
	}
}
