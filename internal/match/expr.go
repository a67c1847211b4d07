package match

import (
	"regexp"
	"strings"
)

// AnyKind matches metadata of every kind
const AnyKind = "*"

// TargetPrefix selects the carrier annotation's fields instead of the
// metadata properties
const TargetPrefix = "@"

var propertyPattern = regexp.MustCompile(`\[([^\[\]]*)\]`)

// Expr is a parsed metadata match expression:
//
//	K           metadata of kind K
//	*           metadata of any kind
//	K[p]        kind K with property p
//	K[p=v]      kind K with property p equal to v
//	K[p][q]     both properties
//	*[@name=v]  carrier annotation field name equal to v
type Expr struct {
	Kind  string
	Terms []Term
}

// Term is one bracketed property test
type Term struct {
	Name   string
	Value  *string
	Target bool
}

// ParseExpr parses a metadata match expression. Parsing never fails:
// anything before the first "[" is the kind, and every balanced bracket
// pair is a term.
func ParseExpr(s string) *Expr {
	e := &Expr{Kind: s}
	if i := strings.Index(s, "["); i >= 0 {
		e.Kind = s[:i]
	}
	for _, m := range propertyPattern.FindAllStringSubmatch(s, -1) {
		name, value := ParseProperty(m[1])
		term := Term{Name: name, Value: value}
		if strings.HasPrefix(name, TargetPrefix) {
			term.Name = strings.TrimPrefix(name, TargetPrefix)
			term.Target = true
		}
		e.Terms = append(e.Terms, term)
	}
	return e
}

// Matches evaluates the expression against resolved metadata. Missing
// metadata never matches.
func (e *Expr) Matches(md *Metadata) bool {
	if md == nil {
		return false
	}
	if e.Kind != AnyKind && e.Kind != md.Kind {
		return false
	}
	for _, t := range e.Terms {
		if !t.matches(md) {
			return false
		}
	}
	return true
}

func (t Term) matches(md *Metadata) bool {
	if t.Name == "" {
		return false
	}

	if t.Target {
		if md.Target == nil {
			return false
		}
		v, ok := md.Target[t.Name]
		if !ok {
			return false
		}
		return t.Value == nil || *t.Value == v
	}

	v, ok := md.Properties[t.Name]
	if !ok {
		return false
	}
	if t.Value == nil {
		return true
	}
	return v != nil && *v == *t.Value
}
