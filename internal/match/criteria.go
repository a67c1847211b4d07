// Package match finds declarations that satisfy generator match criteria.
//
// A Scanner walks the declaration graph once per round and evaluates every
// distinct Criteria against every reachable node, producing an Index that
// generator rules read their bindings from.
package match

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/conduit-lang/declgen/internal/decl"
)

// DontMatch disables the simple-name and metadata filters. It is not a
// valid regular expression, so it can never be mistaken for a real pattern.
const DontMatch = "***"

// DefaultBinding is the template variable that receives match results when
// a criteria record does not name one
const DefaultBinding = "matchResult"

// ErrInvalidCriteria is returned by Criteria.Validate
var ErrInvalidCriteria = errors.New("invalid match criteria")

// Criteria selects declarations. Empty filters place no restriction, so the
// zero value matches every node.
type Criteria struct {
	// Binding is the template variable receiving the result. It takes no
	// part in matching or in Key.
	Binding string

	Kinds     []decl.Kind
	Modifiers []decl.Modifier
	// SimpleNameMatches must match the whole simple name
	SimpleNameMatches string
	// Annotations are qualified annotation type names that must all be
	// present, directly or inherited
	Annotations []string
	// MetaData is a metadata match expression, see ParseExpr
	MetaData string
}

// NewCriteria returns criteria with the declared defaults: the default
// binding and both pattern filters disabled
func NewCriteria() Criteria {
	return Criteria{
		Binding:           DefaultBinding,
		SimpleNameMatches: DontMatch,
		MetaData:          DontMatch,
	}
}

// BindingName returns the binding, falling back to DefaultBinding
func (c *Criteria) BindingName() string {
	if c.Binding == "" {
		return DefaultBinding
	}
	return c.Binding
}

func restricted(pattern string) bool {
	return pattern != "" && pattern != DontMatch
}

// Validate checks that the simple-name pattern compiles
func (c *Criteria) Validate() error {
	if restricted(c.SimpleNameMatches) {
		if _, err := compileFull(c.SimpleNameMatches); err != nil {
			return fmt.Errorf("%w: simpleNameMatches %q: %v", ErrInvalidCriteria, c.SimpleNameMatches, err)
		}
	}
	return nil
}

func compileFull(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(`^(?:` + pattern + `)$`)
}

// Key identifies a bucket in the Index. Criteria that differ only in their
// binding share a key and therefore one set of scan results.
type Key struct {
	Sum       uint64
	canonical string
}

// String returns the fingerprint in hex
func (k Key) String() string {
	return fmt.Sprintf("%016x", k.Sum)
}

// Key derives the structural key of c
func (c *Criteria) Key() Key {
	kinds := make([]string, 0, len(c.Kinds))
	for _, k := range c.Kinds {
		kinds = append(kinds, k.String())
	}
	mods := make([]string, 0, len(c.Modifiers))
	for _, m := range c.Modifiers {
		mods = append(mods, string(m))
	}

	fields := []string{
		canonicalSet(kinds),
		canonicalSet(mods),
		canonicalPattern(c.SimpleNameMatches),
		canonicalSet(c.Annotations),
		canonicalPattern(c.MetaData),
	}
	canonical := strings.Join(fields, "\x1e")
	return Key{Sum: xxhash.Sum64String(canonical), canonical: canonical}
}

func canonicalSet(values []string) string {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	sorted := make([]string, 0, len(set))
	for v := range set {
		sorted = append(sorted, v)
	}
	sort.Strings(sorted)
	return strings.Join(sorted, "\x1f")
}

func canonicalPattern(p string) string {
	if !restricted(p) {
		return DontMatch
	}
	return p
}

// Dedupe returns the first criteria for every distinct key, in order
func Dedupe(criteria []*Criteria) []*Criteria {
	seen := make(map[Key]bool, len(criteria))
	out := make([]*Criteria, 0, len(criteria))
	for _, c := range criteria {
		k := c.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}
