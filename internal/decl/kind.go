package decl

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownKind is returned when a kind name cannot be parsed
var ErrUnknownKind = errors.New("unknown element kind")

// ErrUnknownModifier is returned when a modifier name cannot be parsed
var ErrUnknownModifier = errors.New("unknown modifier")

// Kind identifies what a declaration node declares
type Kind int

const (
	KindPackage Kind = iota + 1
	KindClass
	KindInterface
	KindEnum
	KindAnnotationType
	KindRecord
	KindEnumConstant
	KindField
	KindParameter
	KindMethod
	KindConstructor
	KindTypeParameter
)

var kindNames = map[Kind]string{
	KindPackage:        "PACKAGE",
	KindClass:          "CLASS",
	KindInterface:      "INTERFACE",
	KindEnum:           "ENUM",
	KindAnnotationType: "ANNOTATION_TYPE",
	KindRecord:         "RECORD",
	KindEnumConstant:   "ENUM_CONSTANT",
	KindField:          "FIELD",
	KindParameter:      "PARAMETER",
	KindMethod:         "METHOD",
	KindConstructor:    "CONSTRUCTOR",
	KindTypeParameter:  "TYPE_PARAMETER",
}

// String returns the upper-case kind name (e.g. "CLASS")
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsType reports whether k declares a type
func (k Kind) IsType() bool {
	switch k {
	case KindClass, KindInterface, KindEnum, KindAnnotationType, KindRecord:
		return true
	}
	return false
}

// IsExecutable reports whether k declares a method or constructor
func (k Kind) IsExecutable() bool {
	return k == KindMethod || k == KindConstructor
}

// IsVariable reports whether k declares a field, parameter or enum constant
func (k Kind) IsVariable() bool {
	return k == KindField || k == KindParameter || k == KindEnumConstant
}

// ParseKind parses a kind name. Qualified forms such as
// "ElementKind.CLASS" are accepted.
func ParseKind(s string) (Kind, error) {
	name := strings.ToUpper(strings.TrimSpace(lastSegment(s)))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Kinds returns every known kind in declaration order
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(kindNames))
	for k := range kindNames {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Modifier is a declaration modifier keyword
type Modifier string

const (
	ModPublic       Modifier = "PUBLIC"
	ModProtected    Modifier = "PROTECTED"
	ModPrivate      Modifier = "PRIVATE"
	ModAbstract     Modifier = "ABSTRACT"
	ModDefault      Modifier = "DEFAULT"
	ModStatic       Modifier = "STATIC"
	ModFinal        Modifier = "FINAL"
	ModTransient    Modifier = "TRANSIENT"
	ModVolatile     Modifier = "VOLATILE"
	ModSynchronized Modifier = "SYNCHRONIZED"
	ModNative       Modifier = "NATIVE"
	ModStrictfp     Modifier = "STRICTFP"
	ModSealed       Modifier = "SEALED"
	ModNonSealed    Modifier = "NON_SEALED"
)

var knownModifiers = map[Modifier]bool{
	ModPublic: true, ModProtected: true, ModPrivate: true, ModAbstract: true,
	ModDefault: true, ModStatic: true, ModFinal: true, ModTransient: true,
	ModVolatile: true, ModSynchronized: true, ModNative: true, ModStrictfp: true,
	ModSealed: true, ModNonSealed: true,
}

// ParseModifier parses a modifier name. Both source keywords ("public",
// "non-sealed") and qualified constants ("Modifier.PUBLIC") are accepted.
func ParseModifier(s string) (Modifier, error) {
	name := strings.ToUpper(strings.TrimSpace(lastSegment(s)))
	name = strings.ReplaceAll(name, "-", "_")
	m := Modifier(name)
	if !knownModifiers[m] {
		return "", fmt.Errorf("%w: %q", ErrUnknownModifier, s)
	}
	return m, nil
}

// ModifierSet is an unordered set of modifiers
type ModifierSet map[Modifier]struct{}

// NewModifierSet builds a set from the given modifiers
func NewModifierSet(mods ...Modifier) ModifierSet {
	set := make(ModifierSet, len(mods))
	for _, m := range mods {
		set[m] = struct{}{}
	}
	return set
}

// Has reports whether m is in the set
func (s ModifierSet) Has(m Modifier) bool {
	_, ok := s[m]
	return ok
}

// ContainsAll reports whether every modifier in mods is in the set
func (s ModifierSet) ContainsAll(mods []Modifier) bool {
	for _, m := range mods {
		if !s.Has(m) {
			return false
		}
	}
	return true
}

// Sorted returns the modifiers in lexical order
func (s ModifierSet) Sorted() []Modifier {
	mods := make([]Modifier, 0, len(s))
	for m := range s {
		mods = append(mods, m)
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i] < mods[j] })
	return mods
}

func lastSegment(s string) string {
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[i+1:]
	}
	return s
}
