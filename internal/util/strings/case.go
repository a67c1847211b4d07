// Package strings provides the case conversions offered to templates
package strings

import (
	"strings"
	"unicode"
)

// ToSnakeCase converts CamelCase to snake_case
// Handles acronyms properly (HTTPRequest -> http_request)
func ToSnakeCase(s string) string {
	return joinWords(s, '_')
}

// ToKebabCase converts CamelCase to kebab-case
func ToKebabCase(s string) string {
	return joinWords(s, '-')
}

// ToConstantCase converts CamelCase to CONSTANT_CASE
func ToConstantCase(s string) string {
	return strings.ToUpper(joinWords(s, '_'))
}

// ToPascalCase converts snake_case, kebab-case and camelCase to PascalCase
func ToPascalCase(s string) string {
	var result strings.Builder
	for _, w := range words(s) {
		result.WriteString(Capitalize(w))
	}
	return result.String()
}

// ToCamelCase converts snake_case, kebab-case and PascalCase to camelCase
func ToCamelCase(s string) string {
	return Uncapitalize(ToPascalCase(s))
}

// Capitalize upper-cases the first rune of s
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// Uncapitalize lower-cases the first rune of s, or the whole leading
// acronym (URLPath -> urlPath)
func Uncapitalize(s string) string {
	runes := []rune(s)
	for i := range runes {
		if !unicode.IsUpper(runes[i]) {
			break
		}
		// keep the last upper-case letter of an acronym when a word follows
		if i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
			break
		}
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

// ToPath converts a dotted qualified name to a slash separated path
func ToPath(qualifiedName string) string {
	return strings.ReplaceAll(qualifiedName, ".", "/")
}

func joinWords(s string, sep rune) string {
	var result strings.Builder
	runes := []rune(s)

	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ':
			if result.Len() > 0 {
				result.WriteRune(sep)
			}
		case unicode.IsUpper(r):
			if i > 0 {
				prev := runes[i-1]
				// Add a separator before an uppercase letter if:
				// 1. Previous char is lowercase or a digit
				// 2. Next char is lowercase (for acronyms like HTTPRequest -> http_request)
				if unicode.IsLower(prev) || unicode.IsDigit(prev) {
					result.WriteRune(sep)
				} else if unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
					result.WriteRune(sep)
				}
			}
			result.WriteRune(unicode.ToLower(r))
		default:
			result.WriteRune(r)
		}
	}
	return result.String()
}

func words(s string) []string {
	return strings.FieldsFunc(joinWords(s, '_'), func(r rune) bool { return r == '_' })
}
