package diag

import "fmt"

// Generation diagnostic codes (GEN601-609)
const (
	// ErrNotInterface indicates a generator annotation on a non-interface
	ErrNotInterface Code = "GEN601"
	// ErrAmbiguousCardinality indicates a method with both group and loop rules
	ErrAmbiguousCardinality Code = "GEN602"
	// WarnIrrelevantSignature indicates a generator method with a signature
	WarnIrrelevantSignature Code = "GEN603"
	// WarnNoElementMatched indicates a loop rule without matches
	WarnNoElementMatched Code = "GEN604"
	// ErrNotOutputLocation indicates an output area that cannot be written
	ErrNotOutputLocation Code = "GEN605"
	// ErrTemplateLoad indicates a template that could not be loaded
	ErrTemplateLoad Code = "GEN606"
	// ErrRenderFailed indicates a template that failed to render
	ErrRenderFailed Code = "GEN607"
	// ErrInvalidCriteria indicates an unusable match criteria record
	ErrInvalidCriteria Code = "GEN608"
	// ErrMalformedRule indicates a rule annotation that cannot be decoded
	ErrMalformedRule Code = "GEN609"
)

// NewNotInterface creates a GEN601 error
func NewNotInterface(element, annotation, kind string) *Diagnostic {
	return newDiagnostic(
		ErrNotInterface,
		"not_interface",
		CategoryDiscovery,
		SeverityError,
		fmt.Sprintf("@%s is only allowed on interfaces, found %s", annotation, kind),
	).WithElement(element).WithSuggestion("Declare the generator as an interface")
}

// NewAmbiguousCardinality creates a GEN602 error
func NewAmbiguousCardinality(element, group, loop string) *Diagnostic {
	return newDiagnostic(
		ErrAmbiguousCardinality,
		"ambiguous_cardinality",
		CategoryDiscovery,
		SeverityError,
		fmt.Sprintf("Ambiguous generator method: @%s and @%s cannot be combined", group, loop),
	).WithElement(element).WithSuggestion(fmt.Sprintf("Keep either @%s or @%s", group, loop))
}

// NewIrrelevantSignature creates a GEN603 warning
func NewIrrelevantSignature(element string) *Diagnostic {
	return newDiagnostic(
		WarnIrrelevantSignature,
		"irrelevant_signature",
		CategoryDiscovery,
		SeverityWarning,
		"Return type, parameters, thrown types and type parameters of generator methods are ignored",
	).WithElement(element).WithSuggestion("Declare the method as void with no parameters")
}

// NewNoElementMatched creates a GEN604 warning
func NewNoElementMatched(element, output string) *Diagnostic {
	return newDiagnostic(
		WarnNoElementMatched,
		"no_element_matched",
		CategoryPlanning,
		SeverityWarning,
		fmt.Sprintf("No element matched, nothing generated for %q", output),
	).WithElement(element)
}

// NewNotOutputLocation creates a GEN605 error
func NewNotOutputLocation(element, area string) *Diagnostic {
	return newDiagnostic(
		ErrNotOutputLocation,
		"not_output_location",
		CategoryPipeline,
		SeverityError,
		fmt.Sprintf("%s is not an output location", area),
	).WithElement(element).WithSuggestion("Use SOURCE_OUTPUT, CLASS_OUTPUT or NATIVE_HEADER_OUTPUT")
}

// NewTemplateLoad creates a GEN606 error
func NewTemplateLoad(element, template string, err error) *Diagnostic {
	return newDiagnostic(
		ErrTemplateLoad,
		"template_load",
		CategoryPipeline,
		SeverityError,
		fmt.Sprintf("Cannot load template %q: %v", template, err),
	).WithElement(element)
}

// NewRenderFailed creates a GEN607 error
func NewRenderFailed(element, path string, err error) *Diagnostic {
	return newDiagnostic(
		ErrRenderFailed,
		"render_failed",
		CategoryPipeline,
		SeverityError,
		fmt.Sprintf("Cannot generate %q: %v", path, err),
	).WithElement(element)
}

// NewInvalidCriteria creates a GEN608 error
func NewInvalidCriteria(element string, err error) *Diagnostic {
	return newDiagnostic(
		ErrInvalidCriteria,
		"invalid_criteria",
		CategoryDiscovery,
		SeverityError,
		err.Error(),
	).WithElement(element)
}

// NewMalformedRule creates a GEN609 error
func NewMalformedRule(element, reason string) *Diagnostic {
	return newDiagnostic(
		ErrMalformedRule,
		"malformed_rule",
		CategoryDiscovery,
		SeverityError,
		reason,
	).WithElement(element)
}

// NewInfo creates an informational diagnostic
func NewInfo(element, message string) *Diagnostic {
	return newDiagnostic("", "info", CategoryPlanning, SeverityInfo, message).WithElement(element)
}

func newDiagnostic(code Code, typ string, category Category, severity Severity, message string) *Diagnostic {
	return &Diagnostic{
		Code:     code,
		Type:     typ,
		Category: category,
		Severity: severity,
		Message:  message,
	}
}
