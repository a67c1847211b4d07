// Package diag provides the structured diagnostics reported by a generation
// round. Diagnostics are formatted for terminals and serialized to JSON for
// tooling.
package diag

import (
	"encoding/json"
	"sync"
)

// Code is a unique diagnostic code
type Code string

// Category groups diagnostics by the stage that reports them
type Category string

const (
	// CategoryDiscovery covers rule discovery (GEN601-603, GEN608-609)
	CategoryDiscovery Category = "discovery"
	// CategoryPlanning covers rule planning (GEN604)
	CategoryPlanning Category = "planning"
	// CategoryPipeline covers template loading and rendering (GEN605-607)
	CategoryPipeline Category = "pipeline"
)

// Severity indicates how a diagnostic affects the round
type Severity string

const (
	// SeverityError marks a rule that could not be processed
	SeverityError Severity = "error"
	// SeverityWarning marks a suspicious but processed rule
	SeverityWarning Severity = "warning"
	// SeverityInfo marks progress messages
	SeverityInfo Severity = "info"
)

// Diagnostic is one message reported against a declaration
type Diagnostic struct {
	// Code is the unique code, e.g. "GEN604"
	Code Code `json:"code"`
	// Type is a machine-readable identifier
	Type     string   `json:"type"`
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	// Element describes the declaration the diagnostic is bound to
	Element    string `json:"element,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Error implements the error interface
func (d *Diagnostic) Error() string {
	return FormatCompact(d)
}

// WithElement binds the diagnostic to a declaration
func (d *Diagnostic) WithElement(element string) *Diagnostic {
	d.Element = element
	return d
}

// WithSuggestion sets a hint for fixing the problem
func (d *Diagnostic) WithSuggestion(suggestion string) *Diagnostic {
	d.Suggestion = suggestion
	return d
}

// List is a collection of diagnostics in report order
type List []*Diagnostic

// Error implements the error interface
func (l List) Error() string {
	if len(l) == 0 {
		return "no diagnostics"
	}
	return FormatList(l)
}

// HasErrors returns true if the list contains any errors
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of diagnostics by severity
func (l List) Count() (errors, warnings, info int) {
	for _, d := range l {
		switch d.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		case SeverityInfo:
			info++
		}
	}
	return
}

// WithCode returns the diagnostics carrying code
func (l List) WithCode(code Code) List {
	var out List
	for _, d := range l {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

// ToJSON returns the list as a JSON array
func (l List) ToJSON() (string, error) {
	if l == nil {
		l = List{}
	}
	bytes, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Collector accumulates diagnostics. It is safe for concurrent use.
type Collector struct {
	mu   sync.Mutex
	list List
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{}
}

// Add records d
func (c *Collector) Add(d *Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = append(c.list, d)
}

// List returns a copy of the collected diagnostics
func (c *Collector) List() List {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(List(nil), c.list...)
}

// Reset discards every collected diagnostic
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = nil
}
