package diag

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	dimColor     = color.New(color.Faint)
)

// Format returns a multi-line, colored rendering of d for terminals
func Format(d *Diagnostic) string {
	var b strings.Builder

	label := string(d.Severity)
	if d.Code != "" {
		label = fmt.Sprintf("%s[%s]", d.Severity, d.Code)
	}
	fmt.Fprintf(&b, "%s: %s\n", severityColor(d.Severity).Sprint(label), d.Message)

	if d.Element != "" {
		fmt.Fprintf(&b, "  %s %s\n", dimColor.Sprint("-->"), d.Element)
	}
	if d.Suggestion != "" {
		fmt.Fprintf(&b, "  %s %s\n", dimColor.Sprint("help:"), d.Suggestion)
	}
	return b.String()
}

// FormatList renders every diagnostic followed by a summary line
func FormatList(l List) string {
	var b strings.Builder
	for _, d := range l {
		b.WriteString(Format(d))
	}
	b.WriteString(Summary(l))
	b.WriteString("\n")
	return b.String()
}

// Summary returns a one-line count of errors and warnings
func Summary(l List) string {
	errs, warnings, _ := l.Count()
	line := fmt.Sprintf("%d error(s), %d warning(s)", errs, warnings)
	switch {
	case errs > 0:
		return errorColor.Sprint(line)
	case warnings > 0:
		return warningColor.Sprint(line)
	default:
		return line
	}
}

// FormatCompact returns a one-line rendering without colors
func FormatCompact(d *Diagnostic) string {
	element := d.Element
	if element == "" {
		element = "<round>"
	}
	if d.Code == "" {
		return fmt.Sprintf("%s: %s: %s", element, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s [%s]", element, d.Severity, d.Message, d.Code)
}

func severityColor(s Severity) *color.Color {
	switch s {
	case SeverityError:
		return errorColor
	case SeverityWarning:
		return warningColor
	default:
		return infoColor
	}
}
