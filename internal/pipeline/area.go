package pipeline

import (
	"fmt"
	"strings"
)

// Area identifies a location known to the host build. Only some areas are
// output locations that generated files may be written to.
type Area string

const (
	// SourceOutput receives generated sources
	SourceOutput Area = "SOURCE_OUTPUT"
	// ClassOutput receives generated resources next to compiled classes
	ClassOutput Area = "CLASS_OUTPUT"
	// NativeHeaderOutput receives generated native headers
	NativeHeaderOutput Area = "NATIVE_HEADER_OUTPUT"

	// SourcePath is the input source path
	SourcePath Area = "SOURCE_PATH"
	// ClassPath is the input class path
	ClassPath Area = "CLASS_PATH"
	// PlatformClassPath is the platform class path
	PlatformClassPath Area = "PLATFORM_CLASS_PATH"
	// AnnotationProcessorPath is the processor path
	AnnotationProcessorPath Area = "ANNOTATION_PROCESSOR_PATH"
)

var areas = []Area{
	SourceOutput, ClassOutput, NativeHeaderOutput,
	SourcePath, ClassPath, PlatformClassPath, AnnotationProcessorPath,
}

// Areas returns every known area
func Areas() []Area {
	return append([]Area(nil), areas...)
}

// IsOutput reports whether files may be generated into a
func (a Area) IsOutput() bool {
	switch a {
	case SourceOutput, ClassOutput, NativeHeaderOutput:
		return true
	}
	return false
}

// ParseArea parses an area name. Qualified enum constants such as
// "StandardLocation.CLASS_OUTPUT" are accepted.
func ParseArea(s string) (Area, error) {
	name := strings.TrimSpace(s)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	for _, a := range areas {
		if string(a) == strings.ToUpper(name) {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownArea, s)
}
