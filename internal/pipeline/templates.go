package pipeline

import (
	"fmt"
	"path"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/conduit-lang/declgen/internal/decl"
	casing "github.com/conduit-lang/declgen/internal/util/strings"
)

// DefaultEncoding is used when no template encoding is configured
const DefaultEncoding = "UTF-8"

// LookupEncoding resolves an IANA charset name
func LookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" {
		name = DefaultEncoding
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return enc, nil
}

// Loader loads templates from a root directory and caches the parsed
// result for the lifetime of the process
type Loader struct {
	fs       afero.Fs
	root     string
	encoding encoding.Encoding
	funcs    template.FuncMap
	log      *zap.Logger

	cache map[string]*template.Template
	mutex sync.RWMutex
}

// NewLoader creates a loader for templates below root. Template files are
// decoded from enc, UTF-8 when nil.
func NewLoader(fs afero.Fs, root string, enc encoding.Encoding, log *zap.Logger) *Loader {
	if enc == nil {
		enc, _ = LookupEncoding(DefaultEncoding)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		fs:       fs,
		root:     root,
		encoding: enc,
		funcs:    Funcs(),
		log:      log,
		cache:    make(map[string]*template.Template),
	}
}

// Root returns the template root directory
func (l *Loader) Root() string {
	return l.root
}

// Load returns the parsed template id, a slash separated path relative to
// the root
func (l *Loader) Load(id string) (*template.Template, error) {
	l.mutex.RLock()
	tmpl, ok := l.cache[id]
	l.mutex.RUnlock()
	if ok {
		l.log.Debug("template cache hit", zap.String("template", id))
		return tmpl, nil
	}

	rel, err := CleanPath(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateLoad, id, err)
	}
	raw, err := afero.ReadFile(l.fs, path.Join(l.root, rel))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateLoad, id, err)
	}
	text, err := l.encoding.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: decode: %v", ErrTemplateLoad, id, err)
	}

	tmpl, err = template.New(id).
		Funcs(l.funcs).
		Option("missingkey=error").
		Parse(string(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateLoad, id, err)
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()
	if cached, ok := l.cache[id]; ok {
		return cached, nil
	}
	l.cache[id] = tmpl
	l.log.Debug("template loaded", zap.String("template", id), zap.Int("bytes", len(raw)))
	return tmpl, nil
}

// Invalidate drops every cached template, so edited templates are reloaded
func (l *Loader) Invalidate() {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.cache = make(map[string]*template.Template)
}

// Cached returns the number of cached templates
func (l *Loader) Cached() int {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return len(l.cache)
}

// Funcs returns the helper functions available to every template
func Funcs() template.FuncMap {
	return template.FuncMap{
		"upper":        strings.ToUpper,
		"lower":        strings.ToLower,
		"capitalize":   casing.Capitalize,
		"uncapitalize": casing.Uncapitalize,
		"snake":        casing.ToSnakeCase,
		"kebab":        casing.ToKebabCase,
		"constant":     casing.ToConstantCase,
		"camel":        casing.ToCamelCase,
		"pascal":       casing.ToPascalCase,
		"path":         casing.ToPath,
		"join":         func(sep string, items []string) string { return strings.Join(items, sep) },
		"now":          time.Now,
		"year":         func() int { return time.Now().Year() },
		"default": func(def, val interface{}) interface{} {
			if val == nil || val == "" {
				return def
			}
			return val
		},
		"packageOf":     func(e decl.Element) decl.Element { return e.Package() },
		"hasAnnotation": HasAnnotation,
		"names":         SimpleNames,
	}
}

// HasAnnotation reports whether e carries the annotation type, directly or
// inherited
func HasAnnotation(e decl.Element, annotationType string) bool {
	if !e.Valid() {
		return false
	}
	for _, a := range e.Graph().AllAnnotations(e.ID()) {
		if a.Type == annotationType {
			return true
		}
	}
	return false
}

// SimpleNames returns the simple names of elements
func SimpleNames(elements []decl.Element) []string {
	names := make([]string, 0, len(elements))
	for _, e := range elements {
		names = append(names, e.SimpleName())
	}
	return names
}
