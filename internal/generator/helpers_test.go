package generator

import (
	"context"
	"errors"
	"sync"

	"github.com/conduit-lang/declgen/internal/decl"
	"github.com/conduit-lang/declgen/internal/diag"
	"github.com/conduit-lang/declgen/internal/pipeline"
)

func where(binding string, values ...decl.ElementValue) *decl.Annotation {
	if binding != "" {
		values = append([]decl.ElementValue{decl.Pair("matchResultVariable", decl.String(binding))}, values...)
	}
	return decl.NewAnnotation(WhereAnnotation, values...)
}

func kinds(names ...string) decl.ElementValue {
	return decl.Pair("kind", decl.Constants(names...))
}

func produces(output, template string, values ...decl.ElementValue) *decl.Annotation {
	values = append([]decl.ElementValue{
		decl.Pair("output", decl.String(output)),
		decl.Pair("template", decl.String(template)),
	}, values...)
	return decl.NewAnnotation(ProducesAnnotation, values...)
}

func forAll(wheres ...*decl.Annotation) *decl.Annotation {
	list := make(decl.List, 0, len(wheres))
	for _, w := range wheres {
		list = append(list, w)
	}
	return decl.NewAnnotation(ForAllElementsAnnotation, decl.Pair("value", list))
}

func forEach(primary *decl.Annotation, extras ...*decl.Annotation) *decl.Annotation {
	values := []decl.ElementValue{decl.Pair("value", primary)}
	if len(extras) > 0 {
		list := make(decl.List, 0, len(extras))
		for _, w := range extras {
			list = append(list, w)
		}
		values = append(values, decl.Pair("matchExtraElements", list))
	}
	return decl.NewAnnotation(ForEachElementAnnotation, values...)
}

// generatorInterface declares an interface annotated as a generator in pkg
func generatorInterface(b *decl.Builder, pkg decl.NodeID, name string) decl.NodeID {
	id := b.Type(pkg, decl.KindInterface, name)
	b.Annotate(id, decl.NewAnnotation(GeneratorAnnotation))
	return id
}

type renderCall struct {
	req pipeline.Request
}

// fakeRenderer records requests and fails for the configured paths
type fakeRenderer struct {
	mu       sync.Mutex
	calls    []renderCall
	failOn   map[string]error
	preload  map[string]error
	preloads int
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{failOn: map[string]error{}, preload: map[string]error{}}
}

func (f *fakeRenderer) Render(_ context.Context, req pipeline.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, renderCall{req: req})
	return f.failOn[req.Path]
}

func (f *fakeRenderer) Preload(templateID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.preloads++
	return f.preload[templateID]
}

func (f *fakeRenderer) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.req.Path)
	}
	return out
}

func names(v interface{}) []string {
	elements, _ := v.([]decl.Element)
	out := make([]string, 0, len(elements))
	for _, e := range elements {
		out = append(out, e.SimpleName())
	}
	return out
}

func codes(l diag.List) []diag.Code {
	out := make([]diag.Code, 0, len(l))
	for _, d := range l {
		out = append(out, d.Code)
	}
	return out
}

var errBoom = errors.New("boom")
