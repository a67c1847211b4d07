package generator

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/declgen/internal/decl"
	"github.com/conduit-lang/declgen/internal/diag"
	"github.com/conduit-lang/declgen/internal/match"
	"github.com/conduit-lang/declgen/internal/pipeline"
)

// Renderer renders one output file. pipeline.Pipeline is the production
// implementation.
type Renderer interface {
	Render(ctx context.Context, req pipeline.Request) error
}

// OutputStatus is the outcome of one rendering
type OutputStatus string

const (
	// StatusWritten marks a rendered and written file
	StatusWritten OutputStatus = "written"
	// StatusFailed marks a rendering that reported an error
	StatusFailed OutputStatus = "failed"
)

// Output records one rendering of a rule
type Output struct {
	Rule   string
	Area   pipeline.Area
	Path   string
	Status OutputStatus
}

// Planner executes rules against the match index of a round, deciding how
// many renderings each rule produces and what they are bound to
type Planner struct {
	graph   *decl.Graph
	log     *diag.Logger
	ambient map[string]interface{}
}

// NewPlanner creates a planner. ambient holds bindings shared by every
// rendering.
func NewPlanner(g *decl.Graph, log *diag.Logger, ambient map[string]interface{}) *Planner {
	if log == nil {
		log = diag.NewLogger(nil, false)
	}
	return &Planner{graph: g, log: log, ambient: ambient}
}

// Execute renders rule through sink and returns one Output per rendering.
// A failing rendering is reported and does not stop later ones.
func (p *Planner) Execute(ctx context.Context, rule *Rule, ix *match.Index, sink Renderer) []Output {
	p.log.Report(diag.NewInfo(rule.Element, "Processing generator method "+rule.Element))

	switch rule.Cardinality {
	case CardinalityGroup:
		bindings := p.bindings()
		for _, c := range rule.Group {
			bindings[c.BindingName()] = ix.Elements(c)
		}
		return []Output{p.render(ctx, rule, rule.Output, bindings, sink)}

	case CardinalityLoop:
		shared := p.bindings()
		for _, c := range rule.Extras {
			shared[c.BindingName()] = ix.Elements(c)
		}

		matched := ix.Elements(rule.Primary)
		if len(matched) == 0 {
			p.log.Report(diag.NewNoElementMatched(rule.Element, rule.Output))
			return nil
		}

		outputs := make([]Output, 0, len(matched))
		for _, e := range matched {
			if ctx.Err() != nil {
				break
			}
			bindings := copyBindings(shared)
			bindings[rule.Primary.BindingName()] = e
			outputs = append(outputs, p.render(ctx, rule, ResolveOutputPath(e, rule.Output), bindings, sink))
		}
		return outputs

	default:
		return []Output{p.render(ctx, rule, rule.Output, p.bindings(), sink)}
	}
}

func (p *Planner) render(ctx context.Context, rule *Rule, path string, bindings map[string]interface{}, sink Renderer) Output {
	out := Output{Rule: rule.Element, Area: rule.Area, Path: path, Status: StatusWritten}
	p.log.Info("Generating", zap.String("path", path), zap.String("element", rule.Element))

	err := sink.Render(ctx, pipeline.Request{
		TemplateID: rule.Template,
		Area:       rule.Area,
		Path:       path,
		Bindings:   bindings,
	})
	if err != nil {
		out.Status = StatusFailed
		p.log.Report(renderDiagnostic(rule, path, err))
	}
	return out
}

func renderDiagnostic(rule *Rule, path string, err error) *diag.Diagnostic {
	switch {
	case errors.Is(err, pipeline.ErrNotOutputArea):
		return diag.NewNotOutputLocation(rule.Element, string(rule.Area))
	case errors.Is(err, pipeline.ErrTemplateLoad):
		return diag.NewTemplateLoad(rule.Element, rule.Template, err)
	default:
		return diag.NewRenderFailed(rule.Element, path, err)
	}
}

func (p *Planner) bindings() map[string]interface{} {
	return copyBindings(p.ambient)
}

func copyBindings(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src)+2)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// ResolveOutputPath substitutes the loop placeholders of output for e.
// Unknown placeholders are left as written.
func ResolveOutputPath(e decl.Element, output string) string {
	pkg := ""
	if p := e.Package(); p.Valid() {
		pkg = p.QualifiedName()
	}
	r := strings.NewReplacer(
		ElementSimpleNameVar, e.SimpleName(),
		PackageElementPathVar, strings.ReplaceAll(pkg, ".", "/"),
	)
	return r.Replace(output)
}
