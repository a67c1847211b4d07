package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conduit-lang/declgen/internal/decl"
	"github.com/conduit-lang/declgen/internal/diag"
	"github.com/conduit-lang/declgen/internal/match"
)

// Options configures a Processor
type Options struct {
	Verbose bool
	// PackagePattern restricts matching to packages whose qualified name
	// matches it in full
	PackagePattern string
	// BuiltinNamespaces are skipped while resolving metadata. Nil keeps the
	// resolver default.
	BuiltinNamespaces []string
}

// DefaultOptions returns the processor defaults
func DefaultOptions() *Options {
	return &Options{
		PackagePattern:    ".*",
		BuiltinNamespaces: []string{match.BuiltinAnnotationNamespace},
	}
}

// Preloader is implemented by renderers that can load a template ahead of
// rendering, so a broken template is reported once per rule
type Preloader interface {
	Preload(templateID string) error
}

// Recorder persists the report of a finished round
type Recorder interface {
	Record(ctx context.Context, report *Report) error
}

// Round is the input of one processing round
type Round struct {
	Graph *decl.Graph
	Roots []decl.NodeID
}

// Report summarizes a round
type Report struct {
	RoundID     string
	Started     time.Time
	Duration    time.Duration
	Rules       int
	Outputs     []Output
	Diagnostics diag.List
}

// Written returns the number of files written
func (r *Report) Written() int {
	n := 0
	for _, o := range r.Outputs {
		if o.Status == StatusWritten {
			n++
		}
	}
	return n
}

// HasErrors reports whether the round reported any error
func (r *Report) HasErrors() bool {
	return r.Diagnostics.HasErrors()
}

// Processor runs rounds: it discovers rules, scans the graph once for all
// of their criteria and executes every rule
type Processor struct {
	renderer Renderer
	opts     *Options
	log      *zap.Logger
	filter   *match.PackageFilter
	recorder Recorder
}

// NewProcessor creates a processor rendering through renderer
func NewProcessor(renderer Renderer, opts *Options, log *zap.Logger) (*Processor, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if log == nil {
		log = zap.NewNop()
	}
	filter, err := match.NewPackageFilter(opts.PackagePattern)
	if err != nil {
		return nil, err
	}
	return &Processor{renderer: renderer, opts: opts, log: log, filter: filter}, nil
}

// SetRecorder sets where round reports are persisted
func (p *Processor) SetRecorder(r Recorder) {
	p.recorder = r
}

// Run loads a round from source and processes it
func (p *Processor) Run(ctx context.Context, source decl.Source) (*Report, error) {
	g, roots, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load declarations: %w", err)
	}
	return p.Process(ctx, Round{Graph: g, Roots: roots})
}

// Scan is the rule discovery and matching half of a round
type Scan struct {
	Graph       *decl.Graph
	Rules       []*Rule
	Index       *match.Index
	Diagnostics diag.List
}

// Scan discovers the rules of a round and matches their criteria without
// rendering anything
func (p *Processor) Scan(round Round) *Scan {
	log := diag.NewLogger(p.log, p.opts.Verbose)
	result := &Scan{Graph: round.Graph}
	if round.Graph != nil && len(round.Roots) > 0 {
		result.Rules, _, result.Index = p.scan(round, log)
	}
	result.Diagnostics = log.Diagnostics()
	return result
}

func (p *Processor) scan(round Round, log *diag.Logger) ([]*Rule, *match.MetadataResolver, *match.Index) {
	rules := NewFinder(log).Find(round.Graph, round.Roots)
	if len(rules) == 0 {
		return nil, nil, nil
	}

	var resolverOpts []match.ResolverOption
	if p.opts.BuiltinNamespaces != nil {
		resolverOpts = append(resolverOpts, match.WithBuiltinNamespaces(p.opts.BuiltinNamespaces...))
	}
	resolver := match.NewMetadataResolver(round.Graph, resolverOpts...)
	scanner := match.NewScanner(round.Graph, p.filter, match.NewMatcher(round.Graph, resolver))

	var criteria []*match.Criteria
	for _, r := range rules {
		criteria = append(criteria, r.Criteria()...)
	}
	ix := scanner.Scan(round.Roots, criteria)
	log.Info("Scan complete",
		zap.Int("rules", len(rules)),
		zap.Int("criteria", len(criteria)),
		zap.Int("visited", ix.Visited()),
	)
	return rules, resolver, ix
}

// Process runs one round. Rule-level problems are reported as diagnostics;
// only cancellation aborts the round with an error.
func (p *Processor) Process(ctx context.Context, round Round) (*Report, error) {
	report := &Report{RoundID: uuid.NewString(), Started: time.Now()}
	log := diag.NewLogger(p.log.With(zap.String("round_id", report.RoundID)), p.opts.Verbose)
	defer func() {
		report.Duration = time.Since(report.Started)
		report.Diagnostics = log.Diagnostics()
	}()

	if round.Graph == nil || len(round.Roots) == 0 {
		return report, nil
	}

	rules, resolver, ix := p.scan(round, log)
	report.Rules = len(rules)
	if len(rules) == 0 {
		log.Info("No generator methods found")
		return report, nil
	}

	planner := NewPlanner(round.Graph, log, Ambient(resolver))
	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !rule.Area.IsOutput() {
			log.Report(diag.NewNotOutputLocation(rule.Element, string(rule.Area)))
			continue
		}
		if pre, ok := p.renderer.(Preloader); ok {
			if err := pre.Preload(rule.Template); err != nil {
				log.Report(diag.NewTemplateLoad(rule.Element, rule.Template, err))
				continue
			}
		}
		report.Outputs = append(report.Outputs, planner.Execute(ctx, rule, ix, p.renderer)...)
	}

	if p.recorder != nil {
		report.Diagnostics = log.Diagnostics()
		report.Duration = time.Since(report.Started)
		if err := p.recorder.Record(ctx, report); err != nil {
			p.log.Warn("failed to record round", zap.String("round_id", report.RoundID), zap.Error(err))
		}
	}
	return report, nil
}
