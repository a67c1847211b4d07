package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/declgen/internal/decl"
	"github.com/conduit-lang/declgen/internal/diag"
	"github.com/conduit-lang/declgen/internal/match"
	"github.com/conduit-lang/declgen/internal/pipeline"
)

type fixture struct {
	b   *decl.Builder
	gen decl.NodeID
}

// newFixture declares com.test.package with the classes MyClass and Other
// and the interface Service, plus an empty generator interface
func newFixture() fixture {
	b := decl.NewBuilder()
	model := b.Root(b.Package("com.test.package"))
	b.Modify(b.Type(model, decl.KindClass, "MyClass"), decl.ModPublic)
	b.Type(model, decl.KindClass, "Other")
	b.Type(model, decl.KindInterface, "Service")

	gen := generatorInterface(b, b.Root(b.Package("com.test.gen")), "Gen")
	return fixture{b: b, gen: gen}
}

func (f fixture) rule(name string, anns ...*decl.Annotation) decl.NodeID {
	m := f.b.Method(f.gen, name)
	f.b.Annotate(m, anns...)
	return m
}

func (f fixture) process(t *testing.T, r Renderer) *Report {
	t.Helper()
	p, err := NewProcessor(r, nil, nil)
	require.NoError(t, err)
	report, err := p.Process(context.Background(), Round{Graph: f.b.Graph(), Roots: f.b.Roots()})
	require.NoError(t, err)
	return report
}

func TestGroupRuleRendersOnce(t *testing.T) {
	f := newFixture()
	f.rule("all",
		produces("all.txt", "all.tmpl"),
		forAll(
			where("A", kinds("CLASS")),
			where("B", kinds("ENUM")),
		),
	)

	r := newFakeRenderer()
	report := f.process(t, r)

	require.Len(t, r.calls, 1)
	req := r.calls[0].req
	assert.Equal(t, "all.txt", req.Path)
	assert.Equal(t, "all.tmpl", req.TemplateID)
	assert.Equal(t, pipeline.SourceOutput, req.Area)
	assert.Equal(t, []string{"MyClass", "Other"}, names(req.Bindings["A"]))

	empty, ok := req.Bindings["B"].([]decl.Element)
	require.True(t, ok)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	assert.Empty(t, report.Diagnostics)
	assert.Equal(t, 1, report.Written())
	assert.Equal(t, 1, report.Rules)
}

func TestLoopRuleRendersPerMatch(t *testing.T) {
	f := newFixture()
	f.rule("each",
		produces("root/{packageElementPath}/{elementSimpleName}Generated", "each.tmpl"),
		forEach(
			where("cls", kinds("CLASS"), decl.Pair("simpleNameMatches", decl.String("My.*"))),
			where("services", kinds("INTERFACE")),
		),
	)

	r := newFakeRenderer()
	report := f.process(t, r)

	require.Len(t, r.calls, 1)
	req := r.calls[0].req
	assert.Equal(t, "root/com/test/package/MyClassGenerated", req.Path)

	cls, ok := req.Bindings["cls"].(decl.Element)
	require.True(t, ok)
	assert.Equal(t, "MyClass", cls.SimpleName())
	// the generator interface itself matches INTERFACE too
	assert.Equal(t, []string{"Service", "Gen"}, names(req.Bindings["services"]))
	assert.Empty(t, report.Diagnostics)
}

func TestLoopRuleBindsEachElementSeparately(t *testing.T) {
	f := newFixture()
	f.rule("each",
		produces("{elementSimpleName}.{unknownVariable}", "each.tmpl"),
		forEach(where("cls", kinds("CLASS"))),
	)

	r := newFakeRenderer()
	f.process(t, r)

	assert.Equal(t, []string{"MyClass.{unknownVariable}", "Other.{unknownVariable}"}, r.paths())
	first := r.calls[0].req.Bindings["cls"].(decl.Element)
	second := r.calls[1].req.Bindings["cls"].(decl.Element)
	assert.Equal(t, "MyClass", first.SimpleName())
	assert.Equal(t, "Other", second.SimpleName())
}

func TestEmptyLoopWarnsOnce(t *testing.T) {
	f := newFixture()
	f.rule("none",
		produces("{elementSimpleName}", "each.tmpl"),
		forEach(where("x", kinds("RECORD"))),
	)

	r := newFakeRenderer()
	report := f.process(t, r)

	assert.Empty(t, r.calls)
	errs, warnings, _ := report.Diagnostics.Count()
	assert.Equal(t, 0, errs)
	assert.Equal(t, 1, warnings)
	assert.Equal(t, []diag.Code{diag.WarnNoElementMatched}, codes(report.Diagnostics))
}

func TestAmbiguousRuleIsNotRendered(t *testing.T) {
	f := newFixture()
	f.rule("both",
		produces("x", "x.tmpl"),
		forAll(where("a", kinds("CLASS"))),
		forEach(where("b", kinds("CLASS"))),
	)

	r := newFakeRenderer()
	report := f.process(t, r)

	assert.Empty(t, r.calls)
	assert.Zero(t, r.preloads)
	assert.Zero(t, report.Rules)
	errs, warnings, _ := report.Diagnostics.Count()
	assert.Equal(t, 1, errs)
	assert.Equal(t, 0, warnings)
}

func TestAmbiguousRuleCriteriaAreNotScanned(t *testing.T) {
	f := newFixture()
	f.rule("both",
		produces("x", "x.tmpl"),
		forAll(where("a", kinds("ENUM"))),
		forEach(where("b", kinds("RECORD"))),
	)
	f.rule("ok", produces("y", "y.tmpl"), forAll(where("c", kinds("CLASS"))))

	rules, _ := find(f.b)
	var scanned []*match.Criteria
	for _, r := range rules {
		scanned = append(scanned, r.Criteria()...)
	}
	require.Len(t, scanned, 1)
	assert.Equal(t, []decl.Kind{decl.KindClass}, scanned[0].Kinds)
}

func TestSimpleRuleGetsAmbientBindings(t *testing.T) {
	f := newFixture()
	f.rule("readme", produces("README.md", "readme.tmpl"))

	r := newFakeRenderer()
	f.process(t, r)

	require.Len(t, r.calls, 1)
	b := r.calls[0].req.Bindings
	assert.IsType(t, Goodies{}, b[GoodiesBinding])
	assert.IsType(t, Filter{}, b[FilterBinding])
	kinds, ok := b[KindsBinding].(map[string]decl.Kind)
	require.True(t, ok)
	assert.Equal(t, decl.KindClass, kinds["CLASS"])
	assert.Len(t, b, 3)
}

func TestRenderFailureDoesNotStopLaterRenders(t *testing.T) {
	f := newFixture()
	f.rule("each", produces("{elementSimpleName}", "each.tmpl"), forEach(where("cls", kinds("CLASS"))))
	f.rule("after", produces("after.txt", "after.tmpl"))

	r := newFakeRenderer()
	r.failOn["MyClass"] = errBoom
	report := f.process(t, r)

	assert.Equal(t, []string{"MyClass", "Other", "after.txt"}, r.paths())
	assert.Equal(t, []diag.Code{diag.ErrRenderFailed}, codes(report.Diagnostics))
	assert.Equal(t, "com.test.gen.Gen#each", report.Diagnostics[0].Element)
	require.Len(t, report.Outputs, 3)
	assert.Equal(t, StatusFailed, report.Outputs[0].Status)
	assert.Equal(t, 2, report.Written())
}

func TestRenderErrorsMapToDiagnostics(t *testing.T) {
	tests := []struct {
		err  error
		code diag.Code
	}{
		{pipeline.ErrNotOutputArea, diag.ErrNotOutputLocation},
		{pipeline.ErrTemplateLoad, diag.ErrTemplateLoad},
		{pipeline.ErrRender, diag.ErrRenderFailed},
		{errors.New("other"), diag.ErrRenderFailed},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			f := newFixture()
			f.rule("m", produces("out", "t.tmpl"))
			r := newFakeRenderer()
			r.failOn["out"] = tt.err

			report := f.process(t, r)
			assert.Equal(t, []diag.Code{tt.code}, codes(report.Diagnostics))
		})
	}
}

func TestNonOutputAreaIsReported(t *testing.T) {
	f := newFixture()
	f.rule("m", produces("x", "x.tmpl", decl.Pair("outputRootLocation", decl.Constant("SOURCE_PATH"))))

	r := newFakeRenderer()
	report := f.process(t, r)

	assert.Empty(t, r.calls)
	assert.Equal(t, []diag.Code{diag.ErrNotOutputLocation}, codes(report.Diagnostics))
}

func TestTemplateLoadFailureIsReportedOncePerRule(t *testing.T) {
	f := newFixture()
	f.rule("each", produces("{elementSimpleName}", "broken.tmpl"), forEach(where("cls", kinds("CLASS"))))
	f.rule("ok", produces("ok.txt", "ok.tmpl"))

	r := newFakeRenderer()
	r.preload["broken.tmpl"] = errBoom
	report := f.process(t, r)

	assert.Equal(t, []string{"ok.txt"}, r.paths())
	assert.Equal(t, []diag.Code{diag.ErrTemplateLoad}, codes(report.Diagnostics))
}

func TestPackageFilterRestrictsMatches(t *testing.T) {
	f := newFixture()
	f.rule("all", produces("all.txt", "all.tmpl"), forAll(where("types", kinds("CLASS", "INTERFACE"))))

	r := newFakeRenderer()
	opts := DefaultOptions()
	opts.PackagePattern = `com\.test\.gen`
	p, err := NewProcessor(r, opts, nil)
	require.NoError(t, err)

	_, err = p.Process(context.Background(), Round{Graph: f.b.Graph(), Roots: f.b.Roots()})
	require.NoError(t, err)
	require.Len(t, r.calls, 1)
	assert.Equal(t, []string{"Gen"}, names(r.calls[0].req.Bindings["types"]))

	opts.PackagePattern = "("
	_, err = NewProcessor(r, opts, nil)
	assert.Error(t, err)
}

func TestEmptyRoundIsNoop(t *testing.T) {
	r := newFakeRenderer()
	p, err := NewProcessor(r, nil, nil)
	require.NoError(t, err)

	report, err := p.Process(context.Background(), Round{})
	require.NoError(t, err)
	assert.NotEmpty(t, report.RoundID)
	assert.Zero(t, report.Rules)
	assert.Empty(t, r.calls)

	b := decl.NewBuilder()
	b.Root(b.Package("com.test"))
	report, err = p.Process(context.Background(), Round{Graph: b.Graph(), Roots: b.Roots()})
	require.NoError(t, err)
	assert.Zero(t, report.Rules)
	assert.Empty(t, report.Diagnostics)
}

func TestCancelledRound(t *testing.T) {
	f := newFixture()
	f.rule("m", produces("x", "x.tmpl"))

	r := newFakeRenderer()
	p, err := NewProcessor(r, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Process(ctx, Round{Graph: f.b.Graph(), Roots: f.b.Roots()})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, r.calls)
}

type recorderFunc func(ctx context.Context, report *Report) error

func (f recorderFunc) Record(ctx context.Context, report *Report) error { return f(ctx, report) }

func TestRecorderReceivesReport(t *testing.T) {
	f := newFixture()
	f.rule("m", produces("x", "x.tmpl"))

	var recorded *Report
	p, err := NewProcessor(newFakeRenderer(), nil, nil)
	require.NoError(t, err)
	p.SetRecorder(recorderFunc(func(_ context.Context, r *Report) error {
		recorded = r
		return errBoom
	}))

	report, err := p.Process(context.Background(), Round{Graph: f.b.Graph(), Roots: f.b.Roots()})
	require.NoError(t, err)
	assert.Same(t, report, recorded)
	assert.Len(t, recorded.Outputs, 1)
}

type sourceFunc func(ctx context.Context) (*decl.Graph, []decl.NodeID, error)

func (f sourceFunc) Load(ctx context.Context) (*decl.Graph, []decl.NodeID, error) { return f(ctx) }

func TestRunPropagatesLoadErrors(t *testing.T) {
	p, err := NewProcessor(newFakeRenderer(), nil, nil)
	require.NoError(t, err)

	_, err = p.Run(context.Background(), sourceFunc(func(context.Context) (*decl.Graph, []decl.NodeID, error) {
		return nil, nil, errBoom
	}))
	assert.ErrorIs(t, err, errBoom)

	f := newFixture()
	f.rule("m", produces("x", "x.tmpl"))
	report, err := p.Run(context.Background(), sourceFunc(func(context.Context) (*decl.Graph, []decl.NodeID, error) {
		return f.b.Graph(), f.b.Roots(), nil
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Written())
}

func TestResolveOutputPath(t *testing.T) {
	b := decl.NewBuilder()
	named := b.Type(b.Package("a.b"), decl.KindClass, "X")
	unnamed := b.Type(b.Package(""), decl.KindClass, "Y")
	g := b.Graph()

	assert.Equal(t, "a/b/X.java", ResolveOutputPath(g.ElementOf(named), "{packageElementPath}/{elementSimpleName}.java"))
	assert.Equal(t, "/Y.java", ResolveOutputPath(g.ElementOf(unnamed), "{packageElementPath}/{elementSimpleName}.java"))
	// the filer rejects it, so the render becomes GEN607
	_, err := pipeline.CleanPath("/Y.java")
	assert.ErrorIs(t, err, pipeline.ErrPathEscapes)
	assert.Equal(t, "X-X", ResolveOutputPath(g.ElementOf(named), "{elementSimpleName}-{elementSimpleName}"))
	assert.Equal(t, "{other}", ResolveOutputPath(g.ElementOf(named), "{other}"))
}

func TestScanMatchesWithoutRendering(t *testing.T) {
	f := newFixture()
	f.rule("classes",
		produces("{elementSimpleName}.txt", "c.tmpl"),
		forEach(where("", kinds("CLASS"))),
	)
	f.rule("broken",
		produces("x.txt", "x.tmpl"),
		forAll(where("A")),
		forEach(where("B")),
	)

	r := newFakeRenderer()
	p, err := NewProcessor(r, nil, nil)
	require.NoError(t, err)

	scan := p.Scan(Round{Graph: f.b.Graph(), Roots: f.b.Roots()})
	require.Len(t, scan.Rules, 1)
	require.NotNil(t, scan.Index)
	assert.Equal(t, 2, scan.Index.Count(scan.Rules[0].Primary))
	assert.Equal(t, []diag.Code{diag.ErrAmbiguousCardinality}, codes(scan.Diagnostics))
	assert.Empty(t, r.calls)
	assert.Zero(t, r.preloads)
}

func TestScanEmptyRound(t *testing.T) {
	p, err := NewProcessor(newFakeRenderer(), nil, nil)
	require.NoError(t, err)

	scan := p.Scan(Round{})
	assert.Empty(t, scan.Rules)
	assert.Nil(t, scan.Index)
}
