package commands

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/conduit-lang/declgen/internal/cli/config"
	"github.com/conduit-lang/declgen/internal/decl"
	"github.com/conduit-lang/declgen/internal/decl/javasrc"
	"github.com/conduit-lang/declgen/internal/decl/yamlsrc"
	"github.com/conduit-lang/declgen/internal/generator"
	"github.com/conduit-lang/declgen/internal/ledger"
	"github.com/conduit-lang/declgen/internal/pipeline"
)

// app is the wiring of one command invocation
type app struct {
	cfg       *config.Config
	fs        afero.Fs
	log       *zap.Logger
	pipeline  *pipeline.Pipeline
	processor *generator.Processor
	ledger    *ledger.Ledger

	rounds sync.Mutex
}

// newLogger returns a development logger when verbose and a quiet
// production logger otherwise
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// loadConfig loads the configuration, applying the --verbose flag on top
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFs(o.fs, o.configFile)
	if err != nil {
		return nil, err
	}
	if o.verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

// newApp loads the configuration and wires the pipeline, the processor
// and, when configured, the ledger
func (o *rootOptions) newApp(ctx context.Context) (*app, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := o.newLogger(cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	enc, err := pipeline.LookupEncoding(cfg.Template.DefaultEncoding)
	if err != nil {
		return nil, err
	}
	templateLog := zap.NewNop()
	if cfg.Template.Verbose {
		templateLog = log.Named("template")
	}
	loader := pipeline.NewLoader(o.fs, cfg.Template.RootDir, enc, templateLog)
	p := pipeline.New(loader, pipeline.NewFiler(o.fs, cfg.OutputDirs()), log.Named("pipeline"))

	processor, err := generator.NewProcessor(p, cfg.ProcessorOptions(), log)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, fs: o.fs, log: log, pipeline: p, processor: processor}
	if cfg.Ledger.Path != "" {
		l, err := ledger.Open(ctx, cfg.Ledger.Path, log.Named("ledger"))
		if err != nil {
			return nil, err
		}
		processor.SetRecorder(l)
		a.ledger = l
	}
	return a, nil
}

// source returns the declaration source selected by the configuration
func (a *app) source() (decl.Source, error) {
	switch a.cfg.Source.Kind {
	case config.SourceYAML:
		return yamlsrc.NewSource(a.fs, a.cfg.Source.Paths...), nil
	default:
		return javasrc.NewSource(a.fs, javasrc.Options{
			Paths:   a.cfg.Source.Paths,
			Include: a.cfg.Source.Include,
			Exclude: a.cfg.Source.Exclude,
		})
	}
}

// load reads a fresh round from the configured source
func (a *app) load(ctx context.Context) (generator.Round, error) {
	src, err := a.source()
	if err != nil {
		return generator.Round{}, err
	}
	g, roots, err := src.Load(ctx)
	if err != nil {
		return generator.Round{}, fmt.Errorf("failed to load declarations: %w", err)
	}
	return generator.Round{Graph: g, Roots: roots}, nil
}

func (a *app) Close() error {
	_ = a.log.Sync()
	if a.ledger != nil {
		return a.ledger.Close()
	}
	return nil
}
