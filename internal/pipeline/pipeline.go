// Package pipeline renders templates into output areas. A rendering is
// executed into a buffer first, so a failing template never leaves a
// partial file behind.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	// ErrUnknownArea is returned for area names that are not known
	ErrUnknownArea = errors.New("unknown area")
	// ErrNotOutputArea is returned when writing to an area that is not an
	// output location
	ErrNotOutputArea = errors.New("not an output location")
	// ErrPathEscapes is returned for output paths outside their area
	ErrPathEscapes = errors.New("invalid output path")
	// ErrTemplateLoad is returned when a template cannot be loaded or parsed
	ErrTemplateLoad = errors.New("template load failed")
	// ErrRender is returned when a template fails to execute
	ErrRender = errors.New("render failed")
)

// Request describes one rendering
type Request struct {
	// TemplateID is the template path relative to the template root
	TemplateID string
	Area       Area
	// Path is the slash separated output path relative to the area
	Path     string
	Bindings map[string]interface{}
}

// Pipeline loads templates and writes their output
type Pipeline struct {
	loader *Loader
	filer  *Filer
	log    *zap.Logger
}

// New creates a pipeline
func New(loader *Loader, filer *Filer, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{loader: loader, filer: filer, log: log}
}

// Loader returns the template loader
func (p *Pipeline) Loader() *Loader {
	return p.loader
}

// Render executes the request's template with its bindings and writes the
// result. The returned error wraps one of the package's sentinel errors.
func (p *Pipeline) Render(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !req.Area.IsOutput() {
		return fmt.Errorf("%w: %s", ErrNotOutputArea, req.Area)
	}
	if _, err := CleanPath(req.Path); err != nil {
		return err
	}

	tmpl, err := p.loader.Load(req.TemplateID)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, req.Bindings); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRender, req.TemplateID, err)
	}

	if err := p.filer.Write(req.Area, req.Path, buf.Bytes()); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}

	p.log.Debug("rendered",
		zap.String("template", req.TemplateID),
		zap.String("area", string(req.Area)),
		zap.String("path", req.Path),
		zap.Int("bytes", buf.Len()),
	)
	return nil
}

// Preload loads and caches a template without rendering it
func (p *Pipeline) Preload(templateID string) error {
	_, err := p.loader.Load(templateID)
	return err
}
