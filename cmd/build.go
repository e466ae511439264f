package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/yedit/internal/app"
	"github.com/zjrosen/yedit/internal/cachemanager"
	"github.com/zjrosen/yedit/internal/config"
	"github.com/zjrosen/yedit/internal/editor"
	"github.com/zjrosen/yedit/internal/persistence"
	"github.com/zjrosen/yedit/internal/schema"
	"github.com/zjrosen/yedit/internal/session"
	"github.com/zjrosen/yedit/internal/templates"
	"github.com/zjrosen/yedit/internal/validate"
)

type editorOptions struct {
	// BaseDir resolves relative schema and template files.
	BaseDir string
	// Dir resolves relative paths typed into the path prompt.
	Dir      string
	Schema   string
	Template string
	Tracer   trace.Tracer
}

// editorParts is everything behind one editing session.
type editorParts struct {
	Registry  *schema.Registry
	Templates *templates.Catalog
	Engine    *validate.Engine
	Workspace *editor.Workspace
	Picker    *persistence.PromptPicker
	Bridge    *persistence.FSBridge
	Session   *session.Session
	Feed      *session.Feed
}

func buildEngine(fs afero.Fs, c config.Config, baseDir string, tracer trace.Tracer) (*schema.Registry, *validate.Engine, error) {
	reg, err := c.BuildRegistry(fs, baseDir)
	if err != nil {
		return nil, nil, fmt.Errorf("building schema registry: %w", err)
	}
	cache := cachemanager.NewMemory[string, []validate.Marker](
		"markers", c.Validation.CacheTTL, cachemanager.DefaultCleanupInterval)
	engine, err := validate.New(c.Validation, reg.List(),
		validate.WithCache(cache),
		validate.WithTracer(tracer),
	)
	if err != nil {
		return nil, nil, err
	}
	return reg, engine, nil
}

func buildEditor(fs afero.Fs, c config.Config, opts editorOptions) (*editorParts, error) {
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("yedit")
	}

	reg, engine, err := buildEngine(fs, c, opts.BaseDir, opts.Tracer)
	if err != nil {
		return nil, err
	}
	catalog, err := c.BuildTemplates(fs, opts.BaseDir, reg)
	if err != nil {
		engine.Close()
		return nil, fmt.Errorf("building templates: %w", err)
	}

	sessOpts := []session.Option{session.WithTracer(opts.Tracer)}
	if opts.Schema != "" {
		if !reg.Has(opts.Schema) {
			engine.Close()
			return nil, fmt.Errorf("--schema: %w: %q", schema.ErrSchemaNotFound, opts.Schema)
		}
		sessOpts = append(sessOpts, session.WithSchema(opts.Schema))
	}
	var tmpl *templates.Template
	if opts.Template != "" {
		t, err := catalog.Get(opts.Template)
		if err != nil {
			engine.Close()
			return nil, fmt.Errorf("--template: %w", err)
		}
		tmpl = &t
	}

	ws := editor.NewWorkspace(engine)
	picker := persistence.NewPromptPicker()
	bridge := persistence.NewFSBridge(fs, picker, opts.Dir)
	sess := session.New(reg, ws, bridge, sessOpts...)
	if tmpl != nil {
		if err := sess.LoadTemplate(*tmpl); err != nil {
			sess.Close()
			engine.Close()
			return nil, fmt.Errorf("loading template %s: %w", tmpl.ID, err)
		}
	}

	return &editorParts{
		Registry:  reg,
		Templates: catalog,
		Engine:    engine,
		Workspace: ws,
		Picker:    picker,
		Bridge:    bridge,
		Session:   sess,
		Feed:      session.NewFeed(sess, ws),
	}, nil
}

func (e *editorParts) appConfig(fs afero.Fs, dir string, debug bool) app.Config {
	return app.Config{
		Session:   e.Session,
		Workspace: e.Workspace,
		Feed:      e.Feed,
		Templates: e.Templates,
		Picker:    e.Picker,
		Fs:        fs,
		Dir:       dir,
		Debug:     debug,
	}
}

// Close releases the session and stops the validation engine.
func (e *editorParts) Close() {
	e.Session.Close()
	e.Engine.Close()
}
