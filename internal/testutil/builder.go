// Package testutil builds in-memory editor environments for tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/yedit/internal/editor"
	"github.com/zjrosen/yedit/internal/schema"
	"github.com/zjrosen/yedit/internal/session"
	"github.com/zjrosen/yedit/internal/templates"
	"github.com/zjrosen/yedit/internal/validate"
)

// Env is a fully wired session over in-memory collaborators.
type Env struct {
	Registry  *schema.Registry
	Templates *templates.Catalog
	Engine    *validate.Engine
	Workspace *editor.Workspace
	Bridge    *Bridge
	Session   *session.Session
	Feed      *session.Feed
}

// Builder accumulates environment settings.
type Builder struct {
	t           *testing.T
	descs       []schema.Descriptor
	bridge      *Bridge
	validateCfg validate.Config
	opts        []session.Option
}

// NewBuilder starts from the builtin schemas, synchronous validation and an
// empty bridge.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{t: t, bridge: NewBridge()}
}

// WithSchemas replaces the builtin schemas.
func (b *Builder) WithSchemas(descs ...schema.Descriptor) *Builder {
	b.descs = descs
	return b
}

// WithBridge uses bridge instead of an empty one.
func (b *Builder) WithBridge(bridge *Bridge) *Builder {
	b.bridge = bridge
	return b
}

// WithValidation sets the engine configuration.
func (b *Builder) WithValidation(cfg validate.Config) *Builder {
	b.validateCfg = cfg
	return b
}

// WithSessionOptions passes opts to session.New.
func (b *Builder) WithSessionOptions(opts ...session.Option) *Builder {
	b.opts = append(b.opts, opts...)
	return b
}

// Build wires everything and registers cleanup with t.
func (b *Builder) Build() *Env {
	b.t.Helper()

	descs := b.descs
	if descs == nil {
		var err error
		descs, err = schema.Builtin()
		require.NoError(b.t, err)
	}
	reg, err := schema.NewRegistry(descs...)
	require.NoError(b.t, err)

	engine, err := validate.New(b.validateCfg, reg.List())
	require.NoError(b.t, err)
	b.t.Cleanup(engine.Close)

	builtin, err := templates.Builtin()
	require.NoError(b.t, err)
	var usable []templates.Template
	for _, t := range builtin {
		if reg.Has(t.SchemaID) {
			usable = append(usable, t)
		}
	}
	tmpls, err := templates.NewCatalog(reg, usable...)
	require.NoError(b.t, err)

	ws := editor.NewWorkspace(engine)
	sess := session.New(reg, ws, b.bridge, b.opts...)
	b.t.Cleanup(sess.Close)

	return &Env{
		Registry:  reg,
		Templates: tmpls,
		Engine:    engine,
		Workspace: ws,
		Bridge:    b.bridge,
		Session:   sess,
		Feed:      session.NewFeed(sess, ws),
	}
}
