package editor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/yedit/internal/schema"
	"github.com/zjrosen/yedit/internal/validate"
)

func newWorkspace(t *testing.T) (*Workspace, *validate.Engine) {
	t.Helper()
	descs, err := schema.Builtin()
	require.NoError(t, err)
	engine, err := validate.New(validate.Config{}, descs)
	require.NoError(t, err)
	t.Cleanup(engine.Close)
	return NewWorkspace(engine), engine
}

func TestWorkspace_CreateModelAssignsFreshGenerations(t *testing.T) {
	ws, _ := newWorkspace(t)

	a := ws.CreateModel("name: a", URI(schema.ResourceURI("person.yaml")))
	ws.DisposeModel(a)
	b := ws.CreateModel("name: a", URI(schema.ResourceURI("person.yaml")))

	require.Greater(t, b.Generation(), a.Generation())
	require.NotEqual(t, a.ID(), b.ID())
	require.True(t, a.Disposed())
	require.False(t, b.Disposed())
	require.Equal(t, 1, ws.Len())
}

func TestWorkspace_MarkersScopedToModel(t *testing.T) {
	ws, _ := newWorkspace(t)
	uri := URI(schema.ResourceURI("object.yaml"))

	old := ws.CreateModel("occupation: Astronaut", uri)
	markers, ok := ws.Markers(old)
	require.True(t, ok)
	require.Len(t, markers, 1)

	ws.DisposeModel(old)
	_, ok = ws.Markers(old)
	require.False(t, ok)

	fresh := ws.CreateModel("occupation: Fruit", uri)
	markers, ok = ws.Markers(fresh)
	require.True(t, ok)
	require.Empty(t, markers)

	_, ok = ws.Markers(old)
	require.False(t, ok)
}

func TestWorkspace_SetValueRevalidatesDisplayedModel(t *testing.T) {
	ws, _ := newWorkspace(t)

	require.False(t, ws.SetValue("x"))

	m := ws.CreateModel("occupation: Fruit", URI(schema.ResourceURI("object.yaml")))
	ws.SetModel(m)
	require.Same(t, m, ws.Current())

	require.True(t, ws.SetValue("occupation: Astronaut"))
	require.Equal(t, "occupation: Astronaut", m.Value())

	markers, ok := ws.Markers(m)
	require.True(t, ok)
	require.Len(t, markers, 1)
}

func TestWorkspace_SetValueIgnoredAfterDispose(t *testing.T) {
	ws, _ := newWorkspace(t)
	m := ws.CreateModel("a: 1", URI(schema.ResourceURI("object.yaml")))
	ws.SetModel(m)
	ws.DisposeModel(m)

	require.Nil(t, ws.Current())
	require.False(t, ws.SetValue("a: 2"))
	require.Equal(t, "a: 1", m.Value())
}

func TestWorkspace_ReplacingLiveModelDisposesOld(t *testing.T) {
	ws, _ := newWorkspace(t)
	uri := URI(schema.ResourceURI("person.yaml"))

	a := ws.CreateModel("", uri)
	b := ws.CreateModel("", uri)

	require.True(t, a.Disposed())
	require.False(t, b.Disposed())
	require.Equal(t, 1, ws.Len())
}

func TestWorkspace_CursorAndReveal(t *testing.T) {
	ws, _ := newWorkspace(t)
	m := ws.CreateModel("a: 1", URI(schema.ResourceURI("object.yaml")))

	rev := ws.Revision()
	ws.SetModel(m)
	require.Greater(t, ws.Revision(), rev)
	require.Equal(t, Position{Line: 1}, ws.Cursor())

	ws.RevealLine(7)
	ws.SetCursorPosition(7, -3)
	require.Equal(t, 7, ws.RevealedLine())
	require.Equal(t, Position{Line: 7, Column: 0}, ws.Cursor())

	ws.SetModel(m)
	require.Equal(t, 0, ws.RevealedLine())
}

func TestWorkspace_SubscribeMarkers(t *testing.T) {
	ws, _ := newWorkspace(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := ws.SubscribeMarkers(ctx)

	m := ws.CreateModel("a: 1", URI(schema.ResourceURI("object.yaml")))

	select {
	case ev := <-ch:
		require.Equal(t, string(m.URI()), ev.Payload.URI)
		require.Equal(t, m.Generation(), ev.Payload.Generation)
	case <-time.After(time.Second):
		require.Fail(t, "timeout waiting for marker change")
	}
}
