package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/yedit/internal/schema"
	"github.com/zjrosen/yedit/internal/session"
	"github.com/zjrosen/yedit/internal/testutil"
	"github.com/zjrosen/yedit/internal/validate"
)

func TestNew_StartsDirtyWithWelcomeText(t *testing.T) {
	env := testutil.NewBuilder(t).Build()
	s := env.Session

	snap := s.Snapshot()
	require.Equal(t, session.WelcomeText, snap.Buffer)
	require.Empty(t, snap.Saved)
	require.True(t, snap.Dirty)
	require.Equal(t, "person.yaml", snap.Schema.ID)
	require.Empty(t, snap.DisplayFilename)
	require.False(t, snap.HasHandle)
	require.Empty(t, snap.Errors)
	require.Equal(t, "Editing untitled file", snap.Title())
	require.Equal(t, session.StatusDirty, snap.StatusText())
	require.Equal(t, "file:///person.yaml", string(snap.BoundURI))

	require.True(t, env.Feed.Sync())
	require.Len(t, s.Errors(), 1)
	require.Equal(t, 1, s.Errors()[0].Line)
	require.Equal(t, "1 error", s.Snapshot().ErrorSummary())
}

func TestNew_WithSchemaAndBuffer(t *testing.T) {
	env := testutil.NewBuilder(t).
		WithSessionOptions(session.WithSchema("object.yaml"), session.WithBuffer("object_name: x")).
		Build()

	require.Equal(t, "object.yaml", env.Session.ActiveSchemaID())
	require.Equal(t, "object_name: x", env.Session.Buffer())
	require.Equal(t, "object_name: x", env.Workspace.Current().Value())
}

func TestScenario_TemplateSaveSwitch(t *testing.T) {
	env := testutil.NewBuilder(t).Build()
	env.Bridge.QueueSave("file.yaml")
	s := env.Session
	require.True(t, s.IsDirty())

	tmpl, err := env.Templates.Get("file_template")
	require.NoError(t, err)
	require.NoError(t, s.LoadTemplate(tmpl))
	require.Equal(t, testutil.FileTemplate, s.Buffer())
	require.Equal(t, "person.yaml", s.ActiveSchemaID())
	require.True(t, s.IsDirty())
	require.Empty(t, s.SavedText())

	require.NoError(t, s.Save(context.Background(), true))
	require.False(t, s.IsDirty())
	require.Equal(t, "file.yaml", s.DisplayFilename())
	require.Equal(t, []string{session.SuggestedName}, env.Bridge.Suggestions())

	require.NoError(t, s.SwitchSchema("object.yaml"))
	require.Equal(t, testutil.FileTemplate, s.Buffer())
	require.True(t, s.IsDirty())

	require.True(t, env.Feed.Sync())
	errs := s.Errors()
	require.Len(t, errs, 1)
	require.Equal(t, 3, errs[0].Line)
}

func TestSave_SucceedsAndClearsDirty(t *testing.T) {
	env := testutil.NewBuilder(t).Build()
	env.Bridge.QueueSave("notes.yaml")
	s := env.Session

	s.Edit("name: Ada")
	require.NoError(t, s.Save(context.Background(), false))

	require.False(t, s.IsDirty())
	require.Equal(t, "notes.yaml", s.DisplayFilename())
	require.Equal(t, []testutil.Write{{Name: "notes.yaml", Text: "name: Ada"}}, env.Bridge.Writes())
	require.Equal(t, session.StatusSaved, s.Snapshot().StatusText())
	require.Equal(t, "Editing notes.yaml", s.Snapshot().Title())
}

func TestSave_WithHandleDoesNotPrompt(t *testing.T) {
	env := testutil.NewBuilder(t).Build()
	env.Bridge.QueueSave("a.yaml")
	s := env.Session

	require.NoError(t, s.Save(context.Background(), false))
	s.Edit("a: 2")
	require.NoError(t, s.Save(context.Background(), false))

	require.Len(t, env.Bridge.Suggestions(), 1)
	content, ok := env.Bridge.File("a.yaml")
	require.True(t, ok)
	require.Equal(t, "a: 2", content)
}

func TestSave_AsNewSuggestsCurrentName(t *testing.T) {
	env := testutil.NewBuilder(t).Build()
	env.Bridge.WithStandardFiles().QueueOpen("person.yaml").QueueSave("copy.yaml")
	s := env.Session

	require.NoError(t, s.OpenFile(context.Background()))
	require.NoError(t, s.Save(context.Background(), true))

	require.Equal(t, []string{"person.yaml"}, env.Bridge.Suggestions())
	require.Equal(t, "copy.yaml", s.DisplayFilename())
}

func TestSave_CancelledPickerChangesNothing(t *testing.T) {
	env := testutil.NewBuilder(t).Build()
	s := env.Session
	before := s.Snapshot()

	err := s.Save(context.Background(), false)
	require.ErrorIs(t, err, session.ErrUserCancelled)
	require.True(t, session.IsCancelled(err))

	after := s.Snapshot()
	require.Equal(t, before.Buffer, after.Buffer)
	require.Equal(t, before.Saved, after.Saved)
	require.True(t, after.Dirty)
	require.False(t, after.HasHandle)
	require.Empty(t, env.Bridge.Writes())
}

func TestSave_WriteFailureKeepsDirty(t *testing.T) {
	env := testutil.NewBuilder(t).Build()
	diskFull := errors.New("disk full")
	env.Bridge.QueueSave("file.yaml").FailWrites(diskFull)
	s := env.Session

	err := s.Save(context.Background(), false)
	var ioErr *session.IOError
	require.ErrorAs(t, err, &ioErr)
	require.Equal(t, "write", ioErr.Op)
	require.ErrorIs(t, err, diskFull)

	require.True(t, s.IsDirty())
	require.Empty(t, s.SavedText())
	require.False(t, s.HasHandle())
	require.Empty(t, s.DisplayFilename())
	require.False(t, s.Busy())
}

func TestOpenFile_ReplacesBufferAndIsClean(t *testing.T) {
	env := testutil.NewBuilder(t).Build()
	env.Bridge.WithStandardFiles().QueueOpen("broken.yaml")
	s := env.Session
	before := s.BoundModel()

	require.NoError(t, s.OpenFile(context.Background()))

	snap := s.Snapshot()
	require.Equal(t, "name: Ada\nage: old\noccupation: Pilot\n", snap.Buffer)
	require.Equal(t, snap.Buffer, snap.Saved)
	require.False(t, snap.Dirty)
	require.Equal(t, "broken.yaml", snap.DisplayFilename)
	require.Equal(t, "person.yaml", snap.Schema.ID)
	require.NotSame(t, before, s.BoundModel())
	require.True(t, before.Disposed())

	require.True(t, env.Feed.Sync())
	require.Len(t, s.Errors(), 2)
}

func TestOpenFile_ThenSaveWritesBytesBack(t *testing.T) {
	env := testutil.NewBuilder(t).Build()
	env.Bridge.WithStandardFiles().QueueOpen("object.yaml")
	s := env.Session

	require.NoError(t, s.OpenFile(context.Background()))
	require.NoError(t, s.Save(context.Background(), false))

	require.Equal(t, s.Buffer(), s.SavedText())
	require.Equal(t, []testutil.Write{{Name: "object.yaml", Text: "object_name: Kiwi\noccupation: Fruit\n"}}, env.Bridge.Writes())
}

func TestOpenFile_CancelledLeavesStateUntouched(t *testing.T) {
	env := testutil.NewBuilder(t).Build()
	s := env.Session
	require.NoError(t, s.SwitchSchema("object.yaml"))
	before := s.Snapshot()

	require.ErrorIs(t, s.OpenFile(context.Background()), session.ErrUserCancelled)

	after := s.Snapshot()
	require.Equal(t, before.Buffer, after.Buffer)
	require.Equal(t, before.Saved, after.Saved)
	require.Equal(t, before.Schema.ID, after.Schema.ID)
	require.Equal(t, before.HasHandle, after.HasHandle)
	require.Equal(t, before.Generation, after.Generation)
}

func TestOpenFile_ContextCancelIsCancellation(t *testing.T) {
	env := testutil.NewBuilder(t).Build()
	env.Bridge.QueueOpenError(context.Canceled)

	require.ErrorIs(t, env.Session.OpenFile(context.Background()), session.ErrUserCancelled)
}

func TestOpenFile_ReadFailureLeavesStateUntouched(t *testing.T) {
	env := testutil.NewBuilder(t).Build()
	env.Bridge.WithStandardFiles().QueueOpen("person.yaml").FailReads(errors.New("permission denied"))
	s := env.Session

	err := s.OpenFile(context.Background())
	var ioErr *session.IOError
	require.ErrorAs(t, err, &ioErr)
	require.Equal(t, "read", ioErr.Op)
	require.Contains(t, err.Error(), "permission denied")

	require.Equal(t, session.WelcomeText, s.Buffer())
	require.False(t, s.HasHandle())
}

func TestSwitchSchema_RebindsAndClearsErrors(t *testing.T) {
	env := testutil.NewBuilder(t).Build()
	s := env.Session
	require.True(t, env.Feed.Sync())
	require.NotEmpty(t, s.Errors())

	old := s.BoundModel()
	require.NoError(t, s.SwitchSchema("object.yaml"))

	require.Equal(t, session.WelcomeText, s.Buffer())
	require.Equal(t, "file:///object.yaml", string(s.BoundModel().URI()))
	require.Empty(t, s.Errors())
	require.True(t, old.Disposed())

	require.False(t, s.OnValidationMarkers(old.Generation(), []validate.Marker{{Line: 9, Message: "stale"}}))
	require.Empty(t, s.Errors())
}

func TestSwitchSchema_SameSchemaStillRebinds(t *testing.T) {
	env := testutil.NewBuilder(t).Build()
	s := env.Session
	old := s.BoundModel()

	require.NoError(t, s.SwitchSchema("person.yaml"))

	require.Greater(t, s.BoundModel().Generation(), old.Generation())
	require.Equal(t, old.URI(), s.BoundModel().URI())
	require.Equal(t, 1, env.Workspace.Len())
}

func TestSwitchSchema_UnknownSchema(t *testing.T) {
	env := testutil.NewBuilder(t).Build()
	s := env.Session
	before := s.BoundModel()

	require.ErrorIs(t, s.SwitchSchema("nope.yaml"), schema.ErrSchemaNotFound)
	require.ErrorIs(t, s.LoadContent("nope.yaml", "x"), schema.ErrSchemaNotFound)
	require.Same(t, before, s.BoundModel())
	require.Equal(t, session.WelcomeText, s.Buffer())
}

func TestLoadContent_ReplacesBufferOnce(t *testing.T) {
	env := testutil.NewBuilder(t).Build()
	s := env.Session

	require.NoError(t, s.LoadContent("object.yaml", "object_name: Kiwi"))
	require.Equal(t, "object_name: Kiwi", s.Buffer())
	require.Equal(t, "object.yaml", s.ActiveSchemaID())
	require.Equal(t, "object_name: Kiwi", env.Workspace.Current().Value())
}

func TestOnValidationMarkers_ReplacesWholesale(t *testing.T) {
	env := testutil.NewBuilder(t).Build()
	s := env.Session
	gen := s.BoundModel().Generation()

	require.True(t, s.OnValidationMarkers(gen, []validate.Marker{
		{Line: 2, Message: "b", Severity: validate.SeverityError},
		{Line: 1, Message: "a", Severity: validate.SeverityWarning},
	}))
	require.True(t, s.OnValidationMarkers(gen, []validate.Marker{
		{Line: 4, Message: "c", Severity: validate.SeverityInfo},
	}))

	require.Equal(t, []session.ErrorEntry{{Line: 4, Message: "c", Severity: validate.SeverityInfo}}, s.Errors())
}

func TestReveal_MovesCursorToLineStart(t *testing.T) {
	env := testutil.NewBuilder(t).Build()

	env.Session.Reveal(session.ErrorEntry{Line: 3, Column: 5})

	require.Equal(t, 3, env.Workspace.RevealedLine())
	require.Equal(t, 3, env.Workspace.Cursor().Line)
	require.Equal(t, 0, env.Workspace.Cursor().Column)
}

func TestBusy_SerializesFileOperations(t *testing.T) {
	env := testutil.NewBuilder(t).Build()
	env.Bridge.QueueSave("file.yaml")
	s := env.Session
	release := env.Bridge.Hold()

	done := make(chan error, 1)
	go func() { done <- s.Save(context.Background(), false) }()
	require.Eventually(t, s.Busy, time.Second, time.Millisecond)

	require.ErrorIs(t, s.Save(context.Background(), false), session.ErrBusy)
	require.ErrorIs(t, s.OpenFile(context.Background()), session.ErrBusy)
	require.ErrorIs(t, s.SwitchSchema("object.yaml"), session.ErrBusy)
	require.Equal(t, "person.yaml", s.ActiveSchemaID())

	release()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		require.Fail(t, "save did not finish")
	}
	require.False(t, s.Busy())
	require.False(t, s.IsDirty())
}

func TestSave_EditDuringWriteStaysDirty(t *testing.T) {
	env := testutil.NewBuilder(t).Build()
	env.Bridge.QueueSave("file.yaml")
	s := env.Session
	release := env.Bridge.Hold()

	done := make(chan error, 1)
	go func() { done <- s.Save(context.Background(), false) }()
	require.Eventually(t, func() bool { return env.Bridge.WaitingWrites() == 1 }, time.Second, time.Millisecond)

	s.Edit("typed while saving")
	release()
	require.NoError(t, <-done)

	require.Equal(t, "typed while saving", s.Buffer())
	require.True(t, s.IsDirty())
}

func TestPendingChanges(t *testing.T) {
	env := testutil.NewBuilder(t).Build()
	env.Bridge.WithStandardFiles().QueueOpen("person.yaml")
	s := env.Session
	require.NoError(t, s.OpenFile(context.Background()))
	require.True(t, s.Snapshot().PendingChanges().Empty())

	s.Edit("name: Person\nage: 4\noccupation: Astronaut\nextra: 1\n")
	stats := s.Snapshot().PendingChanges()
	require.Equal(t, 2, stats.Added)
	require.Equal(t, 1, stats.Removed)
}

func TestSubscribe_PublishesTransitions(t *testing.T) {
	env := testutil.NewBuilder(t).Build()
	env.Bridge.QueueSave("file.yaml")
	s := env.Session
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := s.Subscribe(ctx)

	require.NoError(t, s.SwitchSchema("object.yaml"))
	require.NoError(t, s.Save(ctx, false))

	var kinds []session.ChangeKind
	for len(kinds) < 2 {
		select {
		case ev := <-ch:
			kinds = append(kinds, ev.Payload.Kind)
		case <-time.After(time.Second):
			require.FailNow(t, "timeout waiting for session changes")
		}
	}
	require.Equal(t, []session.ChangeKind{session.ChangeSchema, session.ChangeSaved}, kinds)
}
