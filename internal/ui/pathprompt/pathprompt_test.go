package pathprompt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/yedit/internal/persistence"
	"github.com/zjrosen/yedit/internal/session"
)

type pickResult struct {
	path string
	err  error
}

// pending starts a pick on a PromptPicker and returns the request the UI
// would receive together with the picker's eventual answer.
func pending(t *testing.T, mode persistence.PickMode) (persistence.PickRequest, <-chan pickResult) {
	t.Helper()
	p := persistence.NewPromptPicker()
	out := make(chan pickResult, 1)
	go func() {
		var r pickResult
		if mode == persistence.PickSave {
			r.path, r.err = p.PickSave(context.Background(), session.YAMLFilter, session.SuggestedName)
		} else {
			r.path, r.err = p.PickOpen(context.Background(), session.YAMLFilter)
		}
		out <- r
	}()
	return <-p.Requests(), out
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestOpen_ResolvesTypedPath(t *testing.T) {
	req, out := pending(t, persistence.PickOpen)
	m := typeText(New(req, "/work"), "person.yaml")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	require.Equal(t, DoneMsg{Path: "person.yaml"}, cmd())
	require.Equal(t, pickResult{path: "person.yaml"}, <-out)
	require.Empty(t, m.Err())
}

func TestOpen_RejectsOtherExtensions(t *testing.T) {
	req, out := pending(t, persistence.PickOpen)
	m := typeText(New(req, "/work"), "notes.txt")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Nil(t, cmd)
	require.Contains(t, m.Err(), "YAML Files only")
	require.Contains(t, m.View(), ".yaml, .yml")

	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, DoneMsg{Cancelled: true}, cmd())
	r := <-out
	require.True(t, errors.Is(r.err, session.ErrUserCancelled))
}

func TestSave_PrefillsSuggestedName(t *testing.T) {
	req, out := pending(t, persistence.PickSave)
	m := New(req, "/work")
	require.Equal(t, filepath.Join("/work", "file.yaml"), m.Value())
	require.Contains(t, m.View(), "Save as")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	require.Equal(t, filepath.Join("/work", "file.yaml"), (<-out).path)
}

func TestEmptyPathIsRejected(t *testing.T) {
	req, out := pending(t, persistence.PickOpen)
	m, cmd := New(req, "").Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Nil(t, cmd)
	require.Equal(t, "Enter a file path.", m.Err())

	m = typeText(m, "a")
	require.Empty(t, m.Err(), "typing clears the message")

	req.Cancel()
	require.ErrorIs(t, (<-out).err, session.ErrUserCancelled)
}
