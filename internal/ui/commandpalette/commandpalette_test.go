package commandpalette

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func testItems() []Item {
	return []Item{
		{ID: "open", Name: "Open a file", Hint: "ctrl+o"},
		{ID: "save", Name: "Save the current file", Hint: "ctrl+s", Disabled: true},
		{ID: "save-as", Name: "Save as new file", Hint: "alt+s"},
		{ID: "schema:person", Name: "Person", Group: "Schema", Disabled: true},
		{ID: "schema:object", Name: "Object", Group: "Schema"},
		{ID: "template:person", Name: "Person", Group: "Template"},
	}
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestNew(t *testing.T) {
	m := New(Config{Title: "Commands", Items: testItems()})

	require.Equal(t, 0, m.cursor)
	require.Len(t, m.FilteredItems(), 6)
	require.Equal(t, "Type a command...", m.input.Placeholder)
}

func TestNew_SkipsLeadingDisabled(t *testing.T) {
	m := New(Config{Items: []Item{
		{ID: "a", Name: "A", Disabled: true},
		{ID: "b", Name: "B"},
	}})

	it, ok := m.Selected()
	require.True(t, ok)
	require.Equal(t, "b", it.ID)
}

func TestNavigation_SkipsDisabledItems(t *testing.T) {
	m := New(Config{Items: testItems()})

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, 2, m.cursor, "save is disabled")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, 4, m.cursor, "active schema is disabled")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, 5, m.cursor, "stays on the last enabled item")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	require.Equal(t, 4, m.cursor)
}

func TestSelect_EmitsSelectMsg(t *testing.T) {
	m := New(Config{Items: testItems()})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg, ok := cmd().(SelectMsg)
	require.True(t, ok)
	require.Equal(t, "save-as", msg.Item.ID)
}

func TestSelect_NothingWhenAllDisabled(t *testing.T) {
	m := New(Config{Items: []Item{{ID: "x", Name: "X", Disabled: true}}})

	_, ok := m.Selected()
	require.False(t, ok)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Nil(t, cmd)
}

func TestEscape_EmitsCancel(t *testing.T) {
	m := New(Config{Items: testItems()})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	require.IsType(t, CancelMsg{}, cmd())
}

func TestFilter_NameMatchesBeforeGroupMatches(t *testing.T) {
	m := typeText(New(Config{Items: testItems()}), "schema")

	ids := make([]string, 0)
	for _, it := range m.FilteredItems() {
		ids = append(ids, it.ID)
	}
	require.Equal(t, []string{"schema:person", "schema:object"}, ids)

	it, ok := m.Selected()
	require.True(t, ok)
	require.Equal(t, "schema:object", it.ID)
}

func TestFilter_CaseInsensitiveAndClear(t *testing.T) {
	m := typeText(New(Config{Items: testItems()}), "SAVE")
	require.Len(t, m.FilteredItems(), 2)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlU})
	require.Len(t, m.FilteredItems(), 6)
}

func TestFilter_NoMatches(t *testing.T) {
	m := typeText(New(Config{Items: testItems()}), "zzz")
	require.Empty(t, m.FilteredItems())
	require.Contains(t, m.View(), "No matching commands")
	_, ok := m.Selected()
	require.False(t, ok)
}

func TestScroll_KeepsCursorVisible(t *testing.T) {
	var items []Item
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		items = append(items, Item{ID: id, Name: strings.ToUpper(id)})
	}
	m := New(Config{Items: items, MaxVisibleItems: 2})

	for range 4 {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	require.Equal(t, 4, m.cursor)
	require.Equal(t, 3, m.offset)

	view := m.View()
	require.Contains(t, view, "E")
	require.NotContains(t, view, "↓ more")
}

func TestView_ShowsGroupsAndHints(t *testing.T) {
	m := New(Config{Title: "Commands", Items: testItems()}).SetSize(100, 30)
	view := m.View()

	require.Contains(t, view, "Commands")
	require.Contains(t, view, "Schema: Object")
	require.Contains(t, view, "ctrl+o")
}

func TestOverlay_PlacesOverBackground(t *testing.T) {
	m := New(Config{Items: testItems()}).SetSize(80, 24)
	bg := strings.TrimSuffix(strings.Repeat(strings.Repeat(" ", 80)+"\n", 24), "\n")

	out := m.Overlay(bg)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 24)
	require.Contains(t, out, "Open a file")
	require.NotContains(t, lines[0], "Open a file")
}
