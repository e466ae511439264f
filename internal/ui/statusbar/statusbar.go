// Package statusbar renders the single line under the editor: document title,
// active schema, dirty indicator, pending line changes and the error count.
package statusbar

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/zjrosen/yedit/internal/session"
	"github.com/zjrosen/yedit/internal/ui/styles"
)

const separator = " │ "

type segment struct {
	text  string
	style lipgloss.Style
}

// Render lays snap out in width cells. The left side (title and schema) is
// truncated first; the right side always fits when width allows.
func Render(snap session.Snapshot, width int) string {
	if width <= 0 {
		return ""
	}

	left := []segment{
		{snap.Title(), styles.TitleStyle},
		{snap.Schema.DisplayName, styles.MutedStyle},
	}

	right := []segment{statusSegment(snap)}
	if d := snap.PendingChanges(); !d.Empty() {
		right = append(right, segment{fmt.Sprintf("+%d -%d", d.Added, d.Removed), styles.DiffAddedStyle})
	}
	errStyle := styles.StatusSavedStyle
	if len(snap.Errors) > 0 {
		errStyle = styles.SeverityErrorStyle
	}
	right = append(right, segment{snap.ErrorSummary(), errStyle})

	// StatusBarStyle pads one cell each side.
	inner := width - 2
	rightWidth := plainWidth(right)
	if rightWidth > inner {
		right = right[len(right)-1:]
		rightWidth = plainWidth(right)
	}
	leftRoom := max(inner-rightWidth-1, 0)
	leftText := fit(left, leftRoom)

	gap := max(inner-runewidth.StringWidth(plain(leftText))-rightWidth, 0)
	line := render(leftText) + strings.Repeat(" ", gap) + render(right)
	return styles.StatusBarStyle.Width(width).MaxHeight(1).Render(line)
}

func statusSegment(snap session.Snapshot) segment {
	switch {
	case snap.Busy:
		return segment{"Working…", styles.SeverityInfoStyle}
	case snap.Dirty:
		return segment{snap.StatusText(), styles.StatusDirtyStyle}
	default:
		return segment{snap.StatusText(), styles.StatusSavedStyle}
	}
}

// fit drops and truncates trailing segments until they fit in room cells.
func fit(segs []segment, room int) []segment {
	var out []segment
	used := 0
	for i, s := range segs {
		w := runewidth.StringWidth(s.text)
		if i > 0 {
			w += runewidth.StringWidth(separator)
		}
		if used+w <= room {
			out = append(out, s)
			used += w
			continue
		}
		if i == 0 && room > 0 {
			out = append(out, segment{runewidth.Truncate(s.text, room, "…"), s.style})
		}
		break
	}
	return out
}

func plain(segs []segment) string {
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = s.text
	}
	return strings.Join(parts, separator)
}

func plainWidth(segs []segment) int {
	return runewidth.StringWidth(plain(segs))
}

func render(segs []segment) string {
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = s.style.Render(s.text)
	}
	return strings.Join(parts, styles.MutedStyle.Render(separator))
}
