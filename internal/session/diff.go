package session

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffStats counts lines changed between the saved content and the buffer.
type DiffStats struct {
	Added   int
	Removed int
}

// Empty reports no line-level changes.
func (d DiffStats) Empty() bool {
	return d.Added == 0 && d.Removed == 0
}

// PendingChanges diffs the saved content against the buffer by line.
func (snap Snapshot) PendingChanges() DiffStats {
	return lineDiff(snap.Saved, snap.Buffer)
}

func lineDiff(from, to string) DiffStats {
	if from == to {
		return DiffStats{}
	}
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var stats DiffStats
	for _, d := range diffs {
		n := countLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			stats.Added += n
		case diffmatchpatch.DiffDelete:
			stats.Removed += n
		}
	}
	return stats
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
