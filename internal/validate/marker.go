// Package validate checks YAML documents against the registered schemas and
// publishes per-resource diagnostic markers.
package validate

import "sort"

// Severity ranks a marker. Values follow the editor convention where a
// larger number is more severe.
type Severity int

const (
	SeverityHint    Severity = 1
	SeverityInfo    Severity = 2
	SeverityWarning Severity = 4
	SeverityError   Severity = 8
)

func (s Severity) String() string {
	switch s {
	case SeverityHint:
		return "hint"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Marker is one diagnostic against a document. Line is 1-based, Column 0-based.
type Marker struct {
	Line     int
	Column   int
	Message  string
	Severity Severity
	// Source is "yaml" for syntax problems or the schema id for schema violations.
	Source string
	// Path is the JSON pointer of the offending value, empty for the root.
	Path string
}

// Change announces that the marker set for a model was recomputed or dropped.
type Change struct {
	URI        string
	Generation uint64
}

// Document is one revision of a model submitted for validation.
type Document struct {
	URI        string
	Generation uint64
	Content    string
}

// sortMarkers orders by line ascending, then most severe first.
func sortMarkers(ms []Marker) {
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].Line != ms[j].Line {
			return ms[i].Line < ms[j].Line
		}
		return ms[i].Severity > ms[j].Severity
	})
}

func cloneMarkers(ms []Marker) []Marker {
	if ms == nil {
		return nil
	}
	out := make([]Marker, len(ms))
	copy(out, ms)
	return out
}
