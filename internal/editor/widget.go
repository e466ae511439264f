// Package editor holds the editing widget surface the document session talks
// to, and Workspace, the in-memory model store behind the terminal editor.
package editor

import (
	"context"

	"github.com/zjrosen/yedit/internal/pubsub"
	"github.com/zjrosen/yedit/internal/validate"
)

// URI is the resource address a model is registered under.
type URI string

// Widget is the capability set the session needs from an editing widget.
type Widget interface {
	CreateModel(content string, uri URI) *Model
	SetModel(m *Model)
	DisposeModel(m *Model)
	RevealLine(line int)
	SetCursorPosition(line, column int)
}

// MarkerSource streams marker changes and answers with the full marker set
// for a model. Markers reports false when the stored set belongs to a
// different model than m.
type MarkerSource interface {
	SubscribeMarkers(ctx context.Context) <-chan pubsub.Event[validate.Change]
	Markers(m *Model) ([]validate.Marker, bool)
}

// Validator is the part of the validation engine a Workspace drives.
type Validator interface {
	Schedule(doc validate.Document)
	Forget(uri string, generation uint64)
	Markers(uri string) (uint64, []validate.Marker)
	Subscribe(ctx context.Context) <-chan pubsub.Event[validate.Change]
}
