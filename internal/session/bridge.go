package session

import (
	"context"
	"path/filepath"
	"strings"
)

// Handle is an opaque reference to a user-chosen file location.
type Handle interface {
	Name() string
}

// Filter constrains which files a picker offers.
type Filter struct {
	Description string
	MIME        string
	Extensions  []string
}

// YAMLFilter is used for every open and save.
var YAMLFilter = Filter{
	Description: "YAML Files",
	MIME:        "application/x-yaml",
	Extensions:  []string{".yaml", ".yml"},
}

// SuggestedName is offered when saving an untitled document.
const SuggestedName = "file.yaml"

// Accepts reports whether name carries one of the filter's extensions.
func (f Filter) Accepts(name string) bool {
	if len(f.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range f.Extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// Bridge is the host file system. Pickers return ErrUserCancelled when
// dismissed; any other error is an I/O failure.
type Bridge interface {
	PickOpenTarget(ctx context.Context, filter Filter) (Handle, error)
	PickSaveTarget(ctx context.Context, filter Filter, suggestedName string) (Handle, error)
	Read(ctx context.Context, h Handle) (string, error)
	Write(ctx context.Context, h Handle, text string) error
}
