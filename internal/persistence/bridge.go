// Package persistence implements the host file system for the session: an
// afero-backed bridge whose pickers are answered by the UI.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/zjrosen/yedit/internal/log"
	"github.com/zjrosen/yedit/internal/session"
)

// ErrFiltered is returned when a chosen path does not match the filter.
var ErrFiltered = errors.New("file type not accepted")

// FileHandle is a path on the bridge's filesystem.
type FileHandle struct {
	path string
}

// NewFileHandle wraps an absolute or working-directory relative path.
func NewFileHandle(path string) FileHandle {
	return FileHandle{path: filepath.Clean(path)}
}

// Name implements session.Handle.
func (h FileHandle) Name() string { return filepath.Base(h.path) }

// Path returns the full path.
func (h FileHandle) Path() string { return h.path }

// Picker chooses paths. Implementations return session.ErrUserCancelled when
// the user backs out.
type Picker interface {
	PickOpen(ctx context.Context, filter session.Filter) (string, error)
	PickSave(ctx context.Context, filter session.Filter, suggestedName string) (string, error)
}

// FSBridge is a session.Bridge over an afero filesystem.
type FSBridge struct {
	fs     afero.Fs
	picker Picker
	dir    string
}

var _ session.Bridge = (*FSBridge)(nil)

// NewFSBridge resolves relative picks against dir.
func NewFSBridge(fs afero.Fs, picker Picker, dir string) *FSBridge {
	return &FSBridge{fs: fs, picker: picker, dir: dir}
}

// Fs returns the underlying filesystem.
func (b *FSBridge) Fs() afero.Fs { return b.fs }

func (b *FSBridge) resolve(p string) string {
	if filepath.IsAbs(p) || b.dir == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(b.dir, p)
}

// PickOpenTarget asks the picker for an existing file the filter accepts.
func (b *FSBridge) PickOpenTarget(ctx context.Context, filter session.Filter) (session.Handle, error) {
	p, err := b.picker.PickOpen(ctx, filter)
	if err != nil {
		return nil, err
	}
	p = b.resolve(p)
	if !filter.Accepts(p) {
		return nil, fmt.Errorf("%w: %s is not one of %v", ErrFiltered, filepath.Base(p), filter.Extensions)
	}
	info, err := b.fs.Stat(p)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", p)
	}
	return NewFileHandle(p), nil
}

// PickSaveTarget asks the picker for a destination. A name without an
// accepted extension gets the filter's first one.
func (b *FSBridge) PickSaveTarget(ctx context.Context, filter session.Filter, suggestedName string) (session.Handle, error) {
	p, err := b.picker.PickSave(ctx, filter, suggestedName)
	if err != nil {
		return nil, err
	}
	p = b.resolve(p)
	if !filter.Accepts(p) && len(filter.Extensions) > 0 {
		p += filter.Extensions[0]
	}
	if info, err := b.fs.Stat(p); err == nil && info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", p)
	}
	return NewFileHandle(p), nil
}

// Read returns the whole file.
func (b *FSBridge) Read(ctx context.Context, h session.Handle) (string, error) {
	fh, err := b.handle(h)
	if err != nil {
		return "", err
	}
	data, err := afero.ReadFile(b.fs, fh.path)
	if err != nil {
		return "", err
	}
	log.Debug(log.CatIO, "read file", "path", fh.path, "bytes", len(data))
	return string(data), nil
}

// Write replaces the file through a temporary sibling so a failed write
// never truncates the original.
func (b *FSBridge) Write(ctx context.Context, h session.Handle, text string) error {
	fh, err := b.handle(h)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(fh.path)
	if err := b.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	mode := os.FileMode(0o644)
	if info, err := b.fs.Stat(fh.path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := afero.TempFile(b.fs, dir, "."+fh.Name()+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(text); err != nil {
		_ = tmp.Close()
		_ = b.fs.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = b.fs.Remove(tmpName)
		return err
	}
	if err := b.fs.Chmod(tmpName, mode); err != nil {
		log.Warn(log.CatIO, "could not set file mode", "path", tmpName, "error", err)
	}
	if err := b.fs.Rename(tmpName, fh.path); err != nil {
		_ = b.fs.Remove(tmpName)
		return err
	}
	log.Debug(log.CatIO, "wrote file", "path", fh.path, "bytes", len(text))
	return nil
}

func (b *FSBridge) handle(h session.Handle) (FileHandle, error) {
	fh, ok := h.(FileHandle)
	if !ok {
		return FileHandle{}, fmt.Errorf("unsupported handle %T", h)
	}
	return fh, nil
}
