package session

import (
	"errors"
	"fmt"
)

var (
	// ErrUserCancelled means a picker was dismissed. It is not a failure.
	ErrUserCancelled = errors.New("user cancelled")
	// ErrBusy is returned when an open or save is already in flight.
	ErrBusy = errors.New("a file operation is already in progress")
)

// IOError wraps a failed read or write.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IsCancelled reports whether err is a dismissed picker.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrUserCancelled)
}
