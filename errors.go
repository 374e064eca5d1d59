package treenav

import (
	"errors"
	"fmt"
)

// Error kinds. Collaborators wrap one of these so callers can match with
// errors.Is regardless of the concrete backend.
var (
	ErrNotFound      = errors.New("not found")
	ErrNotADirectory = errors.New("not a directory")
	ErrIO            = errors.New("i/o error")
	ErrOutOfRange    = errors.New("no file at rank")
	ErrPathTooLong   = errors.New("path too long")
	ErrSessionClosed = errors.New("session closed")
)

// DirError records a failed directory operation along with its error kind
// and the backend error that caused it.
type DirError struct {
	Op   string // open, read, rewind, seek, close, descend
	Path string
	Kind error // one of the Err* kinds
	Err  error // underlying cause, may be nil
}

// NewDirError builds a DirError for op on path.
func NewDirError(op, path string, kind, err error) *DirError {
	return &DirError{Op: op, Path: path, Kind: kind, Err: err}
}

func (e *DirError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *DirError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsFault reports whether err is a navigation fault as opposed to a normal
// out-of-range result.
func IsFault(err error) bool {
	return err != nil && !errors.Is(err, ErrOutOfRange)
}
