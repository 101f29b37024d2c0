package folderkit

import (
	"errors"
	"fmt"
	"io/fs"
)

// Common folderkit errors
var (
	ErrNotExist        = errors.New("file does not exist")
	ErrExist           = errors.New("file already exists")
	ErrNotRegular      = errors.New("not a regular file")
	ErrNotDir          = errors.New("not a directory")
	ErrIO              = errors.New("host i/o failure")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidName     = errors.New("invalid name")
	ErrNotAllowed      = errors.New("operation not allowed")
	ErrNotSupported    = errors.New("operation not supported")
)

// PathError records an error and the operation and file path that caused it
type PathError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface
func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *PathError) Unwrap() error {
	return e.Err
}

// hostError classifies an error returned by the host file system. The
// original error is kept in the chain next to the matching sentinel so
// callers can use errors.Is with either.
func hostError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PathError
	if errors.As(err, &pe) && pe.Op == op {
		return err
	}
	switch {
	case errors.Is(err, ErrNotExist), errors.Is(err, ErrExist),
		errors.Is(err, ErrNotRegular), errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrInvalidName), errors.Is(err, ErrNotAllowed),
		errors.Is(err, ErrNotDir), errors.Is(err, ErrNotSupported), errors.Is(err, ErrIO):
		return &PathError{Op: op, Path: path, Err: err}
	case errors.Is(err, fs.ErrNotExist):
		return &PathError{Op: op, Path: path, Err: errors.Join(ErrNotExist, err)}
	case errors.Is(err, fs.ErrExist):
		return &PathError{Op: op, Path: path, Err: errors.Join(ErrExist, err)}
	default:
		return &PathError{Op: op, Path: path, Err: errors.Join(ErrIO, err)}
	}
}

// IsNotExist reports whether an error indicates that a file or directory
// does not exist
func IsNotExist(err error) bool {
	return errors.Is(err, ErrNotExist)
}

// IsExist reports whether an error indicates that a file or directory
// already exists
func IsExist(err error) bool {
	return errors.Is(err, ErrExist)
}

// IsIOFailure reports whether an error was caused by the host file system
func IsIOFailure(err error) bool {
	return errors.Is(err, ErrIO)
}
