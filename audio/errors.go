// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDstSize = errors.New("dst size must be multiple of channels")

	// ErrFileNotFound reports that the path does not exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrInvalidFormat reports a malformed header, an unsupported encoding
	// or bit depth, or a codec-specific decode failure.
	ErrInvalidFormat = errors.New("invalid file format")
	// ErrUnknownFileType reports that no codec is registered for the extension.
	ErrUnknownFileType = errors.New("unknown file type")
	// ErrOperationFailed reports a write, seek or flush failure of the
	// underlying file.
	ErrOperationFailed = errors.New("file operation failed")
	// ErrDRMProtected is raised by platform backends for protected content.
	ErrDRMProtected = errors.New("file is protected by DRM")

	ErrNotSeekable    = errors.New("stream is not seekable")
	ErrSeekOutOfRange = errors.New("seek target out of range")
)

// FileError records a failure against a file. Kind is one of the sentinel
// errors above; Err is the low-level diagnostic, if any.
type FileError struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *FileError) Error() string {
	msg := e.Op + " " + e.Path + ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap lets errors.Is match both the kind and the underlying cause.
func (e *FileError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

// NewFileError builds a FileError of the given kind.
func NewFileError(op, path string, kind, err error) *FileError {
	return &FileError{Op: op, Path: path, Kind: kind, Err: err}
}

// FormatError reports that the file at path was not understood by a codec.
func FormatError(path string, err error) error {
	return NewFileError("open", path, ErrInvalidFormat, err)
}

// OperationError reports a failure of the underlying file handle.
func OperationError(op, path string, err error) error {
	return NewFileError(op, path, ErrOperationFailed, err)
}

// errorf is fmt.Errorf with the package prefix.
func errorf(format string, args ...any) error {
	return fmt.Errorf("audio: "+format, args...)
}
