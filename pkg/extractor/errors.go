package extractor

import (
	"errors"
	"fmt"
)

var (
	ErrPathExistsOverwrite   = errors.New("path already exists and overwriting is not allowed")
	ErrPathTraversal         = errors.New("extraction path escapes base directory")
	ErrInvalidDirectoryEntry = errors.New("invalid directory entry name")
	ErrInvalidSymlinkTarget  = errors.New("invalid symlink target")
	ErrUnsupportedFileType   = errors.New("unsupported file type")
)

// PathError records the operation and path that failed.
type PathError struct {
	Path string
	Op   string
	Err  error
}

func (e *PathError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("path error %q: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

func wrapPathTraversal(path string) error {
	return &PathError{Path: path, Op: "extract", Err: ErrPathTraversal}
}

func wrapInvalidSymlinkTarget(path, target string) error {
	return &PathError{Path: path, Op: "symlink", Err: fmt.Errorf("%w: %s", ErrInvalidSymlinkTarget, target)}
}

func wrapUnsupportedFileType(path string, node interface{}) error {
	return &PathError{Path: path, Op: "extract", Err: fmt.Errorf("%w: %T", ErrUnsupportedFileType, node)}
}

func wrapInvalidDirectoryEntry(name string) error {
	return fmt.Errorf("%w: %q", ErrInvalidDirectoryEntry, name)
}

func wrapRemoveFailed(path string, err error) error {
	return &PathError{Path: path, Op: "remove", Err: err}
}

func wrapMkdirFailed(path string, err error) error {
	return &PathError{Path: path, Op: "mkdir", Err: err}
}
