package importer

import (
	"errors"
	"fmt"
)

var (
	ErrNoContent       = errors.New("no file")
	ErrInterrupted     = errors.New("import was interrupted")
	ErrInvalidNodeType = errors.New("unknown file type")
	ErrMfsRootNil      = errors.New("mfs root is nil")

	// ErrDuplicateEntry means two siblings map to the same stored name.
	ErrDuplicateEntry = errors.New("duplicate entry name")
)

// ImportError adds the path and operation to an import failure.
type ImportError struct {
	Path string
	Op   string
	Err  error
}

func (e *ImportError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("import error %q: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}
