package storage

import (
	"errors"
	"fmt"
)

var errUnrecognizedValue = errors.New("unrecognized value")

func errMissingOrWrongType(want string) error {
	return fmt.Errorf("missing or not a %s", want)
}

// StorageError wraps a failed filesystem or datastore operation.
type StorageError struct {
	Operation string
	Path      string
	Err       error
}

func (e *StorageError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s failed at %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ConfigError reports a bad field in a datastore spec.
type ConfigError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("config field '%s' (value: %v): %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("config field '%s': %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// LockError reports a problem with the repository lock file.
type LockError struct {
	Path string
	Err  error
}

func (e *LockError) Error() string {
	return fmt.Sprintf("lock file error at %s: %v", e.Path, e.Err)
}

func (e *LockError) Unwrap() error {
	return e.Err
}

// InvalidPathError is returned for an unusable repository path.
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path '%s': %s", e.Path, e.Reason)
}
