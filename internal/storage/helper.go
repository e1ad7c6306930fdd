package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Writable creates path if needed and checks that files can be written to it.
func Writable(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return &StorageError{Operation: "create directory", Path: path, Err: err}
	}

	testFile := filepath.Join(path, "._check_writable")
	f, err := os.Create(testFile)
	if err != nil {
		return &StorageError{
			Operation: "check writability",
			Path:      path,
			Err:       fmt.Errorf("cannot create test file: %w", err),
		}
	}
	defer func() {
		_ = f.Close()
		_ = os.Remove(testFile)
	}()

	if err = f.Sync(); err != nil {
		return &StorageError{
			Operation: "check writability",
			Path:      path,
			Err:       fmt.Errorf("cannot sync test file: %w", err),
		}
	}

	return nil
}

// DatastoreSpecPath is the location of the datastore_spec file.
func DatastoreSpecPath(repoPath string) string {
	return filepath.Join(repoPath, "datastore_spec")
}

// FileExists reports whether filename exists and is not empty.
func FileExists(filename string) bool {
	fi, err := os.Stat(filename)
	if err != nil {
		return false
	}

	return fi.Size() > 0
}

func resolvePath(rootPath, basePath string) string {
	if filepath.IsAbs(basePath) {
		return basePath
	}
	return filepath.Join(rootPath, basePath)
}
