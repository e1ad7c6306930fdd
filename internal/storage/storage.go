package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	ds "github.com/ipfs/go-datastore"
	measure "github.com/ipfs/go-ds-measure"
	logging "github.com/ipfs/go-log/v2"
	"github.com/mitchellh/go-homedir"
	"github.com/rogpeppe/go-internal/lockedfile"
)

var log = logging.Logger("filesan/storage")

// LockFile is created inside the storage directory while it is open.
const LockFile = ".storage.lock"

const measurePrefix = "filesan.storage.datastore"

// Storage owns the datastore of one repository directory.
type Storage struct {
	locker   sync.Mutex
	closed   bool
	path     string
	lockFile *lockedfile.File
	ds       Datastore
}

// NewStorage opens the storage at path, creating it with DefaultDiskSpec on
// first use.
func NewStorage(path string) (*Storage, error) {
	s, err := newStorage(path)
	if err != nil {
		return nil, err
	}

	if err = Writable(s.path); err != nil {
		return nil, err
	}

	if err = initSpec(s.path, DefaultDiskSpec()); err != nil {
		return nil, err
	}

	if err = s.open(); err != nil {
		return nil, err
	}

	log.Debugw("storage opened", "path", s.path)
	return s, nil
}

func newStorage(path string) (*Storage, error) {
	if path == "" {
		return nil, &InvalidPathError{Path: path, Reason: "no path provided"}
	}

	expPath, err := homedir.Expand(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	return &Storage{path: expPath}, nil
}

// Path returns the expanded storage directory.
func (s *Storage) Path() string {
	return s.path
}

// Datastore returns the root datastore.
func (s *Storage) Datastore() Datastore {
	s.locker.Lock()
	defer s.locker.Unlock()

	return s.ds
}

// Usage returns the disk usage reported by the datastore tree.
func (s *Storage) Usage(ctx context.Context) (uint64, error) {
	return ds.DiskUsage(ctx, s.Datastore())
}

// Close closes the datastore and releases the lock. It is safe to call more
// than once.
func (s *Storage) Close() error {
	s.locker.Lock()
	defer s.locker.Unlock()

	if s.closed {
		return nil
	}

	return s.closeLocked()
}

// Destroy closes the storage and removes its directory.
func (s *Storage) Destroy() error {
	s.locker.Lock()
	defer s.locker.Unlock()

	if !s.closed {
		if err := s.closeLocked(); err != nil {
			return err
		}
	}

	log.Debugw("storage destroyed", "path", s.path)
	return os.RemoveAll(s.path)
}

func (s *Storage) closeLocked() error {
	var errs []error

	if s.ds != nil {
		if err := s.ds.Close(); err != nil {
			errs = append(errs, &StorageError{Operation: "close datastore", Path: s.path, Err: err})
		}
	}

	s.closed = true

	if s.lockFile != nil {
		lockPath := s.lockFile.Name()
		if err := s.lockFile.Close(); err != nil {
			errs = append(errs, &LockError{Path: lockPath, Err: err})
		}
		if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
			errs = append(errs, &LockError{Path: lockPath, Err: err})
		}
		s.lockFile = nil
	}

	log.Debugw("storage closed", "path", s.path)
	return errors.Join(errs...)
}

func (s *Storage) open() error {
	s.locker.Lock()
	defer s.locker.Unlock()

	lockFile, err := acquireLock(filepath.Join(s.path, LockFile))
	if err != nil {
		return err
	}

	keepLock := false
	defer func() {
		if !keepLock {
			_ = lockFile.Close()
			_ = os.Remove(lockFile.Name())
		}
	}()

	if err = s.openDatastore(); err != nil {
		return err
	}

	s.lockFile = lockFile
	keepLock = true
	return nil
}

// acquireLock takes the exclusive lock file and records our pid in it.
// lockedfile blocks while another process holds the lock.
func acquireLock(lockPath string) (*lockedfile.File, error) {
	file, err := lockedfile.Create(lockPath)
	if err != nil {
		if !os.IsExist(err) {
			return nil, &LockError{Path: lockPath, Err: err}
		}

		log.Warnw("removing stale lock file", "path", lockPath)
		if err = os.Remove(lockPath); err != nil {
			return nil, &LockError{Path: lockPath, Err: fmt.Errorf("remove stale lock: %w", err)}
		}
		if file, err = lockedfile.Create(lockPath); err != nil {
			return nil, &LockError{Path: lockPath, Err: err}
		}
	}

	if _, err = file.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		_ = file.Close()
		_ = os.Remove(lockPath)
		return nil, &LockError{Path: lockPath, Err: err}
	}

	return file, nil
}

func (s *Storage) openDatastore() error {
	dsc, err := AnyDatastoreConfig(DefaultDiskSpec())
	if err != nil {
		return err
	}
	spec := dsc.DiskSpec()

	onDisk, err := readSpec(s.path)
	if err != nil {
		return &StorageError{Operation: "read datastore spec", Path: s.path, Err: err}
	}

	if onDisk != spec.String() {
		return &ConfigError{
			Field: "datastore_spec",
			Value: onDisk,
			Err:   fmt.Errorf("does not match expected %s", spec.String()),
		}
	}

	d, err := dsc.Create(s.path)
	if err != nil {
		return &StorageError{Operation: "create datastore", Path: s.path, Err: err}
	}

	s.ds = measure.New(measurePrefix, d)
	return nil
}

// initSpec writes the spec file unless one is already present.
func initSpec(path string, conf DiskSpec) error {
	specPath := DatastoreSpecPath(path)
	if FileExists(specPath) {
		return nil
	}

	dsc, err := AnyDatastoreConfig(conf)
	if err != nil {
		return err
	}

	if err = os.WriteFile(specPath, dsc.DiskSpec().Bytes(), 0o600); err != nil {
		return &StorageError{Operation: "write datastore spec", Path: specPath, Err: err}
	}
	return nil
}

func readSpec(path string) (string, error) {
	b, err := os.ReadFile(DatastoreSpecPath(path))
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(b)), nil
}
