package extractor

import (
	"bufio"
	"context"
	"os"

	"github.com/ipfs/boxo/files"
)

// prepare handles whatever already exists at path. It reports whether the
// existing entry is a real directory that nd can be merged into.
func prepare(path string, isDir, overwrite bool) (merge bool, err error) {
	fi, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, &PathError{Path: path, Op: "stat", Err: err}
	}

	if isDir && fi.IsDir() {
		return true, nil
	}
	if !overwrite {
		return false, &PathError{Path: path, Op: "extract", Err: ErrPathExistsOverwrite}
	}

	if err = os.RemoveAll(path); err != nil {
		return false, wrapRemoveFailed(path, err)
	}
	return false, nil
}

func createNewFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_EXCL|os.O_CREATE|os.O_WRONLY, filePermissions)
}

// writeFile copies node to a new file at path through a buffered writer.
func (e *Extractor) writeFile(ctx context.Context, node files.File, path, rel string) (err error) {
	f, err := createNewFile(path)
	if err != nil {
		return &PathError{Path: path, Op: "create", Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &PathError{Path: path, Op: "close", Err: cerr}
		}
	}()

	buf := bufio.NewWriterSize(f, writeBufferSize)
	r := &extractReader{
		ctx: ctx,
		r:   node,
		onProgress: func(n int64) {
			e.tracker.update(n, rel)
		},
	}

	n, err := buf.ReadFrom(r)
	if err != nil {
		return err
	}
	if err = buf.Flush(); err != nil {
		return &PathError{Path: path, Op: "write", Err: err}
	}

	e.files.Add(1)
	e.bytes.Add(n)
	return nil
}
