// Package extractor writes a UnixFS DAG from a blockstore to disk.
//
// Every entry name is escaped before it touches the filesystem. The escaper
// defaults to filesan.DefaultEscaper and its mode always includes
// filesan.System, so whatever the archive contains, the names written are
// legal on the host. Extract refuses escapers that filesan.ValidEscape
// rejects, so escaping stays injective and distinct siblings never land on
// the same file.
package extractor

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/ipfs/boxo/blockservice"
	"github.com/ipfs/boxo/blockstore"
	"github.com/ipfs/boxo/files"
	"github.com/ipfs/boxo/ipld/merkledag"
	unixfile "github.com/ipfs/boxo/ipld/unixfs/file"
	"github.com/ipfs/go-cid"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/sync/errgroup"

	"github.com/tragoedia0722/filesan/pkg/filesan"
)

var log = logging.Logger("filesan/extractor")

// Rename is an entry written under a different name than the one stored.
// Both paths are relative to the destination and slash separated.
type Rename struct {
	Original string
	Escaped  string
}

type Result struct {
	Files   int
	Dirs    int
	Bytes   int64
	Renamed []Rename // sorted by Original
}

type Extractor struct {
	blockStore blockstore.Blockstore
	cid        string
	path       string
	escaper    filesan.Escaper
	progress   ProgressFunc
	tracker    *progressTracker

	files atomic.Int64
	dirs  atomic.Int64
	bytes atomic.Int64

	mu      sync.Mutex
	renamed []Rename
}

// NewExtractor extracts cid into path.
func NewExtractor(blockStore blockstore.Blockstore, cid string, path string) *Extractor {
	return (&Extractor{
		blockStore: blockStore,
		cid:        cid,
		path:       filepath.Clean(path),
	}).WithEscaper(filesan.DefaultEscaper)
}

// WithEscaper sets the escape character and target systems. filesan.System
// is always added to the mode. The result is checked by Extract.
func (e *Extractor) WithEscaper(esc filesan.Escaper) *Extractor {
	esc.Mode |= filesan.System
	e.escaper = esc
	return e
}

func (e *Extractor) WithProgress(fn ProgressFunc) *Extractor {
	e.progress = fn
	return e
}

// Escaper returns the escaper in effect.
func (e *Extractor) Escaper() filesan.Escaper {
	return e.escaper
}

// Extract writes the DAG. Existing directories are merged; any other
// existing entry is an error unless overwrite is set, in which case it is
// replaced.
func (e *Extractor) Extract(ctx context.Context, overwrite bool) (*Result, error) {
	if err := e.escaper.Validate(); err != nil {
		return nil, err
	}

	c, err := cid.Parse(e.cid)
	if err != nil {
		return nil, fmt.Errorf("parse cid %q: %w", e.cid, err)
	}

	ds := merkledag.NewDAGService(blockservice.New(e.blockStore, nil))
	node, err := ds.Get(ctx, c)
	if err != nil {
		return nil, err
	}

	fileNode, err := unixfile.NewUnixfsFile(ctx, ds, node)
	if err != nil {
		return nil, err
	}
	defer fileNode.Close()

	size, err := fileNode.Size()
	if err != nil {
		return nil, err
	}
	e.tracker = newProgressTracker(size, e.progress)

	log.Debugw("extract started", "cid", c, "path", e.path, "size", size, "escaper", e.escaper)

	if err = e.writeTo(ctx, fileNode, e.path, "", "", overwrite); err != nil {
		return nil, err
	}

	res := e.result()
	log.Debugw("extract finished", "cid", c, "files", res.Files, "dirs", res.Dirs, "renamed", len(res.Renamed))
	return res, nil
}

func (e *Extractor) result() *Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	renamed := make([]Rename, len(e.renamed))
	copy(renamed, e.renamed)
	sort.Slice(renamed, func(i, j int) bool {
		return renamed[i].Original < renamed[j].Original
	})

	return &Result{
		Files:   int(e.files.Load()),
		Dirs:    int(e.dirs.Load()),
		Bytes:   e.bytes.Load(),
		Renamed: renamed,
	}
}

func (e *Extractor) addRename(original, escaped string) {
	log.Debugw("entry renamed", "original", original, "escaped", escaped)

	e.mu.Lock()
	e.renamed = append(e.renamed, Rename{Original: original, Escaped: escaped})
	e.mu.Unlock()
}

// writeTo writes nd at path. orig and rel are the stored and escaped
// relative paths of the entry.
func (e *Extractor) writeTo(ctx context.Context, nd files.Node, path, orig, rel string, overwrite bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !isSubPath(path, e.path) {
		return wrapPathTraversal(path)
	}

	_, isDir := nd.(files.Directory)
	merge, err := prepare(path, isDir, overwrite)
	if err != nil {
		return err
	}

	switch node := nd.(type) {
	case *files.Symlink:
		if !validSymlinkTarget(path, node.Target, e.path) {
			return wrapInvalidSymlinkTarget(path, node.Target)
		}
		if err = os.Symlink(node.Target, path); err != nil {
			return &PathError{Path: path, Op: "symlink", Err: err}
		}
		e.files.Add(1)
		return nil
	case files.File:
		return e.writeFile(ctx, node, path, rel)
	case files.Directory:
		if !merge {
			if err = os.MkdirAll(path, dirPermissions); err != nil {
				return wrapMkdirFailed(path, err)
			}
		}
		e.dirs.Add(1)
		return e.processDirectory(ctx, node.Entries(), path, orig, rel, overwrite)
	default:
		return wrapUnsupportedFileType(path, node)
	}
}

// processDirectory writes up to maxConcurrency siblings at once. Symlinks and
// large files are written inline.
func (e *Extractor) processDirectory(ctx context.Context, entries files.DirIterator, dir, orig, rel string, overwrite bool) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)

	for entries.Next() {
		if gctx.Err() != nil {
			break
		}

		name := entries.Name()
		escaped, err := e.escapeEntry(name)
		if err != nil {
			_ = g.Wait()
			return &PathError{Path: filepath.Join(dir, name), Op: "extract", Err: err}
		}

		childOrig := path.Join(orig, name)
		childRel := path.Join(rel, escaped)
		if escaped != name {
			e.addRename(childOrig, childRel)
		}

		child := entries.Node()
		childPath := filepath.Join(dir, escaped)

		if isInline(child) {
			if err = e.writeTo(gctx, child, childPath, childOrig, childRel, overwrite); err != nil {
				_ = g.Wait()
				return err
			}
			continue
		}

		g.Go(func() error {
			return e.writeTo(gctx, child, childPath, childOrig, childRel, overwrite)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return entries.Err()
}

func isInline(nd files.Node) bool {
	switch n := nd.(type) {
	case *files.Symlink:
		return true
	case files.File:
		size, err := n.Size()
		return err == nil && size > largeFileThreshold
	}
	return false
}
