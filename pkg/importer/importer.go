// Package importer adds a local file or directory to a blockstore as a
// UnixFS DAG.
//
// Entry names are stored exactly as they appear on disk. WithNameEscaper
// stores escaped names instead, which gives an archive whose names are
// already legal on the escaper's target systems.
//
//	imp := importer.NewImporter(repo.BlockStore(), "/path/to/dir").
//		WithNameEscaper(filesan.Escaper{Escape: '_', Mode: filesan.All})
//	res, err := imp.Import(ctx)
//
// An Importer runs a single import and is not safe for concurrent use.
package importer

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync/atomic"

	"github.com/ipfs/boxo/blockservice"
	"github.com/ipfs/boxo/blockstore"
	"github.com/ipfs/boxo/files"
	"github.com/ipfs/boxo/ipld/merkledag"
	"github.com/ipfs/boxo/ipld/unixfs"
	"github.com/ipfs/boxo/mfs"
	"github.com/ipfs/go-cid"
	ipld "github.com/ipfs/go-ipld-format"
	logging "github.com/ipfs/go-log/v2"
	"github.com/multiformats/go-multicodec"

	"github.com/tragoedia0722/filesan/pkg/filesan"
)

var log = logging.Logger("filesan/importer")

type Result struct {
	Name     string // stored name of the imported file or directory
	Size     int64
	RootCid  string
	Packages []Package
	Contents []Content
}

// Package is a group of up to 100 block CIDs and the sha256 of their
// concatenation.
type Package struct {
	Hash   string
	Blocks []string
}

// Content describes one imported file. Paths are relative to the root and
// slash separated.
type Content struct {
	Name     string // path as stored in the DAG
	Original string // path as found on disk
	Size     int64
}

type Importer struct {
	blockStore blockstore.Blockstore
	path       string
	escaper    *filesan.Escaper

	dagService ipld.DAGService
	bufferedDS *ipld.BufferedDAG
	cidBuilder cid.Builder
	root       *mfs.Root
	liveNodes  atomic.Uint64
	progress   ProgressFunc
	tracker    *progressTracker
	contents   []Content
}

func NewImporter(blockStore blockstore.Blockstore, path string) *Importer {
	return &Importer{
		blockStore: blockStore,
		path:       filepath.Clean(path),
		cidBuilder: cid.V1Builder{
			Codec:    uint64(multicodec.DagPb),
			MhType:   uint64(multicodec.Sha2_256),
			MhLength: -1,
		},
	}
}

func (imp *Importer) WithProgress(fn ProgressFunc) *Importer {
	imp.progress = fn
	return imp
}

// WithNameEscaper stores every entry name escaped with e. Import fails with
// filesan.ErrInvalidEscape when e does not pass Validate.
func (imp *Importer) WithNameEscaper(e filesan.Escaper) *Importer {
	imp.escaper = &e
	return imp
}

func (imp *Importer) storedName(name string) string {
	if imp.escaper == nil {
		return name
	}
	return imp.escaper.EscapeName(name)
}

// Import builds the DAG and returns its root. Cancelling ctx stops the
// import with the context error.
func (imp *Importer) Import(ctx context.Context) (*Result, error) {
	bs := blockservice.New(imp.blockStore, nil)
	imp.dagService = merkledag.NewDAGService(bs)
	imp.bufferedDS = ipld.NewBufferedDAG(ctx, imp.dagService, ipld.MaxSizeBatchOption(defaultBatchSize))

	if imp.escaper != nil {
		if err := imp.escaper.Validate(); err != nil {
			return nil, err
		}
	}

	dir, closeSource, err := imp.sliceDirectory(imp.path)
	if err != nil {
		return nil, err
	}
	defer closeSource()

	it := dir.Entries()
	if !it.Next() {
		return nil, ErrNoContent
	}

	size, err := it.Node().Size()
	if err != nil {
		return nil, &ImportError{Path: imp.path, Op: "size", Err: err}
	}
	imp.tracker = newProgressTracker(size, imp.progress)

	log.Debugw("import started", "path", imp.path, "size", size, "escaper", imp.escaper)

	node, err := imp.addContent(ctx, it.Node())
	if err != nil {
		return nil, err
	}

	if err = imp.bufferedDS.Commit(); err != nil {
		return nil, err
	}
	if err = imp.flushMFSRoot(ctx); err != nil {
		return nil, err
	}

	blocks, err := imp.collectBlocks(ctx, node)
	if err != nil {
		return nil, err
	}

	log.Debugw("import finished", "path", imp.path, "root", node.Cid(), "blocks", len(blocks))

	return &Result{
		Name:     imp.storedName(filepath.Base(imp.path)),
		Size:     size,
		RootCid:  node.Cid().String(),
		Packages: createPackages(blocks),
		Contents: imp.contents,
	}, nil
}

// sliceDirectory wraps filename for the adder. closeSource releases a file
// opened here; calling it after the adder closed the node is harmless.
func (imp *Importer) sliceDirectory(filename string) (dir files.Directory, closeSource func(), err error) {
	stat, err := os.Lstat(filename)
	if err != nil {
		return nil, nil, &ImportError{Path: filename, Op: "stat", Err: err}
	}

	if stat.IsDir() {
		node, err := files.NewSerialFile(filename, false, stat)
		if err != nil {
			return nil, nil, &ImportError{Path: filename, Op: "open", Err: err}
		}
		return files.NewSliceDirectory([]files.DirEntry{
			files.FileEntry(filepath.Base(filename), node),
		}), func() { _ = node.Close() }, nil
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, &ImportError{Path: filename, Op: "open", Err: err}
	}

	entries := []files.DirEntry{
		files.FileEntry(filepath.Base(filename), files.NewReaderStatFile(f, stat)),
	}

	return files.NewSliceDirectory([]files.DirEntry{
		files.FileEntry(wrapperDirName, files.NewSliceDirectory(entries)),
	}), func() { _ = f.Close() }, nil
}

// addContent adds node as the mfs root and returns the flushed root node.
func (imp *Importer) addContent(ctx context.Context, node files.Node) (ipld.Node, error) {
	if err := imp.addNode(ctx, "", "", node); err != nil {
		return nil, err
	}

	mr, err := imp.mfsRoot(ctx)
	if err != nil {
		return nil, err
	}
	defer mr.Close()

	rootDir := mr.GetDirectory()
	if err = rootDir.Flush(); err != nil {
		return nil, err
	}

	return rootDir.GetNode()
}

func (imp *Importer) checkInterruption(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		imp.tracker.interrupt()
		return err
	}
	if imp.tracker.isInterrupted() {
		return ErrInterrupted
	}
	return nil
}

func (imp *Importer) maybeFlushCache(ctx context.Context) error {
	if imp.liveNodes.Load() < liveCacheSize {
		return nil
	}

	if err := imp.flushMFSRoot(ctx); err != nil {
		return err
	}

	imp.liveNodes.Store(0)
	return nil
}

// addNode adds node at stored path p. orig is the path as found on disk.
func (imp *Importer) addNode(ctx context.Context, p, orig string, node files.Node) error {
	if err := imp.checkInterruption(ctx); err != nil {
		return err
	}
	defer node.Close()

	if err := imp.maybeFlushCache(ctx); err != nil {
		return err
	}

	imp.liveNodes.Add(1)

	switch nd := node.(type) {
	case files.Directory:
		return imp.addDir(ctx, p, orig, nd)
	case *files.Symlink:
		return imp.addSymlink(ctx, p, nd)
	case files.File:
		return imp.addFile(ctx, p, orig, nd)
	default:
		return &ImportError{Path: orig, Op: "add", Err: ErrInvalidNodeType}
	}
}

func (imp *Importer) addDir(ctx context.Context, dirPath, origPath string, dir files.Directory) error {
	if dirPath != "" {
		if err := imp.mkdir(ctx, dirPath); err != nil {
			return &ImportError{Path: origPath, Op: "mkdir", Err: err}
		}
	} else if _, err := imp.mfsRoot(ctx); err != nil {
		return err
	}

	seen := make(map[string]string)
	it := dir.Entries()
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := it.Name()
		stored := imp.storedName(name)
		if prev, ok := seen[stored]; ok {
			return &ImportError{
				Path: path.Join(origPath, name),
				Op:   "add",
				Err:  fmt.Errorf("%w: %q and %q both stored as %q", ErrDuplicateEntry, prev, name, stored),
			}
		}
		seen[stored] = name

		if stored != name {
			log.Debugw("entry name escaped", "original", name, "stored", stored)
		}

		if err := imp.addNode(ctx, path.Join(dirPath, stored), path.Join(origPath, name), it.Node()); err != nil {
			return err
		}
	}

	return it.Err()
}

func (imp *Importer) addSymlink(ctx context.Context, p string, l *files.Symlink) error {
	data, err := unixfs.SymlinkData(l.Target)
	if err != nil {
		return err
	}

	node := merkledag.NodeWithData(data)
	if err = node.SetCidBuilder(imp.cidBuilder); err != nil {
		return err
	}

	if err = imp.dagService.Add(ctx, node); err != nil {
		return err
	}

	return imp.putNodeToMFS(ctx, node, p)
}

func (imp *Importer) addFile(ctx context.Context, p, orig string, file files.File) error {
	size, err := file.Size()
	if err != nil {
		return &ImportError{Path: orig, Op: "size", Err: err}
	}

	imp.contents = append(imp.contents, Content{Name: p, Original: orig, Size: size})

	pr := newProgressReader(file, func(n int64) {
		imp.tracker.update(n, p)
	})

	node, err := imp.buildDAGFromFile(ctx, pr)
	if err != nil {
		return &ImportError{Path: orig, Op: "chunk", Err: err}
	}

	return imp.putNodeToMFS(ctx, node, p)
}
