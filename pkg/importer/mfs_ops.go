package importer

import (
	"context"
	"path"

	"github.com/ipfs/boxo/ipld/unixfs"
	"github.com/ipfs/boxo/mfs"
	ipld "github.com/ipfs/go-ipld-format"
)

func (imp *Importer) mfsRoot(ctx context.Context) (*mfs.Root, error) {
	if imp.root != nil {
		return imp.root, nil
	}

	protoNode := unixfs.EmptyDirNode()
	if err := protoNode.SetCidBuilder(imp.cidBuilder); err != nil {
		return nil, err
	}

	mr, err := mfs.NewRoot(ctx, imp.dagService, protoNode, nil, nil)
	if err != nil {
		return nil, err
	}

	imp.root = mr
	return imp.root, nil
}

func (imp *Importer) flushMFSRoot(ctx context.Context) error {
	if imp.root == nil {
		return ErrMfsRootNil
	}
	return imp.root.FlushMemFree(ctx)
}

func (imp *Importer) mkdir(ctx context.Context, dirPath string) error {
	mr, err := imp.mfsRoot(ctx)
	if err != nil {
		return err
	}

	return mfs.Mkdir(mr, dirPath, mfs.MkdirOpts{
		Mkparents:  true,
		Flush:      false,
		CidBuilder: imp.cidBuilder,
	})
}

// putNodeToMFS links node at the slash separated filePath, creating parents.
func (imp *Importer) putNodeToMFS(ctx context.Context, node ipld.Node, filePath string) error {
	mr, err := imp.mfsRoot(ctx)
	if err != nil {
		return err
	}

	if dir := path.Dir(filePath); dir != "." {
		if err = imp.mkdir(ctx, dir); err != nil {
			return err
		}
	}

	return mfs.PutNode(mr, filePath, node)
}
