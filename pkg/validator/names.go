package validator

import (
	"context"
	"fmt"
	"path"
	"sort"

	"github.com/ipfs/boxo/ipld/merkledag"
	"github.com/ipfs/boxo/ipld/unixfs"
	uio "github.com/ipfs/boxo/ipld/unixfs/io"
	"github.com/ipfs/go-cid"
	ipld "github.com/ipfs/go-ipld-format"

	"github.com/tragoedia0722/filesan/pkg/filesan"
)

// NameIssue is an entry the escaper would rename. Paths are relative to the
// root and slash separated.
type NameIssue struct {
	Path    string
	Escaped string
}

type NameReport struct {
	Escaper filesan.Escaper
	Entries int
	Issues  []NameIssue
}

// Portable reports whether every name can be used unchanged.
func (r *NameReport) Portable() bool {
	return len(r.Issues) == 0
}

// CheckNames walks the UnixFS directories under rootCid and lists every
// entry whose name escaper would change. Issues are in walk order, with
// siblings sorted by name.
func (v *Validator) CheckNames(ctx context.Context, rootCid string, escaper filesan.Escaper) (*NameReport, error) {
	if err := escaper.Validate(); err != nil {
		return nil, err
	}

	root, err := cid.Decode(rootCid)
	if err != nil {
		return nil, fmt.Errorf("invalid root CID: %w", err)
	}

	report := &NameReport{Escaper: escaper}
	if err = v.checkDir(ctx, root, "", "", report); err != nil {
		return nil, err
	}

	log.Debugw("names checked", "root", root, "escaper", escaper, "entries", report.Entries, "issues", len(report.Issues))
	return report, nil
}

func (v *Validator) checkDir(ctx context.Context, c cid.Cid, orig, escaped string, report *NameReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	nd, err := v.dagService.Get(ctx, c)
	if err != nil {
		return fmt.Errorf("get %s: %w", c, err)
	}

	if !isDirectory(nd) {
		return nil
	}

	dir, err := uio.NewDirectoryFromNode(v.dagService, nd)
	if err != nil {
		return fmt.Errorf("open directory %q: %w", orig, err)
	}

	var links []*ipld.Link
	err = dir.ForEachLink(ctx, func(l *ipld.Link) error {
		links = append(links, l)
		return nil
	})
	if err != nil {
		return fmt.Errorf("list directory %q: %w", orig, err)
	}
	sort.Slice(links, func(i, j int) bool { return links[i].Name < links[j].Name })

	for _, l := range links {
		name := report.Escaper.EscapeName(l.Name)
		childOrig := path.Join(orig, l.Name)
		childEscaped := path.Join(escaped, name)

		report.Entries++
		if name != l.Name {
			report.Issues = append(report.Issues, NameIssue{Path: childOrig, Escaped: childEscaped})
		}

		if err = v.checkDir(ctx, l.Cid, childOrig, childEscaped, report); err != nil {
			return err
		}
	}

	return nil
}

// isDirectory is true for plain and sharded UnixFS directories. Raw leaves
// and other node types are files.
func isDirectory(nd ipld.Node) bool {
	pn, ok := nd.(*merkledag.ProtoNode)
	if !ok {
		return false
	}

	fsn, err := unixfs.FSNodeFromBytes(pn.Data())
	if err != nil {
		return false
	}

	switch fsn.Type() {
	case unixfs.TDirectory, unixfs.THAMTShard:
		return true
	}
	return false
}
