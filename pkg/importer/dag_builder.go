package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sort"
	"strings"

	chunk "github.com/ipfs/boxo/chunker"
	"github.com/ipfs/boxo/ipld/merkledag"
	"github.com/ipfs/boxo/ipld/unixfs/importer/balanced"
	"github.com/ipfs/boxo/ipld/unixfs/importer/helpers"
	"github.com/ipfs/go-cid"
	ipld "github.com/ipfs/go-ipld-format"
)

// calcPackage hashes the concatenated CID strings of one package.
func calcPackage(blocks []string) Package {
	var b strings.Builder
	b.Grow(len(blocks) * cidStringBufferSize)
	for _, block := range blocks {
		b.WriteString(block)
	}

	hash := sha256.Sum256([]byte(b.String()))

	return Package{
		Hash:   hex.EncodeToString(hash[:]),
		Blocks: blocks,
	}
}

// collectBlocks returns every CID reachable from root, sorted.
func (imp *Importer) collectBlocks(ctx context.Context, root ipld.Node) ([]string, error) {
	set := cid.NewSet()
	err := merkledag.Walk(ctx, merkledag.GetLinksWithDAG(imp.dagService), root.Cid(), set.Visit, merkledag.Concurrent())
	if err != nil {
		return nil, err
	}

	links := make([]string, 0, set.Len())
	_ = set.ForEach(func(c cid.Cid) error {
		links = append(links, c.String())
		return nil
	})
	sort.Strings(links)

	return links, nil
}

func createPackages(blocks []string) []Package {
	packages := make([]Package, 0, (len(blocks)+blocksPerPackage-1)/blocksPerPackage)
	for start := 0; start < len(blocks); start += blocksPerPackage {
		end := min(start+blocksPerPackage, len(blocks))
		packages = append(packages, calcPackage(blocks[start:end:end]))
	}

	return packages
}

// buildDAGFromFile chunks reader into a balanced UnixFS file DAG.
func (imp *Importer) buildDAGFromFile(ctx context.Context, reader io.Reader) (ipld.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := helpers.DagBuilderParams{
		Maxlinks:   helpers.DefaultLinksPerBlock,
		RawLeaves:  true,
		CidBuilder: imp.cidBuilder,
		Dagserv:    imp.bufferedDS,
	}

	db, err := params.New(chunk.NewSizeSplitter(reader, chunkSize))
	if err != nil {
		return nil, err
	}

	nd, err := balanced.Layout(db)
	if err != nil {
		return nil, err
	}

	return nd, imp.bufferedDS.Commit()
}
