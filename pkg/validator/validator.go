// Package validator inspects a stored DAG: whether every block needed to
// restore it is present, and which entry names a target system would force
// the extractor to rewrite.
package validator

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ipfs/boxo/blockservice"
	"github.com/ipfs/boxo/blockstore"
	"github.com/ipfs/boxo/ipld/merkledag"
	"github.com/ipfs/go-cid"
	ipld "github.com/ipfs/go-ipld-format"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("filesan/validator")

type Validator struct {
	blockStore blockstore.Blockstore
	dagService ipld.DAGService
}

type Result struct {
	IsComplete    bool
	MissingBlocks []string
	InvalidBlocks []string
	TotalSize     int64
	ReachableSize int64
	CanRestore    bool
	ErrorDetails  []string
}

func NewValidator(blockStore blockstore.Blockstore) *Validator {
	return &Validator{
		blockStore: blockStore,
		dagService: merkledag.NewDAGService(blockservice.New(blockStore, nil)),
	}
}

// Validate checks blocks, the CIDs a caller expects to hold, against the
// store and against the DAG under rootCid. A block the DAG needs that is
// not listed counts as missing.
func (v *Validator) Validate(ctx context.Context, rootCid string, blocks []string) (*Result, error) {
	root, err := cid.Decode(rootCid)
	if err != nil {
		return nil, fmt.Errorf("invalid root CID: %w", err)
	}

	result := &Result{
		MissingBlocks: make([]string, 0),
		InvalidBlocks: make([]string, 0),
		ErrorDetails:  make([]string, 0),
	}

	missing := make(map[string]struct{})
	present := make(map[string]bool, len(blocks))
	for _, s := range blocks {
		c, err := cid.Decode(s)
		if err != nil {
			result.InvalidBlocks = append(result.InvalidBlocks, s)
			result.ErrorDetails = append(result.ErrorDetails, fmt.Sprintf("invalid CID: %s", s))
			continue
		}

		blk, err := v.blockStore.Get(ctx, c)
		switch {
		case ipld.IsNotFound(err):
			missing[c.String()] = struct{}{}
		case err != nil:
			result.ErrorDetails = append(result.ErrorDetails, fmt.Sprintf("error checking block %s: %v", s, err))
		default:
			present[c.String()] = true
			result.TotalSize += int64(len(blk.RawData()))
		}
	}

	required, reachable, err := v.walkDAG(ctx, root)
	if err != nil {
		log.Debugw("dag walk failed", "root", root, "err", err)
		result.ErrorDetails = append(result.ErrorDetails, fmt.Sprintf("DAG traversal failed: %v", err))
		result.MissingBlocks = sortedKeys(missing)
		return result, nil
	}
	result.ReachableSize = reachable

	for c := range required {
		if !present[c] {
			missing[c] = struct{}{}
		}
	}

	result.MissingBlocks = sortedKeys(missing)
	result.IsComplete = len(result.MissingBlocks) == 0 && len(result.InvalidBlocks) == 0
	result.CanRestore = result.IsComplete

	return result, nil
}

// walkDAG returns the CIDs reachable from root and their total raw size.
func (v *Validator) walkDAG(ctx context.Context, root cid.Cid) (map[string]struct{}, int64, error) {
	var (
		mu       sync.Mutex
		size     int64
		required = make(map[string]struct{})
	)

	err := merkledag.Walk(ctx, merkledag.GetLinksWithDAG(v.dagService), root, func(c cid.Cid) bool {
		mu.Lock()
		defer mu.Unlock()

		key := c.String()
		if _, ok := required[key]; ok {
			return false
		}
		required[key] = struct{}{}

		if blk, err := v.blockStore.Get(ctx, c); err == nil {
			size += int64(len(blk.RawData()))
		}
		return true
	}, merkledag.Concurrent())

	return required, size, err
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
