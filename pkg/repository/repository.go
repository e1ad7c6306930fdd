// Package repository is a content-addressed block store on top of the
// on-disk storage layer.
package repository

import (
	"context"
	"fmt"

	"github.com/ipfs/boxo/blockstore"
	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multicodec"
	mh "github.com/multiformats/go-multihash"

	"github.com/tragoedia0722/filesan/internal/storage"
)

// Repository stores dag-pb blocks keyed by CIDv1.
type Repository struct {
	storage    *storage.Storage
	blockStore blockstore.Blockstore
	builder    cid.Builder
}

// NewRepository opens or creates the repository at path.
func NewRepository(path string) (*Repository, error) {
	s, err := storage.NewStorage(path)
	if err != nil {
		return nil, err
	}

	return &Repository{
		storage:    s,
		blockStore: blockstore.NewBlockstore(s.Datastore()),
		builder: cid.V1Builder{
			Codec:    uint64(multicodec.DagPb),
			MhType:   mh.SHA2_256,
			MhLength: -1,
		},
	}, nil
}

func (r *Repository) Path() string {
	return r.storage.Path()
}

func (r *Repository) BlockStore() blockstore.Blockstore {
	return r.blockStore
}

func (r *Repository) DataStore() storage.Datastore {
	return r.storage.Datastore()
}

// Usage is the disk usage of the whole repository in bytes.
func (r *Repository) Usage(ctx context.Context) (uint64, error) {
	return r.storage.Usage(ctx)
}

func (r *Repository) Close() error {
	if r.storage == nil {
		return nil
	}

	return r.storage.Close()
}

// Destroy closes the repository and removes it from disk.
func (r *Repository) Destroy() error {
	if r.storage == nil {
		return nil
	}

	return r.storage.Destroy()
}

// PutBlockWithCid stores data under c after checking that the hash matches.
func (r *Repository) PutBlockWithCid(ctx context.Context, c string, data []byte) error {
	want, err := cid.Parse(c)
	if err != nil {
		return err
	}

	sum, err := r.builder.Sum(data)
	if err != nil {
		return err
	}

	if sum.Hash().String() != want.Hash().String() {
		return fmt.Errorf("cid hash mismatch: expected %s, got %s", want.Hash(), sum.Hash())
	}

	blk, err := blocks.NewBlockWithCid(data, sum)
	if err != nil {
		return err
	}

	return r.blockStore.Put(ctx, blk)
}

func (r *Repository) PutBlock(ctx context.Context, data []byte) (cid.Cid, error) {
	sum, err := r.builder.Sum(data)
	if err != nil {
		return cid.Undef, err
	}

	blk, err := blocks.NewBlockWithCid(data, sum)
	if err != nil {
		return cid.Undef, err
	}

	if err = r.blockStore.Put(ctx, blk); err != nil {
		return cid.Undef, err
	}

	return sum, nil
}

// PutManyBlocks stores all blocks in one batch and returns their CIDs in
// input order.
func (r *Repository) PutManyBlocks(ctx context.Context, data [][]byte) ([]cid.Cid, error) {
	blks := make([]blocks.Block, 0, len(data))
	cids := make([]cid.Cid, 0, len(data))

	for _, b := range data {
		sum, err := r.builder.Sum(b)
		if err != nil {
			return nil, err
		}

		blk, err := blocks.NewBlockWithCid(b, sum)
		if err != nil {
			return nil, err
		}
		blks = append(blks, blk)
		cids = append(cids, sum)
	}

	if err := r.blockStore.PutMany(ctx, blks); err != nil {
		return nil, err
	}

	return cids, nil
}

func (r *Repository) HasBlock(ctx context.Context, c string) (bool, error) {
	parsed, err := cid.Parse(c)
	if err != nil {
		return false, err
	}

	return r.blockStore.Has(ctx, parsed)
}

// HasAllBlocks stops at the first missing block.
func (r *Repository) HasAllBlocks(ctx context.Context, cids []string) (bool, error) {
	for _, c := range cids {
		has, err := r.HasBlock(ctx, c)
		if err != nil || !has {
			return false, err
		}
	}

	return true, nil
}

func (r *Repository) GetRawData(ctx context.Context, c string) ([]byte, error) {
	parsed, err := cid.Parse(c)
	if err != nil {
		return nil, err
	}

	blk, err := r.blockStore.Get(ctx, parsed)
	if err != nil {
		return nil, err
	}

	return blk.RawData(), nil
}

func (r *Repository) DelBlock(ctx context.Context, c string) error {
	parsed, err := cid.Parse(c)
	if err != nil {
		return err
	}

	return r.blockStore.DeleteBlock(ctx, parsed)
}
