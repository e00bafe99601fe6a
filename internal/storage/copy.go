package storage

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// CopyResult reports how many records Copy moved.
type CopyResult struct {
	Tags         int
	Transactions int
}

// Copy loads both collections from src, tags first, and writes them to dst.
// The two saves run concurrently; the first failure cancels the other.
func Copy(ctx context.Context, dst, src Store) (CopyResult, error) {
	tags, err := src.LoadTags(ctx)
	if err != nil {
		return CopyResult{}, fmt.Errorf("copy: %w", err)
	}
	txs, err := src.LoadTransactions(ctx)
	if err != nil {
		return CopyResult{}, fmt.Errorf("copy: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dst.SaveTags(gctx, tags)
	})
	g.Go(func() error {
		return dst.SaveTransactions(gctx, txs)
	})
	if err := g.Wait(); err != nil {
		return CopyResult{}, fmt.Errorf("copy: %w", err)
	}

	return CopyResult{Tags: len(tags), Transactions: len(txs)}, nil
}
