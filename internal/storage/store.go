// Package storage persists the whole tag and transaction collections.
//
// Every backend honours the same contract: Save replaces the stored
// collection with the given one, Load returns it in the saved order. Tags
// are always loaded before transactions so callers can resolve tag ids.
package storage

import (
	"context"

	"jbudget/internal/core"
)

// Ports for persistence backends.
type (
	TransactionStore interface {
		SaveTransactions(ctx context.Context, txs []core.Transaction) error
		LoadTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	TagStore interface {
		SaveTags(ctx context.Context, tags []core.Tag) error
		LoadTags(ctx context.Context) ([]core.Tag, error)
	}

	// Store persists both collections.
	Store interface {
		TransactionStore
		TagStore
	}
)
