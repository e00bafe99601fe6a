// Package services holds the authoritative in-memory collections and the
// aggregations computed over them.
//
// The Ledger owns transactions and the TagRegistry owns tags. Both keep the
// entire collection in memory and rewrite it through their store on every
// successful mutation. A failed save is returned as a *PersistenceError and
// the in-memory collection keeps its previous contents.
package services

import (
	"context"
	"sync"

	"jbudget/internal/core"
	"jbudget/internal/log"
	"jbudget/internal/storage"
)

// Ledger owns the transaction collection and composes the tag registry and
// the aggregators into one facade.
type Ledger struct {
	mu       sync.RWMutex
	txs      []core.Transaction
	store    storage.TransactionStore
	tags     *TagRegistry
	budget   BudgetAggregator
	stats    StatisticsAggregator
	notifier Notifier
	logger   *log.StructuredLogger
}

// NewLedger loads tags first, then transactions. Tag ids on loaded
// transactions that match no known tag are dropped.
func NewLedger(ctx context.Context, store storage.Store, notifier Notifier, logger *log.Logger) (*Ledger, error) {
	tags, err := NewTagRegistry(ctx, store, notifier, logger)
	if err != nil {
		return nil, err
	}

	loaded, err := store.LoadTransactions(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "load transactions", Err: err}
	}

	l := &Ledger{
		txs:      make([]core.Transaction, 0, len(loaded)),
		store:    store,
		tags:     tags,
		notifier: notifier,
		logger:   log.NewStructuredLogger(componentLogger(logger, log.ComponentLedger)),
	}

	dropped := 0
	for _, t := range loaded {
		known := t.TagIDs[:0:0]
		for _, id := range t.TagIDs {
			if _, ok := tags.GetByID(id); ok {
				known = append(known, id)
			} else {
				dropped++
			}
		}
		t.TagIDs = known
		l.txs = append(l.txs, t)
	}
	if dropped > 0 {
		l.logger.Logger().WarnContext(ctx, "Dropped unresolved tag references",
			log.FieldCount, dropped, log.FieldOperation, log.OpLoad)
	}
	l.logger.Logger().InfoContext(ctx, "Ledger loaded",
		"transactions", len(l.txs), "tags", len(tags.ListAll()))

	return l, nil
}

// Add appends tx. Returns false without touching anything if a transaction
// with the same id already exists.
func (l *Ledger) Add(ctx context.Context, tx core.Transaction) (bool, error) {
	if err := tx.Validate(); err != nil {
		return false, err
	}
	ok, err := l.commit(ctx, func() ([]core.Transaction, bool) {
		if l.indexLocked(tx.ID) >= 0 {
			return nil, false
		}
		return append(l.snapshotLocked(), tx.Clone()), true
	})
	if !ok || err != nil {
		return false, err
	}
	l.changed(ctx, log.OpCreate, EventCreated, tx)
	return true, nil
}

// Update replaces the transaction with id, keeping its position.
func (l *Ledger) Update(ctx context.Context, id string, tx core.Transaction) (bool, error) {
	if err := tx.Validate(); err != nil {
		return false, err
	}
	ok, err := l.commit(ctx, func() ([]core.Transaction, bool) {
		i := l.indexLocked(id)
		if i < 0 {
			return nil, false
		}
		next := l.snapshotLocked()
		next[i] = tx.Clone()
		return next, true
	})
	if !ok || err != nil {
		return false, err
	}
	tx.ID = id
	l.changed(ctx, log.OpUpdate, EventUpdated, tx)
	return true, nil
}

// Remove deletes the first transaction with id.
func (l *Ledger) Remove(ctx context.Context, id string) (bool, error) {
	var removed core.Transaction
	ok, err := l.commit(ctx, func() ([]core.Transaction, bool) {
		i := l.indexLocked(id)
		if i < 0 {
			return nil, false
		}
		removed = l.txs[i]
		next := l.snapshotLocked()
		return append(next[:i], next[i+1:]...), true
	})
	if !ok || err != nil {
		return false, err
	}
	l.changed(ctx, log.OpDelete, EventDeleted, removed)
	return true, nil
}

// commit runs build under the write lock. When build returns a new
// collection it is saved and swapped in; the lock is released before the
// caller logs and publishes.
func (l *Ledger) commit(ctx context.Context, build func() ([]core.Transaction, bool)) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	next, ok := build()
	if !ok {
		return false, nil
	}
	if err := l.saveLocked(ctx, next); err != nil {
		return false, err
	}
	l.txs = next
	return true, nil
}

func (l *Ledger) changed(ctx context.Context, op string, kind EventKind, tx core.Transaction) {
	l.logTransaction(ctx, op, tx)
	l.notify(ctx, newEvent(kind, EntityTransaction, tx.ID))
}

// GetByID returns a copy of the transaction with id.
func (l *Ledger) GetByID(id string) (core.Transaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.indexLocked(id); i >= 0 {
		return l.txs[i].Clone(), true
	}
	return core.Transaction{}, false
}

// ListAll returns a copy of every transaction in insertion order.
func (l *Ledger) ListAll() []core.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked()
}

// Tags exposes the tag registry.
func (l *Ledger) Tags() *TagRegistry {
	return l.tags
}

// ListAllTags is shorthand for Tags().ListAll().
func (l *Ledger) ListAllTags() []core.Tag {
	return l.tags.ListAll()
}

func (l *Ledger) Budget() BudgetAggregator {
	return l.budget
}

func (l *Ledger) Statistics() StatisticsAggregator {
	return l.stats
}

// ResolveTags maps the tag ids of tx to tags. Ids that match no tag, for
// example after the tag was removed, are returned in unresolved.
func (l *Ledger) ResolveTags(tx core.Transaction) (tags []core.Tag, unresolved []string) {
	for _, id := range tx.TagIDs {
		if t, ok := l.tags.GetByID(id); ok {
			tags = append(tags, t)
		} else {
			unresolved = append(unresolved, id)
		}
	}
	return tags, unresolved
}

func (l *Ledger) indexLocked(id string) int {
	for i, t := range l.txs {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// snapshotLocked deep-copies the collection, leaving room for one append.
func (l *Ledger) snapshotLocked() []core.Transaction {
	out := make([]core.Transaction, len(l.txs), len(l.txs)+1)
	for i, t := range l.txs {
		out[i] = t.Clone()
	}
	return out
}

func (l *Ledger) saveLocked(ctx context.Context, txs []core.Transaction) error {
	if err := l.store.SaveTransactions(ctx, txs); err != nil {
		l.logger.LogError(ctx, "Failed to save transactions", err, log.ComponentLedger, log.OpSave,
			log.NewFields().WithCount(len(txs)).WithErrorType(log.ErrorTypePersistence))
		return &PersistenceError{Op: "save transactions", Err: err}
	}
	return nil
}

func (l *Ledger) logTransaction(ctx context.Context, op string, tx core.Transaction) {
	l.logger.LogTransaction(ctx, op, tx.ID, tx.Amount.String(), string(tx.Type), tx.Date.String())
}

func (l *Ledger) notify(ctx context.Context, e Event) {
	publish(ctx, l.notifier, l.logger, e)
}

// publish hands e to n. The mutation is already durable, so a notifier
// failure is logged and not returned.
func publish(ctx context.Context, n Notifier, logger *log.StructuredLogger, e Event) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, e); err != nil {
		logger.LogError(ctx, "Failed to publish change event", err, log.ComponentAMQP, log.OpPublish,
			log.NewFields().WithErrorType(log.ErrorTypeNetwork))
	}
}

func componentLogger(logger *log.Logger, component string) *log.Logger {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return logger.WithComponent(component)
}
