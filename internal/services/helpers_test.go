package services

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"jbudget/internal/core"
	"jbudget/internal/log"
	"jbudget/internal/storage"
)

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Notify(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func newTestLedger(t *testing.T, store *storage.MemoryStore, n Notifier) *Ledger {
	t.Helper()
	l, err := NewLedger(context.Background(), store, n, log.Discard())
	require.NoError(t, err)
	return l
}

func mustTx(t *testing.T, id string, amount float64, date core.Date, typ core.Type, tagIDs ...string) core.Transaction {
	t.Helper()
	tx, err := core.NewTransaction(id, core.MoneyFromFloat(amount), date, "", typ, tagIDs, core.RecurrenceNone)
	require.NoError(t, err)
	return tx
}

// fixedTags is a TagResolver over a literal set.
type fixedTags map[string]core.Tag

func (f fixedTags) GetByID(id string) (core.Tag, bool) {
	t, ok := f[id]
	return t, ok
}

func resolverOf(tags ...core.Tag) fixedTags {
	f := fixedTags{}
	for _, t := range tags {
		f[t.ID] = t
	}
	return f
}

func writeBroken(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("<tags><tag id="), 0o644))
}

// blockingNotifier signals on started and then waits for release before
// returning.
func blockingNotifier() (n NotifierFunc, started <-chan struct{}, release func()) {
	s := make(chan struct{}, 1)
	r := make(chan struct{})
	n = func(ctx context.Context, _ Event) error {
		s <- struct{}{}
		select {
		case <-r:
		case <-ctx.Done():
		}
		return nil
	}
	return n, s, func() { close(r) }
}

// returnsWithin fails the test if fn does not return before d elapses.
func returnsWithin(t *testing.T, d time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("call did not return within %s", d)
	}
}
