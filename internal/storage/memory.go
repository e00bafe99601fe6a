package storage

import (
	"bufio"
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"sync"

	"jbudget/internal/core"
)

// ErrStoreUnavailable is returned by a MemoryStore told to fail saves.
var ErrStoreUnavailable = errors.New("store unavailable")

// MemoryStore keeps both collections in process memory.
type MemoryStore struct {
	mu        sync.Mutex
	tags      []core.Tag
	txs       []core.Transaction
	saves     int
	failSaves bool
}

func NewMemoryStore(tags []core.Tag, txs []core.Transaction) *MemoryStore {
	return &MemoryStore{tags: copyTags(tags), txs: copyTransactions(txs)}
}

// NewMemoryStoreFromFile seeds tags from a text file with one tag per line.
// "Parent/Child" lines create a child under the root named Parent. Blank
// lines and lines starting with # are skipped. A missing file yields a small
// default hierarchy.
func NewMemoryStoreFromFile(path string) *MemoryStore {
	lines := readLines(path)
	if len(lines) == 0 {
		lines = []string{"Home", "Home/Rent", "Food", "Food/Groceries", "Salary"}
	}
	return NewMemoryStore(seedTags(lines), nil)
}

// SaveTransactions implements TransactionStore
func (s *MemoryStore) SaveTransactions(_ context.Context, txs []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves {
		return ErrStoreUnavailable
	}
	s.txs = copyTransactions(txs)
	s.saves++
	return nil
}

// LoadTransactions implements TransactionStore
func (s *MemoryStore) LoadTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyTransactions(s.txs), nil
}

// SaveTags implements TagStore
func (s *MemoryStore) SaveTags(_ context.Context, tags []core.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves {
		return ErrStoreUnavailable
	}
	s.tags = copyTags(tags)
	s.saves++
	return nil
}

// LoadTags implements TagStore
func (s *MemoryStore) LoadTags(_ context.Context) ([]core.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyTags(s.tags), nil
}

// Saves returns how many successful saves the store has received.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// FailSaves makes every following save return ErrStoreUnavailable.
func (s *MemoryStore) FailSaves(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSaves = fail
}

func copyTags(in []core.Tag) []core.Tag {
	if in == nil {
		return nil
	}
	return append([]core.Tag(nil), in...)
}

func copyTransactions(in []core.Transaction) []core.Transaction {
	if in == nil {
		return nil
	}
	out := make([]core.Transaction, len(in))
	for i, t := range in {
		out[i] = t.Clone()
	}
	return out
}

func seedTags(lines []string) []core.Tag {
	var tags []core.Tag
	roots := map[string]string{}
	add := func(name, parentID string) string {
		id := strconv.Itoa(len(tags) + 1)
		tags = append(tags, core.Tag{ID: id, Name: name, ParentID: parentID})
		return id
	}
	for _, line := range lines {
		parent, child, nested := strings.Cut(line, "/")
		parent = strings.TrimSpace(parent)
		child = strings.TrimSpace(child)
		if parent == "" {
			continue
		}
		rootID, ok := roots[parent]
		if !ok {
			rootID = add(parent, "")
			roots[parent] = rootID
		}
		if nested && child != "" {
			add(child, rootID)
		}
	}
	return tags
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	seen := map[string]struct{}{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
