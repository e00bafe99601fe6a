package storage

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"jbudget/internal/core"
)

// XML document shapes. Transactions reference tags by id only.
type (
	xmlTransactions struct {
		XMLName      xml.Name         `xml:"transactions"`
		Transactions []xmlTransaction `xml:"transaction"`
	}

	xmlTransaction struct {
		ID          string      `xml:"id,attr"`
		Amount      string      `xml:"amount,attr"`
		Date        string      `xml:"date,attr"`
		Type        string      `xml:"type,attr"`
		Recurrence  string      `xml:"recurrence,attr"`
		Description *string     `xml:"description,attr,omitempty"`
		Tags        []xmlTagRef `xml:"tags>tag"`
	}

	xmlTagRef struct {
		ID string `xml:"id,attr"`
	}

	xmlTags struct {
		XMLName xml.Name `xml:"tags"`
		Tags    []xmlTag `xml:"tag"`
	}

	xmlTag struct {
		ID       string  `xml:"id,attr"`
		Name     string  `xml:"name,attr"`
		ParentID *string `xml:"parentId,attr,omitempty"`
	}
)

// XMLStore keeps each collection in its own XML document and rewrites the
// whole document on every save.
type XMLStore struct {
	transactionsPath string
	tagsPath         string
}

func NewXMLStore(transactionsPath, tagsPath string) *XMLStore {
	return &XMLStore{transactionsPath: transactionsPath, tagsPath: tagsPath}
}

// NewXMLStoreInDir places both documents under dir, creating it if needed.
func NewXMLStoreInDir(dir, transactionsFile, tagsFile string) (*XMLStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return NewXMLStore(filepath.Join(dir, transactionsFile), filepath.Join(dir, tagsFile)), nil
}

// SaveTransactions implements TransactionStore
func (s *XMLStore) SaveTransactions(_ context.Context, txs []core.Transaction) error {
	doc := xmlTransactions{Transactions: make([]xmlTransaction, 0, len(txs))}
	for _, t := range txs {
		x := xmlTransaction{
			ID:         t.ID,
			Amount:     t.Amount.String(),
			Date:       t.Date.String(),
			Type:       string(t.Type),
			Recurrence: string(t.Recurrence),
			Tags:       make([]xmlTagRef, 0, len(t.TagIDs)),
		}
		if t.Description != "" {
			desc := t.Description
			x.Description = &desc
		}
		for _, id := range t.TagIDs {
			x.Tags = append(x.Tags, xmlTagRef{ID: id})
		}
		doc.Transactions = append(doc.Transactions, x)
	}
	if err := writeXML(s.transactionsPath, doc); err != nil {
		return fmt.Errorf("save transactions: %w", err)
	}
	return nil
}

// LoadTransactions implements TransactionStore. A missing document is an
// empty collection.
func (s *XMLStore) LoadTransactions(_ context.Context) ([]core.Transaction, error) {
	var doc xmlTransactions
	found, err := readXML(s.transactionsPath, &doc)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	if !found {
		return nil, nil
	}

	txs := make([]core.Transaction, 0, len(doc.Transactions))
	for i, x := range doc.Transactions {
		t, err := x.toCore()
		if err != nil {
			return nil, fmt.Errorf("load transactions: entry %d (id %q): %w", i, x.ID, err)
		}
		txs = append(txs, t)
	}
	return txs, nil
}

func (x xmlTransaction) toCore() (core.Transaction, error) {
	amount, err := core.ParseMoney(x.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", x.Amount, err)
	}
	date, err := core.ParseDate(x.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	typ, err := core.ParseType(x.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	rec, err := core.ParseRecurrence(x.Recurrence)
	if err != nil {
		return core.Transaction{}, err
	}
	var desc string
	if x.Description != nil {
		desc = *x.Description
	}
	tagIDs := make([]string, 0, len(x.Tags))
	for _, ref := range x.Tags {
		// Blank references resolve to nothing, like unknown ids.
		if id := strings.TrimSpace(ref.ID); id != "" {
			tagIDs = append(tagIDs, id)
		}
	}
	return core.NewTransaction(x.ID, amount, date, desc, typ, tagIDs, rec)
}

// SaveTags implements TagStore
func (s *XMLStore) SaveTags(_ context.Context, tags []core.Tag) error {
	doc := xmlTags{Tags: make([]xmlTag, 0, len(tags))}
	for _, t := range tags {
		x := xmlTag{ID: t.ID, Name: t.Name}
		if !t.IsRoot() {
			parent := t.ParentID
			x.ParentID = &parent
		}
		doc.Tags = append(doc.Tags, x)
	}
	if err := writeXML(s.tagsPath, doc); err != nil {
		return fmt.Errorf("save tags: %w", err)
	}
	return nil
}

// LoadTags implements TagStore
func (s *XMLStore) LoadTags(_ context.Context) ([]core.Tag, error) {
	var doc xmlTags
	found, err := readXML(s.tagsPath, &doc)
	if err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	if !found {
		return nil, nil
	}

	tags := make([]core.Tag, 0, len(doc.Tags))
	for i, x := range doc.Tags {
		t := core.Tag{ID: x.ID, Name: x.Name}
		if x.ParentID != nil {
			t.ParentID = *x.ParentID
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("load tags: entry %d: %w", i, err)
		}
		tags = append(tags, t)
	}
	return tags, nil
}

func readXML(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

// writeXML writes to a temporary file next to path and renames it over the
// original, so a failed write never leaves a truncated document behind.
func writeXML(path string, v any) error {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if _, err := f.WriteString(xml.Header); err != nil {
		f.Close()
		return err
	}
	if _, err := f.Write(body); err != nil {
		f.Close()
		return err
	}
	if _, err := f.WriteString("\n"); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
