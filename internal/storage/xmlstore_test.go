package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jbudget/internal/core"
)

func newTestXMLStore(t *testing.T) (*XMLStore, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewXMLStoreInDir(dir, "transactions.xml", "tags.xml")
	require.NoError(t, err)
	return s, dir
}

func TestXMLStoreDocumentShape(t *testing.T) {
	s, dir := newTestXMLStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveTags(ctx, sampleTags()))
	require.NoError(t, s.SaveTransactions(ctx, sampleTransactions(t)))

	tags, err := os.ReadFile(filepath.Join(dir, "tags.xml"))
	require.NoError(t, err)
	doc := string(tags)
	assert.True(t, strings.HasPrefix(doc, "<?xml"))
	assert.Contains(t, doc, `<tag id="2" name="Food"></tag>`)
	assert.Contains(t, doc, `<tag id="4" name="Pizza" parentId="2"></tag>`)

	txs, err := os.ReadFile(filepath.Join(dir, "transactions.xml"))
	require.NoError(t, err)
	doc = string(txs)
	assert.Contains(t, doc, `<transaction id="2" amount="50.01" date="2024-01-15" type="EXPENSE" recurrence="MONTHLY">`)
	assert.Contains(t, doc, `id="1" amount="100.00" date="2024-01-10" type="INCOME" recurrence="" description="salary"`)
	assert.Contains(t, doc, `<tag id="3"></tag>`)
	// Tag names are never stored with transactions.
	assert.NotContains(t, doc, "Food")
}

func TestXMLStoreReadsHandWrittenDocuments(t *testing.T) {
	s, dir := newTestXMLStore(t)
	ctx := context.Background()

	writeFile(t, filepath.Join(dir, "tags.xml"), `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<tags>
  <tag id="1" name="Home"/>
  <tag id="7" name="Bills" parentId="1"/>
</tags>`)
	writeFile(t, filepath.Join(dir, "transactions.xml"), `<?xml version="1.0" encoding="UTF-8"?>
<transactions>
  <transaction amount="12.5" date="2024-03-01" id="9" recurrence="" type="EXPENSE">
    <tags>
      <tag id="7"/>
      <tag id="404"/>
    </tags>
  </transaction>
  <transaction amount="1200.0" date="2024-03-27" description="pay" id="10" recurrence="MONTHLY" type="INCOME"/>
</transactions>`)

	tags, err := s.LoadTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.Tag{{ID: "1", Name: "Home"}, {ID: "7", Name: "Bills", ParentID: "1"}}, tags)

	txs, err := s.LoadTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "12.50", txs[0].Amount.String())
	// The store keeps every reference; resolution happens in the ledger.
	assert.Equal(t, []string{"7", "404"}, txs[0].TagIDs)
	assert.Empty(t, txs[0].Description)
	assert.Equal(t, core.Monthly, txs[1].Recurrence)
	assert.Empty(t, txs[1].TagIDs)
}

func TestXMLStoreSkipsBlankTagReferences(t *testing.T) {
	s, dir := newTestXMLStore(t)
	writeFile(t, filepath.Join(dir, "transactions.xml"), `<transactions>
  <transaction id="1" amount="5" date="2024-01-01" type="EXPENSE" recurrence="">
    <tags><tag id=""/><tag id="2"/><tag id=" "/></tags>
  </transaction>
</transactions>`)

	txs, err := s.LoadTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, []string{"2"}, txs[0].TagIDs)
}

func TestXMLStoreMalformedDocuments(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not xml", "this is not xml"},
		{"wrong root", `<expenses></expenses>`},
		{"bad amount", `<transactions><transaction id="1" amount="lots" date="2024-01-01" type="INCOME" recurrence=""/></transactions>`},
		{"bad date", `<transactions><transaction id="1" amount="1" date="01/01/2024" type="INCOME" recurrence=""/></transactions>`},
		{"bad type", `<transactions><transaction id="1" amount="1" date="2024-01-01" type="GIFT" recurrence=""/></transactions>`},
		{"bad recurrence", `<transactions><transaction id="1" amount="1" date="2024-01-01" type="INCOME" recurrence="HOURLY"/></transactions>`},
		{"missing id", `<transactions><transaction amount="1" date="2024-01-01" type="INCOME" recurrence=""/></transactions>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, dir := newTestXMLStore(t)
			writeFile(t, filepath.Join(dir, "transactions.xml"), tc.body)
			_, err := s.LoadTransactions(context.Background())
			assert.Error(t, err)
		})
	}

	s, dir := newTestXMLStore(t)
	writeFile(t, filepath.Join(dir, "tags.xml"), `<tags><tag id="1" name=""/></tags>`)
	_, err := s.LoadTags(context.Background())
	assert.ErrorIs(t, err, core.ErrEmptyName)
}

func TestXMLStoreSaveFailureLeavesPreviousDocument(t *testing.T) {
	s, dir := newTestXMLStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveTags(ctx, sampleTags()))

	broken := NewXMLStore(filepath.Join(dir, "missing-dir", "transactions.xml"), filepath.Join(dir, "missing-dir", "tags.xml"))
	assert.Error(t, broken.SaveTags(ctx, nil))

	tags, err := s.LoadTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 3)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temporary file left behind: %s", e.Name())
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}
