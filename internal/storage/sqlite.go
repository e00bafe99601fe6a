package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"jbudget/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores both collections in SQLite. Saves upsert the given
// rows and delete the ones no longer present, inside one SQL transaction.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; concurrent saves queue on the pool.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveTransactions implements TransactionStore
func (r *SQLiteRepository) SaveTransactions(ctx context.Context, txs []core.Transaction) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		ids := make([]string, 0, len(txs))
		for i, t := range txs {
			ids = append(ids, t.ID)
			var desc sql.NullString
			if t.Description != "" {
				desc = sql.NullString{String: t.Description, Valid: true}
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO transactions (id, amount, date, type, recurrence, description, position)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					amount = excluded.amount,
					date = excluded.date,
					type = excluded.type,
					recurrence = excluded.recurrence,
					description = excluded.description,
					position = excluded.position`,
				t.ID, t.Amount.String(), t.Date.String(), string(t.Type), string(t.Recurrence), desc, i)
			if err != nil {
				return fmt.Errorf("upsert transaction %s: %w", t.ID, err)
			}

			if _, err := tx.ExecContext(ctx, `DELETE FROM transaction_tags WHERE transaction_id = ?`, t.ID); err != nil {
				return fmt.Errorf("clear tags of %s: %w", t.ID, err)
			}
			for pos, tagID := range t.TagIDs {
				_, err := tx.ExecContext(ctx,
					`INSERT INTO transaction_tags (transaction_id, tag_id, position) VALUES (?, ?, ?)`,
					t.ID, tagID, pos)
				if err != nil {
					return fmt.Errorf("link tag %s to %s: %w", tagID, t.ID, err)
				}
			}
		}

		if err := deleteMissing(ctx, tx, "transactions", ids); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`DELETE FROM transaction_tags WHERE transaction_id NOT IN (SELECT id FROM transactions)`)
		if err != nil {
			return fmt.Errorf("delete orphan tag links: %w", err)
		}
		return nil
	})
}

// LoadTransactions implements TransactionStore
func (r *SQLiteRepository) LoadTransactions(ctx context.Context) ([]core.Transaction, error) {
	links, err := r.loadTagLinks(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount, date, type, recurrence, description
		FROM transactions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var (
			id, amount, date, typ, rec string
			desc                       sql.NullString
		)
		if err := rows.Scan(&id, &amount, &date, &typ, &rec, &desc); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t, err := decodeRow(id, amount, date, typ, rec, desc.String, links[id])
		if err != nil {
			return nil, fmt.Errorf("decode transaction %s: %w", id, err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

func (r *SQLiteRepository) loadTagLinks(ctx context.Context) (map[string][]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT transaction_id, tag_id FROM transaction_tags ORDER BY transaction_id, position`)
	if err != nil {
		return nil, fmt.Errorf("query tag links: %w", err)
	}
	defer rows.Close()

	links := map[string][]string{}
	for rows.Next() {
		var txID, tagID string
		if err := rows.Scan(&txID, &tagID); err != nil {
			return nil, fmt.Errorf("scan tag link: %w", err)
		}
		links[txID] = append(links[txID], tagID)
	}
	return links, rows.Err()
}

func decodeRow(id, amount, date, typ, rec, desc string, tagIDs []string) (core.Transaction, error) {
	m, err := core.ParseMoney(amount)
	if err != nil {
		return core.Transaction{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, err
	}
	ty, err := core.ParseType(typ)
	if err != nil {
		return core.Transaction{}, err
	}
	re, err := core.ParseRecurrence(rec)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.NewTransaction(id, m, d, desc, ty, tagIDs, re)
}

// SaveTags implements TagStore
func (r *SQLiteRepository) SaveTags(ctx context.Context, tags []core.Tag) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		ids := make([]string, 0, len(tags))
		for i, t := range tags {
			ids = append(ids, t.ID)
			var parent sql.NullString
			if !t.IsRoot() {
				parent = sql.NullString{String: t.ParentID, Valid: true}
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO tags (id, name, parent_id, position) VALUES (?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					name = excluded.name,
					parent_id = excluded.parent_id,
					position = excluded.position`,
				t.ID, t.Name, parent, i)
			if err != nil {
				return fmt.Errorf("upsert tag %s: %w", t.ID, err)
			}
		}
		return deleteMissing(ctx, tx, "tags", ids)
	})
}

// LoadTags implements TagStore
func (r *SQLiteRepository) LoadTags(ctx context.Context) ([]core.Tag, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, parent_id FROM tags ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	var tags []core.Tag
	for rows.Next() {
		var (
			t      core.Tag
			parent sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Name, &parent); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		t.ParentID = parent.String
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return tags, nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// deleteMissing removes rows of table whose id is not in keep. table is
// always a package constant, never user input.
func deleteMissing(ctx context.Context, tx *sql.Tx, table string, keep []string) error {
	query := "DELETE FROM " + table
	args := make([]any, len(keep))
	if len(keep) > 0 {
		query += " WHERE id NOT IN (" + strings.TrimSuffix(strings.Repeat("?,", len(keep)), ",") + ")"
		for i, id := range keep {
			args[i] = id
		}
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete stale %s: %w", table, err)
	}
	return nil
}
