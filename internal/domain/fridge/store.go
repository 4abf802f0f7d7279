// Package fridge is the typed store for fridge inventory and the meal log.
// All access goes through raw SQL against the migrated schema; validation of
// tool arguments happens one layer up, in the tool handlers.
package fridge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// Item is one row of fridge_items. ExpireAt, Note and Meta are nullable; Meta
// holds an open JSON object when present.
type Item struct {
	ID       int64           `json:"id"`
	ItemName string          `json:"item_name"`
	ExpireAt *string         `json:"expire_at,omitempty"`
	Note     *string         `json:"note,omitempty"`
	Meta     json.RawMessage `json:"meta,omitempty"`
	AddedAt  string          `json:"added_at"`
}

// NewItem is the insertable shape of a fridge item.
type NewItem struct {
	ItemName string
	ExpireAt *string
	Note     *string
	Meta     json.RawMessage
}

// ItemUpdate carries the fields to change on an existing item. Nil fields are
// left untouched.
type ItemUpdate struct {
	ItemName *string
	ExpireAt *string
	Note     *string
}

// IsEmpty reports whether the update would touch nothing.
func (u ItemUpdate) IsEmpty() bool {
	return u.ItemName == nil && u.ExpireAt == nil && u.Note == nil
}

// Meal is one row of meal_logs.
type Meal struct {
	ID       int64  `json:"id"`
	MealName string `json:"meal_name"`
	LoggedAt string `json:"logged_at"`
}

// Store provides CRUD over fridge_items and meal_logs.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store over an already-migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// InsertItems inserts all given items in one transaction. An empty slice is a
// no-op; callers reject it before reaching the store.
func (s *Store) InsertItems(ctx context.Context, items []NewItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("fridge: begin insert: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fridge_items (item_name, expire_at, note, meta)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("fridge: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		var meta any
		if len(item.Meta) > 0 {
			meta = string(item.Meta)
		}
		if _, err := stmt.ExecContext(ctx, item.ItemName, item.ExpireAt, item.Note, meta); err != nil {
			return fmt.Errorf("fridge: insert %q: %w", item.ItemName, err)
		}
	}

	return tx.Commit()
}

// UpdateItem applies the non-nil fields of upd to the item with the given id.
// Returns sql.ErrNoRows if no row matched.
func (s *Store) UpdateItem(ctx context.Context, id int64, upd ItemUpdate) error {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if upd.ItemName != nil {
		sets = append(sets, "item_name = ?")
		args = append(args, *upd.ItemName)
	}
	if upd.ExpireAt != nil {
		sets = append(sets, "expire_at = ?")
		args = append(args, *upd.ExpireAt)
	}
	if upd.Note != nil {
		sets = append(sets, "note = ?")
		args = append(args, *upd.Note)
	}
	if len(sets) == 0 {
		return fmt.Errorf("fridge: update item %d: no fields to update", id)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		"UPDATE fridge_items SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("fridge: update item %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("fridge: update item %d: rows affected: %w", id, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteItems removes all items whose id is in ids with a single DELETE.
// Returns the number of rows removed.
func (s *Store) DeleteItems(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM fridge_items WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("fridge: delete items: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("fridge: delete items: rows affected: %w", err)
	}
	return affected, nil
}

// RecentItems returns up to limit items, most recently added first.
func (s *Store) RecentItems(ctx context.Context, limit int) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_name, expire_at, note, meta, added_at
		FROM fridge_items
		ORDER BY added_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("fridge: recent items: %w", err)
	}
	defer rows.Close()

	out := make([]Item, 0)
	for rows.Next() {
		var (
			item      Item
			expireRaw sql.NullString
			noteRaw   sql.NullString
			metaRaw   sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.ItemName, &expireRaw, &noteRaw, &metaRaw, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("fridge: scan item: %w", err)
		}
		if expireRaw.Valid {
			v := expireRaw.String
			item.ExpireAt = &v
		}
		if noteRaw.Valid {
			v := noteRaw.String
			item.Note = &v
		}
		if metaRaw.Valid {
			item.Meta = json.RawMessage(metaRaw.String)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// RecordMeal appends one row to the meal log.
func (s *Store) RecordMeal(ctx context.Context, mealName string) error {
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO meal_logs (meal_name) VALUES (?)", mealName); err != nil {
		return fmt.Errorf("fridge: record meal %q: %w", mealName, err)
	}
	return nil
}
