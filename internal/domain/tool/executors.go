package tool

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bonyuta0204/gohan-bot/internal/domain/fridge"
)

// defaultFetchLimit matches the declared schema default for fetch_recent_items.
const defaultFetchLimit = 5

// ─── add_fridge_item ────────────────────────────────────────────────────────

type addItemInput struct {
	ItemName string         `json:"item_name" jsonschema_description:"Name of the item to add."`
	ExpireAt *string        `json:"expire_at,omitempty" jsonschema_description:"Expiry timestamp (ISO 8601) if the user mentioned one."`
	Note     *string        `json:"note,omitempty" jsonschema_description:"Free-text note about the item."`
	Meta     map[string]any `json:"meta,omitempty" jsonschema_description:"Extra structured info as a JSON object (category, quantity, ...). Only when clearly present; never invented."`
}

type addFridgeItemArgs struct {
	Items []addItemInput `json:"items" jsonschema_description:"Items to add to the fridge."`
}

func addFridgeItemHandler(store *fridge.Store) handler {
	return func(ctx context.Context, raw json.RawMessage) Result {
		var args addFridgeItemArgs
		if err := decodeArgs(raw, &args); err != nil {
			return Errorf("Invalid arguments for add_fridge_item: %v", err)
		}
		if len(args.Items) == 0 {
			return Errorf("Invalid items. Must be a non-empty array of items.")
		}

		rows := make([]fridge.NewItem, 0, len(args.Items))
		for _, in := range args.Items {
			if strings.TrimSpace(in.ItemName) == "" {
				return Errorf("Invalid items. Every item needs a non-empty item_name.")
			}
			row := fridge.NewItem{
				ItemName: strings.TrimSpace(in.ItemName),
				ExpireAt: in.ExpireAt,
				Note:     in.Note,
			}
			if in.Meta != nil {
				meta, err := json.Marshal(in.Meta)
				if err != nil {
					return Errorf("Invalid meta for %s: %v", row.ItemName, err)
				}
				row.Meta = meta
			}
			rows = append(rows, row)
		}

		if err := store.InsertItems(ctx, rows); err != nil {
			return Errorf("Failed to add items: %v", err)
		}
		return Successf("Added %d fridge item(s)", len(rows))
	}
}

// ─── update_fridge_item ─────────────────────────────────────────────────────

type updateFridgeItemArgs struct {
	ID       int64   `json:"id" jsonschema_description:"Primary key of the fridge item to update."`
	ItemName *string `json:"item_name,omitempty" jsonschema_description:"New name for the item."`
	ExpireAt *string `json:"expire_at,omitempty" jsonschema_description:"New expiry timestamp (ISO 8601)."`
	Note     *string `json:"note,omitempty" jsonschema_description:"New free-text note."`
}

func updateFridgeItemHandler(store *fridge.Store) handler {
	return func(ctx context.Context, raw json.RawMessage) Result {
		var args updateFridgeItemArgs
		if err := decodeArgs(raw, &args); err != nil {
			return Errorf("Invalid arguments for update_fridge_item: %v", err)
		}
		if args.ID <= 0 {
			return Errorf("Must provide id (number) and at least one field to update.")
		}

		upd := fridge.ItemUpdate{ExpireAt: args.ExpireAt, Note: args.Note}
		// A provided but blank name is filtered out rather than written.
		if args.ItemName != nil && strings.TrimSpace(*args.ItemName) != "" {
			name := strings.TrimSpace(*args.ItemName)
			upd.ItemName = &name
		}
		if upd.IsEmpty() {
			return Errorf("No valid fields to update.")
		}

		err := store.UpdateItem(ctx, args.ID, upd)
		if errors.Is(err, sql.ErrNoRows) {
			return Errorf("No fridge item found with id %d.", args.ID)
		}
		if err != nil {
			return Errorf("Failed to update item: %v", err)
		}
		return Successf("Updated fridge item %d", args.ID)
	}
}

// ─── delete_fridge_item ─────────────────────────────────────────────────────

type deleteFridgeItemArgs struct {
	IDs []int64 `json:"ids" jsonschema_description:"Primary keys of the fridge items to delete."`
}

func deleteFridgeItemHandler(store *fridge.Store) handler {
	return func(ctx context.Context, raw json.RawMessage) Result {
		var args deleteFridgeItemArgs
		if err := decodeArgs(raw, &args); err != nil {
			return Errorf("Invalid arguments for delete_fridge_item: %v", err)
		}
		if len(args.IDs) == 0 {
			return Errorf("Invalid ids. Must be a non-empty array of numbers.")
		}

		if _, err := store.DeleteItems(ctx, args.IDs); err != nil {
			return Errorf("Failed to delete items: %v", err)
		}
		// The count reflects the requested ids, even when some did not match.
		return Successf("Deleted %d fridge item(s) with ids [%s]", len(args.IDs), joinIDs(args.IDs))
	}
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ", ")
}

// ─── record_meal ────────────────────────────────────────────────────────────

type recordMealArgs struct {
	MealName string `json:"meal_name" jsonschema_description:"Name of the meal the user ate."`
}

func recordMealHandler(store *fridge.Store) handler {
	return func(ctx context.Context, raw json.RawMessage) Result {
		var args recordMealArgs
		if err := decodeArgs(raw, &args); err != nil {
			return Errorf("Invalid arguments for record_meal: %v", err)
		}
		if strings.TrimSpace(args.MealName) == "" {
			return Errorf("Invalid meal_name. Must be a non-empty string.")
		}

		if err := store.RecordMeal(ctx, strings.TrimSpace(args.MealName)); err != nil {
			return Errorf("Failed to record meal: %v", err)
		}
		return Successf("Recorded meal %s", strings.TrimSpace(args.MealName))
	}
}

// ─── fetch_recent_items ─────────────────────────────────────────────────────

type fetchRecentItemsArgs struct {
	Limit int `json:"limit,omitempty" jsonschema:"default=5" jsonschema_description:"Max number of items to fetch (default 5)."`
}

func fetchRecentItemsHandler(store *fridge.Store) handler {
	return func(ctx context.Context, raw json.RawMessage) Result {
		var args fetchRecentItemsArgs
		if err := decodeArgs(raw, &args); err != nil {
			return Errorf("Invalid arguments for fetch_recent_items: %v", err)
		}
		limit := args.Limit
		if limit <= 0 {
			limit = defaultFetchLimit
		}

		items, err := store.RecentItems(ctx, limit)
		if err != nil {
			return Errorf("Failed to fetch items: %v", err)
		}
		return Result{Items: items}
	}
}
