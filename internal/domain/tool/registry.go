// Package tool declares the closed set of operations the model may invoke
// and executes them against the fridge store.
//
// The registry is deliberately not open-ended: adding a tool means adding one
// handler plus one definition here, nothing is discovered or registered at
// runtime. Every handler validates its own arguments, contains its own store
// errors, and always returns a Result.
package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/bonyuta0204/gohan-bot/internal/domain/fridge"
	"github.com/bonyuta0204/gohan-bot/internal/infra/openai"
)

// Tool names, also the wire contract with the model.
const (
	NameAddFridgeItem    = "add_fridge_item"
	NameUpdateFridgeItem = "update_fridge_item"
	NameDeleteFridgeItem = "delete_fridge_item"
	NameRecordMeal       = "record_meal"
	NameFetchRecentItems = "fetch_recent_items"
)

// handler executes one tool against the store. It must not return errors or
// panic past this boundary; failures become error Results.
type handler func(ctx context.Context, args json.RawMessage) Result

// definition pairs a declared schema with its handler.
type definition struct {
	name        string
	description string
	parameters  json.RawMessage
	run         handler
}

// Registry holds the five fridge/meal tools bound to one store.
type Registry struct {
	defs   []definition
	byName map[string]handler
}

// NewRegistry builds the registry over the given store.
func NewRegistry(store *fridge.Store) *Registry {
	defs := []definition{
		{
			name:        NameAddFridgeItem,
			description: "Add one or more items to the user's fridge.",
			parameters:  generateSchema[addFridgeItemArgs](),
			run:         addFridgeItemHandler(store),
		},
		{
			name:        NameUpdateFridgeItem,
			description: "Update fields of an existing fridge item by id. Only provided fields are changed.",
			parameters:  generateSchema[updateFridgeItemArgs](),
			run:         updateFridgeItemHandler(store),
		},
		{
			name:        NameDeleteFridgeItem,
			description: "Delete one or more fridge items by their ids.",
			parameters:  generateSchema[deleteFridgeItemArgs](),
			run:         deleteFridgeItemHandler(store),
		},
		{
			name:        NameRecordMeal,
			description: "Record a meal eaten by the user.",
			parameters:  generateSchema[recordMealArgs](),
			run:         recordMealHandler(store),
		},
		{
			name:        NameFetchRecentItems,
			description: "Fetch recently added fridge items, newest first.",
			parameters:  generateSchema[fetchRecentItemsArgs](),
			run:         fetchRecentItemsHandler(store),
		},
	}

	byName := make(map[string]handler, len(defs))
	for _, d := range defs {
		byName[d.name] = d.run
	}
	return &Registry{defs: defs, byName: byName}
}

// Menu returns the declared tool schemas in registration order, in the shape
// the Responses API expects.
func (r *Registry) Menu() []openai.Tool {
	out := make([]openai.Tool, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, openai.Tool{
			Type:        "function",
			Name:        d.name,
			Description: d.description,
			Parameters:  d.parameters,
		})
	}
	return out
}

// Dispatch resolves and executes one tool call. Unknown names and handler
// panics are reported as error Results; a tool call never aborts the turn.
func (r *Registry) Dispatch(ctx context.Context, call openai.ToolCall) (res Result) {
	run, ok := r.byName[call.Name]
	if !ok {
		log.Warn().Str("tool", call.Name).Msg("model requested unknown tool")
		return Errorf("Unknown tool: %s", call.Name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("tool", call.Name).Interface("panic", rec).Msg("tool handler panicked")
			res = Errorf("Tool %s failed: %v", call.Name, rec)
		}
	}()

	res = run(ctx, call.Arguments)
	if res.Status == StatusError {
		log.Debug().Str("tool", call.Name).Str("detail", res.Detail).Msg("tool returned error result")
	}
	return res
}

// decodeArgs unmarshals raw tool arguments, tolerating the empty string the
// model sometimes sends for no-argument calls.
func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
