package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/bonyuta0204/gohan-bot/internal/domain/tool"
	"github.com/bonyuta0204/gohan-bot/internal/infra/openai"
)

// snapshotLimit caps how many items the inventory snapshot lists on the first
// turn of a conversation.
const snapshotLimit = 20

// emptyFridgeNotice replaces the structured listing when the store holds no
// items.
const emptyFridgeNotice = "Your fridge is currently empty."

// assembler builds the ordered input for the first model call of a turn.
type assembler struct {
	registry *tool.Registry
}

// assemble returns the context messages followed by the user message.
// Resuming conversations get neither the system prompt nor the snapshot;
// their context is carried by the continuation token.
func (a *assembler) assemble(ctx context.Context, req Request, resuming bool) []openai.InputItem {
	var input []openai.InputItem
	if !resuming {
		input = append(input,
			openai.SystemMessage(systemPrompt),
			openai.SystemMessage(a.snapshot(ctx)),
		)
	}
	return append(input, openai.UserMessage(req.UserMessage, req.Images))
}

// snapshot reads current fridge contents by invoking the fetch tool directly,
// bypassing the model. Read-only; zero rows yield the empty-fridge notice, as
// does a failed read (the turn still proceeds without inventory context).
func (a *assembler) snapshot(ctx context.Context) string {
	args, _ := json.Marshal(map[string]int{"limit": snapshotLimit})
	res := a.registry.Dispatch(ctx, openai.ToolCall{
		Name:      tool.NameFetchRecentItems,
		Arguments: args,
	})
	if res.Status == tool.StatusError {
		log.Warn().Str("detail", res.Detail).Msg("inventory snapshot read failed")
		return emptyFridgeNotice
	}
	if len(res.Items) == 0 {
		return emptyFridgeNotice
	}

	var b strings.Builder
	b.WriteString("Current fridge inventory (most recent first):\n")
	for _, item := range res.Items {
		fmt.Fprintf(&b, "- id %d: %s", item.ID, item.ItemName)
		if item.ExpireAt != nil {
			fmt.Fprintf(&b, " (expires %s)", *item.ExpireAt)
		}
		if item.Note != nil {
			fmt.Fprintf(&b, " (note: %s)", *item.Note)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
