// Package conversation drives one user utterance through the model and the
// tool registry to a single natural-language reply.
//
// A turn runs: resolve continuation token → assemble context → first model
// call → dispatch any tool calls → follow-up model call with the results →
// persist the turn record. Tool failures degrade into error results the model
// can explain; model and persistence failures abort the turn.
package conversation

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/bonyuta0204/gohan-bot/internal/domain/tool"
	"github.com/bonyuta0204/gohan-bot/internal/infra/openai"
)

// noResponsePlaceholder stands in for an empty final text from the model.
const noResponsePlaceholder = "(No response)"

// Request is one incoming user message. ConversationID groups turns into a
// thread; empty means a fresh conversation. Images are data URIs attached to
// the same user turn.
type Request struct {
	UserMessage    string   `json:"userMessage"`
	ConversationID string   `json:"conversationId,omitempty"`
	Images         []string `json:"images,omitempty"`
}

// LLMClient is the model capability the orchestrator depends on. Constructed
// once at process start and injected; never ambient state.
type LLMClient interface {
	CreateResponse(ctx context.Context, req openai.Request) (*openai.Response, error)
}

// Service orchestrates turns. Safe for concurrent use: every turn re-resolves
// its continuation token and reads the store fresh, nothing is shared between
// in-flight turns. Concurrent turns on the same conversation id may race on
// the latest token and branch; that is accepted, not prevented.
type Service struct {
	llm      LLMClient
	registry *tool.Registry
	history  *HistoryStore
	assemble *assembler
}

// NewService wires the orchestrator.
func NewService(llm LLMClient, registry *tool.Registry, history *HistoryStore) *Service {
	return &Service{
		llm:      llm,
		registry: registry,
		history:  history,
		assemble: &assembler{registry: registry},
	}
}

// HandleMessage runs one complete turn and returns the final reply text.
// On error the turn produced no reply and nothing about it was persisted;
// the caller surfaces the error as {reply: "", error: <message>}.
func (s *Service) HandleMessage(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.UserMessage) == "" {
		return "", errors.New("userMessage is required")
	}

	logger := log.With().Str("conversation_id", req.ConversationID).Logger()

	prevToken, resuming, err := s.resolveContinuation(ctx, req.ConversationID)
	if err != nil {
		return "", err
	}
	logger.Info().Bool("resuming", resuming).Int("images", len(req.Images)).Msg("turn started")

	first, err := s.llm.CreateResponse(ctx, openai.Request{
		Input:              s.assemble.assemble(ctx, req, resuming),
		Tools:              s.registry.Menu(),
		ToolChoice:         "auto",
		PreviousResponseID: prevToken,
	})
	if err != nil {
		return "", errors.Wrap(err, "first model call")
	}

	finalText := first.OutputText()
	finalToken := first.ID

	if calls := first.ToolCalls(); len(calls) > 0 {
		logger.Info().Int("tool_calls", len(calls)).Msg("dispatching tools")

		outputs := make([]openai.InputItem, 0, len(calls))
		for _, call := range calls {
			res := s.registry.Dispatch(ctx, call)
			outputs = append(outputs, openai.FunctionCallOutput(call.CallID, res.JSON()))
		}

		// Second round-trip: results go back referencing the first response.
		// No tool menu here, so no further calls are honored.
		second, err := s.llm.CreateResponse(ctx, openai.Request{
			Input:              outputs,
			PreviousResponseID: first.ID,
		})
		if err != nil {
			return "", errors.Wrap(err, "follow-up model call")
		}
		finalText = second.OutputText()
		finalToken = second.ID
	}

	if strings.TrimSpace(finalText) == "" {
		finalText = noResponsePlaceholder
	}

	rec := TurnRecord{
		MessageText:    req.UserMessage,
		AIResponseText: finalText,
		ResponseID:     finalToken,
	}
	if req.ConversationID != "" {
		rec.ConversationID = &req.ConversationID
	}
	if err := s.history.Append(ctx, rec); err != nil {
		return "", errors.Wrap(err, "persist turn")
	}

	logger.Info().Str("response_id", finalToken).Msg("turn completed")
	return finalText, nil
}

// resolveContinuation looks up the latest turn for the conversation. A
// conversation id with no history behaves like a fresh conversation.
func (s *Service) resolveContinuation(ctx context.Context, conversationID string) (token string, resuming bool, err error) {
	if conversationID == "" {
		return "", false, nil
	}
	rec, err := s.history.LatestFor(ctx, conversationID)
	if err != nil {
		return "", false, errors.Wrap(err, "resolve conversation history")
	}
	if rec == nil {
		return "", false, nil
	}
	return rec.ResponseID, true, nil
}
