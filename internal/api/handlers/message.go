// HTTP handler for the conversational message endpoint.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bonyuta0204/gohan-bot/internal/domain/conversation"
)

// ConversationService is the slice of the orchestrator the handler needs.
type ConversationService interface {
	HandleMessage(ctx context.Context, req conversation.Request) (string, error)
}

// MessageHandler handles POST /api/v1/messages.
type MessageHandler struct {
	svc ConversationService
}

// NewMessageHandler creates a new MessageHandler instance.
func NewMessageHandler(svc ConversationService) *MessageHandler {
	return &MessageHandler{svc: svc}
}

// MessageResponse is the response body for a processed message. On failure
// Reply is empty and Error says what went wrong.
type MessageResponse struct {
	Reply          string `json:"reply"`
	ConversationID string `json:"conversationId,omitempty"`
	Error          string `json:"error,omitempty"`
}

// PostMessage runs one assistant turn. A missing conversationId starts a new
// conversation; the generated id comes back in the response so the caller can
// continue the thread.
func (h *MessageHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req conversation.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.UserMessage) == "" {
		writeError(w, http.StatusBadRequest, "userMessage is required")
		return
	}

	if req.ConversationID == "" {
		req.ConversationID = uuid.NewString()
	}

	reply, err := h.svc.HandleMessage(r.Context(), req)
	if err != nil {
		log.Error().Err(err).Str("conversation_id", req.ConversationID).Msg("message turn failed")
		writeJSON(w, http.StatusInternalServerError, MessageResponse{Error: "failed to process message"})
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{
		Reply:          reply,
		ConversationID: req.ConversationID,
	})
}
