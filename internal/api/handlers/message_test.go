package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/bonyuta0204/gohan-bot/internal/domain/conversation"
)

type stubConversation struct {
	reply string
	err   error
	got   conversation.Request
}

func (s *stubConversation) HandleMessage(_ context.Context, req conversation.Request) (string, error) {
	s.got = req
	return s.reply, s.err
}

func postMessage(t *testing.T, h *MessageHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.PostMessage(rec, req)
	return rec
}

func TestPostMessage_GeneratesConversationID(t *testing.T) {
	t.Parallel()

	stub := &stubConversation{reply: "Sounds tasty!"}
	rec := postMessage(t, NewMessageHandler(stub), `{"userMessage":"I ate ramen"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp MessageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Reply != "Sounds tasty!" {
		t.Errorf("reply = %q; want %q", resp.Reply, "Sounds tasty!")
	}
	if resp.ConversationID == "" {
		t.Errorf("expected a generated conversation id")
	}
	if stub.got.ConversationID != resp.ConversationID {
		t.Errorf("service saw id %q, response carries %q", stub.got.ConversationID, resp.ConversationID)
	}
}

func TestPostMessage_KeepsProvidedConversationID(t *testing.T) {
	t.Parallel()

	stub := &stubConversation{reply: "ok"}
	rec := postMessage(t, NewMessageHandler(stub),
		`{"userMessage":"and dessert?","conversationId":"thread-7"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
	}
	if stub.got.ConversationID != "thread-7" {
		t.Errorf("service saw id %q; want thread-7", stub.got.ConversationID)
	}
}

func TestPostMessage_InvalidBody(t *testing.T) {
	t.Parallel()

	rec := postMessage(t, NewMessageHandler(&stubConversation{}), `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestPostMessage_EmptyUserMessage(t *testing.T) {
	t.Parallel()

	rec := postMessage(t, NewMessageHandler(&stubConversation{}), `{"userMessage":"   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), "userMessage is required") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestPostMessage_ServiceFailure(t *testing.T) {
	t.Parallel()

	stub := &stubConversation{err: errors.New("model unavailable")}
	rec := postMessage(t, NewMessageHandler(stub), `{"userMessage":"hi"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d; want %d", rec.Code, http.StatusInternalServerError)
	}
	if strings.Contains(rec.Body.String(), "model unavailable") {
		t.Errorf("internal error detail leaked to the client: %s", rec.Body.String())
	}

	var resp MessageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Reply != "" || resp.Error == "" {
		t.Errorf("expected empty reply with an error field, got %+v", resp)
	}
}

func TestPostMessage_ForwardsImages(t *testing.T) {
	t.Parallel()

	stub := &stubConversation{reply: "noted"}
	rec := postMessage(t, NewMessageHandler(stub),
		`{"userMessage":"groceries","images":["data:image/png;base64,AA=="]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
	}
	if len(stub.got.Images) != 1 || stub.got.Images[0] != "data:image/png;base64,AA==" {
		t.Errorf("service saw images %v", stub.got.Images)
	}
}
