package slackbot

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bonyuta0204/gohan-bot/internal/domain/conversation"
)

const testSigningSecret = "slack-signing-secret"

type recordingService struct {
	mu       sync.Mutex
	requests []conversation.Request
	reply    string
	err      error
}

func (s *recordingService) HandleMessage(_ context.Context, req conversation.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.reply, s.err
}

func (s *recordingService) calls() []conversation.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]conversation.Request(nil), s.requests...)
}

type recordingPoster struct {
	mu       sync.Mutex
	channels []string
}

func (p *recordingPoster) PostMessageContext(_ context.Context, channelID string, _ ...slack.MsgOption) (string, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = append(p.channels, channelID)
	return channelID, "1.1", nil
}

func (p *recordingPoster) posted() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.channels...)
}

func newTestHandler(svc ConversationService, poster messagePoster) *Handler {
	return &Handler{
		signingSecret: testSigningSecret,
		botToken:      "xoxb-test",
		svc:           svc,
		client:        poster,
		httpClient:    &http.Client{Timeout: 5 * time.Second},
	}
}

// signedRequest builds a request carrying a valid Slack signature for body.
func signedRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	ts := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(testSigningSecret))
	fmt.Fprintf(mac, "v0:%s:%s", ts, body)
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
	return req
}

func TestURLVerificationChallenge(t *testing.T) {
	t.Parallel()

	h := newTestHandler(&recordingService{}, &recordingPoster{})
	body := `{"type":"url_verification","challenge":"xyz123"}`

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, body))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "xyz123", rec.Body.String())
}

func TestRejectsBadSignature(t *testing.T) {
	t.Parallel()

	h := newTestHandler(&recordingService{}, &recordingPoster{})
	req := httptest.NewRequest(http.MethodPost, "/slack/events",
		strings.NewReader(`{"type":"url_verification","challenge":"xyz"}`))
	req.Header.Set("X-Slack-Request-Timestamp", fmt.Sprintf("%d", time.Now().Unix()))
	req.Header.Set("X-Slack-Signature", "v0=deadbeef")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAppMentionRunsTurnInThread(t *testing.T) {
	t.Parallel()

	svc := &recordingService{reply: "Stocked!"}
	poster := &recordingPoster{}
	h := newTestHandler(svc, poster)

	body := `{"type":"event_callback","event":{` +
		`"type":"app_mention","user":"U1","text":"<@UBOT> I bought eggs",` +
		`"ts":"1700000000.000100","channel":"C42"}}`

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, body))
	require.Equal(t, http.StatusOK, rec.Code)

	h.Wait()

	calls := svc.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "I bought eggs", calls[0].UserMessage)
	assert.Equal(t, "C42:1700000000.000100", calls[0].ConversationID)
	assert.Equal(t, []string{"C42"}, poster.posted())
}

func TestThreadedMentionReusesThreadRoot(t *testing.T) {
	t.Parallel()

	svc := &recordingService{reply: "ok"}
	h := newTestHandler(svc, &recordingPoster{})

	body := `{"type":"event_callback","event":{` +
		`"type":"app_mention","user":"U1","text":"<@UBOT> and dessert?",` +
		`"ts":"1700000099.000500","thread_ts":"1700000000.000100","channel":"C42"}}`

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, body))
	require.Equal(t, http.StatusOK, rec.Code)

	h.Wait()

	calls := svc.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "C42:1700000000.000100", calls[0].ConversationID)
}

func TestDirectMessageWithImageAttachment(t *testing.T) {
	t.Parallel()

	fileServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer xoxb-test", r.Header.Get("Authorization"))
		w.Write([]byte("PNGDATA")) //nolint:errcheck
	}))
	defer fileServer.Close()

	svc := &recordingService{reply: "nice groceries"}
	h := newTestHandler(svc, &recordingPoster{})

	body := `{"type":"event_callback","event":{` +
		`"type":"message","channel_type":"im","user":"U1","text":"my haul",` +
		`"ts":"1700000000.000100","channel":"D9",` +
		`"files":[{"id":"F1","mimetype":"image/png","url_private":"` + fileServer.URL + `/f1"}]}}`

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, body))
	require.Equal(t, http.StatusOK, rec.Code)

	h.Wait()

	calls := svc.calls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0].Images, 1)
	assert.True(t, strings.HasPrefix(calls[0].Images[0], "data:image/png;base64,"))
}

func TestImageOnlyDirectMessageGetsPlaceholderText(t *testing.T) {
	t.Parallel()

	fileServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("JPGDATA")) //nolint:errcheck
	}))
	defer fileServer.Close()

	svc := &recordingService{reply: "looks delicious"}
	h := newTestHandler(svc, &recordingPoster{})

	body := `{"type":"event_callback","event":{` +
		`"type":"message","channel_type":"im","user":"U1","text":"",` +
		`"ts":"1700000000.000400","channel":"D9",` +
		`"files":[{"id":"F2","mimetype":"image/jpeg","url_private":"` + fileServer.URL + `/f2"}]}}`

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, body))
	require.Equal(t, http.StatusOK, rec.Code)

	h.Wait()

	calls := svc.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "(image attached)", calls[0].UserMessage)
	require.Len(t, calls[0].Images, 1)
	assert.True(t, strings.HasPrefix(calls[0].Images[0], "data:image/jpeg;base64,"))
}

func TestNonImageFileOnlyMessageSkipsTurn(t *testing.T) {
	t.Parallel()

	svc := &recordingService{}
	poster := &recordingPoster{}
	h := newTestHandler(svc, poster)

	body := `{"type":"event_callback","event":{` +
		`"type":"message","channel_type":"im","user":"U1","text":"",` +
		`"ts":"1700000000.000500","channel":"D9",` +
		`"files":[{"id":"F3","mimetype":"application/pdf","url_private":"http://example.invalid/f3"}]}}`

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, body))
	require.Equal(t, http.StatusOK, rec.Code)

	h.Wait()
	assert.Empty(t, svc.calls())
	assert.Empty(t, poster.posted())
}

func TestIgnoresOwnBotMessages(t *testing.T) {
	t.Parallel()

	svc := &recordingService{}
	h := newTestHandler(svc, &recordingPoster{})

	body := `{"type":"event_callback","event":{` +
		`"type":"message","channel_type":"im","bot_id":"B1","text":"Stocked!",` +
		`"ts":"1700000000.000200","channel":"D9"}}`

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, body))
	require.Equal(t, http.StatusOK, rec.Code)

	h.Wait()
	assert.Empty(t, svc.calls())
}

func TestFailedTurnStillRepliesApology(t *testing.T) {
	t.Parallel()

	svc := &recordingService{err: fmt.Errorf("model down")}
	poster := &recordingPoster{}
	h := newTestHandler(svc, poster)

	body := `{"type":"event_callback","event":{` +
		`"type":"app_mention","user":"U1","text":"<@UBOT> hello",` +
		`"ts":"1700000000.000300","channel":"C42"}}`

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, body))
	require.Equal(t, http.StatusOK, rec.Code)

	h.Wait()
	assert.Equal(t, []string{"C42"}, poster.posted())
}
