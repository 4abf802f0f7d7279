// Package slackbot serves the Slack Events API callback: it verifies request
// signatures, answers url_verification challenges, and turns app mentions and
// direct messages into assistant turns, replying in-thread.
package slackbot

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/bonyuta0204/gohan-bot/internal/domain/conversation"
)

// turnTimeout bounds one assistant turn kicked off from a Slack event. Slack
// wants the HTTP ack within 3 seconds, so the turn runs detached.
const turnTimeout = 2 * time.Minute

// maxImageBytes caps a single downloaded attachment.
const maxImageBytes = 8 << 20

// botMention strips the leading <@UXXXX> marker Slack puts in app mentions.
var botMention = regexp.MustCompile(`<@[A-Z0-9]+>`)

// ConversationService is the slice of the orchestrator the adapter needs.
type ConversationService interface {
	HandleMessage(ctx context.Context, req conversation.Request) (string, error)
}

// messagePoster is the subset of *slack.Client used to reply. Narrowed for
// tests.
type messagePoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Handler is the HTTP handler for POST /slack/events.
type Handler struct {
	signingSecret string
	botToken      string
	svc           ConversationService
	client        messagePoster
	httpClient    *http.Client

	wg sync.WaitGroup
}

// NewHandler wires the Slack surface. botToken authenticates both the reply
// client and private file downloads.
func NewHandler(svc ConversationService, botToken, signingSecret string) *Handler {
	return &Handler{
		signingSecret: signingSecret,
		botToken:      botToken,
		svc:           svc,
		client:        slack.New(botToken),
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Wait blocks until all detached turns finish. Used on shutdown and in tests.
func (h *Handler) Wait() {
	h.wg.Wait()
}

// ServeHTTP acks the event immediately and runs the assistant turn detached,
// so Slack's 3-second delivery deadline never sees model latency.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if err := h.verifySignature(r.Header, body); err != nil {
		log.Warn().Err(err).Msg("slack signature rejected")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		http.Error(w, "failed to parse event", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			http.Error(w, "failed to parse challenge", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(challenge.Challenge)) //nolint:errcheck

	case slackevents.CallbackEvent:
		h.dispatchCallback(event.InnerEvent, body)
		w.WriteHeader(http.StatusOK)

	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (h *Handler) verifySignature(header http.Header, body []byte) error {
	verifier, err := slack.NewSecretsVerifier(header, h.signingSecret)
	if err != nil {
		return err
	}
	if _, err := verifier.Write(body); err != nil {
		return err
	}
	return verifier.Ensure()
}

func (h *Handler) dispatchCallback(inner slackevents.EventsAPIInnerEvent, body []byte) {
	switch ev := inner.Data.(type) {
	case *slackevents.AppMentionEvent:
		h.startTurn(ev.Channel, threadOf(ev.ThreadTimeStamp, ev.TimeStamp), ev.Text, nil)

	case *slackevents.MessageEvent:
		// Direct messages only; everything else reaches us via app_mention.
		// BotID filters out our own replies.
		if ev.ChannelType != "im" || ev.BotID != "" || ev.SubType != "" {
			return
		}
		h.startTurn(ev.Channel, threadOf(ev.ThreadTimeStamp, ev.TimeStamp), ev.Text, eventFiles(body))
	}
}

// eventFiles pulls the attachment list out of the raw callback body. The
// typed message event drops the files array, so it is decoded separately.
func eventFiles(body []byte) []slack.File {
	var envelope struct {
		Event struct {
			Files []slack.File `json:"files"`
		} `json:"event"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	return envelope.Event.Files
}

// threadOf picks the thread root: replies carry thread_ts, new messages
// start a thread at their own ts.
func threadOf(threadTS, ts string) string {
	if threadTS != "" {
		return threadTS
	}
	return ts
}

func (h *Handler) startTurn(channel, threadTS, text string, files []slack.File) {
	message := strings.TrimSpace(botMention.ReplaceAllString(text, ""))
	if message == "" && len(files) == 0 {
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		defer cancel()
		h.runTurn(ctx, channel, threadTS, message, files)
	}()
}

func (h *Handler) runTurn(ctx context.Context, channel, threadTS, message string, files []slack.File) {
	logger := log.With().Str("channel", channel).Str("thread_ts", threadTS).Logger()

	images := h.downloadImages(ctx, files)
	if message == "" {
		if len(images) == 0 {
			logger.Info().Msg("no usable content in slack event, skipping turn")
			return
		}
		// An image-only message still needs text for the model.
		message = "(image attached)"
	}

	reply, err := h.svc.HandleMessage(ctx, conversation.Request{
		UserMessage:    message,
		ConversationID: fmt.Sprintf("%s:%s", channel, threadTS),
		Images:         images,
	})
	if err != nil {
		logger.Error().Err(err).Msg("slack turn failed")
		reply = "Sorry, something went wrong while handling that."
	}

	if _, _, err := h.client.PostMessageContext(ctx, channel,
		slack.MsgOptionText(reply, false),
		slack.MsgOptionTS(threadTS),
	); err != nil {
		logger.Error().Err(err).Msg("failed to post slack reply")
	}
}

// downloadImages fetches image attachments with the bot token and returns
// them as data URIs. Failures skip the file rather than failing the turn.
func (h *Handler) downloadImages(ctx context.Context, files []slack.File) []string {
	var images []string
	for _, f := range files {
		if !strings.HasPrefix(f.Mimetype, "image/") || f.URLPrivate == "" {
			continue
		}
		uri, err := h.fetchAsDataURI(ctx, f.URLPrivate, f.Mimetype)
		if err != nil {
			log.Warn().Err(err).Str("file", f.ID).Msg("skipping slack attachment")
			continue
		}
		images = append(images, uri)
	}
	return images
}

func (h *Handler) fetchAsDataURI(ctx context.Context, url, mimetype string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+h.botToken)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("data:%s;base64,%s", mimetype, base64.StdEncoding.EncodeToString(data)), nil
}
