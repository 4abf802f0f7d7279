package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const (
	mimeJSON          = "application/json"
	headerContentType = "Content-Type"
	headerAuth        = "Authorization"
)

// Client calls the OpenAI Responses API over HTTP. It is constructed once at
// process start and injected; nothing in this package reads ambient globals.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates a Client with a 60s default timeout. baseURL is the API
// root, e.g. "https://api.openai.com/v1". model is the default model used
// when a request leaves Model empty.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// CreateResponse performs one POST /responses round-trip. No retries: a
// failed call is the caller's turn failure.
func (c *Client) CreateResponse(ctx context.Context, req Request) (*Response, error) {
	if c.apiKey == "" {
		return nil, errors.New("openai: API key is not configured")
	}
	if req.Model == "" {
		req.Model = c.model
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "openai: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "openai: build request")
	}
	httpReq.Header.Set(headerContentType, mimeJSON)
	httpReq.Header.Set(headerAuth, "Bearer "+c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "openai: POST /responses")
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 10<<20))
	if err != nil {
		return nil, errors.Wrap(err, "openai: read response body")
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("openai: status %d: %s", httpResp.StatusCode, errorSnippet(raw))
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, errors.Wrap(err, "openai: decode response")
	}
	if resp.Error != nil {
		return nil, errors.Errorf("openai: api error %s: %s", resp.Error.Type, resp.Error.Message)
	}

	return &resp, nil
}

// errorSnippet prefers the structured API error message over the raw body.
func errorSnippet(raw []byte) string {
	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != nil {
		return envelope.Error.Message
	}
	const max = 512
	if len(raw) > max {
		raw = raw[:max]
	}
	return string(raw)
}
