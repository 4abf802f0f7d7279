// Package openai is the OpenAI Responses API adapter for gohan-bot.
// Wire types here mirror the subset of the /v1/responses surface the
// assistant needs: role'd input items with text and image parts, declared
// function tools, function_call outputs, and previous_response_id chaining.
package openai

import "encoding/json"

// ContentPart is one piece of a user input item.
type ContentPart struct {
	Type     string `json:"type"` // "input_text" | "input_image"
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Detail   string `json:"detail,omitempty"` // image only; "auto" lets the API choose
}

// InputItem is one element of the request input list. A zero Type with a Role
// is a plain message; Type "function_call_output" feeds a tool result back.
type InputItem struct {
	Type    string        `json:"type,omitempty"`
	Role    string        `json:"role,omitempty"` // "system" | "user"
	Content []ContentPart `json:"content,omitempty"`
	CallID  string        `json:"call_id,omitempty"`
	Output  string        `json:"output,omitempty"`
}

// SystemMessage builds a system-role input item.
func SystemMessage(text string) InputItem {
	return InputItem{
		Role:    "system",
		Content: []ContentPart{{Type: "input_text", Text: text}},
	}
}

// UserMessage builds a user-role input item with optional image parts.
// Each image is a data URI or fetchable URL; detail is left to the API.
func UserMessage(text string, images []string) InputItem {
	parts := []ContentPart{{Type: "input_text", Text: text}}
	for _, img := range images {
		parts = append(parts, ContentPart{Type: "input_image", ImageURL: img, Detail: "auto"})
	}
	return InputItem{Role: "user", Content: parts}
}

// FunctionCallOutput builds the input item that carries one tool result back
// to the model, keyed by the call id the model assigned.
func FunctionCallOutput(callID, output string) InputItem {
	return InputItem{Type: "function_call_output", CallID: callID, Output: output}
}

// Tool declares one callable function in the request tool menu.
type Tool struct {
	Type        string          `json:"type"` // always "function"
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Request is the body of POST /v1/responses.
type Request struct {
	Model              string      `json:"model"`
	Input              []InputItem `json:"input"`
	Tools              []Tool      `json:"tools,omitempty"`
	ToolChoice         string      `json:"tool_choice,omitempty"`
	PreviousResponseID string      `json:"previous_response_id,omitempty"`
}

// OutputContent is one content block of an assistant message output item.
type OutputContent struct {
	Type string `json:"type"` // "output_text" | "refusal"
	Text string `json:"text,omitempty"`
}

// OutputItem is one element of the response output list.
type OutputItem struct {
	Type      string          `json:"type"` // "message" | "function_call"
	Role      string          `json:"role,omitempty"`
	Content   []OutputContent `json:"content,omitempty"`
	CallID    string          `json:"call_id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// APIError is the error object the API embeds in a response body.
type APIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Response is the body of a completed /v1/responses call. ID is the opaque
// continuation token a later request can pass as previous_response_id.
type Response struct {
	ID     string       `json:"id"`
	Status string       `json:"status,omitempty"`
	Output []OutputItem `json:"output"`
	Error  *APIError    `json:"error,omitempty"`
}

// ToolCall is one structured function invocation requested by the model.
type ToolCall struct {
	CallID    string
	Name      string
	Arguments json.RawMessage
}

// OutputText concatenates the text of all assistant message items.
// Returns "" when the model produced no text (e.g. tool calls only).
func (r *Response) OutputText() string {
	var out string
	for _, item := range r.Output {
		if item.Type != "message" {
			continue
		}
		for _, c := range item.Content {
			if c.Type == "output_text" {
				out += c.Text
			}
		}
	}
	return out
}

// ToolCalls extracts the function_call items in response order.
func (r *Response) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, item := range r.Output {
		if item.Type != "function_call" {
			continue
		}
		calls = append(calls, ToolCall{
			CallID:    item.CallID,
			Name:      item.Name,
			Arguments: item.Arguments,
		})
	}
	return calls
}
