package tool

import (
	"encoding/json"
	"fmt"

	"github.com/bonyuta0204/gohan-bot/internal/domain/fridge"
)

const (
	// StatusSuccess and StatusError are the two values of Result.Status.
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is what every tool execution produces. It never escapes as an
// error: validation failures, unknown tools and store failures all become a
// Result with StatusError so the model can explain them in natural language.
// Items carries the fetch tool's payload.
type Result struct {
	Status string        `json:"status,omitempty"`
	Detail string        `json:"detail,omitempty"`
	Items  []fridge.Item `json:"items,omitempty"`
}

// Successf builds a success Result with a formatted detail.
func Successf(format string, args ...any) Result {
	return Result{Status: StatusSuccess, Detail: fmt.Sprintf(format, args...)}
}

// Errorf builds an error Result with a formatted detail.
func Errorf(format string, args ...any) Result {
	return Result{Status: StatusError, Detail: fmt.Sprintf(format, args...)}
}

// JSON serializes the result for the function_call_output item sent back to
// the model.
func (r Result) JSON() string {
	raw, err := json.Marshal(r)
	if err != nil {
		// Result only holds marshalable fields; keep the turn alive anyway.
		return `{"status":"error","detail":"failed to serialize tool result"}`
	}
	return string(raw)
}
