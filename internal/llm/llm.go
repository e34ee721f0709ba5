// Package llm abstracts the model backends behind a single completion
// interface so the extraction and drafting stages stay backend-neutral.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// Request describes one completion call.
type Request struct {
	// System is the system instruction; empty means none.
	System string
	// Prompt is the user message.
	Prompt string
	// Temperature is passed through to the backend. 0 requests
	// deterministic output.
	Temperature float32
	// MaxTokens caps the reply length when > 0.
	MaxTokens int
	// JSONOnly asks the backend to constrain the reply to a single JSON
	// value with no surrounding prose.
	JSONOnly bool
}

// Client is the minimal interface core logic needs to call a chat model.
// Implementations exist for OpenAI-compatible endpoints, Azure OpenAI
// deployments, and the Gemini API.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Provider-level failures. Retrying these within the same run is unlikely to
// help, so callers surface them immediately instead of consuming attempts.
var (
	ErrRateLimited = errors.New("provider rate limited")
	ErrProvider    = errors.New("provider error")
)

// CleanJSONReply post-processes a nominally JSON-only reply: surrounding
// Markdown code fences are stripped, and a top-level single-element array is
// unwrapped to its first element (an empty array becomes an empty object).
// The returned bytes are guaranteed to parse as JSON.
func CleanJSONReply(raw string) (json.RawMessage, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty reply")
	}
	if s[0] == '[' {
		var arr []json.RawMessage
		if err := json.Unmarshal([]byte(s), &arr); err != nil {
			return nil, err
		}
		if len(arr) == 0 {
			return json.RawMessage(`{}`), nil
		}
		return arr[0], nil
	}
	var v json.RawMessage
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return v, nil
}
