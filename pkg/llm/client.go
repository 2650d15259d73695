// Package llm provides the conductor's model stream source. The pipeline
// treats the backend as an opaque sequence of text chunks; implementations
// only need to deliver those chunks in order.
package llm

import "context"

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-5-20250929"

// DefaultMaxTokens caps completion length when the request doesn't.
const DefaultMaxTokens = 4096

// Request describes one completion.
type Request struct {
	System    string
	Prompt    string
	Model     string
	MaxTokens int64
}

func (r Request) withDefaults() Request {
	out := r
	if out.Model == "" {
		out.Model = DefaultModel
	}
	if out.MaxTokens == 0 {
		out.MaxTokens = DefaultMaxTokens
	}
	return out
}

// Client streams a completion, calling emit once per text chunk as it
// arrives. A non-nil error from emit aborts the stream.
type Client interface {
	Stream(ctx context.Context, req Request, emit func(chunk string) error) error
}
