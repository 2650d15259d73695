package llm

import "context"

// ScriptedClient replays a fixed sequence of chunks. It stands in for a
// real backend in tests and in offline runs.
type ScriptedClient struct {
	Chunks []string
}

// NewScripted returns a client that emits the given chunks in order.
func NewScripted(chunks ...string) *ScriptedClient {
	return &ScriptedClient{Chunks: chunks}
}

// Stream replays the scripted chunks, honoring ctx cancellation between
// chunks.
func (s *ScriptedClient) Stream(ctx context.Context, _ Request, emit func(chunk string) error) error {
	for _, chunk := range s.Chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(chunk); err != nil {
			return err
		}
	}
	return nil
}
