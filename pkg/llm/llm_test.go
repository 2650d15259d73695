package llm_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"yolla/pkg/llm"
)

func TestScriptedClientReplaysChunksInOrder(t *testing.T) {
	t.Parallel()

	client := llm.NewScripted("Hello, ", "world", "!")

	var got []string
	err := client.Stream(context.Background(), llm.Request{}, func(chunk string) error {
		got = append(got, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	if joined := strings.Join(got, ""); joined != "Hello, world!" {
		t.Errorf("joined chunks = %q, want %q", joined, "Hello, world!")
	}
	if len(got) != 3 {
		t.Errorf("chunk count = %d, want 3", len(got))
	}
}

func TestScriptedClientStopsOnEmitError(t *testing.T) {
	t.Parallel()

	client := llm.NewScripted("a", "b", "c")
	sentinel := errors.New("stop")

	var seen int
	err := client.Stream(context.Background(), llm.Request{}, func(string) error {
		seen++
		if seen == 2 {
			return sentinel
		}
		return nil
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want %v", err, sentinel)
	}
	if seen != 2 {
		t.Errorf("emit called %d times, want 2", seen)
	}
}

func TestScriptedClientHonorsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := llm.NewScripted("never")
	err := client.Stream(ctx, llm.Request{}, func(string) error {
		t.Fatal("emit should not run after cancellation")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestNewAnthropicClientRequiresAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	if _, err := llm.NewAnthropicClient(); err == nil {
		t.Fatal("expected error when ANTHROPIC_API_KEY is unset")
	}
}
