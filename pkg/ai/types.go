package ai

import (
	"context"
	"errors"
	"io"
)

// ErrEmptyResponse indicates the model returned no usable content.
var ErrEmptyResponse = errors.New("model returned an empty response")

// ChatRequest is a single-turn prompt sent to a chat model.
type ChatRequest struct {
	// Operation labels metrics and spans, e.g. "interview.plan".
	Operation   string
	System      string
	User        string
	Temperature float32
	MaxTokens   int
	JSON        bool
}

// ChatCompleter is a hosted chat model that answers one prompt with text.
type ChatCompleter interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
	Provider() string
}

// Embedder turns texts into embedding vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Transcriber converts recorded speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// SpeechSynthesizer renders text into encoded audio.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}
