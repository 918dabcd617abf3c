// internal/providers/provider.go

// Package providers defines the interfaces for interacting with different model servers.
// It provides a common abstraction layer for sending requests, handling streaming responses,
// and collecting token logprobs, regardless of the underlying server implementation
// (e.g., Ollama, OpenAI-compatible).
package providers

import (
	"context"
	"time"

	"github.com/hrbzhq/deepconf/internal/appconfig"
)

// ChatMessage represents a single message in a chat conversation.
// It contains the role of the message sender (e.g., "user", "assistant") and the message content.
type ChatMessage struct {
	Role    string
	Content string
}

// TokenLogProb is the log probability the server assigned to one sampled token.
type TokenLogProb struct {
	Token   string  `json:"token"`
	LogProb float64 `json:"logprob"`
}

// Chunk is one streamed increment of a response: a text delta plus any token
// logprobs the server attached to it.
type Chunk struct {
	Role     string
	Content  string
	LogProbs []TokenLogProb
}

// StreamMetadata contains metadata about a completed stream, including
// performance metrics like timing and token counts, and the full token
// logprob sequence when the server returned one non-incrementally.
type StreamMetadata struct {
	Model              string
	CreatedAt          time.Time
	Done               bool
	TotalDuration      int64
	LoadDuration       int64
	PromptEvalCount    int
	PromptEvalDuration int64
	EvalCount          int
	EvalDuration       int64
	LogProbs           []TokenLogProb
}

// StreamRequest encapsulates all the information needed to initiate a generation stream.
type StreamRequest struct {
	Host             appconfig.Host
	Model            string
	History          []ChatMessage
	SystemPrompt     string
	Parameters       appconfig.Parameters
	JSONMode         bool
	LogProbs         bool
	DisableStreaming bool
}

// StreamCallbacks defines the callback functions that are invoked during a stream.
// OnChunk is called for each increment received and may return an error to abort
// the stream; OnComplete is called when the stream is finished.
type StreamCallbacks struct {
	OnChunk    func(Chunk) error
	OnComplete func(StreamMetadata) error
}

// ChatProvider is the interface that all model providers must implement.
// It defines the core functionalities for managing models and running generation streams.
type ChatProvider interface {
	// LoadedModels returns a list of models that are currently loaded into memory for a given host.
	LoadedModels(ctx context.Context, host appconfig.Host) ([]string, error)
	// EnsureModelReady checks if a model is ready to be used and loads it if necessary.
	EnsureModelReady(ctx context.Context, host appconfig.Host, model string) error
	// Stream initiates a generation stream with the provider, forwarding output to the callbacks.
	// Errors returned by OnChunk abort the stream and are propagated unchanged.
	Stream(ctx context.Context, req StreamRequest, callbacks StreamCallbacks) error
	// Close cleans up any resources used by the provider.
	Close() error
}
