// internal/providers/ollama/provider_test.go
package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hrbzhq/deepconf/internal/appconfig"
	"github.com/hrbzhq/deepconf/internal/providers"
)

// TestProviderStreamGenerateWithLogProbs verifies that a single-user-message
// request goes through /api/generate and that streamed chunks carry their
// token logprobs through to the callbacks.
func TestProviderStreamGenerateWithLogProbs(t *testing.T) {
	t.Parallel()

	var capturedBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
			return
		}
		capturedBody = body
		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = w.Write([]byte(`{"model":"test-model","response":"The answer","done":false,"logprobs":[{"token":"The","logprob":-0.1},{"token":" answer","logprob":-0.2}]}` + "\n"))
		_, _ = w.Write([]byte(`{"model":"test-model","response":" is 4.","done":true,"eval_count":4,"total_duration":500,"logprobs":[{"token":" is","logprob":-0.05},{"token":" 4.","logprob":-0.3}]}` + "\n"))
	}))
	defer server.Close()

	cfg := &appconfig.Config{TimeoutSeconds: 5}
	provider := New(cfg)

	host := appconfig.Host{Name: "test", URL: server.URL}
	req := providers.StreamRequest{
		Host:     host,
		Model:    "test-model",
		History:  []providers.ChatMessage{{Role: "user", Content: "What is 2+2?"}},
		LogProbs: true,
	}

	var content strings.Builder
	var tokenCount int
	var meta providers.StreamMetadata
	err := provider.Stream(context.Background(), req, providers.StreamCallbacks{
		OnChunk: func(chunk providers.Chunk) error {
			content.WriteString(chunk.Content)
			tokenCount += len(chunk.LogProbs)
			return nil
		},
		OnComplete: func(m providers.StreamMetadata) error {
			meta = m
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Stream returned error: %v", err)
	}

	if got := content.String(); got != "The answer is 4." {
		t.Fatalf("unexpected content: %q", got)
	}
	if tokenCount != 4 {
		t.Fatalf("expected 4 streamed logprob tokens, got %d", tokenCount)
	}
	if len(meta.LogProbs) != 4 {
		t.Fatalf("expected 4 accumulated logprob tokens in metadata, got %d", len(meta.LogProbs))
	}
	if meta.Model != "test-model" || !meta.Done || meta.EvalCount != 4 {
		t.Fatalf("unexpected metadata: %+v", meta)
	}

	var payload map[string]any
	if err := json.Unmarshal(capturedBody, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if lp, ok := payload["logprobs"].(bool); !ok || !lp {
		t.Fatalf("expected logprobs=true in payload, got %v", payload["logprobs"])
	}
	if prompt, ok := payload["prompt"].(string); !ok || prompt != "What is 2+2?" {
		t.Fatalf("expected prompt in payload, got %v", payload["prompt"])
	}
}

// TestProviderStreamChunkErrorAborts verifies that an error returned by OnChunk
// aborts the stream and is propagated unchanged, which online-mode path
// abandonment depends on.
func TestProviderStreamChunkErrorAborts(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		for i := 0; i < 50; i++ {
			_, _ = w.Write([]byte(`{"model":"test-model","response":"chunk","done":false}` + "\n"))
		}
		_, _ = w.Write([]byte(`{"model":"test-model","response":"","done":true}` + "\n"))
	}))
	defer server.Close()

	cfg := &appconfig.Config{TimeoutSeconds: 5}
	provider := New(cfg)

	sentinel := errors.New("abandon path")
	calls := 0
	err := provider.Stream(context.Background(), providers.StreamRequest{
		Host:    appconfig.Host{Name: "test", URL: server.URL},
		Model:   "test-model",
		History: []providers.ChatMessage{{Role: "user", Content: "go"}},
	}, providers.StreamCallbacks{
		OnChunk: func(providers.Chunk) error {
			calls++
			if calls >= 3 {
				return sentinel
			}
			return nil
		},
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected stream aborted after 3 chunks, got %d", calls)
	}
}

// TestProviderStreamChatNonStreaming verifies that multi-message histories go
// through /api/chat and that a non-streaming response is processed in one piece.
func TestProviderStreamChatNonStreaming(t *testing.T) {
	t.Parallel()

	var capturedBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
			return
		}
		capturedBody = body
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"test-model","message":{"role":"assistant","content":"final"},"done":true,"total_duration":123}`))
	}))
	defer server.Close()

	cfg := &appconfig.Config{TimeoutSeconds: 5}
	provider := New(cfg)

	req := providers.StreamRequest{
		Host:  appconfig.Host{Name: "test", URL: server.URL},
		Model: "test-model",
		History: []providers.ChatMessage{
			{Role: "user", Content: "first"},
			{Role: "assistant", Content: "ack"},
			{Role: "user", Content: "second"},
		},
		SystemPrompt:     "be brief",
		DisableStreaming: true,
	}

	var chunks []providers.Chunk
	var meta providers.StreamMetadata
	err := provider.Stream(context.Background(), req, providers.StreamCallbacks{
		OnChunk: func(chunk providers.Chunk) error {
			chunks = append(chunks, chunk)
			return nil
		},
		OnComplete: func(m providers.StreamMetadata) error {
			meta = m
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Stream returned error: %v", err)
	}

	if len(chunks) != 1 || chunks[0].Content != "final" {
		t.Fatalf("unexpected chunks: %+v", chunks)
	}
	if meta.Model != "test-model" || !meta.Done {
		t.Fatalf("unexpected metadata: %+v", meta)
	}

	var payload map[string]any
	if err := json.Unmarshal(capturedBody, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if stream, ok := payload["stream"].(bool); !ok || stream {
		t.Fatalf("expected stream=false, got %v", payload["stream"])
	}
	messages, ok := payload["messages"].([]any)
	if !ok || len(messages) != 4 {
		t.Fatalf("expected system + 3 history messages, got %v", payload["messages"])
	}
	first, ok := messages[0].(map[string]any)
	if !ok || first["Role"] != "system" {
		t.Fatalf("expected leading system message, got %v", messages[0])
	}
}

// TestProviderStreamServerError verifies that a non-200 response surfaces the
// status and body in the returned error.
func TestProviderStreamServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"missing\" not found"}`))
	}))
	defer server.Close()

	cfg := &appconfig.Config{TimeoutSeconds: 5}
	provider := New(cfg)

	err := provider.Stream(context.Background(), providers.StreamRequest{
		Host:    appconfig.Host{Name: "test", URL: server.URL},
		Model:   "missing",
		History: []providers.ChatMessage{{Role: "user", Content: "hi"}},
	}, providers.StreamCallbacks{})
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected body in error, got: %v", err)
	}
}

// TestLoadedModels verifies /api/ps decoding.
func TestLoadedModels(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ps" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"models":[{"name":"qwen3:0.6b"},{"name":"llama3.2:1b"}]}`))
	}))
	defer server.Close()

	cfg := &appconfig.Config{TimeoutSeconds: 5}
	provider := New(cfg)

	models, err := provider.LoadedModels(context.Background(), appconfig.Host{Name: "test", URL: server.URL})
	if err != nil {
		t.Fatalf("LoadedModels returned error: %v", err)
	}
	if len(models) != 2 || models[0] != "qwen3:0.6b" {
		t.Fatalf("unexpected models: %+v", models)
	}
}

// TestUseGenerateEndpoint covers the endpoint selection rule.
func TestUseGenerateEndpoint(t *testing.T) {
	t.Parallel()

	if !useGenerateEndpoint(providers.StreamRequest{History: []providers.ChatMessage{{Role: "user", Content: "q"}}}) {
		t.Fatal("single user message should use /api/generate")
	}
	if useGenerateEndpoint(providers.StreamRequest{History: []providers.ChatMessage{{Role: "assistant", Content: "a"}}}) {
		t.Fatal("assistant-only history should not use /api/generate")
	}
	if useGenerateEndpoint(providers.StreamRequest{History: []providers.ChatMessage{{Role: "user", Content: "q"}, {Role: "assistant", Content: "a"}}}) {
		t.Fatal("multi-message history should not use /api/generate")
	}
}

// TestBuildOptions verifies parameter translation to Ollama option names.
func TestBuildOptions(t *testing.T) {
	t.Parallel()

	temp := 0.7
	topP := 0.95
	seed := 42
	maxTokens := 256
	opts := buildOptions(appconfig.Parameters{
		Temperature: &temp,
		TopP:        &topP,
		Seed:        &seed,
		MaxTokens:   &maxTokens,
	})

	if opts["temperature"] != temp || opts["top_p"] != topP {
		t.Fatalf("unexpected sampling options: %+v", opts)
	}
	if opts["seed"] != seed {
		t.Fatalf("expected seed option, got %+v", opts)
	}
	if opts["num_predict"] != maxTokens {
		t.Fatalf("expected num_predict option, got %+v", opts)
	}
	if _, ok := opts["top_k"]; ok {
		t.Fatalf("nil parameters should be omitted, got %+v", opts)
	}
}
