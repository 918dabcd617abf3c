// internal/providers/openaicompat/provider.go
// Package openaicompat provides a ChatProvider for OpenAI-compatible HTTP APIs
// such as llama.cpp's llama-server and vLLM.
package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hrbzhq/deepconf/internal/appconfig"
	"github.com/hrbzhq/deepconf/internal/logging"
	"github.com/hrbzhq/deepconf/internal/providers"
)

// Provider implements the providers.ChatProvider interface through the
// go-openai SDK pointed at a host's base URL.
type Provider struct {
	httpClient *http.Client
	timeout    time.Duration
	debug      bool

	mu      sync.Mutex
	clients map[string]*openai.Client
}

// New constructs a Provider configured with the application's request timeout.
func New(cfg *appconfig.Config) *Provider {
	timeout := cfg.RequestTimeout()
	return &Provider{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		timeout: timeout,
		debug:   cfg.Debug,
		clients: make(map[string]*openai.Client),
	}
}

// clientFor returns a cached SDK client for the host's base URL.
func (p *Provider) clientFor(host appconfig.Host) *openai.Client {
	base := baseURL(host)
	p.mu.Lock()
	defer p.mu.Unlock()
	if client, ok := p.clients[base]; ok {
		return client
	}
	config := openai.DefaultConfig(authToken())
	config.BaseURL = base
	config.HTTPClient = p.httpClient
	client := openai.NewClientWithConfig(config)
	p.clients[base] = client
	return client
}

// baseURL normalizes a host URL to the /v1 prefix the SDK expects.
func baseURL(host appconfig.Host) string {
	base := strings.TrimRight(strings.TrimSpace(host.URL), "/")
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	return base
}

// authToken returns the bearer token for the Authorization header. Local
// OpenAI-compatible servers ignore it, but the SDK requires a value.
func authToken() string {
	if key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); key != "" {
		return key
	}
	return "unused"
}

// LoadedModels returns the model IDs the host reports as being served.
func (p *Provider) LoadedModels(ctx context.Context, host appconfig.Host) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	hostID := hostIdentifier(host)
	logging.LogRequest("DEEPCONF->LLM", hostID, "", "models", map[string]string{"method": http.MethodGet, "url": baseURL(host) + "/models"})

	list, err := p.clientFor(host).ListModels(ctx)
	if err != nil {
		return nil, wrapAPIError(err)
	}

	names := make([]string, len(list.Models))
	for i, m := range list.Models {
		names[i] = m.ID
	}
	logging.LogRequest("LLM->DEEPCONF", hostID, "", "models", names)
	return names, nil
}

// EnsureModelReady verifies the host is reachable. OpenAI-compatible servers
// load their models at startup, so reachability is the only hard precondition.
func (p *Provider) EnsureModelReady(ctx context.Context, host appconfig.Host, model string) error {
	models, err := p.LoadedModels(ctx, host)
	if err != nil {
		return err
	}
	for _, name := range models {
		if strings.EqualFold(name, model) {
			return nil
		}
	}
	if len(models) > 0 && p.debug {
		logging.LogEvent("openaicompat: model %q not reported by %s; continuing with server default", model, hostIdentifier(host))
	}
	return nil
}

// Stream issues a chat completion request and forwards output to the provided
// callbacks. Errors returned by OnChunk abort the stream and are propagated
// unchanged.
func (p *Provider) Stream(ctx context.Context, req providers.StreamRequest, callbacks providers.StreamCallbacks) error {
	chatReq := buildChatRequest(req)
	hostID := hostIdentifier(req.Host)

	if data, err := json.Marshal(chatReq); err == nil {
		logging.LogRequest("DEEPCONF->LLM", hostID, req.Model, "chat", data)
	}

	streamCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	client := p.clientFor(req.Host)
	if req.DisableStreaming {
		return p.complete(streamCtx, client, chatReq, req, callbacks)
	}
	return p.stream(streamCtx, client, chatReq, req, callbacks)
}

func (p *Provider) complete(ctx context.Context, client *openai.Client, chatReq openai.ChatCompletionRequest, req providers.StreamRequest, callbacks providers.StreamCallbacks) error {
	start := time.Now()
	resp, err := client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return wrapAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("openaicompat: response contained no choices")
	}

	if p.debug {
		if data, merr := json.Marshal(resp); merr == nil {
			logging.LogRequest("LLM->DEEPCONF", hostIdentifier(req.Host), req.Model, "chat", data)
		}
	}

	choice := resp.Choices[0]
	tokens := convertLogProbs(choice.LogProbs)
	if callbacks.OnChunk != nil && (choice.Message.Content != "" || len(tokens) > 0) {
		role := choice.Message.Role
		if role == "" {
			role = "assistant"
		}
		if err := callbacks.OnChunk(providers.Chunk{Role: role, Content: choice.Message.Content, LogProbs: tokens}); err != nil {
			return err
		}
	}

	created := time.Now()
	if resp.Created > 0 {
		created = time.Unix(resp.Created, 0)
	}
	meta := providers.StreamMetadata{
		Model:           modelOrFallback(resp.Model, req.Model),
		CreatedAt:       created,
		Done:            true,
		TotalDuration:   time.Since(start).Nanoseconds(),
		PromptEvalCount: resp.Usage.PromptTokens,
		EvalCount:       resp.Usage.CompletionTokens,
		LogProbs:        tokens,
	}
	return finish(callbacks, meta)
}

func (p *Provider) stream(ctx context.Context, client *openai.Client, chatReq openai.ChatCompletionRequest, req providers.StreamRequest, callbacks providers.StreamCallbacks) error {
	start := time.Now()
	stream, err := client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return wrapAPIError(err)
	}
	defer stream.Close()

	hostID := hostIdentifier(req.Host)
	meta := providers.StreamMetadata{Model: req.Model, CreatedAt: time.Now(), Done: true}
	var allTokens []providers.TokenLogProb
	for {
		chunk, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return wrapAPIError(err)
		}
		if p.debug {
			if data, merr := json.Marshal(chunk); merr == nil {
				logging.LogRequest("LLM->DEEPCONF", hostID, req.Model, "chat", data)
			}
		}

		if chunk.Model != "" {
			meta.Model = chunk.Model
		}
		if chunk.Created > 0 {
			meta.CreatedAt = time.Unix(chunk.Created, 0)
		}
		if chunk.Usage != nil {
			meta.PromptEvalCount = chunk.Usage.PromptTokens
			meta.EvalCount = chunk.Usage.CompletionTokens
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		tokens := convertStreamLogProbs(choice.Logprobs)
		allTokens = append(allTokens, tokens...)
		if callbacks.OnChunk != nil && (choice.Delta.Content != "" || len(tokens) > 0) {
			role := choice.Delta.Role
			if role == "" {
				role = "assistant"
			}
			if err := callbacks.OnChunk(providers.Chunk{Role: role, Content: choice.Delta.Content, LogProbs: tokens}); err != nil {
				return err
			}
		}
	}

	meta.TotalDuration = time.Since(start).Nanoseconds()
	meta.LogProbs = allTokens
	return finish(callbacks, meta)
}

// buildChatRequest maps the provider-neutral request onto the SDK's type.
func buildChatRequest(req providers.StreamRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+1)
	if strings.TrimSpace(req.SystemPrompt) != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	}
	for _, m := range req.History {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		switch role {
		case openai.ChatMessageRoleSystem, openai.ChatMessageRoleAssistant, openai.ChatMessageRoleUser:
		default:
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   !req.DisableStreaming,
		LogProbs: req.LogProbs,
	}
	applyParameters(&chatReq, req.Parameters)
	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}
	if chatReq.Stream {
		chatReq.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	}
	return chatReq
}

// applyParameters copies over the sampling parameters the OpenAI API accepts.
// TopK, RepeatPenalty and NumCtx have no wire equivalents and are dropped.
func applyParameters(chatReq *openai.ChatCompletionRequest, params appconfig.Parameters) {
	if params.Temperature != nil {
		chatReq.Temperature = float32(*params.Temperature)
	}
	if params.TopP != nil {
		chatReq.TopP = float32(*params.TopP)
	}
	if params.Seed != nil {
		chatReq.Seed = params.Seed
	}
	if params.MaxTokens != nil {
		chatReq.MaxTokens = *params.MaxTokens
	}
}

// convertLogProbs maps logprob payloads from a non-streaming response.
func convertLogProbs(lp *openai.LogProbs) []providers.TokenLogProb {
	if lp == nil || len(lp.Content) == 0 {
		return nil
	}
	tokens := make([]providers.TokenLogProb, len(lp.Content))
	for i, entry := range lp.Content {
		tokens[i] = providers.TokenLogProb{Token: entry.Token, LogProb: entry.LogProb}
	}
	return tokens
}

// convertStreamLogProbs maps logprob payloads from a streaming delta.
func convertStreamLogProbs(lp *openai.ChatCompletionStreamChoiceLogprobs) []providers.TokenLogProb {
	if lp == nil || len(lp.Content) == 0 {
		return nil
	}
	tokens := make([]providers.TokenLogProb, len(lp.Content))
	for i, entry := range lp.Content {
		tokens[i] = providers.TokenLogProb{Token: entry.Token, LogProb: entry.Logprob}
	}
	return tokens
}

// wrapAPIError surfaces HTTP status details the SDK folds into its error types.
func wrapAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("openaicompat: %d %s", apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("openaicompat: %d %s", reqErr.HTTPStatusCode, strings.TrimSpace(string(reqErr.Body)))
	}
	return fmt.Errorf("openaicompat: %w", err)
}

func finish(callbacks providers.StreamCallbacks, meta providers.StreamMetadata) error {
	if callbacks.OnComplete == nil {
		return nil
	}
	return callbacks.OnComplete(meta)
}

func modelOrFallback(model, fallback string) string {
	if strings.TrimSpace(model) != "" {
		return model
	}
	return fallback
}

// hostIdentifier returns a stable label for a host in logs.
func hostIdentifier(host appconfig.Host) string {
	if strings.TrimSpace(host.Name) != "" {
		return host.Name
	}
	return host.URL
}

// Close releases any resources held by the provider.
func (p *Provider) Close() error {
	return nil
}
