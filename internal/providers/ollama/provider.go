// internal/providers/ollama/provider.go
// Package ollama provides a ChatProvider backed by Ollama's native HTTP endpoints.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hrbzhq/deepconf/internal/appconfig"
	"github.com/hrbzhq/deepconf/internal/logging"
	"github.com/hrbzhq/deepconf/internal/providers"
)

// Provider implements the providers.ChatProvider interface using Ollama HTTP APIs.
type Provider struct {
	client  *http.Client
	timeout time.Duration
	debug   bool
}

// New constructs a Provider configured with the application's request timeout.
func New(cfg *appconfig.Config) *Provider {
	timeout := cfg.RequestTimeout()
	return &Provider{
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		timeout: timeout,
		debug:   cfg.Debug,
	}
}

// ollamaPsResponse defines the structure of the response from the /api/ps endpoint.
type ollamaPsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// chatChunk defines the structure of a single chunk in a /api/chat streaming response.
type chatChunk struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	LogProbs           json.RawMessage `json:"logprobs,omitempty"`
	Done               bool            `json:"done"`
	TotalDuration      int64           `json:"total_duration"`
	LoadDuration       int64           `json:"load_duration"`
	PromptEvalCount    int             `json:"prompt_eval_count"`
	PromptEvalDuration int64           `json:"prompt_eval_duration"`
	EvalCount          int             `json:"eval_count"`
	EvalDuration       int64           `json:"eval_duration"`
}

// generateChunk defines the structure of a single chunk in a /api/generate streaming response.
type generateChunk struct {
	Model              string          `json:"model"`
	Response           string          `json:"response"`
	LogProbs           json.RawMessage `json:"logprobs,omitempty"`
	Done               bool            `json:"done"`
	TotalDuration      int64           `json:"total_duration"`
	LoadDuration       int64           `json:"load_duration"`
	PromptEvalCount    int             `json:"prompt_eval_count"`
	PromptEvalDuration int64           `json:"prompt_eval_duration"`
	EvalCount          int             `json:"eval_count"`
	EvalDuration       int64           `json:"eval_duration"`
}

// LoadedModels returns the models currently loaded in memory on the host.
func (p *Provider) LoadedModels(ctx context.Context, host appconfig.Host) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	endpoint := host.URL + "/api/ps"
	logging.LogRequest("DEEPCONF->LLM", hostIdentifier(host), "", "", map[string]string{"method": http.MethodGet, "url": endpoint})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama: /api/ps returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	logging.LogRequest("LLM->DEEPCONF", hostIdentifier(host), "", "", body)

	var ps ollamaPsResponse
	if err := json.Unmarshal(body, &ps); err != nil {
		return nil, err
	}

	names := make([]string, len(ps.Models))
	for i, m := range ps.Models {
		names[i] = m.Name
	}
	return names, nil
}

// EnsureModelReady triggers a lightweight generate request to make sure the model is loaded.
func (p *Provider) EnsureModelReady(ctx context.Context, host appconfig.Host, model string) error {
	payload := map[string]any{
		"model": model,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	logging.LogRequest("DEEPCONF->LLM", hostIdentifier(host), model, "warmup", body)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, host.URL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	logging.LogRequest("LLM->DEEPCONF", hostIdentifier(host), model, "warmup", respBody)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama: /api/generate returned %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	return nil
}

// Stream issues a streaming request and forwards output to the provided callbacks.
// Single-user-message requests go through /api/generate (which carries token
// logprobs per chunk); everything else goes through /api/chat.
func (p *Provider) Stream(ctx context.Context, req providers.StreamRequest, callbacks providers.StreamCallbacks) error {
	if useGenerateEndpoint(req) {
		return p.streamGenerate(ctx, req, callbacks)
	}
	return p.streamChat(ctx, req, callbacks)
}

// useGenerateEndpoint reports whether the request is a plain single-prompt
// generation, which /api/generate serves with richer logprob output.
func useGenerateEndpoint(req providers.StreamRequest) bool {
	if len(req.History) != 1 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(req.History[0].Role), "user")
}

func (p *Provider) streamGenerate(ctx context.Context, req providers.StreamRequest, callbacks providers.StreamCallbacks) error {
	streamEnabled := !req.DisableStreaming
	prompt := strings.TrimSpace(req.History[0].Content)
	payload := map[string]any{
		"model":   req.Model,
		"prompt":  prompt,
		"options": buildOptions(req.Parameters),
		"stream":  streamEnabled,
	}
	if req.LogProbs {
		payload["logprobs"] = true
	}
	if strings.TrimSpace(req.SystemPrompt) != "" {
		payload["system"] = req.SystemPrompt
	}
	if req.JSONMode {
		payload["format"] = "json"
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	hostID := hostIdentifier(req.Host)
	logging.LogRequest("DEEPCONF->LLM", hostID, req.Model, "generate", body)

	streamCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(streamCtx, http.MethodPost, req.Host.URL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		logging.LogRequest("LLM->DEEPCONF", hostID, req.Model, "generate", raw)
		return fmt.Errorf("ollama: /api/generate returned %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	if !streamEnabled {
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		logging.LogRequest("LLM->DEEPCONF", hostID, req.Model, "generate", respBody)

		var result generateChunk
		if err := json.Unmarshal(respBody, &result); err != nil {
			return err
		}

		tokens := providers.ParseLogProbs(result.LogProbs)
		output := strings.TrimSpace(result.Response)
		if callbacks.OnChunk != nil && output != "" {
			if err := callbacks.OnChunk(providers.Chunk{Role: "assistant", Content: output, LogProbs: tokens}); err != nil {
				return err
			}
		}
		return p.completeGenerate(callbacks, req.Model, result, tokens)
	}

	decoder := json.NewDecoder(resp.Body)
	var final generateChunk
	var allTokens []providers.TokenLogProb
	for {
		var chunk generateChunk
		if err := decoder.Decode(&chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if p.debug {
			if data, err := json.Marshal(chunk); err == nil {
				logging.LogRequest("LLM->DEEPCONF", hostID, req.Model, "generate", data)
			}
		}

		tokens := providers.ParseLogProbs(chunk.LogProbs)
		allTokens = append(allTokens, tokens...)
		if callbacks.OnChunk != nil && (chunk.Response != "" || len(tokens) > 0) {
			if err := callbacks.OnChunk(providers.Chunk{Role: "assistant", Content: chunk.Response, LogProbs: tokens}); err != nil {
				return err
			}
		}

		if chunk.Done {
			final = chunk
			break
		}
	}

	return p.completeGenerate(callbacks, req.Model, final, allTokens)
}

func (p *Provider) completeGenerate(callbacks providers.StreamCallbacks, fallbackModel string, final generateChunk, tokens []providers.TokenLogProb) error {
	if callbacks.OnComplete == nil {
		return nil
	}
	modelName := final.Model
	if modelName == "" {
		modelName = fallbackModel
	}
	meta := providers.StreamMetadata{
		Model:              modelName,
		CreatedAt:          time.Now(),
		Done:               final.Done,
		TotalDuration:      final.TotalDuration,
		LoadDuration:       final.LoadDuration,
		PromptEvalCount:    final.PromptEvalCount,
		PromptEvalDuration: final.PromptEvalDuration,
		EvalCount:          final.EvalCount,
		EvalDuration:       final.EvalDuration,
		LogProbs:           tokens,
	}
	return callbacks.OnComplete(meta)
}

func (p *Provider) streamChat(ctx context.Context, req providers.StreamRequest, callbacks providers.StreamCallbacks) error {
	messages := req.History
	if req.SystemPrompt != "" {
		messages = append([]providers.ChatMessage{{Role: "system", Content: req.SystemPrompt}}, messages...)
	}
	if len(messages) == 0 {
		messages = []providers.ChatMessage{}
	}
	hostID := hostIdentifier(req.Host)

	streamEnabled := !req.DisableStreaming
	payload := map[string]any{
		"model":    req.Model,
		"messages": messages,
		"options":  buildOptions(req.Parameters),
		"stream":   streamEnabled,
	}
	if req.LogProbs {
		payload["logprobs"] = true
	}
	if req.JSONMode {
		payload["format"] = "json"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	if pretty, perr := json.MarshalIndent(payload, "", "  "); perr == nil {
		logging.LogRequest("DEEPCONF->LLM", hostID, req.Model, "chat", pretty)
	} else {
		logging.LogRequest("DEEPCONF->LLM", hostID, req.Model, "chat", body)
	}

	streamCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(streamCtx, http.MethodPost, req.Host.URL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		logging.LogRequest("LLM->DEEPCONF", hostID, req.Model, "chat", raw)
		return fmt.Errorf("ollama: /api/chat returned %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	if !streamEnabled {
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		logging.LogRequest("LLM->DEEPCONF", hostID, req.Model, "chat", respBody)
		var result chatChunk
		if err := json.Unmarshal(respBody, &result); err != nil {
			return err
		}
		tokens := providers.ParseLogProbs(result.LogProbs)
		if callbacks.OnChunk != nil && strings.TrimSpace(result.Message.Content) != "" {
			role := result.Message.Role
			if role == "" {
				role = "assistant"
			}
			if err := callbacks.OnChunk(providers.Chunk{Role: role, Content: result.Message.Content, LogProbs: tokens}); err != nil {
				return err
			}
		}
		return p.completeChat(callbacks, req.Model, result, tokens)
	}

	decoder := json.NewDecoder(resp.Body)
	var final chatChunk
	var allTokens []providers.TokenLogProb
	for {
		var chunk chatChunk
		if err := decoder.Decode(&chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if p.debug {
			if data, err := json.Marshal(chunk); err == nil {
				logging.LogRequest("LLM->DEEPCONF", hostID, req.Model, "chat", data)
			}
		}

		tokens := providers.ParseLogProbs(chunk.LogProbs)
		allTokens = append(allTokens, tokens...)
		if callbacks.OnChunk != nil {
			if err := callbacks.OnChunk(providers.Chunk{Role: chunk.Message.Role, Content: chunk.Message.Content, LogProbs: tokens}); err != nil {
				return err
			}
		}

		if chunk.Done {
			final = chunk
			break
		}
	}

	return p.completeChat(callbacks, req.Model, final, allTokens)
}

func (p *Provider) completeChat(callbacks providers.StreamCallbacks, fallbackModel string, final chatChunk, tokens []providers.TokenLogProb) error {
	if callbacks.OnComplete == nil {
		return nil
	}
	modelName := final.Model
	if modelName == "" {
		modelName = fallbackModel
	}
	meta := providers.StreamMetadata{
		Model:              modelName,
		CreatedAt:          time.Now(),
		Done:               final.Done,
		TotalDuration:      final.TotalDuration,
		LoadDuration:       final.LoadDuration,
		PromptEvalCount:    final.PromptEvalCount,
		PromptEvalDuration: final.PromptEvalDuration,
		EvalCount:          final.EvalCount,
		EvalDuration:       final.EvalDuration,
		LogProbs:           tokens,
	}
	return callbacks.OnComplete(meta)
}

func buildOptions(params appconfig.Parameters) map[string]any {
	options := map[string]any{}
	if params.Temperature != nil {
		options["temperature"] = *params.Temperature
	}
	if params.TopP != nil {
		options["top_p"] = *params.TopP
	}
	if params.TopK != nil {
		options["top_k"] = *params.TopK
	}
	if params.RepeatPenalty != nil {
		options["repeat_penalty"] = *params.RepeatPenalty
	}
	if params.Seed != nil {
		options["seed"] = *params.Seed
	}
	if params.NumCtx != nil {
		options["num_ctx"] = *params.NumCtx
	}
	if params.MaxTokens != nil {
		options["num_predict"] = *params.MaxTokens
	}
	return options
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
