// internal/models/ollama_host.go
package models

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/hrbzhq/deepconf/internal/appconfig"
)

// OllamaHost implements LLMHost against the Ollama native API.
type OllamaHost struct {
	name    string
	url     string
	models  []string
	client  *http.Client
	timeout time.Duration
}

func newOllamaHost(host appconfig.Host, client *http.Client, timeout time.Duration) *OllamaHost {
	return &OllamaHost{
		name:    host.Name,
		url:     strings.TrimRight(host.URL, "/"),
		models:  host.Models,
		client:  client,
		timeout: timeout,
	}
}

func (h *OllamaHost) Name() string { return h.name }

func (h *OllamaHost) Type() string { return appconfig.HostTypeOllama }

func (h *OllamaHost) ConfiguredModels() []string { return h.models }

// doRequest executes one API call with the host timeout layered onto ctx.
func (h *OllamaHost) doRequest(ctx context.Context, method, path string, payload any) (*http.Response, context.CancelFunc, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("error encoding request for %s: %w", path, err)
		}
		body = bytes.NewReader(raw)
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	req, err := http.NewRequestWithContext(ctx, method, h.url+path, body)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := h.client.Do(req)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("ollama host %s is not reachable: %w", h.name, err)
	}
	return resp, cancel, nil
}

// ListModels returns every installed model sorted by name, marking the ones
// currently loaded in memory.
func (h *OllamaHost) ListModels(ctx context.Context) ([]ModelStatus, error) {
	running, err := h.runningModels(ctx)
	if err != nil {
		return nil, err
	}

	resp, cancel, err := h.doRequest(ctx, http.MethodGet, "/api/tags", nil)
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("could not list models on %s: %s", h.name, strings.TrimSpace(string(raw)))
	}

	var tagsResp struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tagsResp); err != nil {
		return nil, fmt.Errorf("error parsing models from %s: %w", h.name, err)
	}

	statuses := make([]ModelStatus, 0, len(tagsResp.Models))
	for _, model := range tagsResp.Models {
		_, loaded := running[model.Name]
		statuses = append(statuses, ModelStatus{Name: model.Name, Loaded: loaded})
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses, nil
}

// PullModel pulls one model through /api/pull without progress streaming.
func (h *OllamaHost) PullModel(ctx context.Context, model string) error {
	resp, cancel, err := h.doRequest(ctx, http.MethodPost, "/api/pull", map[string]any{"name": model, "stream": false})
	if err != nil {
		return err
	}
	defer cancel()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("could not pull %s on %s: %s", model, h.name, strings.TrimSpace(string(raw)))
	}
	return nil
}

// UnloadModel evicts one model by issuing an empty generate request with
// keep_alive 0.
func (h *OllamaHost) UnloadModel(ctx context.Context, model string) error {
	resp, cancel, err := h.doRequest(ctx, http.MethodPost, "/api/generate", map[string]any{"model": model, "keep_alive": 0})
	if err != nil {
		return err
	}
	defer cancel()
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("could not unload %s on %s: %s", model, h.name, strings.TrimSpace(string(raw)))
	}
	return nil
}

// runningModels returns the set of models /api/ps reports as loaded.
func (h *OllamaHost) runningModels(ctx context.Context) (map[string]struct{}, error) {
	resp, cancel, err := h.doRequest(ctx, http.MethodGet, "/api/ps", nil)
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("could not get running models on %s: %s", h.name, strings.TrimSpace(string(raw)))
	}

	var psResp struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&psResp); err != nil {
		return nil, fmt.Errorf("error parsing running models from %s: %w", h.name, err)
	}

	running := make(map[string]struct{}, len(psResp.Models))
	for _, model := range psResp.Models {
		running[model.Name] = struct{}{}
	}
	return running, nil
}
