// internal/models/openai_host.go
package models

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hrbzhq/deepconf/internal/appconfig"
)

// OpenAIHost implements LLMHost for OpenAI-compatible servers. The API has
// no pull or unload surface; served models are listed as loaded.
type OpenAIHost struct {
	name   string
	models []string
	client *openai.Client
}

func newOpenAIHost(host appconfig.Host, httpClient *http.Client) *OpenAIHost {
	base := strings.TrimRight(strings.TrimSpace(host.URL), "/")
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	token := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if token == "" {
		token = "unused"
	}
	config := openai.DefaultConfig(token)
	config.BaseURL = base
	config.HTTPClient = httpClient
	return &OpenAIHost{
		name:   host.Name,
		models: host.Models,
		client: openai.NewClientWithConfig(config),
	}
}

func (h *OpenAIHost) Name() string { return h.name }

func (h *OpenAIHost) Type() string { return appconfig.HostTypeOpenAI }

func (h *OpenAIHost) ConfiguredModels() []string { return h.models }

// ListModels returns the models the server is serving, sorted by ID.
func (h *OpenAIHost) ListModels(ctx context.Context) ([]ModelStatus, error) {
	list, err := h.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list models on %s: %w", h.name, err)
	}
	statuses := make([]ModelStatus, 0, len(list.Models))
	for _, model := range list.Models {
		statuses = append(statuses, ModelStatus{Name: model.ID, Loaded: true})
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses, nil
}

func (h *OpenAIHost) PullModel(ctx context.Context, model string) error {
	return fmt.Errorf("pulling %s on %s: %w", model, h.name, ErrUnsupported)
}

func (h *OpenAIHost) UnloadModel(ctx context.Context, model string) error {
	return fmt.Errorf("unloading %s on %s: %w", model, h.name, ErrUnsupported)
}
