// internal/providerfactory/factory.go
package providerfactory

import (
	"fmt"
	"strings"

	"github.com/hrbzhq/deepconf/internal/appconfig"
	"github.com/hrbzhq/deepconf/internal/metrics"
	"github.com/hrbzhq/deepconf/internal/providers"
	"github.com/hrbzhq/deepconf/internal/providers/ollama"
	"github.com/hrbzhq/deepconf/internal/providers/openaicompat"
)

// NewChatProvider selects and configures the chat provider matching the host's
// type. Hosts with no declared type default to Ollama. The selected provider is
// wrapped with metrics collection when enabled.
func NewChatProvider(cfg *appconfig.Config, host appconfig.Host) (providers.ChatProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to provider factory")
	}

	var provider providers.ChatProvider

	switch strings.ToLower(strings.TrimSpace(host.Type)) {
	case "", appconfig.HostTypeOllama:
		provider = ollama.New(cfg)
	case appconfig.HostTypeOpenAI:
		provider = openaicompat.New(cfg)
	default:
		return nil, fmt.Errorf("unknown host type %q for host %q (valid types: %s, %s)", host.Type, host.Name, appconfig.HostTypeOllama, appconfig.HostTypeOpenAI)
	}

	if cfg.Metrics {
		aggregator := metrics.GetInstance()
		provider = metrics.NewProvider(provider, aggregator)
	}

	return provider, nil
}
