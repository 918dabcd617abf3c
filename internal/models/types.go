// internal/models/types.go
package models

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/hrbzhq/deepconf/internal/appconfig"
)

// ErrUnsupported marks a lifecycle operation the host type cannot perform.
var ErrUnsupported = errors.New("operation not supported for this host type")

// ModelStatus is one installed model and whether it is loaded in memory.
type ModelStatus struct {
	Name   string
	Loaded bool
}

// LLMHost is the model lifecycle surface of one configured host.
type LLMHost interface {
	Name() string
	Type() string
	ConfiguredModels() []string
	ListModels(ctx context.Context) ([]ModelStatus, error)
	PullModel(ctx context.Context, model string) error
	UnloadModel(ctx context.Context, model string) error
}

// hostsFromConfig builds a lifecycle host per configured entry. Unknown host
// types are reported and skipped.
func hostsFromConfig(cfg *appconfig.Config) []LLMHost {
	timeout := cfg.RequestTimeout()
	client := &http.Client{Timeout: timeout}

	var hosts []LLMHost
	for _, hostConfig := range cfg.Hosts {
		switch hostConfig.Type {
		case appconfig.HostTypeOllama:
			hosts = append(hosts, newOllamaHost(hostConfig, client, timeout))
		case appconfig.HostTypeOpenAI:
			hosts = append(hosts, newOpenAIHost(hostConfig, client))
		default:
			fmt.Printf("Unknown host type: %s\n", hostConfig.Type)
		}
	}
	return hosts
}
