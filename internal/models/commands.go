// internal/models/commands.go
// Package models manages model lifecycle operations on configured hosts.
package models

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/hrbzhq/deepconf/internal/appconfig"
)

var (
	hostStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	modelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	loadedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
)

// ListModels prints every host's installed models in configuration order,
// marking the ones currently loaded. Hosts are queried concurrently; a host
// error is reported inline and only a total failure fails the command.
func ListModels(ctx context.Context, cfg *appconfig.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is not initialized")
	}

	hosts := hostsFromConfig(cfg)
	type hostListing struct {
		name     string
		statuses []ModelStatus
		err      error
	}
	results := make([]hostListing, len(hosts))

	var wg sync.WaitGroup
	for i, host := range hosts {
		wg.Add(1)
		go func(i int, h LLMHost) {
			defer wg.Done()
			statuses, err := h.ListModels(ctx)
			results[i] = hostListing{name: h.Name(), statuses: statuses, err: err}
		}(i, host)
	}
	wg.Wait()

	failures := 0
	for _, r := range results {
		fmt.Println(hostStyle.Render(fmt.Sprintf("%s:", r.name)))
		if r.err != nil {
			failures++
			fmt.Printf("  Error: %v\n\n", r.err)
			continue
		}
		if len(r.statuses) == 0 {
			fmt.Println("  (no models installed)")
		}
		for _, status := range r.statuses {
			if status.Loaded {
				fmt.Println("  " + loadedStyle.Render(fmt.Sprintf("- %s (CURRENTLY LOADED)", status.Name)))
			} else {
				fmt.Println("  " + modelStyle.Render(fmt.Sprintf("- %s", status.Name)))
			}
		}
		fmt.Println()
	}

	if len(results) > 0 && failures == len(results) {
		return fmt.Errorf("no configured host could be reached")
	}
	return nil
}

// PullModels pulls each host's configured models. Hosts run concurrently;
// models on one host pull sequentially.
func PullModels(ctx context.Context, cfg *appconfig.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is not initialized")
	}

	var wg sync.WaitGroup
	for _, host := range hostsFromConfig(cfg) {
		wg.Add(1)
		go func(h LLMHost) {
			defer wg.Done()
			if h.Type() != appconfig.HostTypeOllama {
				fmt.Printf("Pulling models is not supported for %s (%s)\n", h.Name(), h.Type())
				return
			}
			fmt.Printf("Starting model pulls for %s...\n", h.Name())
			for _, model := range h.ConfiguredModels() {
				fmt.Printf("  -> Pulling model: %s on %s\n", model, h.Name())
				if err := h.PullModel(ctx, model); err != nil {
					fmt.Printf("  Error pulling model %s on %s: %v\n", model, h.Name(), err)
				}
			}
		}(host)
	}
	wg.Wait()
	fmt.Println("All model pull commands have finished.")
	return nil
}

// UnloadModels evicts every loaded model on hosts that support eviction.
func UnloadModels(ctx context.Context, cfg *appconfig.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is not initialized")
	}

	var wg sync.WaitGroup
	for _, host := range hostsFromConfig(cfg) {
		wg.Add(1)
		go func(h LLMHost) {
			defer wg.Done()
			if h.Type() != appconfig.HostTypeOllama {
				fmt.Printf("Unloading models is not supported for %s (%s)\n", h.Name(), h.Type())
				return
			}
			fmt.Printf("Unloading models for %s...\n", h.Name())
			statuses, err := h.ListModels(ctx)
			if err != nil {
				fmt.Printf("  Error getting models from %s: %v\n", h.Name(), err)
				return
			}
			for _, status := range statuses {
				if !status.Loaded {
					continue
				}
				fmt.Printf("  -> Unloading model: %s on %s\n", status.Name, h.Name())
				if err := h.UnloadModel(ctx, status.Name); err != nil {
					fmt.Printf("  Error unloading model %s on %s: %v\n", status.Name, h.Name(), err)
				}
			}
		}(host)
	}
	wg.Wait()
	fmt.Println("All model unload commands have finished.")
	return nil
}
