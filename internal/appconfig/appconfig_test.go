// internal/appconfig/appconfig_test.go
package appconfig

import (
	"testing"
	"time"
)

// TestNormalizeDefaults verifies that Normalize fills every unset field with
// its documented default while leaving configured values untouched.
func TestNormalizeDefaults(t *testing.T) {
	cfg := Config{
		Hosts: []Host{
			{
				Name:   "local-ollama",
				URL:    "http://localhost:11434",
				Type:   HostTypeOllama,
				Models: []string{"qwen3:0.6b"},
			},
		},
		DeepConf: DeepConfSettings{NumPaths: 4},
	}
	cfg.Normalize()

	if len(cfg.Hosts) != 1 {
		t.Fatalf("expected configured host preserved, got %d hosts", len(cfg.Hosts))
	}
	if cfg.TimeoutSeconds != 300 {
		t.Fatalf("expected default timeout of 300 seconds, got %d", cfg.TimeoutSeconds)
	}
	if cfg.RequestTimeout() != 300*time.Second {
		t.Fatalf("expected default request timeout of 300s, got %v", cfg.RequestTimeout())
	}

	if cfg.DeepConf.NumPaths != 4 {
		t.Fatalf("expected configured numPaths of 4, got %d", cfg.DeepConf.NumPaths)
	}
	if cfg.DeepConf.KeepRatio != 0.8 {
		t.Fatalf("expected default keep ratio of 0.8, got %v", cfg.DeepConf.KeepRatio)
	}
	if cfg.DeepConf.Mode != ModeOffline {
		t.Fatalf("expected default mode offline, got %q", cfg.DeepConf.Mode)
	}
	if cfg.Behavior.ConfidenceThreshold != 0.7 {
		t.Fatalf("expected default confidence threshold of 0.7, got %v", cfg.Behavior.ConfidenceThreshold)
	}
	if cfg.Behavior.MaxTrajectoryLength != 10 {
		t.Fatalf("expected default max trajectory length of 10, got %d", cfg.Behavior.MaxTrajectoryLength)
	}
	if got := cfg.BenchmarkOutputDir(); got != "benchmark_results" {
		t.Fatalf("expected default benchmark output dir, got %q", got)
	}
	if cfg.DeepConf.Backend != "local-ollama" {
		t.Fatalf("expected backend defaulted to first host, got %q", cfg.DeepConf.Backend)
	}
}

// TestFindHost verifies host lookup by name is case-insensitive, that an empty
// name selects the first host, and that unknown names report the configured set.
func TestFindHost(t *testing.T) {
	cfg := Config{Hosts: []Host{
		{Name: "local-ollama", Type: HostTypeOllama},
		{Name: "local-openai", Type: HostTypeOpenAI},
	}}

	h, err := cfg.FindHost("")
	if err != nil {
		t.Fatalf("FindHost(\"\") failed: %v", err)
	}
	if h.Name != "local-ollama" {
		t.Fatalf("expected first host, got %q", h.Name)
	}

	h, err = cfg.FindHost("LOCAL-OPENAI")
	if err != nil {
		t.Fatalf("FindHost case-insensitive lookup failed: %v", err)
	}
	if h.Type != HostTypeOpenAI {
		t.Fatalf("expected openai host, got %q", h.Type)
	}

	if _, err := cfg.FindHost("missing"); err == nil {
		t.Fatal("expected error for unknown host")
	}

	empty := Config{}
	if _, err := empty.FindHost("anything"); err == nil {
		t.Fatal("expected error when no hosts are configured")
	}
}

// TestNormalizeDefaultHosts verifies that a configuration with no hosts picks
// up the default local hosts and a usable backend name.
func TestNormalizeDefaultHosts(t *testing.T) {
	cfg := Default()
	if len(cfg.Hosts) != 2 {
		t.Fatalf("expected 2 default hosts, got %d", len(cfg.Hosts))
	}
	if cfg.DeepConf.Backend != "local-ollama" {
		t.Fatalf("expected default backend local-ollama, got %q", cfg.DeepConf.Backend)
	}
	if cfg.DeepConf.Model != "qwen3:0.6b" {
		t.Fatalf("expected default model qwen3:0.6b, got %q", cfg.DeepConf.Model)
	}
	if cfg.Benchmark.PauseSeconds != 2 {
		t.Fatalf("expected default pause of 2s, got %d", cfg.Benchmark.PauseSeconds)
	}
}

// TestParamsForPreset verifies preset selection, aliases, and the default
// fallback for unknown names.
func TestParamsForPreset(t *testing.T) {
	tests := []struct {
		name     string
		wantTemp float64
	}{
		{"", 0.7},
		{"reasoning", 0.7},
		{"det", 0.1},
		{"deterministic", 0.1},
		{"explore", 1.2},
		{"creative", 1.2},
		{"no-such-preset", 0.7},
	}
	for _, tc := range tests {
		p := ParamsForPreset(tc.name)
		if p.Temperature == nil {
			t.Fatalf("ParamsForPreset(%q) returned nil temperature", tc.name)
		}
		if *p.Temperature != tc.wantTemp {
			t.Fatalf("ParamsForPreset(%q) temperature = %v, want %v", tc.name, *p.Temperature, tc.wantTemp)
		}
	}
}

// TestMergeParams verifies that non-nil override fields replace base fields
// and nil override fields leave the base untouched.
func TestMergeParams(t *testing.T) {
	base := DefaultReasoningParams()
	override := Parameters{Temperature: ptrFloat(0.2), Seed: ptrInt(7)}

	merged := MergeParams(base, override)
	if *merged.Temperature != 0.2 {
		t.Fatalf("expected overridden temperature 0.2, got %v", *merged.Temperature)
	}
	if merged.Seed == nil || *merged.Seed != 7 {
		t.Fatalf("expected overridden seed 7, got %v", merged.Seed)
	}
	if merged.TopP == nil || *merged.TopP != 0.95 {
		t.Fatalf("expected base topP 0.95 preserved, got %v", merged.TopP)
	}
	if merged.MaxTokens == nil || *merged.MaxTokens != 1024 {
		t.Fatalf("expected base maxTokens 1024 preserved, got %v", merged.MaxTokens)
	}
}
