// internal/appconfig/appconfig.go
// Package appconfig defines and interprets the application configuration.
package appconfig

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// LegacyConfigPath is the path to the configuration file used in previous versions.
	LegacyConfigPath = "deepconf.json"
	// defaultRequestTimeout is the default timeout for HTTP requests to model servers.
	defaultRequestTimeout = 300 * time.Second
	// defaultDataDir is the root directory for logs, metrics, and run history.
	defaultDataDir = "deepconfData"
)

// Host type identifiers accepted in the configuration file.
const (
	HostTypeOllama = "ollama"
	HostTypeOpenAI = "openai"
)

// Reasoning mode identifiers.
const (
	ModeOffline = "offline"
	ModeOnline  = "online"
)

// Config represents the top-level application configuration.
type Config struct {
	Hosts          []Host            `json:"hosts"`
	Debug          bool              `json:"debug"`
	Metrics        bool              `json:"metrics"`
	TimeoutSeconds int               `json:"timeoutSeconds,omitempty"`
	DataDir        string            `json:"dataDir,omitempty"`
	LogFile        string            `json:"logFile,omitempty"`
	DeepConf       DeepConfSettings  `json:"deepconf"`
	Behavior       BehaviorSettings  `json:"behavior"`
	Benchmark      BenchmarkSettings `json:"benchmark"`
	ConfigPath     string            `json:"-"`
}

// Host represents a single host that can serve language models.
type Host struct {
	Name         string     `json:"name"`
	URL          string     `json:"url"`
	Type         string     `json:"type"`
	Models       []string   `json:"models"`
	SystemPrompt string     `json:"systemprompt"`
	Parameters   Parameters `json:"parameters"`
}

// Parameters defines the set of parameters that can be used to control a language model's behavior.
// Nil fields are omitted from requests so the server's own defaults apply.
type Parameters struct {
	Temperature   *float64 `json:"temperature,omitempty"`
	TopP          *float64 `json:"topP,omitempty"`
	TopK          *int     `json:"topK,omitempty"`
	RepeatPenalty *float64 `json:"repeatPenalty,omitempty"`
	Seed          *int     `json:"seed,omitempty"`
	NumCtx        *int     `json:"numCtx,omitempty"`
	MaxTokens     *int     `json:"maxTokens,omitempty"`
}

// DeepConfSettings controls the multi-path reasoning engine.
type DeepConfSettings struct {
	Model         string  `json:"model"`
	Backend       string  `json:"backend"`
	NumPaths      int     `json:"numPaths"`
	KeepRatio     float64 `json:"keepRatio"`
	Temperature   float64 `json:"temperature"`
	Preset        string  `json:"preset,omitempty"`
	WindowSize    int     `json:"windowSize"`
	WarmupPaths   int     `json:"warmupPaths"`
	MaxConcurrent int     `json:"maxConcurrent"`
	Mode          string  `json:"mode"`
}

// BehaviorSettings controls the behavioral trajectory analyzer.
type BehaviorSettings struct {
	Sources             []string `json:"sources"`
	ConfidenceThreshold float64  `json:"confidenceThreshold"`
	MaxTrajectoryLength int      `json:"maxTrajectoryLength"`
}

// BenchmarkSettings controls the benchmark harness.
type BenchmarkSettings struct {
	OutputDir    string `json:"outputDir"`
	PauseSeconds int    `json:"pauseSeconds"`
	Report       bool   `json:"report"`
}

// RequestTimeout returns the timeout duration for HTTP requests, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DataDirPath returns the root data directory, applying the default if not set.
func (c Config) DataDirPath() string {
	if d := strings.TrimSpace(c.DataDir); d != "" {
		return d
	}
	return defaultDataDir
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := strings.TrimSpace(c.LogFile); path != "" {
		return path
	}
	return filepath.Join(c.DataDirPath(), "logs", "deepconf.log")
}

// BenchmarkOutputDir returns the directory benchmark results are written to.
func (c Config) BenchmarkOutputDir() string {
	if d := strings.TrimSpace(c.Benchmark.OutputDir); d != "" {
		return d
	}
	return "benchmark_results"
}

// FindHost returns the host with the given name, or an error naming the
// configured hosts when it does not exist. An empty name selects the first host.
func (c Config) FindHost(name string) (Host, error) {
	if len(c.Hosts) == 0 {
		return Host{}, errors.New("no hosts configured")
	}
	if strings.TrimSpace(name) == "" {
		return c.Hosts[0], nil
	}
	names := make([]string, 0, len(c.Hosts))
	for _, h := range c.Hosts {
		if strings.EqualFold(h.Name, name) {
			return h, nil
		}
		names = append(names, h.Name)
	}
	return Host{}, fmt.Errorf("unknown backend %q (configured hosts: %s)", name, strings.Join(names, ", "))
}

// Normalize fills in defaults for any unset fields, including the default
// local hosts when the configuration declares none. It is applied to the
// merged flag/file/default state before other packages consume it.
func (c *Config) Normalize() {
	if len(c.Hosts) == 0 {
		c.Hosts = DefaultHosts()
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = int(defaultRequestTimeout.Seconds())
	}
	if c.DeepConf.Model == "" {
		c.DeepConf.Model = "qwen3:0.6b"
	}
	if c.DeepConf.Backend == "" {
		c.DeepConf.Backend = c.Hosts[0].Name
	}
	if c.DeepConf.NumPaths <= 0 {
		c.DeepConf.NumPaths = 8
	}
	if c.DeepConf.KeepRatio <= 0 || c.DeepConf.KeepRatio > 1 {
		c.DeepConf.KeepRatio = 0.8
	}
	// An unset temperature is left at zero; the sampling preset chain
	// supplies it (the default reasoning preset uses 0.7).
	if c.DeepConf.WindowSize <= 0 {
		c.DeepConf.WindowSize = 32
	}
	if c.DeepConf.WarmupPaths <= 0 {
		c.DeepConf.WarmupPaths = 2
	}
	if c.DeepConf.MaxConcurrent <= 0 {
		c.DeepConf.MaxConcurrent = 2
	}
	if c.DeepConf.Mode != ModeOnline {
		c.DeepConf.Mode = ModeOffline
	}
	if len(c.Behavior.Sources) == 0 {
		c.Behavior.Sources = []string{"text", "profile", "history"}
	}
	if c.Behavior.ConfidenceThreshold <= 0 || c.Behavior.ConfidenceThreshold > 1 {
		c.Behavior.ConfidenceThreshold = 0.7
	}
	if c.Behavior.MaxTrajectoryLength <= 0 {
		c.Behavior.MaxTrajectoryLength = 10
	}
	if c.Benchmark.PauseSeconds < 0 {
		c.Benchmark.PauseSeconds = 0
	} else if c.Benchmark.PauseSeconds == 0 {
		c.Benchmark.PauseSeconds = 2
	}
}

// DefaultHosts returns the host entries assumed when the configuration
// declares none: a local Ollama daemon and a local OpenAI-compatible server.
func DefaultHosts() []Host {
	return []Host{
		{
			Name:   "local-ollama",
			URL:    "http://localhost:11434",
			Type:   HostTypeOllama,
			Models: []string{"qwen3:0.6b"},
		},
		{
			Name:   "local-openai",
			URL:    "http://localhost:8080/v1",
			Type:   HostTypeOpenAI,
			Models: []string{},
		},
	}
}

// Default returns a fully normalized configuration with no file backing it.
func Default() Config {
	var c Config
	c.Normalize()
	return c
}
