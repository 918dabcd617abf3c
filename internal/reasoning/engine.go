// internal/reasoning/engine.go
// Package reasoning implements multi-path sampled reasoning with
// confidence-based path filtering and weighted answer voting.
package reasoning

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hrbzhq/deepconf/internal/appconfig"
	"github.com/hrbzhq/deepconf/internal/logging"
	"github.com/hrbzhq/deepconf/internal/providerfactory"
	"github.com/hrbzhq/deepconf/internal/providers"
)

// noConfidenceBar disables mid-stream abandonment for warmup paths.
const noConfidenceBar = -1.0

// errPathAbandoned aborts a stream whose confidence dipped below the bar.
var errPathAbandoned = errors.New("path abandoned below confidence bar")

// Engine runs multi-path reasoning against a single backend host.
type Engine struct {
	provider providers.ChatProvider
	host     appconfig.Host
	settings appconfig.DeepConfSettings
}

// New resolves the configured backend host and constructs its provider.
func New(cfg *appconfig.Config) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	host, err := cfg.FindHost(cfg.DeepConf.Backend)
	if err != nil {
		return nil, err
	}
	provider, err := providerfactory.NewChatProvider(cfg, host)
	if err != nil {
		return nil, err
	}
	return NewWithProvider(cfg, host, provider), nil
}

// NewWithProvider constructs an Engine around an existing provider.
func NewWithProvider(cfg *appconfig.Config, host appconfig.Host, provider providers.ChatProvider) *Engine {
	return &Engine{
		provider: provider,
		host:     host,
		settings: cfg.DeepConf,
	}
}

// ModelInfo identifies the engine's backend host and model.
func (e *Engine) ModelInfo() ModelInfo {
	backend := e.host.Name
	if backend == "" {
		backend = e.settings.Backend
	}
	return ModelInfo{Backend: backend, Model: e.settings.Model}
}

// EnsureReady loads the configured model on the backend host.
func (e *Engine) EnsureReady(ctx context.Context) error {
	return e.provider.EnsureModelReady(ctx, e.host, e.settings.Model)
}

// Run executes a reasoning run in the configured mode.
func (e *Engine) Run(ctx context.Context, prompt string) (*Output, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("prompt is empty")
	}
	if e.settings.Mode == appconfig.ModeOnline {
		return e.RunOnline(ctx, prompt)
	}
	return e.RunOffline(ctx, prompt)
}

// RunOffline samples every path to completion, keeps the most confident
// fraction, and selects the final answer by weighted vote over the kept paths.
func (e *Engine) RunOffline(ctx context.Context, prompt string) (*Output, error) {
	numPaths := e.numPaths()
	paths := make([]Path, numPaths)
	baseSeed := e.baseSeed()

	logging.LogEvent("reasoning: offline run with %d paths on %s/%s", numPaths, e.host.Name, e.settings.Model)

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrent())
	for i := 0; i < numPaths; i++ {
		i := i
		g.Go(func() error {
			path, err := e.samplePath(groupCtx, prompt, i, baseSeed+i)
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return e.selectOffline(paths), nil
}

// RunOnline runs the warmup paths to completion, sets the confidence bar to
// the lowest warmup confidence, then streams the remaining paths and abandons
// any whose running group confidence drops below the bar.
func (e *Engine) RunOnline(ctx context.Context, prompt string) (*Output, error) {
	numPaths := e.numPaths()
	warmup := e.settings.WarmupPaths
	if warmup < 1 {
		warmup = 1
	}
	if warmup > numPaths {
		warmup = numPaths
	}

	paths := make([]Path, numPaths)
	baseSeed := e.baseSeed()

	logging.LogEvent("reasoning: online run with %d paths (%d warmup) on %s/%s", numPaths, warmup, e.host.Name, e.settings.Model)

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrent())
	for i := 0; i < warmup; i++ {
		i := i
		g.Go(func() error {
			path, err := e.sampleStreaming(groupCtx, prompt, i, baseSeed+i, noConfidenceBar)
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bar := paths[0].Confidence
	for _, p := range paths[1:warmup] {
		if p.Confidence < bar {
			bar = p.Confidence
		}
	}
	logging.LogEvent("reasoning: online confidence bar %.4f after %d warmup paths", bar, warmup)

	rest, restCtx := errgroup.WithContext(ctx)
	rest.SetLimit(e.maxConcurrent())
	for i := warmup; i < numPaths; i++ {
		i := i
		rest.Go(func() error {
			path, err := e.sampleStreaming(restCtx, prompt, i, baseSeed+i, bar)
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}
	if err := rest.Wait(); err != nil {
		return nil, err
	}

	return e.selectOnline(paths), nil
}

// samplePath issues a non-streaming request and scores the full response.
func (e *Engine) samplePath(ctx context.Context, prompt string, id, seed int) (Path, error) {
	var output strings.Builder
	var meta providers.StreamMetadata

	req := providers.StreamRequest{
		Host:             e.host,
		Model:            e.settings.Model,
		SystemPrompt:     e.host.SystemPrompt,
		Parameters:       e.pathParameters(seed),
		History:          []providers.ChatMessage{{Role: "user", Content: prompt}},
		LogProbs:         true,
		DisableStreaming: true,
	}

	callbacks := providers.StreamCallbacks{
		OnChunk: func(chunk providers.Chunk) error {
			output.WriteString(chunk.Content)
			return nil
		},
		OnComplete: func(m providers.StreamMetadata) error {
			meta = m
			return nil
		},
	}

	if err := e.provider.Stream(ctx, req, callbacks); err != nil {
		return Path{}, fmt.Errorf("path %d: %w", id, err)
	}

	text := strings.TrimSpace(output.String())
	tokenConfidences := TokenConfidences(meta.LogProbs)
	groups := GroupConfidences(tokenConfidences, e.settings.WindowSize)

	tokenCount := len(tokenConfidences)
	if tokenCount == 0 {
		tokenCount = meta.EvalCount
	}
	return Path{
		ID:               id,
		Text:             text,
		Answer:           NormalizeAnswer(text),
		Confidence:       PathConfidence(groups),
		GroupConfidences: groups,
		TokenCount:       tokenCount,
	}, nil
}

// sampleStreaming issues a streaming request, scoring groups as tokens arrive.
// When bar is non-negative the path is abandoned as soon as its lowest
// completed group confidence falls below the bar.
func (e *Engine) sampleStreaming(ctx context.Context, prompt string, id, seed int, bar float64) (Path, error) {
	var output strings.Builder
	tracker := newConfidenceTracker(e.settings.WindowSize)

	req := providers.StreamRequest{
		Host:         e.host,
		Model:        e.settings.Model,
		SystemPrompt: e.host.SystemPrompt,
		Parameters:   e.pathParameters(seed),
		History:      []providers.ChatMessage{{Role: "user", Content: prompt}},
		LogProbs:     true,
	}

	callbacks := providers.StreamCallbacks{
		OnChunk: func(chunk providers.Chunk) error {
			output.WriteString(chunk.Content)
			for _, token := range chunk.LogProbs {
				completedGroup := tracker.Add(TokenConfidence(token.LogProb))
				if !completedGroup || bar < 0 {
					continue
				}
				if lowest, ok := tracker.LowestCompleted(); ok && lowest < bar {
					return errPathAbandoned
				}
			}
			return nil
		},
	}

	err := e.provider.Stream(ctx, req, callbacks)
	groups := tracker.Groups()
	path := Path{
		ID:               id,
		Text:             strings.TrimSpace(output.String()),
		Confidence:       PathConfidence(groups),
		GroupConfidences: groups,
		TokenCount:       tracker.TokenCount(),
	}
	if err != nil {
		if errors.Is(err, errPathAbandoned) {
			logging.LogEvent("reasoning: path %d abandoned below bar %.4f", id, bar)
			path.Abandoned = true
			return path, nil
		}
		return Path{}, fmt.Errorf("path %d: %w", id, err)
	}
	path.Answer = NormalizeAnswer(path.Text)
	return path, nil
}

// selectOffline keeps the most confident fraction of paths and votes among them.
func (e *Engine) selectOffline(paths []Path) *Output {
	keepCount := int(math.Ceil(e.settings.KeepRatio * float64(len(paths))))
	if keepCount < 1 {
		keepCount = 1
	}
	if keepCount > len(paths) {
		keepCount = len(paths)
	}

	ranked := make([]int, len(paths))
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return paths[ranked[a]].Confidence > paths[ranked[b]].Confidence
	})

	kept := make([]Path, 0, keepCount)
	keptIDs := make([]int, 0, keepCount)
	keptConfidences := make([]float64, 0, keepCount)
	for _, idx := range ranked[:keepCount] {
		kept = append(kept, paths[idx])
		keptIDs = append(keptIDs, paths[idx].ID)
		keptConfidences = append(keptConfidences, paths[idx].Confidence)
	}

	output := &Output{
		AllPaths:          paths,
		KeptPaths:         keptIDs,
		KeptConfidences:   keptConfidences,
		AverageConfidence: mean(keptConfidences),
		ModelInfo:         e.ModelInfo(),
	}
	if winner, ok := WeightedVote(kept); ok {
		output.FinalAnswer = winner.Text
	}
	return output
}

// selectOnline votes among the paths that survived the confidence bar.
func (e *Engine) selectOnline(paths []Path) *Output {
	var completed []Path
	var keptIDs []int
	var keptConfidences []float64
	for _, p := range paths {
		if p.Abandoned {
			continue
		}
		completed = append(completed, p)
		keptIDs = append(keptIDs, p.ID)
		keptConfidences = append(keptConfidences, p.Confidence)
	}

	output := &Output{
		AllPaths:          paths,
		KeptPaths:         keptIDs,
		KeptConfidences:   keptConfidences,
		AverageConfidence: mean(keptConfidences),
		ModelInfo:         e.ModelInfo(),
	}
	if winner, ok := WeightedVote(completed); ok {
		output.FinalAnswer = winner.Text
	}
	return output
}

// pathParameters layers the sampling preset under the host's parameters,
// then applies the configured temperature and the path's seed. An unset
// temperature leaves the preset's value in place.
func (e *Engine) pathParameters(seed int) appconfig.Parameters {
	params := appconfig.MergeParams(appconfig.ParamsForPreset(e.settings.Preset), e.host.Parameters)
	if e.settings.Temperature > 0 {
		temperature := e.settings.Temperature
		params.Temperature = &temperature
	}
	seedValue := seed
	params.Seed = &seedValue
	return params
}

func (e *Engine) baseSeed() int {
	if e.host.Parameters.Seed != nil {
		return *e.host.Parameters.Seed
	}
	if s := appconfig.ParamsForPreset(e.settings.Preset).Seed; s != nil {
		return *s
	}
	return int(time.Now().UnixNano() % math.MaxInt32)
}

func (e *Engine) numPaths() int {
	if e.settings.NumPaths < 1 {
		return 1
	}
	return e.settings.NumPaths
}

func (e *Engine) maxConcurrent() int {
	if e.settings.MaxConcurrent < 1 {
		return 1
	}
	return e.settings.MaxConcurrent
}

// Close releases the engine's provider.
func (e *Engine) Close() error {
	return e.provider.Close()
}
