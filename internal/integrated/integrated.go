// internal/integrated/integrated.go
// Package integrated fuses multi-path reasoning with behavioral trajectory
// analysis. Both sides run concurrently over the same input; their
// confidences are joined with fixed weights into integrated confidence,
// analysis consistency, and a recommendation score.
package integrated

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hrbzhq/deepconf/internal/appconfig"
	"github.com/hrbzhq/deepconf/internal/behavior"
	"github.com/hrbzhq/deepconf/internal/logging"
	"github.com/hrbzhq/deepconf/internal/metrics"
	"github.com/hrbzhq/deepconf/internal/profile"
	"github.com/hrbzhq/deepconf/internal/reasoning"
	"github.com/hrbzhq/deepconf/internal/util"
)

// Fusion weights. Reasoning carries the most signal, the behavior score and
// the agreement between the two sides split the rest.
const (
	weightReasoning   = 0.4
	weightBehavior    = 0.3
	weightConsistency = 0.3
)

// Recommendation blend when the behavior side reports a recommendation
// quality of its own.
const (
	weightIntegrated     = 0.6
	weightRecommendation = 0.4
)

// neutralConfidence substitutes for a side that produced no score.
const neutralConfidence = 0.5

// Reasoner is the reasoning side of an integrated analysis.
type Reasoner interface {
	Run(ctx context.Context, prompt string) (*reasoning.Output, error)
	ModelInfo() reasoning.ModelInfo
	EnsureReady(ctx context.Context) error
	Close() error
}

// Analyzer runs the two analysis sides and fuses their results.
type Analyzer struct {
	reasoner      Reasoner
	behavior      *behavior.Analyzer
	recordMetrics bool
}

// New constructs an Analyzer backed by the configured reasoning backend.
func New(cfg *appconfig.Config) (*Analyzer, error) {
	engine, err := reasoning.New(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithEngine(cfg, engine, behavior.New(cfg.Behavior)), nil
}

// NewWithEngine constructs an Analyzer around existing components.
func NewWithEngine(cfg *appconfig.Config, reasoner Reasoner, analyzer *behavior.Analyzer) *Analyzer {
	recordMetrics := cfg != nil && cfg.Metrics
	return &Analyzer{reasoner: reasoner, behavior: analyzer, recordMetrics: recordMetrics}
}

// EnsureReady prepares the reasoning backend.
func (a *Analyzer) EnsureReady(ctx context.Context) error {
	return a.reasoner.EnsureReady(ctx)
}

// ModelInfo identifies the reasoning backend in use.
func (a *Analyzer) ModelInfo() reasoning.ModelInfo {
	return a.reasoner.ModelInfo()
}

// Analyze runs reasoning over the prompt and behavioral analysis over the
// profile concurrently, then fuses the two results. One side failing does
// not cancel or fail the other; its neutral default is used instead. When
// both sides fail the returned result is all zero with status failed.
func (a *Analyzer) Analyze(ctx context.Context, prompt string, p profile.Profile, sources []string) (*Result, error) {
	start := time.Now()
	result := &Result{
		Status:    StatusSuccess,
		RunID:     uuid.NewString(),
		Timestamp: start.UTC().Format(time.RFC3339),
		ModelInfo: a.reasoner.ModelInfo(),
	}

	logging.LogEvent("integrated: run %s starting on %s/%s", result.RunID, result.ModelInfo.Backend, result.ModelInfo.Model)

	var (
		wg           sync.WaitGroup
		reasoningOut *reasoning.Output
		reasoningErr error
		behaviorOut  *behavior.Result
		behaviorErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		reasoningOut, reasoningErr = a.reasoner.Run(ctx, prompt)
	}()
	go func() {
		defer wg.Done()
		behaviorOut, behaviorErr = a.behavior.Analyze(p, sources)
	}()
	wg.Wait()

	result.ProcessingTime = time.Since(start).Seconds()

	if reasoningErr != nil {
		logging.LogEvent("integrated: reasoning side failed: %v", reasoningErr)
		result.DeepConfError = reasoningErr.Error()
		reasoningOut = nil
	}
	if behaviorErr != nil {
		logging.LogEvent("integrated: behavior side failed: %v", behaviorErr)
		result.BehaviorError = behaviorErr.Error()
		behaviorOut = nil
	}
	result.DeepConfResult = reasoningOut
	result.BehaviorResult = behaviorOut

	if reasoningErr != nil && behaviorErr != nil {
		result.Status = StatusFailed
		logging.LogEvent("integrated: run %s failed on both sides", result.RunID)
		return result, nil
	}

	dc := neutralConfidence
	if reasoningOut != nil {
		dc = reasoningOut.AverageConfidence
	}
	bc := neutralConfidence
	var quality *float64
	if behaviorOut != nil {
		bc = behaviorOut.ConfidenceScore
		quality = behaviorOut.RecommendationQuality
	}

	result.IntegratedConfidence, result.AnalysisConsistency, result.RecommendationScore = fuse(dc, bc, quality)

	if a.recordMetrics {
		metrics.GetInstance().RecordAnalysis(result.ModelInfo.Model, result.IntegratedConfidence, result.AnalysisConsistency)
	}

	logging.LogEvent("integrated: run %s completed in %.2fs (confidence %.4f, consistency %.4f, recommendation %.4f)",
		result.RunID, result.ProcessingTime, result.IntegratedConfidence, result.AnalysisConsistency, result.RecommendationScore)
	return result, nil
}

// Close releases the reasoning backend.
func (a *Analyzer) Close() error {
	return a.reasoner.Close()
}

// fuse combines the two sides' confidences. Consistency measures how well
// the sides agree; the recommendation score blends in the behavior side's
// recommendation quality when one was reported.
func fuse(dc, bc float64, recommendationQuality *float64) (integrated, consistency, recommendation float64) {
	consistency = util.Clamp01(1 - math.Abs(dc-bc))
	integrated = util.Clamp01(weightReasoning*dc + weightBehavior*bc + weightConsistency*consistency)
	recommendation = integrated
	if recommendationQuality != nil {
		recommendation = util.Clamp01(weightIntegrated*integrated + weightRecommendation*(*recommendationQuality))
	}
	return integrated, consistency, recommendation
}
