// internal/benchmark/runner.go
// Package benchmark runs the embedded six-domain scenario suite through the
// integrated analyzer and aggregates the per-case scores against each
// domain's expected confidence.
package benchmark

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hrbzhq/deepconf/internal/integrated"
	"github.com/hrbzhq/deepconf/internal/logging"
	"github.com/hrbzhq/deepconf/internal/profile"
	"github.com/hrbzhq/deepconf/internal/reasoning"
)

// Analyzer is the slice of the integrated analyzer the runner needs.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string, p profile.Profile, sources []string) (*integrated.Result, error)
	ModelInfo() reasoning.ModelInfo
}

// EventType identifies a progress event emitted during a run.
type EventType int

const (
	EventCaseStarted EventType = iota
	EventCaseFinished
)

// Event reports per-case progress. Index is 1-based. Result is set only on
// EventCaseFinished.
type Event struct {
	Type   EventType
	Index  int
	Total  int
	Case   Case
	Result *CaseResult
}

// Options configures a Runner. A nil Cases slice runs the embedded suite.
// OnEvent, when set, receives progress events synchronously on the run
// goroutine.
type Options struct {
	Cases   []Case
	Pause   time.Duration
	OnEvent func(Event)
}

// Runner executes benchmark cases sequentially against one analyzer.
type Runner struct {
	analyzer Analyzer
	opts     Options
}

func NewRunner(analyzer Analyzer, opts Options) *Runner {
	if opts.Cases == nil {
		opts.Cases = Cases()
	}
	return &Runner{analyzer: analyzer, opts: opts}
}

// Run executes every case in order, pausing between cases, and returns the
// full report. A case failure is recorded and the run continues; only
// context cancellation aborts the run.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	total := len(r.opts.Cases)
	logging.LogEvent("benchmark: starting %d cases", total)

	results := make([]CaseResult, 0, total)
	for i, c := range r.opts.Cases {
		if i > 0 && r.opts.Pause > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.opts.Pause):
			}
		}
		r.emit(Event{Type: EventCaseStarted, Index: i + 1, Total: total, Case: c})
		result := r.runCase(ctx, c)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		results = append(results, result)
		r.emit(Event{Type: EventCaseFinished, Index: i + 1, Total: total, Case: c, Result: &result})
	}

	report := &Report{
		GeneratedAt: time.Now().UTC(),
		ModelInfo:   r.analyzer.ModelInfo(),
		Results:     results,
		Summary:     Summarize(results),
	}
	logging.LogEvent("benchmark: %d/%d cases passed", report.Summary.Passed, report.Summary.Total)
	return report, nil
}

func (r *Runner) runCase(ctx context.Context, c Case) CaseResult {
	result := CaseResult{
		TestID:             c.ID,
		Domain:             c.Domain,
		Prompt:             c.Prompt,
		Status:             StatusSuccess,
		ExpectedConfidence: c.ExpectedConfidence,
	}
	start := time.Now()

	p, err := profile.Parse([]byte(c.ProfileJSON))
	if err == nil {
		var analysis *integrated.Result
		analysis, err = r.analyzer.Analyze(ctx, c.Prompt, p, nil)
		if err == nil && analysis.Status == integrated.StatusFailed {
			err = fmt.Errorf("both analysis sides failed: %s; %s", analysis.DeepConfError, analysis.BehaviorError)
		}
		if err == nil {
			result.IntegratedConfidence = analysis.IntegratedConfidence
			result.AnalysisConsistency = analysis.AnalysisConsistency
			result.RecommendationScore = analysis.RecommendationScore
			result.ConfidenceError = math.Abs(analysis.IntegratedConfidence - c.ExpectedConfidence)
			if analysis.DeepConfResult != nil {
				result.DeepConfConfidence = analysis.DeepConfResult.AverageConfidence
			}
			if analysis.BehaviorResult != nil {
				result.BehaviorPathsCount = len(analysis.BehaviorResult.Paths)
			}
		}
	}
	result.ExecutionTime = time.Since(start).Seconds()

	if err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		logging.LogEvent("benchmark: case %s failed: %v", c.ID, err)
	}
	return result
}

func (r *Runner) emit(ev Event) {
	if r.opts.OnEvent != nil {
		r.opts.OnEvent(ev)
	}
}
