// internal/benchmark/result.go
package benchmark

import (
	"time"

	"github.com/hrbzhq/deepconf/internal/metrics"
	"github.com/hrbzhq/deepconf/internal/reasoning"
)

// Case outcome statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// CaseResult is the per-case record written to the results JSON and CSV.
// Failed cases carry the error string and zeroed scores.
type CaseResult struct {
	TestID               string  `json:"test_id"`
	Domain               string  `json:"domain"`
	Prompt               string  `json:"prompt"`
	Status               string  `json:"status"`
	Error                string  `json:"error,omitempty"`
	IntegratedConfidence float64 `json:"integrated_confidence"`
	AnalysisConsistency  float64 `json:"analysis_consistency"`
	RecommendationScore  float64 `json:"recommendation_score"`
	DeepConfConfidence   float64 `json:"deepconf_confidence"`
	BehaviorPathsCount   int     `json:"behavior_paths_count"`
	ExecutionTime        float64 `json:"execution_time"`
	ExpectedConfidence   float64 `json:"expected_confidence"`
	ConfidenceError      float64 `json:"confidence_error"`
}

// StatLine is a serialized summary of one RunningStat.
type StatLine struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

func statLine(s metrics.RunningStat) StatLine {
	if s.Count == 0 {
		return StatLine{}
	}
	return StatLine{Mean: s.Mean, StdDev: s.StdDev(), Min: s.Min, Max: s.Max}
}

// Summary aggregates a benchmark run. Score statistics cover successful
// cases only; failed cases count toward Total.
type Summary struct {
	Passed              int                `json:"passed"`
	Total               int                `json:"total"`
	Confidence          StatLine           `json:"integrated_confidence"`
	Consistency         StatLine           `json:"analysis_consistency"`
	Execution           StatLine           `json:"execution_time"`
	MeanConfidenceError float64            `json:"mean_confidence_error"`
	DomainAverages      map[string]float64 `json:"domain_averages"`
}

// Report is the top-level document persisted after a benchmark run.
type Report struct {
	GeneratedAt time.Time           `json:"generated_at"`
	ModelInfo   reasoning.ModelInfo `json:"model_info"`
	Results     []CaseResult        `json:"results"`
	Summary     Summary             `json:"summary"`
}

// Summarize computes the run summary from per-case results.
func Summarize(results []CaseResult) Summary {
	var confidence, consistency, execution metrics.RunningStat
	domains := make(map[string]*metrics.RunningStat)
	errorSum := 0.0
	passed := 0
	for _, r := range results {
		if r.Status != StatusSuccess {
			continue
		}
		passed++
		confidence.Add(r.IntegratedConfidence)
		consistency.Add(r.AnalysisConsistency)
		execution.Add(r.ExecutionTime)
		errorSum += r.ConfidenceError
		d, ok := domains[r.Domain]
		if !ok {
			d = &metrics.RunningStat{}
			domains[r.Domain] = d
		}
		d.Add(r.IntegratedConfidence)
	}
	summary := Summary{
		Passed:         passed,
		Total:          len(results),
		Confidence:     statLine(confidence),
		Consistency:    statLine(consistency),
		Execution:      statLine(execution),
		DomainAverages: make(map[string]float64, len(domains)),
	}
	if passed > 0 {
		summary.MeanConfidenceError = errorSum / float64(passed)
	}
	for name, stat := range domains {
		summary.DomainAverages[name] = stat.Mean
	}
	return summary
}
