// internal/behavior/analyzer.go
// Package behavior implements the deterministic trajectory heuristic that
// scores a subject profile without calling a model. Each configured source
// (text, profile, history) contributes trajectory steps whose confidences
// are derived from how informative the underlying fields are.
package behavior

import (
	"fmt"
	"strings"
	"time"

	"github.com/hrbzhq/deepconf/internal/appconfig"
	"github.com/hrbzhq/deepconf/internal/logging"
	"github.com/hrbzhq/deepconf/internal/profile"
	"github.com/hrbzhq/deepconf/internal/util"
)

// Trajectory status values.
const (
	StatusCompleted       = "completed"
	StatusTerminatedEarly = "terminated_early"
)

// NeutralScore is reported when a profile yields no informative fields.
const NeutralScore = 0.5

// Step is one stage of the behavioral trajectory.
type Step struct {
	Stage      int     `json:"stage"`
	Source     string  `json:"source"`
	Signal     string  `json:"signal"`
	Confidence float64 `json:"confidence"`
	Note       string  `json:"note,omitempty"`
}

// Result is the outcome of one behavioral analysis.
type Result struct {
	Status                string   `json:"status"`
	Paths                 []Step   `json:"paths"`
	ConfidenceScore       float64  `json:"confidence_score"`
	RecommendationQuality *float64 `json:"recommendation_quality,omitempty"`
	Anomalies             []string `json:"anomalies"`
	Sources               []string `json:"sources"`
	ProcessingTime        float64  `json:"processing_time"`
}

// Analyzer scores profiles against a fixed configuration.
type Analyzer struct {
	settings appconfig.BehaviorSettings
}

// New returns an Analyzer with the given settings.
func New(settings appconfig.BehaviorSettings) *Analyzer {
	return &Analyzer{settings: settings}
}

// Analyze walks the profile's informative fields source by source and builds
// the trajectory. An empty requested list falls back to the configured
// sources. A step scoring below the confidence threshold is recorded as an
// anomaly; two consecutive sub-threshold steps terminate the trajectory.
func (a *Analyzer) Analyze(p profile.Profile, requested []string) (*Result, error) {
	start := time.Now()

	if len(requested) == 0 {
		requested = a.settings.Sources
	}
	sources, err := NormalizeSources(requested)
	if err != nil {
		return nil, err
	}

	var candidates []candidate
	for _, source := range sources {
		candidates = append(candidates, candidatesFor(source, p)...)
	}

	maxLength := a.settings.MaxTrajectoryLength
	if maxLength < 1 {
		maxLength = 10
	}
	threshold := a.settings.ConfidenceThreshold

	var steps []Step
	var anomalies []string
	status := StatusCompleted
	consecutiveLow := 0
	for _, c := range candidates {
		if len(steps) >= maxLength {
			break
		}
		step := Step{
			Stage:      len(steps) + 1,
			Source:     c.source,
			Signal:     c.signal,
			Confidence: util.Clamp01(c.confidence),
			Note:       c.note,
		}
		if step.Confidence < threshold {
			if step.Note == "" {
				step.Note = "below confidence threshold"
			}
			anomalies = append(anomalies, fmt.Sprintf("stage %d (%s/%s): confidence %.2f below threshold %.2f",
				step.Stage, step.Source, step.Signal, step.Confidence, threshold))
			consecutiveLow++
		} else {
			consecutiveLow = 0
		}
		steps = append(steps, step)
		if consecutiveLow >= 2 {
			anomalies = append(anomalies, fmt.Sprintf("trajectory terminated early at stage %d after two consecutive low-confidence steps", step.Stage))
			status = StatusTerminatedEarly
			break
		}
	}

	confidence := NeutralScore
	if len(steps) == 0 {
		anomalies = append(anomalies, "no informative fields found in profile")
	} else {
		var sum float64
		for _, step := range steps {
			sum += step.Confidence
		}
		confidence = util.Clamp01(sum / float64(len(steps)))
	}

	result := &Result{
		Status:          status,
		Paths:           steps,
		ConfidenceScore: confidence,
		Anomalies:       anomalies,
		Sources:         sources,
		ProcessingTime:  time.Since(start).Seconds(),
	}
	if goals := goalStatement(p); goals != "" {
		quality := util.Clamp01(0.5*completeness(p) + 0.3*textConfidence(goals) + 0.2*sourceDiversity(steps, sources))
		result.RecommendationQuality = &quality
	}

	logging.LogEvent("behavior: %d trajectory steps from sources [%s], confidence %.4f, %d anomalies",
		len(steps), strings.Join(sources, " "), confidence, len(anomalies))
	return result, nil
}

// completeness is the fraction of core profile aspects that are present:
// name, age, skills, a goal field, a career field, and a history-like field.
func completeness(p profile.Profile) float64 {
	present := 0
	for _, key := range []string{"name", "age", "skills"} {
		if p.Has(key) {
			present++
		}
	}
	for _, group := range [][]string{goalFields, careerFields, historyFields} {
		for _, key := range group {
			if p.Has(key) {
				present++
				break
			}
		}
	}
	return float64(present) / 6
}

// sourceDiversity is the fraction of requested sources that produced at
// least one trajectory step.
func sourceDiversity(steps []Step, sources []string) float64 {
	if len(sources) == 0 {
		return 0
	}
	seen := make(map[string]bool, len(sources))
	for _, step := range steps {
		seen[step.Source] = true
	}
	return float64(len(seen)) / float64(len(sources))
}
