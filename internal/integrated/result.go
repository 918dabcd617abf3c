// internal/integrated/result.go
package integrated

import (
	"github.com/hrbzhq/deepconf/internal/behavior"
	"github.com/hrbzhq/deepconf/internal/reasoning"
)

// AnalyzerVersion is reported by the status command.
const AnalyzerVersion = "1.0.0"

// Integrated analysis status values.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Result joins one reasoning run and one behavioral analysis into the
// composite scores. A side that failed is represented by its error string
// and its neutral default flows into the scores; when both sides fail the
// scores are zero and the status is failed.
type Result struct {
	Status               string              `json:"status"`
	RunID                string              `json:"run_id"`
	Timestamp            string              `json:"timestamp"`
	IntegratedConfidence float64             `json:"integrated_confidence"`
	AnalysisConsistency  float64             `json:"analysis_consistency"`
	RecommendationScore  float64             `json:"recommendation_score"`
	ProcessingTime       float64             `json:"processing_time"`
	DeepConfResult       *reasoning.Output   `json:"deepconf_result,omitempty"`
	BehaviorResult       *behavior.Result    `json:"behavior_result,omitempty"`
	DeepConfError        string              `json:"deepconf_error,omitempty"`
	BehaviorError        string              `json:"behavior_error,omitempty"`
	ModelInfo            reasoning.ModelInfo `json:"model_info"`
}
