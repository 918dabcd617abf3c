// internal/history/history.go
// Package history appends per-model run records to JSONL files under the
// data directory, one file per model slug.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hrbzhq/deepconf/internal/integrated"
	"github.com/hrbzhq/deepconf/internal/reasoning"
	"github.com/hrbzhq/deepconf/internal/util"
)

// Run kinds recorded in history files.
const (
	KindReasoning  = "reasoning"
	KindIntegrated = "integrated"
)

// Record is one JSONL line in a model's run history. Reasoning and
// integrated runs share the schema; fields the run kind does not produce
// are omitted.
type Record struct {
	Timestamp            string  `json:"timestamp"`
	Kind                 string  `json:"kind"`
	RunID                string  `json:"run_id,omitempty"`
	Backend              string  `json:"backend"`
	Model                string  `json:"model"`
	Prompt               string  `json:"prompt,omitempty"`
	FinalAnswer          string  `json:"final_answer,omitempty"`
	AverageConfidence    float64 `json:"average_confidence,omitempty"`
	PathCount            int     `json:"path_count,omitempty"`
	KeptPathCount        int     `json:"kept_path_count,omitempty"`
	IntegratedConfidence float64 `json:"integrated_confidence,omitempty"`
	AnalysisConsistency  float64 `json:"analysis_consistency,omitempty"`
	RecommendationScore  float64 `json:"recommendation_score,omitempty"`
	Status               string  `json:"status,omitempty"`
	ProcessingTime       float64 `json:"processing_time,omitempty"`
}

// Store appends run records under <dataDir>/runs.
type Store struct {
	dir string
}

func NewStore(dataDir string) *Store {
	return &Store{dir: filepath.Join(dataDir, "runs")}
}

// Append writes one record to the model's JSONL file, creating the runs
// directory and the file as needed.
func (s *Store) Append(record Record) error {
	if record.Model == "" {
		return fmt.Errorf("history record has no model")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("error creating history directory: %w", err)
	}
	path := filepath.Join(s.dir, fmt.Sprintf("%s.jsonl", util.Slugify(record.Model)))

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("error opening history file: %w", err)
	}
	defer file.Close()

	if err := json.NewEncoder(file).Encode(record); err != nil {
		return fmt.Errorf("error writing history record: %w", err)
	}
	return nil
}

// ReasoningRecord builds a history record from a reasoning run.
func ReasoningRecord(out *reasoning.Output, prompt string, elapsed time.Duration) Record {
	return Record{
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
		Kind:              KindReasoning,
		Backend:           out.ModelInfo.Backend,
		Model:             out.ModelInfo.Model,
		Prompt:            prompt,
		FinalAnswer:       out.FinalAnswer,
		AverageConfidence: out.AverageConfidence,
		PathCount:         len(out.AllPaths),
		KeptPathCount:     len(out.KeptPaths),
		ProcessingTime:    elapsed.Seconds(),
	}
}

// IntegratedRecord builds a history record from an integrated analysis.
func IntegratedRecord(res *integrated.Result, prompt string) Record {
	record := Record{
		Timestamp:            res.Timestamp,
		Kind:                 KindIntegrated,
		RunID:                res.RunID,
		Backend:              res.ModelInfo.Backend,
		Model:                res.ModelInfo.Model,
		Prompt:               prompt,
		IntegratedConfidence: res.IntegratedConfidence,
		AnalysisConsistency:  res.AnalysisConsistency,
		RecommendationScore:  res.RecommendationScore,
		Status:               res.Status,
		ProcessingTime:       res.ProcessingTime,
	}
	if res.DeepConfResult != nil {
		record.FinalAnswer = res.DeepConfResult.FinalAnswer
		record.AverageConfidence = res.DeepConfResult.AverageConfidence
		record.PathCount = len(res.DeepConfResult.AllPaths)
		record.KeptPathCount = len(res.DeepConfResult.KeptPaths)
	}
	return record
}
