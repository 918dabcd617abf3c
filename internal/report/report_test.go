// internal/report/report_test.go
package report

import (
	"strings"
	"testing"
	"time"

	"github.com/hrbzhq/deepconf/internal/behavior"
	"github.com/hrbzhq/deepconf/internal/benchmark"
	"github.com/hrbzhq/deepconf/internal/integrated"
	"github.com/hrbzhq/deepconf/internal/reasoning"
)

func mustContain(t *testing.T, doc string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(doc, want) {
			t.Errorf("report missing %q\n%s", want, doc)
		}
	}
}

func TestBehaviorReport(t *testing.T) {
	t.Parallel()

	result := &behavior.Result{
		Status: behavior.StatusCompleted,
		Paths: []behavior.Step{
			{Stage: 1, Source: "text", Signal: "goals", Confidence: 0.75},
			{Stage: 2, Source: "profile", Signal: "name", Confidence: 0.8},
		},
		ConfidenceScore: 0.775,
		Sources:         []string{"text", "profile"},
	}

	doc, err := Behavior(result)
	if err != nil {
		t.Fatalf("Behavior: %v", err)
	}
	mustContain(t, doc,
		"# Behavioral Trajectory Analysis Report",
		"## Analysis Overview",
		"- Analysis Status: completed",
		"- Path Count: 2",
		"- Average Confidence: 0.775",
		"## Detailed Results",
		`"confidence_score": 0.775`,
	)
}

func TestIntegratedReport(t *testing.T) {
	t.Parallel()

	result := &integrated.Result{
		Status:               integrated.StatusSuccess,
		RunID:                "run-123",
		IntegratedConfidence: 0.74,
		AnalysisConsistency:  0.8,
		RecommendationScore:  0.76,
		DeepConfResult: &reasoning.Output{
			FinalAnswer:       "a staged plan",
			AllPaths:          make([]reasoning.Path, 4),
			KeptPaths:         []int{0, 1, 3},
			AverageConfidence: 0.82,
		},
		BehaviorResult: &behavior.Result{
			Status:          behavior.StatusCompleted,
			Paths:           []behavior.Step{{Stage: 1}},
			ConfidenceScore: 0.66,
		},
		ModelInfo: reasoning.ModelInfo{Backend: "local-ollama", Model: "qwen3:0.6b"},
	}

	doc, err := Integrated(result)
	if err != nil {
		t.Fatalf("Integrated: %v", err)
	}
	mustContain(t, doc,
		"# Integrated Analysis Report",
		"- Analysis Status: success",
		"- Integrated Confidence: 0.740",
		"- Analysis Consistency: 0.800",
		"- Recommendation Score: 0.760",
		"## Reasoning Side",
		"- Final Answer: a staged plan",
		"- Kept Paths: 3 of 4",
		"## Behavioral Side",
		"- Trajectory Steps: 1",
		"- Confidence Score: 0.660",
		`"run_id": "run-123"`,
	)
}

func TestIntegratedReportShowsFailedSide(t *testing.T) {
	t.Parallel()

	result := &integrated.Result{
		Status:               integrated.StatusSuccess,
		IntegratedConfidence: 0.59,
		AnalysisConsistency:  0.84,
		RecommendationScore:  0.59,
		DeepConfError:        "backend unreachable",
		BehaviorResult: &behavior.Result{
			Status:          behavior.StatusCompleted,
			Paths:           []behavior.Step{{Stage: 1}, {Stage: 2}},
			ConfidenceScore: 0.66,
		},
	}

	doc, err := Integrated(result)
	if err != nil {
		t.Fatalf("Integrated: %v", err)
	}
	mustContain(t, doc, "- Failed: backend unreachable", "- Trajectory Steps: 2")
	if strings.Contains(doc, "- Final Answer:") {
		t.Error("reasoning fields rendered for a failed side")
	}
}

func TestBenchmarkReport(t *testing.T) {
	t.Parallel()

	results := []benchmark.CaseResult{
		{
			TestID:               "test_001",
			Domain:               "education",
			Status:               benchmark.StatusSuccess,
			IntegratedConfidence: 0.8123,
			AnalysisConsistency:  0.9,
			ExecutionTime:        1.5,
			ExpectedConfidence:   0.75,
			ConfidenceError:      0.0623,
		},
		{
			TestID:             "test_002",
			Domain:             "career",
			Status:             benchmark.StatusFailed,
			Error:              "backend unreachable",
			ExecutionTime:      0.25,
			ExpectedConfidence: 0.80,
		},
	}
	rep := &benchmark.Report{
		GeneratedAt: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
		ModelInfo:   reasoning.ModelInfo{Backend: "local-ollama", Model: "qwen3:0.6b"},
		Results:     results,
		Summary:     benchmark.Summarize(results),
	}

	doc, err := Benchmark(rep)
	if err != nil {
		t.Fatalf("Benchmark: %v", err)
	}
	mustContain(t, doc,
		"# Benchmark Report",
		"- Backend: local-ollama (qwen3:0.6b)",
		"- Cases Passed: 1/2",
		"- Integrated Confidence: 0.812 ± 0.000",
		"- Execution Time: 1.500s ± 0.000s",
		"- Mean Confidence Error: 0.062",
		"| education | 0.812 |",
		"| test_001 | education | success | 0.812 | 0.750 | 0.062 | 1.50s |",
		"| test_002 | career | failed | - | 0.800 | - | 0.25s |",
		"## Failures",
		"- test_002: backend unreachable",
	)
	if strings.Contains(doc, "| career |") && strings.Index(doc, "| career |") < strings.Index(doc, "## Case Results") {
		t.Error("failed domain should not appear in domain averages")
	}
}
