// internal/benchmark/writer_test.go
package benchmark

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hrbzhq/deepconf/internal/reasoning"
)

func testReport() *Report {
	results := []CaseResult{
		{
			TestID:               "test_001",
			Domain:               "education",
			Prompt:               "plan a learning path",
			Status:               StatusSuccess,
			IntegratedConfidence: 0.8123,
			AnalysisConsistency:  0.9,
			RecommendationScore:  0.85,
			DeepConfConfidence:   0.82,
			BehaviorPathsCount:   4,
			ExecutionTime:        1.5,
			ExpectedConfidence:   0.75,
			ConfidenceError:      0.0623,
		},
		{
			TestID:             "test_002",
			Domain:             "career",
			Prompt:             "assess a transition",
			Status:             StatusFailed,
			Error:              "both analysis sides failed: backend unreachable; unknown analysis source \"bogus\"",
			ExecutionTime:      0.25,
			ExpectedConfidence: 0.80,
		},
	}
	return &Report{
		GeneratedAt: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
		ModelInfo:   reasoning.ModelInfo{Backend: "local-ollama", Model: "qwen3:0.6b"},
		Results:     results,
		Summary:     Summarize(results),
	}
}

func TestWriteOutputs(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "benchmark_results")
	report := testReport()

	jsonPath, csvPath, err := WriteOutputs(report, dir)
	if err != nil {
		t.Fatalf("WriteOutputs: %v", err)
	}
	if filepath.Base(jsonPath) != "benchmark_results_20250314_093000.json" {
		t.Errorf("unexpected json file name %s", jsonPath)
	}
	if filepath.Base(csvPath) != "benchmark_summary_20250314_093000.csv" {
		t.Errorf("unexpected csv file name %s", csvPath)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("reading json output: %v", err)
	}
	var decoded Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json output does not parse: %v", err)
	}
	if len(decoded.Results) != 2 {
		t.Fatalf("expected 2 results in json, got %d", len(decoded.Results))
	}
	if decoded.Results[0].TestID != "test_001" || !almostEqual(decoded.Results[0].IntegratedConfidence, 0.8123) {
		t.Errorf("json result mismatch: %+v", decoded.Results[0])
	}
	if decoded.Summary.Passed != 1 || decoded.Summary.Total != 2 {
		t.Errorf("json summary passed/total = %d/%d", decoded.Summary.Passed, decoded.Summary.Total)
	}
	if decoded.ModelInfo.Model != "qwen3:0.6b" {
		t.Errorf("json model info %+v", decoded.ModelInfo)
	}
	if !strings.Contains(string(data), "\"test_id\": \"test_001\"") {
		t.Error("expected indented json output with test_id keys")
	}

	file, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("opening csv output: %v", err)
	}
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("csv output does not parse: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d records", len(records))
	}
	header := records[0]
	if header[0] != "test_id" || header[3] != "integrated_confidence" || header[11] != "error" {
		t.Errorf("unexpected csv header %v", header)
	}
	row := records[1]
	if row[0] != "test_001" || row[2] != StatusSuccess {
		t.Errorf("unexpected first csv row %v", row)
	}
	if row[3] != "0.8123" {
		t.Errorf("integrated confidence formatted as %q, want 0.8123", row[3])
	}
	if row[7] != "4" || row[8] != "1.50" {
		t.Errorf("paths/execution formatted as %q/%q", row[7], row[8])
	}
	failedRow := records[2]
	if failedRow[2] != StatusFailed || !strings.Contains(failedRow[11], "backend unreachable") {
		t.Errorf("unexpected failed csv row %v", failedRow)
	}
}

func TestWriteOutputsBadDirectory(t *testing.T) {
	t.Parallel()

	blocking := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(blocking, []byte("x"), 0o644); err != nil {
		t.Fatalf("writing blocking file: %v", err)
	}

	_, _, err := WriteOutputs(testReport(), blocking)
	if err == nil {
		t.Fatal("expected an error when the output directory is a file")
	}
	if !strings.Contains(err.Error(), "results directory") {
		t.Errorf("error %q does not mention the results directory", err)
	}
}
