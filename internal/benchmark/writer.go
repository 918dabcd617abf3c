// internal/benchmark/writer.go
package benchmark

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hrbzhq/deepconf/internal/logging"
)

const timestampLayout = "20060102_150405"

// WriteOutputs persists the report under dir as a timestamped JSON document
// plus a per-case CSV summary, and returns both paths.
func WriteOutputs(report *Report, dir string) (jsonPath, csvPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("error creating results directory: %w", err)
	}

	stamp := report.GeneratedAt.Format(timestampLayout)
	jsonPath = filepath.Join(dir, fmt.Sprintf("benchmark_results_%s.json", stamp))
	csvPath = filepath.Join(dir, fmt.Sprintf("benchmark_summary_%s.csv", stamp))

	if err := writeJSON(report, jsonPath); err != nil {
		return "", "", err
	}
	if err := writeCSV(report.Results, csvPath); err != nil {
		return "", "", err
	}

	logging.LogEvent("benchmark: results written to %s and %s", jsonPath, csvPath)
	return jsonPath, csvPath, nil
}

// WriteReport writes an already rendered Markdown report next to the JSON and
// CSV outputs, using the same timestamp naming.
func WriteReport(report *Report, markdown, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating results directory: %w", err)
	}

	stamp := report.GeneratedAt.Format(timestampLayout)
	path := filepath.Join(dir, fmt.Sprintf("benchmark_report_%s.md", stamp))
	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		return "", fmt.Errorf("error writing report file: %w", err)
	}
	return path, nil
}

func writeJSON(report *Report, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating result file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("error writing results to file: %w", err)
	}
	return nil
}

func writeCSV(results []CaseResult, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating summary file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := []string{
		"test_id", "domain", "status",
		"integrated_confidence", "analysis_consistency", "recommendation_score",
		"deepconf_confidence", "behavior_paths_count", "execution_time",
		"expected_confidence", "confidence_error", "error",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("error writing summary header: %w", err)
	}
	for _, r := range results {
		row := []string{
			r.TestID, r.Domain, r.Status,
			formatScore(r.IntegratedConfidence),
			formatScore(r.AnalysisConsistency),
			formatScore(r.RecommendationScore),
			formatScore(r.DeepConfConfidence),
			strconv.Itoa(r.BehaviorPathsCount),
			strconv.FormatFloat(r.ExecutionTime, 'f', 2, 64),
			formatScore(r.ExpectedConfidence),
			formatScore(r.ConfidenceError),
			r.Error,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("error writing summary row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("error flushing summary file: %w", err)
	}
	return nil
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
