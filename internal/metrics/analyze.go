// internal/metrics/analyze.go
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// AnalyzeOptions captures the inputs for rendering the metrics summary.
type AnalyzeOptions struct {
	InputPath  string
	OutputPath string
}

// AnalyzeMetrics renders a Markdown summary of the recorded model metrics.
// The summary is written to OutputPath when set, otherwise to out.
func AnalyzeMetrics(opts AnalyzeOptions, out io.Writer) error {
	if opts.InputPath == "" {
		opts.InputPath = DefaultFilePath
	}

	models, err := loadModelMetrics(opts.InputPath)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		fmt.Fprintln(out, "No metrics recorded yet. Run a command with --metrics to collect them.")
		return nil
	}

	sort.Slice(models, func(i, j int) bool {
		return models[i].ModelName < models[j].ModelName
	})

	markdown := renderMetricsMarkdown(models)

	if opts.OutputPath != "" {
		dir := filepath.Dir(opts.OutputPath)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("unable to create directory for %s: %w", opts.OutputPath, err)
			}
		}
		if err := os.WriteFile(opts.OutputPath, []byte(markdown), 0o644); err != nil {
			return fmt.Errorf("unable to write metrics summary %s: %w", opts.OutputPath, err)
		}
		fmt.Fprintf(out, "Metrics summary written to %s\n", opts.OutputPath)
		return nil
	}

	fmt.Fprint(out, markdown)
	return nil
}

// loadModelMetrics reads the aggregator's snapshot file.
func loadModelMetrics(path string) ([]ModelMetrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no metrics file at %s; run a command with --metrics to collect them", path)
		}
		return nil, fmt.Errorf("unable to read metrics file %s: %w", path, err)
	}

	var models []ModelMetrics
	if err := json.Unmarshal(data, &models); err != nil {
		return nil, fmt.Errorf("unable to parse metrics file %s: %w", path, err)
	}
	return models, nil
}

// renderMetricsMarkdown builds the per-model Markdown summary.
func renderMetricsMarkdown(models []ModelMetrics) string {
	var b strings.Builder

	b.WriteString("# Model Performance Metrics\n\n")
	fmt.Fprintf(&b, "Generated: %s\n", time.Now().UTC().Format(time.RFC3339))

	for _, m := range models {
		fmt.Fprintf(&b, "\n## %s\n\n", m.ModelName)
		if !m.LastUpdatedUTC.IsZero() {
			fmt.Fprintf(&b, "Last updated: %s\n\n", m.LastUpdatedUTC.Format(time.RFC3339))
		}

		fmt.Fprintf(&b, "### Requests (%d total)\n\n", m.OverallStats.TotalRequests)
		b.WriteString("| Metric | Mean | Min | Max |\n")
		b.WriteString("|--------|------|-----|-----|\n")
		writeStatRow(&b, "TTFT (ms)", m.OverallStats.TTFTMillis)
		writeStatRow(&b, "Tokens/sec", m.OverallStats.TokensPerSecond)
		writeStatRow(&b, "Input tokens", m.OverallStats.InputTokens)
		writeStatRow(&b, "Output tokens", m.OverallStats.OutputTokens)
		writeStatRow(&b, "Total duration (ms)", m.OverallStats.TotalDurationMillis)

		if m.AnalysisStats.TotalAnalyses > 0 {
			fmt.Fprintf(&b, "\n### Analyses (%d total)\n\n", m.AnalysisStats.TotalAnalyses)
			b.WriteString("| Metric | Mean | Min | Max |\n")
			b.WriteString("|--------|------|-----|-----|\n")
			writeStatRow(&b, "Integrated confidence", m.AnalysisStats.IntegratedConfidence)
			writeStatRow(&b, "Analysis consistency", m.AnalysisStats.AnalysisConsistency)
		}

		if len(m.PerformanceBuckets) > 0 {
			b.WriteString("\n### Input token buckets\n\n")
			b.WriteString("| Bucket | Requests | Mean TTFT (ms) | Mean tokens/sec |\n")
			b.WriteString("|--------|----------|----------------|------------------|\n")
			for _, bucket := range m.PerformanceBuckets {
				fmt.Fprintf(&b, "| %s | %d | %.2f | %.2f |\n",
					bucket.Bucket,
					bucket.Stats.TotalRequests,
					bucket.Stats.TTFTMillis.Mean,
					bucket.Stats.TokensPerSecond.Mean,
				)
			}
		}
	}

	return b.String()
}

func writeStatRow(b *strings.Builder, label string, stat RunningStat) {
	fmt.Fprintf(b, "| %s | %.2f | %.2f | %.2f |\n", label, stat.Mean, stat.Min, stat.Max)
}
