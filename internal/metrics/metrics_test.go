// internal/metrics/metrics_test.go
package metrics

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hrbzhq/deepconf/internal/appconfig"
	"github.com/hrbzhq/deepconf/internal/providers"
)

func TestRunningStatWelford(t *testing.T) {
	t.Parallel()

	var rs RunningStat
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	for _, v := range values {
		rs.Add(v)
	}

	if rs.Count != int64(len(values)) {
		t.Fatalf("count = %d, want %d", rs.Count, len(values))
	}
	if rs.Mean != 5 {
		t.Fatalf("mean = %v, want 5", rs.Mean)
	}
	if rs.Min != 2 || rs.Max != 9 {
		t.Fatalf("min/max = %v/%v, want 2/9", rs.Min, rs.Max)
	}
	// Sample stddev of the series is sqrt(32/7).
	want := math.Sqrt(32.0 / 7.0)
	if got := rs.StdDev(); math.Abs(got-want) > 1e-9 {
		t.Fatalf("stddev = %v, want %v", got, want)
	}
}

func TestRunningStatStdDevNeedsTwoSamples(t *testing.T) {
	t.Parallel()

	var rs RunningStat
	if got := rs.StdDev(); got != 0 {
		t.Fatalf("empty stddev = %v, want 0", got)
	}
	rs.Add(3.5)
	if got := rs.StdDev(); got != 0 {
		t.Fatalf("single-sample stddev = %v, want 0", got)
	}
}

func TestAggregatorRecordAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics", "metrics.json")
	agg := NewAggregator(path)
	defer agg.Close()

	agg.Record(providers.StreamMetadata{
		Model:           "qwen3:0.6b",
		PromptEvalCount: 12,
		EvalCount:       40,
		EvalDuration:    2e9,
		TotalDuration:   3e9,
	}, 150)
	agg.RecordAnalysis("qwen3:0.6b", 0.82, 0.91)

	agg.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved metrics: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, `"model_name": "qwen3:0.6b"`) {
		t.Fatalf("saved metrics missing model name: %s", content)
	}
	if !strings.Contains(content, `"total_requests": 1`) {
		t.Fatalf("saved metrics missing request count: %s", content)
	}
	if !strings.Contains(content, `"total_analyses": 1`) {
		t.Fatalf("saved metrics missing analysis count: %s", content)
	}

	reloaded := NewAggregator(path)
	defer reloaded.Close()
	snapshot := reloaded.Snapshot()
	if len(snapshot) != 1 || snapshot[0].ModelName != "qwen3:0.6b" {
		t.Fatalf("unexpected reloaded snapshot: %+v", snapshot)
	}
	if snapshot[0].AnalysisStats.IntegratedConfidence.Mean != 0.82 {
		t.Fatalf("unexpected reloaded analysis mean: %v", snapshot[0].AnalysisStats.IntegratedConfidence.Mean)
	}
}

func TestAggregatorBuckets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	agg := NewAggregator(path)
	defer agg.Close()

	agg.Record(providers.StreamMetadata{Model: "m", PromptEvalCount: 100}, 10)
	agg.Record(providers.StreamMetadata{Model: "m", PromptEvalCount: 200}, 20)
	agg.Record(providers.StreamMetadata{Model: "m", PromptEvalCount: 5000}, 30)

	snapshot := agg.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("expected one model, got %d", len(snapshot))
	}
	buckets := snapshot[0].PerformanceBuckets
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %+v", buckets)
	}
	byName := map[string]PerformanceBucket{}
	for _, b := range buckets {
		byName[b.Bucket] = b
	}
	if byName["0-256"].Stats.TotalRequests != 2 {
		t.Fatalf("unexpected 0-256 bucket: %+v", byName["0-256"])
	}
	if byName["4097-8192"].Stats.TotalRequests != 1 {
		t.Fatalf("unexpected 4097-8192 bucket: %+v", byName["4097-8192"])
	}
}

func TestGetBucket(t *testing.T) {
	t.Parallel()

	cases := []struct {
		tokens int
		want   string
	}{
		{0, "0-256"},
		{256, "0-256"},
		{257, "257-1024"},
		{1024, "257-1024"},
		{4096, "1025-4096"},
		{8192, "4097-8192"},
		{8193, "8192+"},
	}
	for _, tc := range cases {
		if got := getBucket(tc.tokens); got != tc.want {
			t.Errorf("getBucket(%d) = %q, want %q", tc.tokens, got, tc.want)
		}
	}
}

// stubProvider records the callbacks it was handed and emits a fixed stream.
type stubProvider struct {
	streamErr error
}

func (s *stubProvider) LoadedModels(ctx context.Context, host appconfig.Host) ([]string, error) {
	return []string{"stub"}, nil
}

func (s *stubProvider) EnsureModelReady(ctx context.Context, host appconfig.Host, model string) error {
	return nil
}

func (s *stubProvider) Stream(ctx context.Context, req providers.StreamRequest, callbacks providers.StreamCallbacks) error {
	if s.streamErr != nil {
		return s.streamErr
	}
	if callbacks.OnChunk != nil {
		if err := callbacks.OnChunk(providers.Chunk{Role: "assistant", Content: "hello"}); err != nil {
			return err
		}
	}
	if callbacks.OnComplete != nil {
		return callbacks.OnComplete(providers.StreamMetadata{Model: req.Model, Done: true, EvalCount: 2})
	}
	return nil
}

func (s *stubProvider) Close() error { return nil }

func TestMetricsProviderRecordsAndForwards(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	agg := NewAggregator(path)
	defer agg.Close()

	wrapped := NewProvider(&stubProvider{}, agg)

	var sawContent string
	var sawMeta providers.StreamMetadata
	err := wrapped.Stream(context.Background(), providers.StreamRequest{Model: "m"}, providers.StreamCallbacks{
		OnChunk: func(chunk providers.Chunk) error {
			sawContent = chunk.Content
			return nil
		},
		OnComplete: func(meta providers.StreamMetadata) error {
			sawMeta = meta
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Stream returned error: %v", err)
	}
	if sawContent != "hello" || sawMeta.Model != "m" {
		t.Fatalf("callbacks not forwarded: content=%q meta=%+v", sawContent, sawMeta)
	}

	snapshot := agg.Snapshot()
	if len(snapshot) != 1 || snapshot[0].OverallStats.TotalRequests != 1 {
		t.Fatalf("expected one recorded request, got %+v", snapshot)
	}
}

func TestAnalyzeMetricsRendersMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	agg := NewAggregator(path)
	agg.Record(providers.StreamMetadata{Model: "qwen3:0.6b", PromptEvalCount: 10, EvalCount: 20, EvalDuration: 1e9, TotalDuration: 2e9}, 50)
	agg.RecordAnalysis("qwen3:0.6b", 0.75, 0.9)
	agg.Close()

	var out strings.Builder
	if err := AnalyzeMetrics(AnalyzeOptions{InputPath: path}, &out); err != nil {
		t.Fatalf("AnalyzeMetrics returned error: %v", err)
	}

	rendered := out.String()
	for _, want := range []string{
		"# Model Performance Metrics",
		"## qwen3:0.6b",
		"### Requests (1 total)",
		"### Analyses (1 total)",
		"Integrated confidence",
		"### Input token buckets",
	} {
		if !strings.Contains(rendered, want) {
			t.Errorf("summary missing %q:\n%s", want, rendered)
		}
	}
}

func TestAnalyzeMetricsMissingFile(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	err := AnalyzeMetrics(AnalyzeOptions{InputPath: filepath.Join(t.TempDir(), "absent.json")}, &out)
	if err == nil {
		t.Fatal("expected error for missing metrics file")
	}
	if !strings.Contains(err.Error(), "--metrics") {
		t.Fatalf("error should point at --metrics, got: %v", err)
	}
}

func TestAnalyzeMetricsWritesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metrics.json")
	agg := NewAggregator(path)
	agg.Record(providers.StreamMetadata{Model: "m"}, 1)
	agg.Close()

	outPath := filepath.Join(dir, "reports", "summary.md")
	var out strings.Builder
	if err := AnalyzeMetrics(AnalyzeOptions{InputPath: path, OutputPath: outPath}, &out); err != nil {
		t.Fatalf("AnalyzeMetrics returned error: %v", err)
	}
	if !strings.Contains(out.String(), outPath) {
		t.Fatalf("expected confirmation with path, got %q", out.String())
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if !strings.Contains(string(data), "# Model Performance Metrics") {
		t.Fatalf("unexpected summary contents: %s", data)
	}
}
