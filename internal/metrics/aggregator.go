// internal/metrics/aggregator.go
package metrics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hrbzhq/deepconf/internal/logging"
	"github.com/hrbzhq/deepconf/internal/providers"
)

// DefaultFilePath is where the singleton aggregator persists its snapshots.
const DefaultFilePath = "deepconfData/metrics/metrics.json"

// Aggregator collects and manages performance metrics for models.
type Aggregator struct {
	mutex    sync.Mutex
	metrics  map[string]*ModelMetrics
	filePath string
	ticker   *time.Ticker
}

var (
	instance *Aggregator
	once     sync.Once
)

// GetInstance returns the singleton instance of the Aggregator.
func GetInstance() *Aggregator {
	once.Do(func() {
		instance = NewAggregator(DefaultFilePath)
	})
	return instance
}

// NewAggregator creates an Aggregator persisting to the given path.
func NewAggregator(filePath string) *Aggregator {
	agg := &Aggregator{
		metrics:  make(map[string]*ModelMetrics),
		filePath: filePath,
	}

	agg.load()

	agg.ticker = time.NewTicker(1 * time.Minute)
	go func() {
		for range agg.ticker.C {
			agg.save()
		}
	}()

	return agg
}

// load reads metrics from the JSON file into memory.
func (a *Aggregator) load() {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	data, err := os.ReadFile(a.filePath)
	if err != nil {
		return
	}

	var metricsSlice []*ModelMetrics
	if err := json.Unmarshal(data, &metricsSlice); err != nil {
		return
	}

	for _, m := range metricsSlice {
		a.metrics[m.ModelName] = m
	}
}

// save writes the current metrics from memory to the JSON file.
func (a *Aggregator) save() {
	logging.LogEvent("[METRICS] Saving metrics to %s", a.filePath)
	a.mutex.Lock()
	defer a.mutex.Unlock()

	var metricsSlice []*ModelMetrics
	for _, m := range a.metrics {
		metricsSlice = append(metricsSlice, m)
	}

	data, err := json.MarshalIndent(metricsSlice, "", "  ")
	if err != nil {
		return
	}

	if dir := filepath.Dir(a.filePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return
		}
	}
	os.WriteFile(a.filePath, data, 0o644)
}

// Record updates the request metrics for a given model with new stream metadata.
func (a *Aggregator) Record(meta providers.StreamMetadata, ttft int64) {
	logging.LogEvent("[METRICS] Record called for model %s", meta.Model)
	a.mutex.Lock()
	defer a.mutex.Unlock()

	modelMetrics := a.modelLocked(meta.Model)
	modelMetrics.LastUpdatedUTC = time.Now().UTC()

	updateStats(&modelMetrics.OverallStats, meta, ttft)

	bucket := getBucket(meta.PromptEvalCount)
	found := false
	for i := range modelMetrics.PerformanceBuckets {
		if modelMetrics.PerformanceBuckets[i].Dimension == "input_tokens" && modelMetrics.PerformanceBuckets[i].Bucket == bucket {
			updateStats(&modelMetrics.PerformanceBuckets[i].Stats, meta, ttft)
			found = true
			break
		}
	}
	if !found {
		newBucket := PerformanceBucket{
			Dimension: "input_tokens",
			Bucket:    bucket,
			Stats:     RunningAggregatedStats{},
		}
		updateStats(&newBucket.Stats, meta, ttft)
		modelMetrics.PerformanceBuckets = append(modelMetrics.PerformanceBuckets, newBucket)
	}
}

// RecordAnalysis folds the scores of a completed integrated analysis into the
// model's analysis stats.
func (a *Aggregator) RecordAnalysis(model string, integratedConfidence, analysisConsistency float64) {
	logging.LogEvent("[METRICS] RecordAnalysis called for model %s", model)
	a.mutex.Lock()
	defer a.mutex.Unlock()

	modelMetrics := a.modelLocked(model)
	modelMetrics.LastUpdatedUTC = time.Now().UTC()
	modelMetrics.AnalysisStats.TotalAnalyses++
	modelMetrics.AnalysisStats.IntegratedConfidence.Add(integratedConfidence)
	modelMetrics.AnalysisStats.AnalysisConsistency.Add(analysisConsistency)
}

// modelLocked returns the metrics document for a model, creating it when
// missing. Callers must hold the mutex.
func (a *Aggregator) modelLocked(model string) *ModelMetrics {
	modelMetrics, exists := a.metrics[model]
	if !exists {
		modelMetrics = &ModelMetrics{ModelName: model}
		a.metrics[model] = modelMetrics
	}
	return modelMetrics
}

// updateStats updates the running statistics with new metadata.
func updateStats(stats *RunningAggregatedStats, meta providers.StreamMetadata, ttft int64) {
	stats.TotalRequests++
	stats.TTFTMillis.Add(float64(ttft))

	var tokensPerSecond float64
	if meta.EvalDuration > 0 {
		tokensPerSecond = float64(meta.EvalCount) / (float64(meta.EvalDuration) / 1e9)
	}
	stats.TokensPerSecond.Add(tokensPerSecond)

	stats.InputTokens.Add(float64(meta.PromptEvalCount))
	stats.OutputTokens.Add(float64(meta.EvalCount))
	stats.TotalDurationMillis.Add(float64(meta.TotalDuration / 1e6))
}

// getBucket determines the appropriate performance bucket for a given number of input tokens.
func getBucket(inputTokens int) string {
	switch {
	case inputTokens <= 256:
		return "0-256"
	case inputTokens <= 1024:
		return "257-1024"
	case inputTokens <= 4096:
		return "1025-4096"
	case inputTokens <= 8192:
		return "4097-8192"
	default:
		return "8192+"
	}
}

// Snapshot returns a copy of the current per-model metrics.
func (a *Aggregator) Snapshot() []ModelMetrics {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	snapshot := make([]ModelMetrics, 0, len(a.metrics))
	for _, m := range a.metrics {
		snapshot = append(snapshot, *m)
	}
	return snapshot
}

// Close stops the ticker and saves the metrics.
func (a *Aggregator) Close() {
	a.ticker.Stop()
	a.save()
}

// Close gracefully shuts down the singleton aggregator instance.
func Close() {
	if instance != nil {
		instance.Close()
	}
}
