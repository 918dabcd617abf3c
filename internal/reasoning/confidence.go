// internal/reasoning/confidence.go
package reasoning

import (
	"math"

	"github.com/hrbzhq/deepconf/internal/providers"
)

// NeutralConfidence is assumed for paths whose backend returned no token
// logprobs.
const NeutralConfidence = 0.5

// TokenConfidence converts a token log probability into a confidence value.
func TokenConfidence(logProb float64) float64 {
	confidence := math.Exp(logProb)
	if confidence > 1 {
		return 1
	}
	return confidence
}

// TokenConfidences maps streamed logprob tokens to confidence values.
func TokenConfidences(tokens []providers.TokenLogProb) []float64 {
	if len(tokens) == 0 {
		return nil
	}
	confidences := make([]float64, len(tokens))
	for i, token := range tokens {
		confidences[i] = TokenConfidence(token.LogProb)
	}
	return confidences
}

// GroupConfidences splits token confidences into consecutive windows of
// windowSize tokens and returns the mean confidence of each. A short final
// window is averaged as-is.
func GroupConfidences(tokenConfidences []float64, windowSize int) []float64 {
	if len(tokenConfidences) == 0 {
		return nil
	}
	if windowSize <= 0 {
		windowSize = 1
	}
	groups := make([]float64, 0, (len(tokenConfidences)+windowSize-1)/windowSize)
	for start := 0; start < len(tokenConfidences); start += windowSize {
		end := start + windowSize
		if end > len(tokenConfidences) {
			end = len(tokenConfidences)
		}
		groups = append(groups, mean(tokenConfidences[start:end]))
	}
	return groups
}

// PathConfidence is the lowest group confidence along a path. Paths without
// any groups get NeutralConfidence.
func PathConfidence(groupConfidences []float64) float64 {
	if len(groupConfidences) == 0 {
		return NeutralConfidence
	}
	lowest := groupConfidences[0]
	for _, g := range groupConfidences[1:] {
		if g < lowest {
			lowest = g
		}
	}
	return lowest
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// confidenceTracker incrementally folds streamed token confidences into group
// confidences so online mode can compare against the bar mid-stream.
type confidenceTracker struct {
	windowSize int
	window     []float64
	groups     []float64
	count      int
}

func newConfidenceTracker(windowSize int) *confidenceTracker {
	if windowSize <= 0 {
		windowSize = 1
	}
	return &confidenceTracker{windowSize: windowSize}
}

// Add folds one token confidence and reports whether a full window completed.
func (t *confidenceTracker) Add(confidence float64) bool {
	t.window = append(t.window, confidence)
	t.count++
	if len(t.window) < t.windowSize {
		return false
	}
	t.groups = append(t.groups, mean(t.window))
	t.window = t.window[:0]
	return true
}

// LowestCompleted returns the minimum confidence over completed windows.
func (t *confidenceTracker) LowestCompleted() (float64, bool) {
	if len(t.groups) == 0 {
		return 0, false
	}
	lowest := t.groups[0]
	for _, g := range t.groups[1:] {
		if g < lowest {
			lowest = g
		}
	}
	return lowest, true
}

// Groups returns all group confidences, flushing any partial final window.
func (t *confidenceTracker) Groups() []float64 {
	groups := make([]float64, len(t.groups), len(t.groups)+1)
	copy(groups, t.groups)
	if len(t.window) > 0 {
		groups = append(groups, mean(t.window))
	}
	return groups
}

// TokenCount reports how many token confidences have been folded in.
func (t *confidenceTracker) TokenCount() int {
	return t.count
}
