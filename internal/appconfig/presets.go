// internal/appconfig/presets.go
package appconfig

import "strings"

// PresetName identifies a sampling preset for reasoning paths.
type PresetName string

const (
	PresetReasoning     PresetName = "reasoning"
	PresetDeterministic PresetName = "deterministic"
	PresetExploratory   PresetName = "exploratory"
)

// ParamsForPreset selects a sampling preset by name.
// Behavior:
//   - empty string => reasoning (default)
//   - unknown string => reasoning (default)
func ParamsForPreset(name string) Parameters {
	n := normalizePresetName(name)

	switch PresetName(n) {
	case PresetDeterministic:
		return DefaultDeterministicParams()
	case PresetExploratory:
		return DefaultExploratoryParams()
	case PresetReasoning:
		fallthrough
	default:
		return DefaultReasoningParams()
	}
}

// DefaultReasoningParams is the default preset for multi-path sampling:
// enough temperature to diversify paths without derailing small models.
func DefaultReasoningParams() Parameters {
	return Parameters{
		Temperature: ptrFloat(0.7),
		TopP:        ptrFloat(0.95),
		TopK:        ptrInt(20),
		MaxTokens:   ptrInt(1024),
	}
}

// DefaultDeterministicParams is tuned for reproducible single-path runs and
// debugging; path diversity collapses, so confidence spread is minimal.
func DefaultDeterministicParams() Parameters {
	return Parameters{
		Temperature: ptrFloat(0.1),
		TopP:        ptrFloat(0.95),
		Seed:        ptrInt(42),
		MaxTokens:   ptrInt(512),
	}
}

// DefaultExploratoryParams widens the sampling distribution for maximum path
// diversity (at the cost of more low-confidence paths being filtered out).
func DefaultExploratoryParams() Parameters {
	return Parameters{
		Temperature:   ptrFloat(1.2),
		TopP:          ptrFloat(1.0),
		RepeatPenalty: ptrFloat(1.05),
		MaxTokens:     ptrInt(2048),
	}
}

// MergeParams overlays non-nil fields of override onto base.
func MergeParams(base Parameters, override Parameters) Parameters {
	if override.Temperature != nil {
		base.Temperature = override.Temperature
	}
	if override.TopP != nil {
		base.TopP = override.TopP
	}
	if override.TopK != nil {
		base.TopK = override.TopK
	}
	if override.RepeatPenalty != nil {
		base.RepeatPenalty = override.RepeatPenalty
	}
	if override.Seed != nil {
		base.Seed = override.Seed
	}
	if override.NumCtx != nil {
		base.NumCtx = override.NumCtx
	}
	if override.MaxTokens != nil {
		base.MaxTokens = override.MaxTokens
	}

	return base
}

func normalizePresetName(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	// allow a few friendly aliases
	switch s {
	case "", "default", "reason", "paths":
		return string(PresetReasoning)
	case "det", "deterministic", "repro", "reproducible":
		return string(PresetDeterministic)
	case "explore", "exploratory", "diverse", "creative":
		return string(PresetExploratory)
	default:
		return s
	}
}

func ptrInt(v int) *int           { return &v }
func ptrFloat(v float64) *float64 { return &v }
