// internal/reasoning/types.go
package reasoning

// ModelInfo identifies the backend host and model that produced a result.
type ModelInfo struct {
	Backend string `json:"backend"`
	Model   string `json:"model"`
}

// Path captures one sampled reasoning trajectory.
type Path struct {
	ID               int       `json:"id"`
	Text             string    `json:"text"`
	Answer           string    `json:"answer"`
	Confidence       float64   `json:"confidence"`
	GroupConfidences []float64 `json:"group_confidences,omitempty"`
	TokenCount       int       `json:"token_count"`
	Abandoned        bool      `json:"abandoned,omitempty"`
}

// Output is the aggregate result of a multi-path reasoning run.
type Output struct {
	FinalAnswer       string    `json:"final_answer"`
	AllPaths          []Path    `json:"all_paths"`
	KeptPaths         []int     `json:"kept_paths"`
	KeptConfidences   []float64 `json:"kept_confidences"`
	AverageConfidence float64   `json:"average_confidence"`
	ModelInfo         ModelInfo `json:"model_info"`
}
