// internal/providers/logprobs.go
package providers

import "encoding/json"

// ParseLogProbs decodes the token logprob payloads local model servers emit.
// Three wire shapes are handled:
//   - a bare array of {token, logprob} objects (Ollama),
//   - an object with a "content" array of the same (OpenAI chat completions),
//   - parallel "tokens" / "token_logprobs" arrays (legacy completions APIs).
//
// Unknown or empty payloads decode to nil.
func ParseLogProbs(raw json.RawMessage) []TokenLogProb {
	if len(raw) == 0 {
		return nil
	}

	var direct []TokenLogProb
	if err := json.Unmarshal(raw, &direct); err == nil && len(direct) > 0 {
		return direct
	}

	var wrapped struct {
		Content []TokenLogProb `json:"content"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Content) > 0 {
		return wrapped.Content
	}

	var parallel struct {
		Tokens        []string  `json:"tokens"`
		TokenLogProbs []float64 `json:"token_logprobs"`
	}
	if err := json.Unmarshal(raw, &parallel); err == nil && len(parallel.TokenLogProbs) > 0 {
		out := make([]TokenLogProb, len(parallel.TokenLogProbs))
		for i, lp := range parallel.TokenLogProbs {
			tok := ""
			if i < len(parallel.Tokens) {
				tok = parallel.Tokens[i]
			}
			out[i] = TokenLogProb{Token: tok, LogProb: lp}
		}
		return out
	}

	return nil
}
