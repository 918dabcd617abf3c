// internal/reasoning/vote.go
package reasoning

import (
	"regexp"
	"strings"
)

var thinkBlockRe = regexp.MustCompile(`(?s)<think>.*?</think>`)

// answerMarkers are searched last-to-first so a closing statement wins over
// restatements earlier in the path.
var answerMarkers = []string{"final answer:", "final answer is", "the answer is", "answer:"}

// NormalizeAnswer reduces a raw model response to a canonical answer string so
// equivalent answers vote together.
func NormalizeAnswer(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}

	// Strip any <think> blocks but keep surrounding content. An unclosed block
	// runs to the end of the response.
	trimmed = thinkBlockRe.ReplaceAllString(trimmed, "")
	if idx := strings.Index(trimmed, "<think>"); idx >= 0 {
		trimmed = trimmed[:idx]
	}

	lowered := strings.ToLower(strings.Join(strings.Fields(trimmed), " "))
	lowered = textAfterLastMarker(lowered)
	lowered = strings.Join(strings.Fields(lowered), " ")
	lowered = strings.Trim(lowered, " \t\"'`.,;:!?()[]{}<>")
	return strings.TrimSpace(lowered)
}

// textAfterLastMarker returns the text following the last answer marker, or
// the input unchanged when no marker is present.
func textAfterLastMarker(text string) string {
	cut := -1
	for _, marker := range answerMarkers {
		if idx := strings.LastIndex(text, marker); idx >= 0 {
			if end := idx + len(marker); end > cut {
				cut = end
			}
		}
	}
	if cut < 0 {
		return text
	}
	return text[cut:]
}

// WeightedVote groups paths by normalized answer, weights each group by the
// sum of its members' confidences, and returns the highest-confidence path of
// the winning group. Ties go to the group holding the single most confident
// path.
func WeightedVote(paths []Path) (Path, bool) {
	if len(paths) == 0 {
		return Path{}, false
	}

	type voteGroup struct {
		weight float64
		best   int
	}
	groups := make(map[string]*voteGroup)
	var order []string
	for i, p := range paths {
		g, ok := groups[p.Answer]
		if !ok {
			g = &voteGroup{best: i}
			groups[p.Answer] = g
			order = append(order, p.Answer)
		}
		g.weight += p.Confidence
		if p.Confidence > paths[g.best].Confidence {
			g.best = i
		}
	}

	var winner *voteGroup
	for _, answer := range order {
		g := groups[answer]
		if winner == nil || g.weight > winner.weight {
			winner = g
			continue
		}
		if g.weight == winner.weight && paths[g.best].Confidence > paths[winner.best].Confidence {
			winner = g
		}
	}
	return paths[winner.best], true
}
