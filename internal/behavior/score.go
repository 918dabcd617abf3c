// internal/behavior/score.go
package behavior

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hrbzhq/deepconf/internal/profile"
	"github.com/hrbzhq/deepconf/internal/util"
)

// Field groups each source draws its trajectory steps from. Profiles in the
// wild state their goal under either "goals" or "goal".
var (
	textFields    = []string{"goals", "goal", "background", "notes", "description"}
	goalFields    = []string{"goals", "goal"}
	careerFields  = []string{"occupation", "background", "experience"}
	historyFields = []string{"history", "activities", "projects"}
)

// candidate is a trajectory step before cap, anomaly, and termination rules
// are applied.
type candidate struct {
	source     string
	signal     string
	confidence float64
	note       string
}

// candidatesFor derives the candidate steps one source contributes, in a
// fixed field order so runs over the same profile are identical.
func candidatesFor(source string, p profile.Profile) []candidate {
	switch source {
	case SourceText:
		return textCandidates(p)
	case SourceProfile:
		return profileCandidates(p)
	case SourceHistory:
		return historyCandidates(p)
	}
	return nil
}

func textCandidates(p profile.Profile) []candidate {
	var out []candidate
	for _, field := range textFields {
		text := fieldText(p, field)
		if text == "" {
			continue
		}
		out = append(out, candidate{
			source:     SourceText,
			signal:     field,
			confidence: textConfidence(text),
		})
	}
	return out
}

func profileCandidates(p profile.Profile) []candidate {
	var out []candidate
	if name, ok := p.String("name"); ok {
		out = append(out, candidate{source: SourceProfile, signal: "name", confidence: nameConfidence(name)})
	}
	if age, ok := p.Float("age"); ok {
		c := candidate{source: SourceProfile, signal: "age", confidence: 0.8}
		if age <= 0 || age > 120 {
			c.confidence = 0.5
			c.note = "implausible age value"
		}
		out = append(out, c)
	}
	for _, field := range careerFields {
		if value, ok := p.String(field); ok {
			out = append(out, candidate{
				source:     SourceProfile,
				signal:     field,
				confidence: stringInformativeness(value),
			})
			break
		}
	}
	if entries := fieldEntries(p, "skills"); len(entries) > 0 {
		out = append(out, candidate{
			source:     SourceProfile,
			signal:     "skills",
			confidence: listInformativeness(len(entries)),
		})
	}
	return out
}

func historyCandidates(p profile.Profile) []candidate {
	var out []candidate
	for _, field := range historyFields {
		for i, entry := range fieldEntries(p, field) {
			out = append(out, candidate{
				source:     SourceHistory,
				signal:     fmt.Sprintf("%s[%d]", field, i),
				confidence: entryConfidence(entry),
			})
		}
	}
	return out
}

// fieldText renders a string or list-valued field as one text blob.
func fieldText(p profile.Profile, key string) string {
	if s, ok := p.String(key); ok {
		return s
	}
	if values, ok := p.Strings(key); ok {
		return strings.Join(values, " ")
	}
	return ""
}

// goalStatement returns the profile's stated goal text, if any.
func goalStatement(p profile.Profile) string {
	for _, field := range goalFields {
		if text := fieldText(p, field); text != "" {
			return text
		}
	}
	return ""
}

// fieldEntries returns a field's list entries, treating a bare string as a
// single-entry list.
func fieldEntries(p profile.Profile, key string) []any {
	if list, ok := p.List(key); ok {
		return list
	}
	if s, ok := p.String(key); ok {
		return []any{s}
	}
	return nil
}

// textConfidence scores free text by word count, with small bonuses for
// concrete details: digits and proper nouns past the first word.
func textConfidence(text string) float64 {
	words := strings.Fields(text)
	var base float64
	switch n := len(words); {
	case n == 0:
		return 0
	case n < 5:
		base = 0.6
	case n < 20:
		base = 0.75
	default:
		base = 0.85
	}
	if containsDigit(text) {
		base += 0.05
	}
	if hasProperNoun(words) {
		base += 0.05
	}
	return util.Clamp01(base)
}

// nameConfidence treats a multi-word name as more informative than a bare
// single token.
func nameConfidence(name string) float64 {
	if len(strings.Fields(name)) >= 2 {
		return 0.8
	}
	return 0.7
}

// stringInformativeness buckets a structured string field by trimmed length.
func stringInformativeness(value string) float64 {
	switch n := len(strings.TrimSpace(value)); {
	case n == 0:
		return 0
	case n < 8:
		return 0.6
	case n < 32:
		return 0.75
	case n < 128:
		return 0.85
	default:
		return 0.9
	}
}

// listInformativeness buckets a list field by entry count.
func listInformativeness(count int) float64 {
	switch {
	case count <= 0:
		return 0
	case count == 1:
		return 0.6
	case count <= 3:
		return 0.75
	case count <= 6:
		return 0.85
	default:
		return 0.9
	}
}

// entryConfidence scores a single history-like entry. Structured entries
// carry more signal than bare strings.
func entryConfidence(entry any) float64 {
	switch v := entry.(type) {
	case string:
		return stringInformativeness(v)
	case map[string]any:
		return 0.85
	default:
		return 0.6
	}
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func hasProperNoun(words []string) bool {
	for _, word := range words[1:] {
		r, _ := utf8.DecodeRuneInString(word)
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}
