// internal/behavior/sources.go
package behavior

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Analysis source identifiers.
const (
	SourceText    = "text"
	SourceProfile = "profile"
	SourceHistory = "history"
)

var validSources = map[string]bool{
	SourceText:    true,
	SourceProfile: true,
	SourceHistory: true,
}

// NormalizeSources lowercases and deduplicates source names in order,
// rejecting any name that is not a known analysis source.
func NormalizeSources(names []string) ([]string, error) {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		if !validSources[name] {
			return nil, fmt.Errorf("unknown analysis source %q (valid sources: %s, %s, %s)",
				name, SourceText, SourceProfile, SourceHistory)
		}
		seen[name] = true
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no analysis sources given")
	}
	return out, nil
}

// ParseSourcesFile reads an analysis source list from a file. The file may
// hold either a JSON array of source names or comma/newline separated names.
func ParseSourcesFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read sources file %s: %w", path, err)
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return nil, fmt.Errorf("sources file %s is empty", path)
	}

	var names []string
	if strings.HasPrefix(content, "[") {
		if err := json.Unmarshal([]byte(content), &names); err != nil {
			return nil, fmt.Errorf("sources file %s: %w", path, err)
		}
	} else {
		names = strings.FieldsFunc(content, func(r rune) bool {
			return r == ',' || r == '\n' || r == '\r'
		})
	}
	return NormalizeSources(names)
}
