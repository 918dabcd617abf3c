// internal/profile/profile.go
// Package profile loads and validates the flat JSON subject profiles consumed
// by the behavioral analyzer.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Profile is a flat JSON object describing the analysis subject. Field values
// keep their decoded JSON types (string, float64, []any).
type Profile map[string]any

// profileSchema constrains the well-known fields without rejecting extras.
var profileSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"name":    map[string]any{"type": "string"},
		"age":     map[string]any{"type": "number", "minimum": 0},
		"goals":   map[string]any{"type": []any{"string", "array"}},
		"skills":  map[string]any{"type": []any{"string", "array"}},
		"history": map[string]any{"type": []any{"string", "array"}},
	},
	"additionalProperties": true,
}

// Load resolves a profile argument. Arguments starting with '{' are parsed as
// inline JSON; anything else is treated as a file path.
func Load(arg string) (Profile, error) {
	trimmed := strings.TrimSpace(arg)
	if trimmed == "" {
		return nil, fmt.Errorf("profile argument is empty")
	}
	if strings.HasPrefix(trimmed, "{") {
		return Parse([]byte(trimmed))
	}

	data, err := os.ReadFile(trimmed)
	if err != nil {
		return nil, fmt.Errorf("unable to read profile file %s: %w", trimmed, err)
	}
	profile, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("profile file %s: %w", trimmed, err)
	}
	return profile, nil
}

// Parse decodes and validates profile JSON.
func Parse(data []byte) (Profile, error) {
	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("profile must be a JSON object: %w", err)
	}

	schemaLoader := gojsonschema.NewGoLoader(profileSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return nil, fmt.Errorf("invalid profile: %s", strings.Join(errs, ", "))
	}

	return profile, nil
}

// String returns the trimmed string value of a field, if present and non-empty.
func (p Profile) String(key string) (string, bool) {
	raw, ok := p[key]
	if !ok {
		return "", false
	}
	value, ok := raw.(string)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// Float returns the numeric value of a field, if present.
func (p Profile) Float(key string) (float64, bool) {
	raw, ok := p[key]
	if !ok {
		return 0, false
	}
	switch value := raw.(type) {
	case float64:
		return value, true
	case int:
		return float64(value), true
	case json.Number:
		f, err := value.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Strings returns the elements of a list-valued field rendered as strings.
func (p Profile) Strings(key string) ([]string, bool) {
	raw, ok := p[key]
	if !ok {
		return nil, false
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	values := make([]string, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				values = append(values, trimmed)
			}
		default:
			values = append(values, fmt.Sprint(v))
		}
	}
	if len(values) == 0 {
		return nil, false
	}
	return values, true
}

// List returns the raw elements of a list-valued field, if present.
func (p Profile) List(key string) ([]any, bool) {
	raw, ok := p[key]
	if !ok {
		return nil, false
	}
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return nil, false
	}
	return list, true
}

// Has reports whether a field is present with a non-empty value.
func (p Profile) Has(key string) bool {
	raw, ok := p[key]
	if !ok {
		return false
	}
	switch value := raw.(type) {
	case string:
		return strings.TrimSpace(value) != ""
	case []any:
		return len(value) > 0
	case nil:
		return false
	default:
		return true
	}
}

// Keys returns the profile's field names in sorted order.
func (p Profile) Keys() []string {
	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
