package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Competitor is one entry of a competitor research finding.
type Competitor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Strengths   string `json:"strengths"`
	Weaknesses  string `json:"weaknesses"`
}

// Monetization is one suggested revenue model.
type Monetization struct {
	Model       string `json:"model"`
	Description string `json:"description"`
}

// NameSuggestion is one proposed product name.
type NameSuggestion struct {
	Name      string `json:"name"`
	Rationale string `json:"rationale"`
}

// FeatureIdea is one generated MVP feature.
type FeatureIdea struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	SizeEstimate string `json:"size_estimate"`
}

// TechRecommendation is one stack choice with its rationale.
type TechRecommendation struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Reason   string `json:"reason"`
}

// ParseJSONArray extracts and decodes a JSON array from model output.
// Models often wrap JSON in code fences or preamble text despite
// instructions, so the decoder scans for the outermost bracket pair.
func ParseJSONArray[T any](raw string) ([]T, error) {
	trimmed := extractJSON(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var items []T
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		return nil, fmt.Errorf("decoding model output: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("model returned an empty array")
	}
	return items, nil
}

func extractJSON(raw string) string {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return raw[start : end+1]
}
