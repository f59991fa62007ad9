package scoring

import (
	"encoding/json"
	"fmt"
	"math"
)

// Kind selects which composite formula applies to a score.
type Kind string

const (
	KindICE  Kind = "ice"
	KindRICE Kind = "rice"
)

// ICEComponents are each rated 1..10.
type ICEComponents struct {
	Impact     float64 `json:"impact"`
	Confidence float64 `json:"confidence"`
	Ease       float64 `json:"ease"`
}

// RICEComponents carry reach and impact/confidence ratings plus an effort
// estimate in person-units. Effort must be positive.
type RICEComponents struct {
	Reach      float64 `json:"reach"`
	Impact     float64 `json:"impact"`
	Confidence float64 `json:"confidence"`
	Effort     float64 `json:"effort"`
}

// ICE computes (impact * confidence * ease) / 100, rounded to two decimals.
func ICE(c ICEComponents) (float64, error) {
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"impact", c.Impact},
		{"confidence", c.Confidence},
		{"ease", c.Ease},
	} {
		if v.value < 1 || v.value > 10 {
			return 0, fmt.Errorf("%s must be between 1 and 10, got %g", v.name, v.value)
		}
	}
	return round2(c.Impact * c.Confidence * c.Ease / 100), nil
}

// RICE computes (reach * impact * confidence) / effort, rounded to two
// decimals.
func RICE(c RICEComponents) (float64, error) {
	if c.Effort <= 0 {
		return 0, fmt.Errorf("effort must be positive, got %g", c.Effort)
	}
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"reach", c.Reach},
		{"impact", c.Impact},
		{"confidence", c.Confidence},
	} {
		if v.value < 1 || v.value > 10 {
			return 0, fmt.Errorf("%s must be between 1 and 10, got %g", v.name, v.value)
		}
	}
	return round2(c.Reach * c.Impact * c.Confidence / c.Effort), nil
}

// Composite validates raw component JSON for the given kind and returns
// the computed composite value.
func Composite(kind Kind, components json.RawMessage) (float64, error) {
	switch kind {
	case KindICE:
		var c ICEComponents
		if err := json.Unmarshal(components, &c); err != nil {
			return 0, fmt.Errorf("parse ice components: %w", err)
		}
		return ICE(c)
	case KindRICE:
		var c RICEComponents
		if err := json.Unmarshal(components, &c); err != nil {
			return 0, fmt.Errorf("parse rice components: %w", err)
		}
		return RICE(c)
	default:
		return 0, fmt.Errorf("unknown score kind %q", kind)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
