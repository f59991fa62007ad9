package llm

import "testing"

func TestParseJSONArrayBare(t *testing.T) {
	items, err := ParseJSONArray[NameSuggestion](`[{"name":"Launchpad","rationale":"evokes takeoff"}]`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Launchpad" {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestParseJSONArrayFenced(t *testing.T) {
	raw := "Here you go:\n```json\n[{\"title\":\"Core workflow\",\"description\":\"d\",\"size_estimate\":\"L\"}]\n```\nHope that helps!"
	items, err := ParseJSONArray[FeatureIdea](raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(items) != 1 || items[0].SizeEstimate != "L" {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestParseJSONArrayRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"no json here", "[]", "[{broken"} {
		if _, err := ParseJSONArray[Competitor](raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestFallbacksAreValid(t *testing.T) {
	if len(FallbackCompetitors("Acme")) == 0 {
		t.Fatal("expected competitor fallback entries")
	}
	for _, f := range FallbackFeatures() {
		switch f.SizeEstimate {
		case "S", "M", "L":
		default:
			t.Fatalf("fallback feature %q has invalid size %q", f.Title, f.SizeEstimate)
		}
	}
	if len(FallbackTechStack()) == 0 {
		t.Fatal("expected tech stack fallback entries")
	}
}
