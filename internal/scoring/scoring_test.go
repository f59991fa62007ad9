package scoring

import (
	"encoding/json"
	"testing"
)

func TestICE(t *testing.T) {
	got, err := ICE(ICEComponents{Impact: 8, Confidence: 7, Ease: 6})
	if err != nil {
		t.Fatalf("ICE failed: %v", err)
	}
	if got != 3.36 {
		t.Fatalf("expected 3.36, got %g", got)
	}
}

func TestICERejectsOutOfRange(t *testing.T) {
	cases := []ICEComponents{
		{Impact: 0, Confidence: 5, Ease: 5},
		{Impact: 5, Confidence: 11, Ease: 5},
		{Impact: 5, Confidence: 5, Ease: -1},
	}
	for _, c := range cases {
		if _, err := ICE(c); err == nil {
			t.Fatalf("expected error for components %+v", c)
		}
	}
}

func TestRICE(t *testing.T) {
	got, err := RICE(RICEComponents{Reach: 9, Impact: 8, Confidence: 7, Effort: 5})
	if err != nil {
		t.Fatalf("RICE failed: %v", err)
	}
	if got != 100.8 {
		t.Fatalf("expected 100.8, got %g", got)
	}
}

func TestRICERejectsNonPositiveEffort(t *testing.T) {
	for _, effort := range []float64{0, -3} {
		if _, err := RICE(RICEComponents{Reach: 5, Impact: 5, Confidence: 5, Effort: effort}); err == nil {
			t.Fatalf("expected error for effort %g", effort)
		}
	}
}

func TestCompositeDispatch(t *testing.T) {
	ice, err := Composite(KindICE, json.RawMessage(`{"impact":8,"confidence":7,"ease":6}`))
	if err != nil {
		t.Fatalf("Composite ice failed: %v", err)
	}
	if ice != 3.36 {
		t.Fatalf("expected 3.36, got %g", ice)
	}

	rice, err := Composite(KindRICE, json.RawMessage(`{"reach":9,"impact":8,"confidence":7,"effort":5}`))
	if err != nil {
		t.Fatalf("Composite rice failed: %v", err)
	}
	if rice != 100.8 {
		t.Fatalf("expected 100.8, got %g", rice)
	}

	if _, err := Composite(Kind("moscow"), json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if _, err := Composite(KindICE, json.RawMessage(`not json`)); err == nil {
		t.Fatal("expected error for malformed components")
	}
}
