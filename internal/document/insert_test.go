package document

import (
	"strings"
	"testing"
)

const baseDoc = `## Problem

People lose track of their ideas.

## MVP

Ship the tracker first.
`

func TestInsertIntoPresentSection(t *testing.T) {
	res, err := Insert(baseDoc, "problem", "Nobody writes ideas down.", "chat")
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if strings.Count(res.Document, "## Problem") != 1 {
		t.Fatal("section heading must appear exactly once")
	}
	problemAt := strings.Index(res.Document, "## Problem")
	mvpAt := strings.Index(res.Document, "## MVP")
	insertedAt := strings.Index(res.Document, "Nobody writes ideas down.")
	if insertedAt < problemAt || insertedAt > mvpAt {
		t.Fatalf("content must land between the section heading and the next section:\n%s", res.Document)
	}
	if res.Created {
		t.Fatal("present section must not report Created")
	}
	if res.Summary != "Inserted AI content into Problem section" {
		t.Fatalf("unexpected summary %q", res.Summary)
	}
}

func TestInsertIntoLastSectionAppends(t *testing.T) {
	res, err := Insert(baseDoc, "mvp", "Cut scope to one workflow.", "chat")
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if !strings.Contains(res.Document, "Cut scope to one workflow.") {
		t.Fatal("content missing")
	}
	insertedAt := strings.Index(res.Document, "Cut scope to one workflow.")
	mvpAt := strings.Index(res.Document, "## MVP")
	if insertedAt < mvpAt {
		t.Fatal("content must follow the MVP heading")
	}
}

func TestInsertIntoAbsentSectionPlacedBeforeLaterSection(t *testing.T) {
	// Research is absent; MVP is the first later registry section
	// present, so the synthesized Research section goes before it.
	res, err := Insert(baseDoc, "research", "Competitor: Notion.", "research")
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if !res.Created {
		t.Fatal("absent section must report Created")
	}
	researchAt := strings.Index(res.Document, "## Research")
	mvpAt := strings.Index(res.Document, "## MVP")
	problemAt := strings.Index(res.Document, "## Problem")
	if researchAt == -1 {
		t.Fatalf("expected synthesized Research heading:\n%s", res.Document)
	}
	if researchAt < problemAt || researchAt > mvpAt {
		t.Fatalf("Research must sit between Problem and MVP:\n%s", res.Document)
	}
}

func TestInsertIntoAbsentSectionAppendsWhenNoLaterSections(t *testing.T) {
	// Spec is last in the registry, so there is never a later section.
	res, err := Insert(baseDoc, "spec", "Full spec text.", "export")
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	specAt := strings.Index(res.Document, "## Spec")
	mvpAt := strings.Index(res.Document, "## MVP")
	if specAt < mvpAt {
		t.Fatalf("Spec must be appended after existing sections:\n%s", res.Document)
	}
}

func TestInsertIntoEmptyDocument(t *testing.T) {
	res, err := Insert("", "problem", "First note.", "")
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if !strings.HasPrefix(res.Document, "## Problem") {
		t.Fatalf("expected synthesized heading at top:\n%s", res.Document)
	}
}

func TestInsertTwiceDuplicatesContent(t *testing.T) {
	res1, err := Insert(baseDoc, "problem", "Same note.", "chat")
	if err != nil {
		t.Fatalf("first Insert failed: %v", err)
	}
	res2, err := Insert(res1.Document, "problem", "Same note.", "chat")
	if err != nil {
		t.Fatalf("second Insert failed: %v", err)
	}
	if CountInsertions(res1.Document) != 1 {
		t.Fatalf("expected 1 insertion, got %d", CountInsertions(res1.Document))
	}
	if CountInsertions(res2.Document) != 2 {
		t.Fatalf("expected 2 insertions, got %d", CountInsertions(res2.Document))
	}
	if strings.Count(res2.Document, "Same note.") != 2 {
		t.Fatal("no deduplication expected")
	}
}

func TestInsertUnknownSectionFailsFast(t *testing.T) {
	if _, err := Insert(baseDoc, "roadmap", "x", ""); err == nil {
		t.Fatal("expected error for unknown section id")
	}
}

func TestInsertDemotesMarkdownHeadings(t *testing.T) {
	res, err := Insert(baseDoc, "problem", "## Key insight\n\n**Strong** point.", "chat")
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if !strings.Contains(res.Document, "### Key insight") {
		t.Fatalf("inserted heading must be demoted below section level:\n%s", res.Document)
	}
	// The demoted heading must not split the Problem section.
	loc, found := Locate(res.Document, "Problem")
	if !found {
		t.Fatal("Problem section lost")
	}
	if !strings.Contains(res.Document[loc.ContentStart:loc.End], "Strong") {
		t.Fatal("inserted content must remain inside the Problem section")
	}
}

func TestLooksLikeMarkdown(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"plain sentence", false},
		{"**bold** claim", true},
		{"# heading", true},
		{"- list item", true},
		{"```\ncode\n```", true},
		{"multiply 2*3", false},
	}
	for _, c := range cases {
		if got := LooksLikeMarkdown(c.in); got != c.want {
			t.Errorf("LooksLikeMarkdown(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
