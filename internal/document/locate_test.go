package document

import (
	"strings"
	"testing"
)

const sampleDoc = `# My Startup

## Problem

People lose track of their ideas.

## MVP Plan

Ship the tracker first.

### Details

Some nested notes.

## MVP

The smallest cut.

## Tech

Go and Postgres.
`

func TestLocateExactMatchWins(t *testing.T) {
	loc, found := Locate(sampleDoc, "Tech")
	if !found {
		t.Fatal("expected Tech section")
	}
	if loc.Heading.Text != "Tech" || loc.Heading.Level != 2 {
		t.Fatalf("unexpected heading %+v", loc.Heading)
	}
	if loc.End != len(sampleDoc) {
		t.Fatalf("last section must end at document end, got %d", loc.End)
	}
}

func TestLocateFirstHeadingInDocumentOrderWins(t *testing.T) {
	// "MVP" matches "MVP Plan" by prefix before reaching the exact
	// "MVP" heading further down. Document order beats strategy rank.
	loc, found := Locate(sampleDoc, "MVP")
	if !found {
		t.Fatal("expected a match")
	}
	if loc.Heading.Text != "MVP Plan" {
		t.Fatalf("expected first matching heading, got %q", loc.Heading.Text)
	}
}

func TestLocateWordBoundarySkipsShorterHeading(t *testing.T) {
	// Searching "MVP Plan" must not stop at the bare "MVP" heading.
	loc, found := Locate(sampleDoc, "MVP Plan")
	if !found {
		t.Fatal("expected MVP Plan section")
	}
	if loc.Heading.Text != "MVP Plan" {
		t.Fatalf("expected MVP Plan, got %q", loc.Heading.Text)
	}
}

func TestLocateSectionEndSkipsDeeperHeadings(t *testing.T) {
	loc, found := Locate(sampleDoc, "MVP Plan")
	if !found {
		t.Fatal("expected MVP Plan section")
	}
	// The level-3 "Details" heading belongs to the section; the next
	// level-2 heading ("MVP") ends it.
	body := sampleDoc[loc.ContentStart:loc.End]
	if !strings.Contains(body, "### Details") {
		t.Fatalf("expected nested heading inside section, body: %q", body)
	}
	if strings.Contains(body, "The smallest cut") {
		t.Fatalf("section leaked into the next sibling, body: %q", body)
	}
}

func TestLocateCaseInsensitive(t *testing.T) {
	if _, found := Locate(sampleDoc, "problem"); !found {
		t.Fatal("expected case-insensitive match")
	}
}

func TestLocateNoHeadings(t *testing.T) {
	doc := "just a paragraph of prose\nwith no structure at all\n"
	for _, s := range Sections() {
		if _, found := Locate(doc, s.Title); found {
			t.Fatalf("expected %s absent in heading-free document", s.Title)
		}
	}
}

func TestLocateDeepHeadingRequiresExactMatch(t *testing.T) {
	doc := "### Research notes\n\nstuff\n"
	// Prefix and word-boundary strategies only apply at level <= 2.
	if _, found := Locate(doc, "Research"); found {
		t.Fatal("level-3 heading must not prefix-match")
	}
	doc = "### Research\n\nstuff\n"
	if _, found := Locate(doc, "Research"); !found {
		t.Fatal("exact match applies at any level")
	}
}

func TestCollectHeadings(t *testing.T) {
	headings := CollectHeadings(sampleDoc)
	if len(headings) != 6 {
		t.Fatalf("expected 6 headings, got %d: %+v", len(headings), headings)
	}
	if headings[0].Text != "My Startup" || headings[0].Level != 1 || headings[0].Start != 0 {
		t.Fatalf("unexpected first heading %+v", headings[0])
	}
	for i := 1; i < len(headings); i++ {
		if headings[i].Start <= headings[i-1].Start {
			t.Fatal("headings must be in document order")
		}
	}
}
