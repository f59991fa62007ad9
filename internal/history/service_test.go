package history

import (
	"testing"
)

func TestSnapshotAndHistory(t *testing.T) {
	svc := New(t.TempDir())

	first, err := svc.Snapshot("idea1", "## Problem\n\nv1\n", "Ada", ChangeManual, "Saved document")
	if err != nil {
		t.Fatalf("first snapshot failed: %v", err)
	}
	if first.Hash == "" {
		t.Fatal("expected commit hash")
	}

	second, err := svc.Snapshot("idea1", "## Problem\n\nv2\n", "Ada", ChangeAIInsert, "Inserted AI content into Problem section")
	if err != nil {
		t.Fatalf("second snapshot failed: %v", err)
	}

	commits, err := svc.History("idea1", 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(commits) != 2 {
		t.Fatalf("expected 2 commits, got %d", len(commits))
	}
	if commits[0].Hash != second.Hash {
		t.Fatal("history must be newest-first")
	}
	if commits[0].ChangeType != ChangeAIInsert || commits[1].ChangeType != ChangeManual {
		t.Fatalf("change types lost: %+v", commits)
	}
	if commits[0].Summary != "Inserted AI content into Problem section" {
		t.Fatalf("unexpected summary %q", commits[0].Summary)
	}
}

func TestDocumentAt(t *testing.T) {
	svc := New(t.TempDir())

	first, err := svc.Snapshot("idea1", "v1 content\n", "Ada", ChangeManual, "Saved document")
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if _, err := svc.Snapshot("idea1", "v2 content\n", "Ada", ChangeManual, "Saved document"); err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}

	doc, err := svc.DocumentAt("idea1", first.Hash)
	if err != nil {
		t.Fatalf("DocumentAt failed: %v", err)
	}
	if doc != "v1 content\n" {
		t.Fatalf("expected first version, got %q", doc)
	}
}

func TestHistoryOfUnknownIdeaIsEmpty(t *testing.T) {
	svc := New(t.TempDir())
	commits, err := svc.History("nope", 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(commits) != 0 {
		t.Fatalf("expected empty history, got %d", len(commits))
	}
}

func TestHistoryLimit(t *testing.T) {
	svc := New(t.TempDir())
	for i := 0; i < 5; i++ {
		if _, err := svc.Snapshot("idea1", "content\n", "Ada", ChangeManual, "Saved document"); err != nil {
			t.Fatalf("snapshot failed: %v", err)
		}
	}
	commits, err := svc.History("idea1", 3)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(commits) != 3 {
		t.Fatalf("expected 3 commits, got %d", len(commits))
	}
}
