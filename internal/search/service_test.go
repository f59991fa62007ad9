package search

import (
	"context"
	"errors"
	"testing"

	"idealauncher/api/internal/store"
)

type fakeIdeaStore struct {
	searchFn func(ctx context.Context, userID, query string, limit int) ([]store.Idea, error)
	listFn   func(ctx context.Context, userID string) ([]store.Idea, error)
}

func (f *fakeIdeaStore) SearchIdeas(ctx context.Context, userID, query string, limit int) ([]store.Idea, error) {
	return f.searchFn(ctx, userID, query, limit)
}

func (f *fakeIdeaStore) ListIdeas(ctx context.Context, userID string) ([]store.Idea, error) {
	return f.listFn(ctx, userID)
}

func TestServiceFallsBackToPostgresWithoutMeili(t *testing.T) {
	fake := &fakeIdeaStore{
		searchFn: func(_ context.Context, userID, query string, limit int) ([]store.Idea, error) {
			if userID != "u1" || query != "tracker" {
				t.Fatalf("unexpected search args %s %s", userID, query)
			}
			return []store.Idea{{ID: "i1", Title: "Idea Tracker", Pitch: "track ideas"}}, nil
		},
	}
	svc := NewService(nil, NewPgSearch(fake))

	resp := svc.Search(context.Background(), Query{UserID: "u1", Text: "tracker"})
	if resp.Total != 1 || len(resp.Results) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Results[0].IdeaID != "i1" || resp.Results[0].Snippet != "track ideas" {
		t.Fatalf("unexpected result %+v", resp.Results[0])
	}
	if resp.Query != "tracker" {
		t.Fatalf("query must be echoed, got %q", resp.Query)
	}
}

func TestServiceReturnsEmptyOnBackendFailure(t *testing.T) {
	fake := &fakeIdeaStore{
		searchFn: func(context.Context, string, string, int) ([]store.Idea, error) {
			return nil, errors.New("db down")
		},
	}
	svc := NewService(nil, NewPgSearch(fake))

	resp := svc.Search(context.Background(), Query{UserID: "u1", Text: "x"})
	if resp.Results == nil || len(resp.Results) != 0 || resp.Total != 0 {
		t.Fatalf("expected empty non-nil results, got %+v", resp)
	}
}
