package search

import (
	"context"
	"fmt"

	"idealauncher/api/internal/store"
)

// IdeaStore is the slice of the persistence layer the fallback needs.
type IdeaStore interface {
	SearchIdeas(ctx context.Context, userID, query string, limit int) ([]store.Idea, error)
	ListIdeas(ctx context.Context, userID string) ([]store.Idea, error)
}

// PgSearch serves searches directly from Postgres when Meilisearch is
// down. Substring matching only; good enough as a degraded mode.
type PgSearch struct {
	store IdeaStore
}

func NewPgSearch(s IdeaStore) *PgSearch {
	return &PgSearch{store: s}
}

func (p *PgSearch) Search(ctx context.Context, q Query) ([]Result, int, error) {
	limit := q.Limit
	if limit == 0 {
		limit = 20
	}

	ideas, err := p.store.SearchIdeas(ctx, q.UserID, q.Text, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres search: %w", err)
	}

	results := make([]Result, 0, len(ideas))
	for _, idea := range ideas {
		results = append(results, Result{
			IdeaID:  idea.ID,
			Title:   idea.Title,
			Snippet: idea.Pitch,
		})
	}
	return results, len(results), nil
}

// LoadAllRecords reads a user's ideas for reindexing into Meilisearch.
func (p *PgSearch) LoadAllRecords(ctx context.Context, userID string) ([]IdeaRecord, error) {
	ideas, err := p.store.ListIdeas(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load ideas for reindex: %w", err)
	}
	records := make([]IdeaRecord, 0, len(ideas))
	for _, idea := range ideas {
		records = append(records, IdeaRecord{
			ID:       idea.ID,
			UserID:   idea.UserID,
			Title:    idea.Title,
			Pitch:    idea.Pitch,
			Document: idea.Document,
		})
	}
	return records, nil
}
