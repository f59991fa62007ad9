package search

import (
	"context"
	"log"
)

// Service tries Meilisearch first and falls back to Postgres.
type Service struct {
	meili *Meili
	pg    *PgSearch
}

// NewService creates a search service. meili may be nil when
// Meilisearch is not configured.
func NewService(meili *Meili, pg *PgSearch) *Service {
	return &Service{meili: meili, pg: pg}
}

// Search runs the query against the healthiest available backend.
func (s *Service) Search(ctx context.Context, q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to postgres: %v", err)
	}

	results, total, err := s.pg.Search(ctx, q)
	if err != nil {
		log.Printf("search: postgres fallback error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexIdea pushes one idea to Meilisearch, fire-and-forget.
func (s *Service) IndexIdea(rec IdeaRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexIdea(rec); err != nil {
			log.Printf("search: index idea %s: %v", rec.ID, err)
		}
	}()
}

// DeleteIdea removes an idea from the index, fire-and-forget.
func (s *Service) DeleteIdea(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteIdea(id); err != nil {
			log.Printf("search: delete idea %s: %v", id, err)
		}
	}()
}

// ReindexUser reloads a user's ideas from Postgres into Meilisearch.
func (s *Service) ReindexUser(ctx context.Context, userID string) {
	if s.meili == nil || !s.meili.Healthy() || s.pg == nil {
		return
	}
	records, err := s.pg.LoadAllRecords(ctx, userID)
	if err != nil {
		log.Printf("search: reindex load failed: %v", err)
		return
	}
	if err := s.meili.IndexIdeas(records); err != nil {
		log.Printf("search: reindex ideas: %v", err)
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
