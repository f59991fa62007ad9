// Package search provides keyword search over a user's ideas, served
// by Meilisearch when available and by a Postgres ILIKE scan otherwise.
package search

// Query is one user-scoped search.
type Query struct {
	UserID string
	Text   string
	Limit  int
	Offset int
}

// Result is one idea hit.
type Result struct {
	IdeaID  string `json:"idea_id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Response wraps results with the echoed query text.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// IdeaRecord is the indexed shape of one idea.
type IdeaRecord struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	Title    string `json:"title"`
	Pitch    string `json:"pitch"`
	Document string `json:"document"`
}
