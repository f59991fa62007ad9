package cache

import "fmt"

// Key templates are deterministic so mutation paths can invalidate the
// exact entries a read path would have written.

// IdeaKey is scoped by owner so a cached read can never serve another
// user's idea.
func IdeaKey(userID, ideaID string) string  { return "idea:" + userID + ":" + ideaID }
func IdeaListKey(userID string) string      { return "ideas:" + userID }
func ChatKey(ideaID string) string          { return "chat:" + ideaID }
func ScoresKey(ideaID string) string        { return "scores:" + ideaID }
func FeaturesKey(ideaID string) string      { return "features:" + ideaID }
func TechStackKey(ideaID string) string     { return "tech:" + ideaID }
func SpecExportKey(ideaID string) string    { return "export:" + ideaID }
func ResearchKey(ideaID, kind string) string {
	return fmt.Sprintf("research:%s:%s", ideaID, kind)
}

// IdeaRelatedKeys is the fixed invalidation set for composite mutations
// on one idea (update, delete, new message, new score).
func IdeaRelatedKeys(userID, ideaID string) []string {
	return []string{
		IdeaKey(userID, ideaID),
		IdeaListKey(userID),
		ChatKey(ideaID),
		ScoresKey(ideaID),
		FeaturesKey(ideaID),
		TechStackKey(ideaID),
		SpecExportKey(ideaID),
		ResearchKey(ideaID, "competitor"),
		ResearchKey(ideaID, "monetization"),
		ResearchKey(ideaID, "naming"),
	}
}
