package llm

import "fmt"

// ChatSystemPrompt frames the assistant as a product coach working on
// one idea. The document is included so answers stay grounded in what
// the user has already written.
func ChatSystemPrompt(title, pitch, document string) string {
	return fmt.Sprintf(`You are a startup advisor helping develop the idea %q.
Pitch: %s

Current working document:
%s

Give concrete, practical advice. Keep answers short and actionable. When
you propose content for a document section, format it as markdown.`, title, pitch, document)
}

// Research prompts all demand a bare JSON array so the response can be
// parsed without scraping prose.

func CompetitorPrompt(title, pitch string) string {
	return fmt.Sprintf(`List 4-6 likely competitors for the startup idea %q (%s).
Respond with only a JSON array of objects with keys "name", "description",
"strengths", "weaknesses". No prose before or after the JSON.`, title, pitch)
}

func MonetizationPrompt(title, pitch string) string {
	return fmt.Sprintf(`Suggest 3-5 monetization models for the startup idea %q (%s).
Respond with only a JSON array of objects with keys "model" and
"description". No prose before or after the JSON.`, title, pitch)
}

func NamingPrompt(title, pitch string) string {
	return fmt.Sprintf(`Suggest 5-8 product names for the startup idea %q (%s).
Respond with only a JSON array of objects with keys "name" and
"rationale". No prose before or after the JSON.`, title, pitch)
}

func FeaturesPrompt(title, pitch, document string) string {
	return fmt.Sprintf(`Propose an MVP feature list for the startup idea %q (%s).

Working document for context:
%s

Respond with only a JSON array of 5-8 objects with keys "title",
"description", and "size_estimate" (one of "S", "M", "L"). Order from
most to least essential. No prose before or after the JSON.`, title, pitch, document)
}

func TechStackPrompt(title, pitch, document string) string {
	return fmt.Sprintf(`Recommend a pragmatic tech stack for the startup idea %q (%s).

Working document for context:
%s

Respond with only a JSON array of objects with keys "category" (e.g.
"frontend", "backend", "database", "hosting"), "name", and "reason".
No prose before or after the JSON.`, title, pitch, document)
}

func SpecPrompt(title, pitch, document string) string {
	return fmt.Sprintf(`Write a concise product specification in markdown for the
startup idea %q (%s), based on the working document below. Use second-level
headings for Problem, Users, Solution, Features, MVP, and Tech. Fill gaps
with reasonable assumptions and mark them as assumptions.

Working document:
%s`, title, pitch, document)
}
