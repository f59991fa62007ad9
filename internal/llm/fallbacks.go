package llm

import "fmt"

// Static fallbacks keep the generation endpoints returning valid output
// when the model's response cannot be parsed. Degraded but usable beats
// a hard failure for these flows.

func FallbackCompetitors(title string) []Competitor {
	return []Competitor{
		{
			Name:        "Established incumbent",
			Description: fmt.Sprintf("A large existing player whose product overlaps with %s.", title),
			Strengths:   "Brand recognition, existing customer base, resources",
			Weaknesses:  "Slow to ship, generalized product, higher prices",
		},
		{
			Name:        "Niche specialist",
			Description: "A smaller tool focused on one slice of the same problem.",
			Strengths:   "Deep feature set for its niche, loyal users",
			Weaknesses:  "Narrow scope, limited integrations",
		},
		{
			Name:        "DIY / spreadsheets",
			Description: "Users solving the problem manually with general-purpose tools.",
			Strengths:   "Free, familiar, infinitely flexible",
			Weaknesses:  "Error-prone, no automation, does not scale",
		},
	}
}

func FallbackFeatures() []FeatureIdea {
	return []FeatureIdea{
		{Title: "User accounts", Description: "Sign up, sign in, and manage a profile.", SizeEstimate: "M"},
		{Title: "Core workflow", Description: "The single primary task the product exists to do, end to end.", SizeEstimate: "L"},
		{Title: "Dashboard", Description: "Overview of the user's items and recent activity.", SizeEstimate: "M"},
		{Title: "Search and filtering", Description: "Find items by keyword and basic attributes.", SizeEstimate: "S"},
		{Title: "Email notifications", Description: "Notify users of relevant events.", SizeEstimate: "S"},
	}
}

func FallbackTechStack() []TechRecommendation {
	return []TechRecommendation{
		{Category: "frontend", Name: "React", Reason: "Large ecosystem and hiring pool for a web client."},
		{Category: "backend", Name: "Go", Reason: "Simple deployment and good concurrency for API serving."},
		{Category: "database", Name: "PostgreSQL", Reason: "Reliable relational store that covers most early-stage needs."},
		{Category: "hosting", Name: "Managed cloud (Render/Fly/Railway)", Reason: "Minimal operations burden before product-market fit."},
	}
}
