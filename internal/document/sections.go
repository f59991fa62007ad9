package document

// Section is one named region of an idea's working document. The
// registry order is significant: newly created sections are placed
// relative to it.
type Section struct {
	ID          string
	Title       string
	Placeholder string
}

var registry = []Section{
	{ID: "problem", Title: "Problem", Placeholder: "What problem does this idea solve, and for whom?"},
	{ID: "users", Title: "Users", Placeholder: "Who are the target users? What do they do today?"},
	{ID: "solution", Title: "Solution", Placeholder: "How does the product solve the problem?"},
	{ID: "features", Title: "Features", Placeholder: "What does the product do? List the key capabilities."},
	{ID: "research", Title: "Research", Placeholder: "Competitors, monetization models, naming ideas."},
	{ID: "mvp", Title: "MVP", Placeholder: "The smallest version worth shipping."},
	{ID: "tech", Title: "Tech", Placeholder: "Recommended stack and architecture notes."},
	{ID: "spec", Title: "Spec", Placeholder: "The generated product specification."},
}

// Sections returns the ordered registry. Callers get a copy so the
// registry stays immutable.
func Sections() []Section {
	out := make([]Section, len(registry))
	copy(out, registry)
	return out
}

// FindSection looks a section up by id.
func FindSection(id string) (Section, bool) {
	for _, s := range registry {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// sectionsAfter returns the registry entries ordered after the given id.
func sectionsAfter(id string) []Section {
	for i, s := range registry {
		if s.ID == id {
			return registry[i+1:]
		}
	}
	return nil
}
