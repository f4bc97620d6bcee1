package domain

// RecipeFilter narrows a recipe listing. TagSlugs use OR semantics:
// a recipe matches when it carries any of the given slugs. OnlyFavorited
// and OnlyInCart restrict to rows whose viewer annotation is true; a
// false query parameter is a no-op, not an exclusion.
type RecipeFilter struct {
	TagSlugs      []string
	AuthorID      uint
	OnlyFavorited bool
	OnlyInCart    bool
}

// Page is a 1-based page request. Limit zero means the configured default.
type Page struct {
	Number int
	Limit  int
}

func (p Page) Offset() int {
	n := p.Number
	if n < 1 {
		n = 1
	}
	return (n - 1) * p.Limit
}
