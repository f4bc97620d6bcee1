package domain

// User is a registered account. IsSubscribed and RecipesCount are
// viewer-relative annotations filled by the query layer, never stored.
type User struct {
	ID           uint
	Email        string
	Username     string
	FirstName    string
	LastName     string
	IsSubscribed bool
	RecipesCount int64

	// Recipes is populated only for subscription listings and follow
	// responses, truncated to the caller's recipes_limit.
	Recipes []Recipe
}

// Registration carries the fields accepted at sign-up.
type Registration struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}
