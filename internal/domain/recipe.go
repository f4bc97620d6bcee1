package domain

import "time"

type MeasurementUnit struct {
	ID   uint
	Name string
}

type Ingredient struct {
	ID              uint
	Name            string
	MeasurementUnit string
}

// IngredientAmount is an ingredient together with an amount, either a
// single recipe line or a summed shopping-list row.
type IngredientAmount struct {
	Ingredient
	Amount int64
}

type Tag struct {
	ID    uint
	Name  string
	Color string
	Slug  string
}

// Recipe is the read-side projection. IsFavorited and IsInShoppingCart
// are viewer-relative annotations computed per row by the query layer.
type Recipe struct {
	ID               uint
	Author           User
	Name             string
	ImagePath        string
	Text             string
	CookingTime      int
	PubDate          time.Time
	Tags             []Tag
	Ingredients      []IngredientAmount
	IsFavorited      bool
	IsInShoppingCart bool
}

// RecipeDraft is the validated write-side shape handed to the recipe
// transaction. ImagePath is already decoded and stored.
type RecipeDraft struct {
	Name        string
	ImagePath   string
	Text        string
	CookingTime int
	TagIDs      []uint
	Ingredients []IngredientRef
}

// IngredientRef is one (ingredient id, amount) line of a draft.
type IngredientRef struct {
	IngredientID uint
	Amount       int
}
