package repository

import (
	"context"
	"testing"

	"github.com/platefeed/platefeed/internal/infra/database/models"
)

func TestIngredientSearchPrefixPriority(t *testing.T) {
	db := newTestDB(t)
	repo := NewIngredientRepository(db)
	ctx := context.Background()

	seedIngredient(t, db, "панаша", "г")
	seedIngredient(t, db, "анаша", "г")
	seedIngredient(t, db, "горох", "г")

	got, err := repo.Search(ctx, "ана")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	// Prefix match sorts ahead of the substring match.
	if got[0].Name != "анаша" || got[1].Name != "панаша" {
		t.Fatalf("unexpected order: %q, %q", got[0].Name, got[1].Name)
	}
}

func TestIngredientSearchEmptyQueryListsAll(t *testing.T) {
	db := newTestDB(t)
	repo := NewIngredientRepository(db)
	ctx := context.Background()

	seedIngredient(t, db, "salt", "g")
	seedIngredient(t, db, "flour", "g")

	got, err := repo.Search(ctx, "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 ingredients, got %d", len(got))
	}
	if got[0].Name != "flour" {
		t.Fatalf("expected name ordering, got %q first", got[0].Name)
	}
	if got[0].MeasurementUnit != "g" {
		t.Fatalf("measurement unit not resolved: %+v", got[0])
	}
}

func TestUserCartAggregation(t *testing.T) {
	db := newTestDB(t)
	ingredients := NewIngredientRepository(db)
	recipes := NewRecipeRepository(db)
	ctx := context.Background()

	author := seedUser(t, db, "author@example.com")
	buyer := seedUser(t, db, "buyer@example.com")

	flour := seedIngredient(t, db, "flour", "g")
	milk := seedIngredient(t, db, "milk", "ml")
	salt := seedIngredient(t, db, "salt", "g")

	pancakes := seedRecipe(t, db, author.ID, "pancakes", nil,
		models.RecipeIngredient{IngredientID: flour.ID, Amount: 200},
		models.RecipeIngredient{IngredientID: milk.ID, Amount: 300},
	)
	bread := seedRecipe(t, db, author.ID, "bread", nil,
		models.RecipeIngredient{IngredientID: flour.ID, Amount: 500},
		models.RecipeIngredient{IngredientID: salt.ID, Amount: 5},
	)
	// A recipe outside the cart must not contribute.
	seedRecipe(t, db, author.ID, "noise", nil,
		models.RecipeIngredient{IngredientID: salt.ID, Amount: 100},
	)

	if err := recipes.AddToCart(ctx, buyer.ID, pancakes.ID); err != nil {
		t.Fatalf("cart pancakes: %v", err)
	}
	if err := recipes.AddToCart(ctx, buyer.ID, bread.ID); err != nil {
		t.Fatalf("cart bread: %v", err)
	}

	items, err := ingredients.UserCart(ctx, buyer.ID)
	if err != nil {
		t.Fatalf("user cart: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 distinct ingredients, got %d", len(items))
	}
	// Ordered by name: flour, milk, salt.
	if items[0].Name != "flour" || items[0].Amount != 700 {
		t.Fatalf("flour line: %+v", items[0])
	}
	if items[1].Name != "milk" || items[1].Amount != 300 {
		t.Fatalf("milk line: %+v", items[1])
	}
	if items[2].Name != "salt" || items[2].Amount != 5 {
		t.Fatalf("salt line: %+v", items[2])
	}
	if items[0].MeasurementUnit != "g" || items[1].MeasurementUnit != "ml" {
		t.Fatalf("units not resolved: %+v", items)
	}
}

func TestUserCartEmpty(t *testing.T) {
	db := newTestDB(t)
	repo := NewIngredientRepository(db)

	buyer := seedUser(t, db, "buyer@example.com")
	items, err := repo.UserCart(context.Background(), buyer.ID)
	if err != nil {
		t.Fatalf("user cart: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(items))
	}
}
