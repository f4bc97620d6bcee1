package usecase

import (
	"context"

	"github.com/platefeed/platefeed/internal/domain"
)

// ShoppingListRenderer turns aggregated ingredient rows into a
// downloadable document.
type ShoppingListRenderer interface {
	Render(items []domain.IngredientAmount) ([]byte, error)
}

type ShoppingListUsecase struct {
	ingredients IngredientReader
	renderer    ShoppingListRenderer
}

func NewShoppingListUsecase(ingredients IngredientReader, renderer ShoppingListRenderer) *ShoppingListUsecase {
	return &ShoppingListUsecase{ingredients: ingredients, renderer: renderer}
}

// Download aggregates the user's cart and renders it. An empty cart is
// NotFound; a renderer failure surfaces as a RenderError.
func (uc *ShoppingListUsecase) Download(ctx context.Context, userID uint) ([]byte, error) {
	items, err := uc.ingredients.UserCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.NotFoundError{Resource: "shopping cart items"}
	}

	data, err := uc.renderer.Render(items)
	if err != nil {
		return nil, domain.RenderError{Message: "unable to prepare the shopping list document"}
	}
	return data, nil
}
