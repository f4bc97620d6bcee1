package presenter

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/platefeed/platefeed/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

type Tag struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

type Ingredient struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

type RecipeIngredient struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int64  `json:"amount"`
}

type User struct {
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

type Recipe struct {
	ID               uint               `json:"id"`
	Tags             []Tag              `json:"tags"`
	Author           User               `json:"author"`
	Ingredients      []RecipeIngredient `json:"ingredients"`
	IsFavorited      bool               `json:"is_favorited"`
	IsInShoppingCart bool               `json:"is_in_shopping_cart"`
	Name             string             `json:"name"`
	Image            string             `json:"image"`
	Text             string             `json:"text"`
	CookingTime      int                `json:"cooking_time"`
	PubDate          time.Time          `json:"pub_date"`
}

// BaseRecipe is the short form returned by favorite and cart toggles
// and embedded in subscription listings.
type BaseRecipe struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

type Subscription struct {
	User
	Recipes      []BaseRecipe `json:"recipes"`
	RecipesCount int64        `json:"recipes_count"`
}

// Page is the standard list envelope.
type Page struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

func imageURL(path string) string {
	if path == "" {
		return ""
	}
	return "/media/" + path
}

func TagResponse(t domain.Tag) Tag {
	return Tag{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func TagResponses(tags []domain.Tag) []Tag {
	out := make([]Tag, 0, len(tags))
	for _, t := range tags {
		out = append(out, TagResponse(t))
	}
	return out
}

func IngredientResponse(i domain.Ingredient) Ingredient {
	return Ingredient{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

func IngredientResponses(items []domain.Ingredient) []Ingredient {
	out := make([]Ingredient, 0, len(items))
	for _, i := range items {
		out = append(out, IngredientResponse(i))
	}
	return out
}

func UserResponse(u domain.User) User {
	return User{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: u.IsSubscribed,
	}
}

func UserResponses(users []domain.User) []User {
	out := make([]User, 0, len(users))
	for _, u := range users {
		out = append(out, UserResponse(u))
	}
	return out
}

func RecipeResponse(r domain.Recipe) Recipe {
	lines := make([]RecipeIngredient, 0, len(r.Ingredients))
	for _, line := range r.Ingredients {
		lines = append(lines, RecipeIngredient{
			ID:              line.ID,
			Name:            line.Name,
			MeasurementUnit: line.MeasurementUnit,
			Amount:          line.Amount,
		})
	}
	return Recipe{
		ID:               r.ID,
		Tags:             TagResponses(r.Tags),
		Author:           UserResponse(r.Author),
		Ingredients:      lines,
		IsFavorited:      r.IsFavorited,
		IsInShoppingCart: r.IsInShoppingCart,
		Name:             r.Name,
		Image:            imageURL(r.ImagePath),
		Text:             r.Text,
		CookingTime:      r.CookingTime,
		PubDate:          r.PubDate,
	}
}

func RecipeResponses(recipes []domain.Recipe) []Recipe {
	out := make([]Recipe, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, RecipeResponse(r))
	}
	return out
}

func BaseRecipeResponse(r domain.Recipe) BaseRecipe {
	return BaseRecipe{
		ID:          r.ID,
		Name:        r.Name,
		Image:       imageURL(r.ImagePath),
		CookingTime: r.CookingTime,
	}
}

func BaseRecipeResponses(recipes []domain.Recipe) []BaseRecipe {
	out := make([]BaseRecipe, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, BaseRecipeResponse(r))
	}
	return out
}

func SubscriptionResponse(u domain.User) Subscription {
	return Subscription{
		User:         UserResponse(u),
		Recipes:      BaseRecipeResponses(u.Recipes),
		RecipesCount: u.RecipesCount,
	}
}

func SubscriptionResponses(users []domain.User) []Subscription {
	out := make([]Subscription, 0, len(users))
	for _, u := range users {
		out = append(out, SubscriptionResponse(u))
	}
	return out
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func Created(c echo.Context, payload any) error {
	return c.JSON(http.StatusCreated, payload)
}

func NoContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

func BadRequestMessage(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func Unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{Error: msg})
}

// Error maps domain errors onto status codes. Anything unmapped is a
// server fault and gets logged.
func Error(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrConflict):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.JSON(http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrRender):
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		slog.ErrorContext(
			c.Request().Context(), "Unhandled error",
			slog.String("error", err.Error()),
			slog.String("path", c.Request().URL.Path),
			slog.String("module", "rest"),
		)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
