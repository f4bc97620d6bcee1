package usecase

import (
	"context"
	"fmt"

	"github.com/platefeed/platefeed/internal/domain"
)

// RecipeRepository defines persistence for recipes and their
// viewer-relative relationships.
type RecipeRepository interface {
	List(ctx context.Context, viewerID uint, filter domain.RecipeFilter, page domain.Page) ([]domain.Recipe, int64, error)
	Get(ctx context.Context, id uint, viewerID uint) (domain.Recipe, error)
	GetBase(ctx context.Context, id uint) (domain.Recipe, error)
	OwnerID(ctx context.Context, id uint) (uint, error)
	NameTaken(ctx context.Context, authorID uint, name string, excludeID uint) (bool, error)
	Create(ctx context.Context, authorID uint, draft domain.RecipeDraft) (uint, error)
	Update(ctx context.Context, id uint, draft domain.RecipeDraft) error
	Delete(ctx context.Context, id uint) error
	AddFavorite(ctx context.Context, userID, recipeID uint) error
	RemoveFavorite(ctx context.Context, userID, recipeID uint) error
	AddToCart(ctx context.Context, userID, recipeID uint) error
	RemoveFromCart(ctx context.Context, userID, recipeID uint) error
}

// TagReader is the read-only tag accessor.
type TagReader interface {
	List(ctx context.Context) ([]domain.Tag, error)
	Get(ctx context.Context, id uint) (domain.Tag, error)
	CountByIDs(ctx context.Context, ids []uint) (int64, error)
}

// IngredientReader is the read-only ingredient accessor.
type IngredientReader interface {
	Search(ctx context.Context, name string) ([]domain.Ingredient, error)
	Get(ctx context.Context, id uint) (domain.Ingredient, error)
	CountByIDs(ctx context.Context, ids []uint) (int64, error)
	UserCart(ctx context.Context, userID uint) ([]domain.IngredientAmount, error)
}

// ImageStore decodes a transport image payload into a stored asset and
// returns its path.
type ImageStore interface {
	Store(ctx context.Context, payload string) (string, error)
}

// RecipeInput is the write-side request shape, before validation.
type RecipeInput struct {
	Name        string
	Text        string
	Image       string
	CookingTime int
	TagIDs      []uint
	Ingredients []domain.IngredientRef
}

type RecipeUsecase struct {
	repo        RecipeRepository
	tags        TagReader
	ingredients IngredientReader
	images      ImageStore
}

func NewRecipeUsecase(repo RecipeRepository, tags TagReader, ingredients IngredientReader, images ImageStore) *RecipeUsecase {
	return &RecipeUsecase{repo: repo, tags: tags, ingredients: ingredients, images: images}
}

func (uc *RecipeUsecase) List(ctx context.Context, viewerID uint, filter domain.RecipeFilter, page domain.Page) ([]domain.Recipe, int64, error) {
	return uc.repo.List(ctx, viewerID, filter, page)
}

func (uc *RecipeUsecase) Get(ctx context.Context, id uint, viewerID uint) (domain.Recipe, error) {
	return uc.repo.Get(ctx, id, viewerID)
}

// Create validates the input, stores the image, and runs the nested
// write transaction. The uniqueness pre-checks are an early exit; the
// database constraints stay authoritative under races.
func (uc *RecipeUsecase) Create(ctx context.Context, authorID uint, input RecipeInput) (domain.Recipe, error) {
	if err := uc.validate(ctx, input); err != nil {
		return domain.Recipe{}, err
	}
	if input.Image == "" {
		return domain.Recipe{}, domain.ValidationError{Message: "a recipe must have an image"}
	}

	taken, err := uc.repo.NameTaken(ctx, authorID, input.Name, 0)
	if err != nil {
		return domain.Recipe{}, err
	}
	if taken {
		return domain.Recipe{}, domain.ConflictError{Message: "author already has a recipe with this name"}
	}

	imagePath, err := uc.images.Store(ctx, input.Image)
	if err != nil {
		return domain.Recipe{}, err
	}

	id, err := uc.repo.Create(ctx, authorID, draftOf(input, imagePath))
	if err != nil {
		return domain.Recipe{}, err
	}
	return uc.repo.Get(ctx, id, authorID)
}

// Update replaces the whole recipe: fields, the full tag set, and the
// full ingredient set. Only the author may update; the image may be
// omitted to keep the stored one.
func (uc *RecipeUsecase) Update(ctx context.Context, actorID, id uint, input RecipeInput) (domain.Recipe, error) {
	ownerID, err := uc.repo.OwnerID(ctx, id)
	if err != nil {
		return domain.Recipe{}, err
	}
	if ownerID != actorID {
		return domain.Recipe{}, domain.ForbiddenError{Message: "only the author may modify this recipe"}
	}

	if err := uc.validate(ctx, input); err != nil {
		return domain.Recipe{}, err
	}

	taken, err := uc.repo.NameTaken(ctx, ownerID, input.Name, id)
	if err != nil {
		return domain.Recipe{}, err
	}
	if taken {
		return domain.Recipe{}, domain.ConflictError{Message: "author already has a recipe with this name"}
	}

	imagePath := ""
	if input.Image != "" {
		imagePath, err = uc.images.Store(ctx, input.Image)
		if err != nil {
			return domain.Recipe{}, err
		}
	}

	if err := uc.repo.Update(ctx, id, draftOf(input, imagePath)); err != nil {
		return domain.Recipe{}, err
	}
	return uc.repo.Get(ctx, id, actorID)
}

func (uc *RecipeUsecase) Delete(ctx context.Context, actorID, id uint) error {
	ownerID, err := uc.repo.OwnerID(ctx, id)
	if err != nil {
		return err
	}
	if ownerID != actorID {
		return domain.ForbiddenError{Message: "only the author may delete this recipe"}
	}
	return uc.repo.Delete(ctx, id)
}

// validate applies the write rules in a fixed order: tag list shape,
// ingredient list shape, scalar bounds, then reference existence.
func (uc *RecipeUsecase) validate(ctx context.Context, input RecipeInput) error {
	if len(input.TagIDs) == 0 {
		return domain.ValidationError{Message: "a recipe must have at least one tag"}
	}
	if dup, ok := firstDuplicate(input.TagIDs); ok {
		return domain.ValidationError{Message: fmt.Sprintf("duplicate tag %d", dup)}
	}
	if len(input.Ingredients) == 0 {
		return domain.ValidationError{Message: "a recipe must have at least one ingredient"}
	}
	ingredientIDs := make([]uint, 0, len(input.Ingredients))
	for _, ref := range input.Ingredients {
		ingredientIDs = append(ingredientIDs, ref.IngredientID)
	}
	if dup, ok := firstDuplicate(ingredientIDs); ok {
		return domain.ValidationError{Message: fmt.Sprintf("duplicate ingredient %d", dup)}
	}

	if input.Name == "" || len(input.Name) > domain.MaxRecipeNameLength {
		return domain.ValidationError{Message: fmt.Sprintf("name must be 1-%d characters", domain.MaxRecipeNameLength)}
	}
	if len(input.Text) > domain.MaxRecipeTextLength {
		return domain.ValidationError{Message: fmt.Sprintf("text must be at most %d characters", domain.MaxRecipeTextLength)}
	}
	if input.CookingTime < domain.MinCookingTime || input.CookingTime > domain.MaxCookingTime {
		return domain.ValidationError{Message: fmt.Sprintf("cooking_time must be %d-%d minutes", domain.MinCookingTime, domain.MaxCookingTime)}
	}
	for _, ref := range input.Ingredients {
		if ref.Amount < domain.MinIngredientAmount || ref.Amount > domain.MaxIngredientAmount {
			return domain.ValidationError{Message: fmt.Sprintf("ingredient amount must be %d-%d", domain.MinIngredientAmount, domain.MaxIngredientAmount)}
		}
	}

	tagCount, err := uc.tags.CountByIDs(ctx, input.TagIDs)
	if err != nil {
		return err
	}
	if tagCount != int64(len(input.TagIDs)) {
		return domain.ValidationError{Message: "unknown tag reference"}
	}
	ingredientCount, err := uc.ingredients.CountByIDs(ctx, ingredientIDs)
	if err != nil {
		return err
	}
	if ingredientCount != int64(len(ingredientIDs)) {
		return domain.ValidationError{Message: "unknown ingredient reference"}
	}
	return nil
}

func draftOf(input RecipeInput, imagePath string) domain.RecipeDraft {
	return domain.RecipeDraft{
		Name:        input.Name,
		ImagePath:   imagePath,
		Text:        input.Text,
		CookingTime: input.CookingTime,
		TagIDs:      input.TagIDs,
		Ingredients: input.Ingredients,
	}
}

func firstDuplicate(ids []uint) (uint, bool) {
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return id, true
		}
		seen[id] = struct{}{}
	}
	return 0, false
}
