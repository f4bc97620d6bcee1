package usecase

import (
	"context"

	"github.com/platefeed/platefeed/internal/domain"
)

// FollowStore defines the directed-edge operations on users.
type FollowStore interface {
	GetWithRecipes(ctx context.Context, id uint, viewerID uint, recipesLimit *int) (domain.User, error)
	Follow(ctx context.Context, followerID, followingID uint) error
	Unfollow(ctx context.Context, followerID, followingID uint) error
}

// RelationUsecase applies the shared toggle contract to favorites,
// shopping-cart entries, and follows: add fails with Conflict when the
// pair exists, remove fails with NotFound when it does not.
type RelationUsecase struct {
	recipes RecipeRepository
	users   FollowStore
}

func NewRelationUsecase(recipes RecipeRepository, users FollowStore) *RelationUsecase {
	return &RelationUsecase{recipes: recipes, users: users}
}

func (uc *RelationUsecase) AddFavorite(ctx context.Context, userID, recipeID uint) (domain.Recipe, error) {
	return uc.addRecipeRelation(ctx, userID, recipeID, uc.recipes.AddFavorite)
}

func (uc *RelationUsecase) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	return uc.recipes.RemoveFavorite(ctx, userID, recipeID)
}

func (uc *RelationUsecase) AddToCart(ctx context.Context, userID, recipeID uint) (domain.Recipe, error) {
	return uc.addRecipeRelation(ctx, userID, recipeID, uc.recipes.AddToCart)
}

func (uc *RelationUsecase) RemoveFromCart(ctx context.Context, userID, recipeID uint) error {
	return uc.recipes.RemoveFromCart(ctx, userID, recipeID)
}

func (uc *RelationUsecase) addRecipeRelation(ctx context.Context, userID, recipeID uint, add func(context.Context, uint, uint) error) (domain.Recipe, error) {
	base, err := uc.recipes.GetBase(ctx, recipeID)
	if err != nil {
		return domain.Recipe{}, err
	}
	if err := add(ctx, userID, recipeID); err != nil {
		return domain.Recipe{}, err
	}
	return base, nil
}

// Follow creates the follower -> target edge and returns the target's
// profile with embedded recipes. The self-follow check runs before the
// existence check.
func (uc *RelationUsecase) Follow(ctx context.Context, followerID, targetID uint) (domain.User, error) {
	if followerID == targetID {
		return domain.User{}, domain.ValidationError{Message: "cannot subscribe to yourself"}
	}
	user, err := uc.users.GetWithRecipes(ctx, targetID, followerID, nil)
	if err != nil {
		return domain.User{}, err
	}
	if err := uc.users.Follow(ctx, followerID, targetID); err != nil {
		return domain.User{}, err
	}
	// The profile was annotated before the edge existed.
	user.IsSubscribed = true
	return user, nil
}

func (uc *RelationUsecase) Unfollow(ctx context.Context, followerID, targetID uint) error {
	return uc.users.Unfollow(ctx, followerID, targetID)
}
