package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/platefeed/platefeed/internal/domain"
	"github.com/platefeed/platefeed/internal/infra/database/models"
)

const (
	favoritedExpr = "EXISTS(SELECT 1 FROM recipe_favorites WHERE recipe_favorites.user_id = ? AND recipe_favorites.recipe_id = recipes.id)"
	inCartExpr    = "EXISTS(SELECT 1 FROM recipe_carts WHERE recipe_carts.user_id = ? AND recipe_carts.recipe_id = recipes.id)"
)

type RecipeRepository struct {
	db *gorm.DB
}

func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// recipeFlagsRow carries the id plus the viewer-relative annotations.
// Flags are computed as correlated EXISTS subqueries so the base
// collection's cardinality and ordering stay untouched.
type recipeFlagsRow struct {
	ID               uint
	IsFavorited      bool
	IsInShoppingCart bool
}

// filtered builds the base query: every filter narrows recipes with a
// subquery, never a row-multiplying join.
func (r *RecipeRepository) filtered(ctx context.Context, viewerID uint, filter domain.RecipeFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Recipe{})

	if len(filter.TagSlugs) > 0 {
		sub := r.db.Table("recipe_tag_links").
			Select("recipe_tag_links.recipe_id").
			Joins("JOIN recipe_tags ON recipe_tags.id = recipe_tag_links.recipe_tag_id").
			Where("recipe_tags.slug IN ?", filter.TagSlugs)
		q = q.Where("recipes.id IN (?)", sub)
	}
	if filter.AuthorID != 0 {
		q = q.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if filter.OnlyFavorited {
		q = q.Where(favoritedExpr, viewerID)
	}
	if filter.OnlyInCart {
		q = q.Where(inCartExpr, viewerID)
	}
	return q
}

// List returns one page of viewer-annotated recipes, newest first, plus
// the total match count. viewerID zero means an anonymous viewer: every
// annotation evaluates to false.
func (r *RecipeRepository) List(ctx context.Context, viewerID uint, filter domain.RecipeFilter, page domain.Page) ([]domain.Recipe, int64, error) {
	q := r.filtered(ctx, viewerID, filter)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count recipes")
	}

	var rows []recipeFlagsRow
	q = q.Select("recipes.id, "+favoritedExpr+" AS is_favorited, "+inCartExpr+" AS is_in_shopping_cart", viewerID, viewerID).
		Order("recipes.pub_date DESC, recipes.id DESC")
	if page.Limit > 0 {
		q = q.Offset(page.Offset()).Limit(page.Limit)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list recipes")
	}

	recipes, err := r.load(ctx, viewerID, rows)
	if err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// Get returns one viewer-annotated recipe with its nested collections.
func (r *RecipeRepository) Get(ctx context.Context, id uint, viewerID uint) (domain.Recipe, error) {
	var rows []recipeFlagsRow
	err := r.db.WithContext(ctx).Model(&models.Recipe{}).
		Select("recipes.id, "+favoritedExpr+" AS is_favorited, "+inCartExpr+" AS is_in_shopping_cart", viewerID, viewerID).
		Where("recipes.id = ?", id).
		Scan(&rows).Error
	if err != nil {
		return domain.Recipe{}, errors.Wrap(err, "get recipe")
	}
	if len(rows) == 0 {
		return domain.Recipe{}, domain.NotFoundError{Resource: "recipe"}
	}

	recipes, err := r.load(ctx, viewerID, rows)
	if err != nil {
		return domain.Recipe{}, err
	}
	return recipes[0], nil
}

// GetBase returns the short projection used by toggle responses.
func (r *RecipeRepository) GetBase(ctx context.Context, id uint) (domain.Recipe, error) {
	var rec models.Recipe
	err := r.db.WithContext(ctx).Take(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Recipe{}, domain.NotFoundError{Resource: "recipe"}
	}
	if err != nil {
		return domain.Recipe{}, errors.Wrap(err, "get recipe")
	}
	return domain.Recipe{
		ID:          rec.ID,
		Name:        rec.Name,
		ImagePath:   rec.ImagePath,
		CookingTime: rec.CookingTime,
		PubDate:     rec.PubDate,
	}, nil
}

// OwnerID returns the recipe's author id for authorization checks.
func (r *RecipeRepository) OwnerID(ctx context.Context, id uint) (uint, error) {
	var rec models.Recipe
	err := r.db.WithContext(ctx).Select("id, author_id").Take(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, domain.NotFoundError{Resource: "recipe"}
	}
	if err != nil {
		return 0, errors.Wrap(err, "get recipe author")
	}
	return rec.AuthorID, nil
}

// NameTaken reports whether the author already has a recipe with this
// name, excluding excludeID (zero for creates). The unique index on
// (author_id, name) remains the race-safe backstop.
func (r *RecipeRepository) NameTaken(ctx context.Context, authorID uint, name string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("author_id = ? AND name = ? AND id <> ?", authorID, name, excludeID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "check recipe name")
	}
	return count > 0, nil
}

// Create persists the recipe together with its tag set and ingredient
// lines in one transaction. A failure at any step leaves no recipe row.
func (r *RecipeRepository) Create(ctx context.Context, authorID uint, draft domain.RecipeDraft) (uint, error) {
	rec := models.Recipe{
		AuthorID:    authorID,
		Name:        draft.Name,
		ImagePath:   draft.ImagePath,
		Text:        draft.Text,
		CookingTime: draft.CookingTime,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		if err := replaceTags(tx, &rec, draft.TagIDs); err != nil {
			return err
		}
		return tx.Create(ingredientLinks(rec.ID, draft.Ingredients)).Error
	})
	if err != nil {
		return 0, translateRecipeErr(err)
	}
	return rec.ID, nil
}

// Update is whole-object replacement: recipe fields are overwritten, the
// tag set is replaced, and all ingredient lines are deleted and
// re-inserted, all inside one transaction. An empty ImagePath keeps the
// stored image.
func (r *RecipeRepository) Update(ctx context.Context, id uint, draft domain.RecipeDraft) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fields := map[string]any{
			"name":         draft.Name,
			"text":         draft.Text,
			"cooking_time": draft.CookingTime,
		}
		if draft.ImagePath != "" {
			fields["image_path"] = draft.ImagePath
		}
		res := tx.Model(&models.Recipe{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.NotFoundError{Resource: "recipe"}
		}
		if err := replaceTags(tx, &models.Recipe{ID: id}, draft.TagIDs); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		return tx.Create(ingredientLinks(id, draft.Ingredients)).Error
	})
	return translateRecipeErr(err)
}

func (r *RecipeRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Junction rows go first so the delete also works on backends
		// that were migrated without FK cascades.
		if err := tx.Model(&models.Recipe{ID: id}).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeFavorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeCart{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Recipe{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.NotFoundError{Resource: "recipe"}
		}
		return nil
	})
}

// AddFavorite inserts the (user, recipe) favorite row. The composite
// primary key is the final guard: concurrent duplicate adds surface as
// a Conflict, never a second row.
func (r *RecipeRepository) AddFavorite(ctx context.Context, userID, recipeID uint) error {
	return r.addRelation(ctx, &models.RecipeFavorite{UserID: userID, RecipeID: recipeID}, "favorite")
}

func (r *RecipeRepository) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	return r.removeRelation(ctx, &models.RecipeFavorite{}, userID, recipeID, "favorite")
}

func (r *RecipeRepository) AddToCart(ctx context.Context, userID, recipeID uint) error {
	return r.addRelation(ctx, &models.RecipeCart{UserID: userID, RecipeID: recipeID}, "shopping cart entry")
}

func (r *RecipeRepository) RemoveFromCart(ctx context.Context, userID, recipeID uint) error {
	return r.removeRelation(ctx, &models.RecipeCart{}, userID, recipeID, "shopping cart entry")
}

func (r *RecipeRepository) addRelation(ctx context.Context, row any, kind string) error {
	err := r.db.WithContext(ctx).Create(row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ConflictError{Message: kind + " already exists"}
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return domain.NotFoundError{Resource: "recipe"}
	}
	if err != nil {
		return errors.Wrap(err, "add "+kind)
	}
	return nil
}

func (r *RecipeRepository) removeRelation(ctx context.Context, model any, userID, recipeID uint, kind string) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(model)
	if res.Error != nil {
		return errors.Wrap(res.Error, "remove "+kind)
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundError{Resource: kind}
	}
	return nil
}

// load resolves annotated id rows into full recipes, preserving the row
// order, and attaches authors annotated for the same viewer.
func (r *RecipeRepository) load(ctx context.Context, viewerID uint, rows []recipeFlagsRow) ([]domain.Recipe, error) {
	if len(rows) == 0 {
		return []domain.Recipe{}, nil
	}

	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	var recs []models.Recipe
	err := r.db.WithContext(ctx).
		Preload("Tags").
		Preload("Ingredients.Ingredient.MeasurementUnit").
		Where("id IN ?", ids).
		Find(&recs).Error
	if err != nil {
		return nil, errors.Wrap(err, "load recipes")
	}

	byID := make(map[uint]models.Recipe, len(recs))
	authorIDs := make([]uint, 0, len(recs))
	for _, rec := range recs {
		byID[rec.ID] = rec
		authorIDs = append(authorIDs, rec.AuthorID)
	}

	authors, err := annotatedUsersByID(ctx, r.db, authorIDs, viewerID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Recipe, 0, len(rows))
	for _, row := range rows {
		rec, ok := byID[row.ID]
		if !ok {
			continue
		}
		out = append(out, toDomainRecipe(rec, authors[rec.AuthorID], row))
	}
	return out, nil
}

func toDomainRecipe(rec models.Recipe, author domain.User, flags recipeFlagsRow) domain.Recipe {
	tags := make([]domain.Tag, 0, len(rec.Tags))
	for _, t := range rec.Tags {
		tags = append(tags, domain.Tag{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug})
	}
	ingredients := make([]domain.IngredientAmount, 0, len(rec.Ingredients))
	for _, line := range rec.Ingredients {
		ingredients = append(ingredients, domain.IngredientAmount{
			Ingredient: domain.Ingredient{
				ID:              line.Ingredient.ID,
				Name:            line.Ingredient.Name,
				MeasurementUnit: line.Ingredient.MeasurementUnit.Name,
			},
			Amount: int64(line.Amount),
		})
	}
	return domain.Recipe{
		ID:               rec.ID,
		Author:           author,
		Name:             rec.Name,
		ImagePath:        rec.ImagePath,
		Text:             rec.Text,
		CookingTime:      rec.CookingTime,
		PubDate:          rec.PubDate,
		Tags:             tags,
		Ingredients:      ingredients,
		IsFavorited:      flags.IsFavorited,
		IsInShoppingCart: flags.IsInShoppingCart,
	}
}

// replaceTags sets the recipe's tag set to exactly ids.
func replaceTags(tx *gorm.DB, rec *models.Recipe, ids []uint) error {
	tags := make([]models.RecipeTag, 0, len(ids))
	for _, id := range ids {
		tags = append(tags, models.RecipeTag{ID: id})
	}
	return tx.Model(rec).Association("Tags").Replace(&tags)
}

func ingredientLinks(recipeID uint, refs []domain.IngredientRef) []models.RecipeIngredient {
	links := make([]models.RecipeIngredient, 0, len(refs))
	for _, ref := range refs {
		links = append(links, models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: ref.IngredientID,
			Amount:       ref.Amount,
		})
	}
	return links
}

func translateRecipeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ConflictError{Message: "author already has a recipe with this name"}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return domain.ValidationError{Message: "unknown tag or ingredient reference"}
	default:
		return err
	}
}
