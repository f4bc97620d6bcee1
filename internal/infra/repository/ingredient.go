package repository

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/platefeed/platefeed/internal/domain"
	"github.com/platefeed/platefeed/internal/infra/database/models"
)

type IngredientRepository struct {
	db *gorm.DB
}

func NewIngredientRepository(db *gorm.DB) *IngredientRepository {
	return &IngredientRepository{db: db}
}

// Search lists ingredients whose name contains name, case-insensitive.
// Rows whose name starts with the query sort ahead of rows that merely
// contain it, then alphabetically. An empty query lists everything by name.
func (r *IngredientRepository) Search(ctx context.Context, name string) ([]domain.Ingredient, error) {
	q := r.db.WithContext(ctx).Model(&models.Ingredient{}).Preload("MeasurementUnit")

	if name != "" {
		needle := strings.ToLower(name)
		q = q.Where("LOWER(name) LIKE ?", "%"+needle+"%").
			Clauses(clause.OrderBy{Expression: clause.Expr{
				SQL:                "CASE WHEN LOWER(name) LIKE ? THEN 0 ELSE 1 END, name",
				Vars:               []any{needle + "%"},
				WithoutParentheses: true,
			}})
	} else {
		q = q.Order("name")
	}

	var rows []models.Ingredient
	if err := q.Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "search ingredients")
	}
	return toDomainIngredients(rows), nil
}

func (r *IngredientRepository) Get(ctx context.Context, id uint) (domain.Ingredient, error) {
	var row models.Ingredient
	err := r.db.WithContext(ctx).Preload("MeasurementUnit").Take(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Ingredient{}, domain.NotFoundError{Resource: "ingredient"}
	}
	if err != nil {
		return domain.Ingredient{}, errors.Wrap(err, "get ingredient")
	}
	return domain.Ingredient{ID: row.ID, Name: row.Name, MeasurementUnit: row.MeasurementUnit.Name}, nil
}

// CountByIDs reports how many of ids exist, for reference validation.
func (r *IngredientRepository) CountByIDs(ctx context.Context, ids []uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Ingredient{}).Where("id IN ?", ids).Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "count ingredients")
	}
	return count, nil
}

// UserCart aggregates the distinct ingredients across every recipe in
// the user's cart, summing amounts per ingredient, ordered by name.
func (r *IngredientRepository) UserCart(ctx context.Context, userID uint) ([]domain.IngredientAmount, error) {
	type cartRow struct {
		ID    uint
		Name  string
		Unit  string
		Total int64
	}
	var rows []cartRow
	err := r.db.WithContext(ctx).Table("recipe_ingredients").
		Select("ingredients.id AS id, ingredients.name AS name, measurement_units.name AS unit, SUM(recipe_ingredients.amount) AS total").
		Joins("JOIN recipe_carts ON recipe_carts.recipe_id = recipe_ingredients.recipe_id AND recipe_carts.user_id = ?", userID).
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN measurement_units ON measurement_units.id = ingredients.measurement_unit_id").
		Group("ingredients.id, ingredients.name, measurement_units.name").
		Order("ingredients.name").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "aggregate shopping cart")
	}

	out := make([]domain.IngredientAmount, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.IngredientAmount{
			Ingredient: domain.Ingredient{ID: row.ID, Name: row.Name, MeasurementUnit: row.Unit},
			Amount:     row.Total,
		})
	}
	return out, nil
}

// Create is not exposed through the public API; it serves fixtures and
// the admin side. Deleting referenced ingredients is restricted by the
// FK, mirroring the unit restriction below them.
func (r *IngredientRepository) Create(ctx context.Context, name string, unitID uint) (domain.Ingredient, error) {
	row := models.Ingredient{Name: name, MeasurementUnitID: unitID}
	err := r.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.Ingredient{}, domain.ConflictError{Message: "ingredient already exists"}
	}
	if err != nil {
		return domain.Ingredient{}, errors.Wrap(err, "create ingredient")
	}
	return domain.Ingredient{ID: row.ID, Name: row.Name}, nil
}

func toDomainIngredients(rows []models.Ingredient) []domain.Ingredient {
	out := make([]domain.Ingredient, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Ingredient{
			ID:              row.ID,
			Name:            row.Name,
			MeasurementUnit: row.MeasurementUnit.Name,
		})
	}
	return out
}
