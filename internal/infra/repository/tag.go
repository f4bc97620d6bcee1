package repository

import (
	"context"
	"time"

	"github.com/gosimple/slug"
	cache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/platefeed/platefeed/internal/domain"
	"github.com/platefeed/platefeed/internal/infra/database/models"
)

const tagListCacheKey = "tags"

// TagRepository reads recipe tags. Tags are read-only from the public
// API, so the full list is cached in-process for a short TTL.
type TagRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewTagRepository(db *gorm.DB) *TagRepository {
	return &TagRepository{
		db:    db,
		cache: cache.New(5*time.Minute, 10*time.Minute),
	}
}

func (r *TagRepository) List(ctx context.Context) ([]domain.Tag, error) {
	if cached, found := r.cache.Get(tagListCacheKey); found {
		return cached.([]domain.Tag), nil
	}

	var rows []models.RecipeTag
	if err := r.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list tags")
	}

	out := make([]domain.Tag, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainTag(row))
	}
	r.cache.SetDefault(tagListCacheKey, out)
	return out, nil
}

func (r *TagRepository) Get(ctx context.Context, id uint) (domain.Tag, error) {
	var row models.RecipeTag
	err := r.db.WithContext(ctx).Take(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Tag{}, domain.NotFoundError{Resource: "tag"}
	}
	if err != nil {
		return domain.Tag{}, errors.Wrap(err, "get tag")
	}
	return toDomainTag(row), nil
}

// CountByIDs reports how many of ids exist, for reference validation.
func (r *TagRepository) CountByIDs(ctx context.Context, ids []uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RecipeTag{}).Where("id IN ?", ids).Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "count tags")
	}
	return count, nil
}

// Create serves fixtures and the admin side. An empty slug is derived
// from the name, transliterating non-Latin alphabets first.
func (r *TagRepository) Create(ctx context.Context, name, color, slugValue string) (domain.Tag, error) {
	if slugValue == "" {
		slugValue = slug.Make(name)
	}
	row := models.RecipeTag{Name: name, Color: color, Slug: slugValue}
	err := r.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.Tag{}, domain.ConflictError{Message: "tag already exists"}
	}
	if err != nil {
		return domain.Tag{}, errors.Wrap(err, "create tag")
	}
	r.cache.Delete(tagListCacheKey)
	return toDomainTag(row), nil
}

func toDomainTag(row models.RecipeTag) domain.Tag {
	return domain.Tag{ID: row.ID, Name: row.Name, Color: row.Color, Slug: row.Slug}
}
