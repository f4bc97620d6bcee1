package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/platefeed/platefeed/internal/domain"
	"github.com/platefeed/platefeed/internal/infra/database/models"
)

const (
	subscribedExpr   = "EXISTS(SELECT 1 FROM subscriptions WHERE subscriptions.follower_id = ? AND subscriptions.following_id = users.id)"
	recipesCountExpr = "(SELECT COUNT(*) FROM recipes WHERE recipes.author_id = users.id)"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

type userRow struct {
	models.User
	IsSubscribed bool
	RecipesCount int64
}

func annotatedUsers(db *gorm.DB, viewerID uint) *gorm.DB {
	return db.Model(&models.User{}).
		Select("users.*, "+subscribedExpr+" AS is_subscribed, "+recipesCountExpr+" AS recipes_count", viewerID)
}

// annotatedUsersByID loads viewer-annotated users keyed by id. Shared
// with the recipe repository for author embedding.
func annotatedUsersByID(ctx context.Context, db *gorm.DB, ids []uint, viewerID uint) (map[uint]domain.User, error) {
	if len(ids) == 0 {
		return map[uint]domain.User{}, nil
	}
	var rows []userRow
	err := annotatedUsers(db.WithContext(ctx), viewerID).
		Where("users.id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "load users")
	}
	out := make(map[uint]domain.User, len(rows))
	for _, row := range rows {
		out[row.ID] = toDomainUser(row)
	}
	return out, nil
}

func toDomainUser(row userRow) domain.User {
	return domain.User{
		ID:           row.ID,
		Email:        row.Email,
		Username:     row.Username,
		FirstName:    row.FirstName,
		LastName:     row.LastName,
		IsSubscribed: row.IsSubscribed,
		RecipesCount: row.RecipesCount,
	}
}

// Create registers a user. The email unique index turns duplicate
// registrations into a Conflict.
func (r *UserRepository) Create(ctx context.Context, reg domain.Registration, passwordHash string) (domain.User, error) {
	user := models.User{
		Email:     reg.Email,
		Username:  reg.Username,
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		Password:  passwordHash,
	}
	err := r.db.WithContext(ctx).Create(&user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.User{}, domain.ConflictError{Message: "user with this email already exists"}
	}
	if err != nil {
		return domain.User{}, errors.Wrap(err, "create user")
	}
	return domain.User{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}, nil
}

// Credentials resolves a login email into (user id, password hash).
func (r *UserRepository) Credentials(ctx context.Context, email string) (uint, string, error) {
	var user models.User
	err := r.db.WithContext(ctx).Take(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, "", domain.NotFoundError{Resource: "user"}
	}
	if err != nil {
		return 0, "", errors.Wrap(err, "get credentials")
	}
	return user.ID, user.Password, nil
}

func (r *UserRepository) PasswordHash(ctx context.Context, id uint) (string, error) {
	var user models.User
	err := r.db.WithContext(ctx).Select("id, password").Take(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", domain.NotFoundError{Resource: "user"}
	}
	if err != nil {
		return "", errors.Wrap(err, "get password hash")
	}
	return user.Password, nil
}

func (r *UserRepository) SetPassword(ctx context.Context, id uint, hash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password", hash)
	if res.Error != nil {
		return errors.Wrap(res.Error, "set password")
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "user"}
	}
	return nil
}

// Get returns one user annotated for the viewer.
func (r *UserRepository) Get(ctx context.Context, id uint, viewerID uint) (domain.User, error) {
	var rows []userRow
	err := annotatedUsers(r.db.WithContext(ctx), viewerID).
		Where("users.id = ?", id).
		Scan(&rows).Error
	if err != nil {
		return domain.User{}, errors.Wrap(err, "get user")
	}
	if len(rows) == 0 {
		return domain.User{}, domain.NotFoundError{Resource: "user"}
	}
	return toDomainUser(rows[0]), nil
}

// List returns one page of viewer-annotated users ordered by id.
func (r *UserRepository) List(ctx context.Context, viewerID uint, page domain.Page) ([]domain.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count users")
	}

	q := annotatedUsers(r.db.WithContext(ctx), viewerID).Order("users.id")
	if page.Limit > 0 {
		q = q.Offset(page.Offset()).Limit(page.Limit)
	}
	var rows []userRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list users")
	}

	out := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainUser(row))
	}
	return out, total, nil
}

// Subscriptions lists the authors the user follows, each with their
// recipes embedded in default order. recipesLimit nil embeds all
// recipes; a negative limit is clamped to zero by the caller.
func (r *UserRepository) Subscriptions(ctx context.Context, followerID uint, recipesLimit *int, page domain.Page) ([]domain.User, int64, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.User{}).
			Joins("JOIN subscriptions ON subscriptions.following_id = users.id").
			Where("subscriptions.follower_id = ?", followerID)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count subscriptions")
	}

	q := base().
		Select("users.*, "+subscribedExpr+" AS is_subscribed, "+recipesCountExpr+" AS recipes_count", followerID).
		Order("users.id")
	if page.Limit > 0 {
		q = q.Offset(page.Offset()).Limit(page.Limit)
	}
	var rows []userRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list subscriptions")
	}

	out := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		user := toDomainUser(row)
		recipes, err := r.authorRecipes(ctx, row.ID, recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		user.Recipes = recipes
		out = append(out, user)
	}
	return out, total, nil
}

// GetWithRecipes returns the viewer-annotated profile with embedded
// recipes, used by the follow response.
func (r *UserRepository) GetWithRecipes(ctx context.Context, id uint, viewerID uint, recipesLimit *int) (domain.User, error) {
	user, err := r.Get(ctx, id, viewerID)
	if err != nil {
		return domain.User{}, err
	}
	recipes, err := r.authorRecipes(ctx, id, recipesLimit)
	if err != nil {
		return domain.User{}, err
	}
	user.Recipes = recipes
	return user, nil
}

func (r *UserRepository) authorRecipes(ctx context.Context, authorID uint, limit *int) ([]domain.Recipe, error) {
	if limit != nil && *limit <= 0 {
		return []domain.Recipe{}, nil
	}

	q := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("pub_date DESC, id DESC")
	if limit != nil {
		q = q.Limit(*limit)
	}
	var recs []models.Recipe
	if err := q.Find(&recs).Error; err != nil {
		return nil, errors.Wrap(err, "load author recipes")
	}

	out := make([]domain.Recipe, 0, len(recs))
	for _, rec := range recs {
		out = append(out, domain.Recipe{
			ID:          rec.ID,
			Name:        rec.Name,
			ImagePath:   rec.ImagePath,
			CookingTime: rec.CookingTime,
			PubDate:     rec.PubDate,
		})
	}
	return out, nil
}

// Follow inserts the directed edge. The composite primary key and the
// anti-self-loop CHECK are the storage-level backstops.
func (r *UserRepository) Follow(ctx context.Context, followerID, followingID uint) error {
	sub := models.Subscription{FollowerID: followerID, FollowingID: followingID}
	err := r.db.WithContext(ctx).Create(&sub).Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ConflictError{Message: "subscription already exists"}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return domain.NotFoundError{Resource: "user"}
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return domain.ValidationError{Message: "cannot subscribe to yourself"}
	default:
		return errors.Wrap(err, "follow user")
	}
}

func (r *UserRepository) Unfollow(ctx context.Context, followerID, followingID uint) error {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Subscription{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "unfollow user")
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "subscription"}
	}
	return nil
}
