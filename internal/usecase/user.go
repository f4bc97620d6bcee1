package usecase

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/platefeed/platefeed/internal/domain"
)

// UserRepository defines persistence/lookup for accounts and their
// subscription annotations.
type UserRepository interface {
	Create(ctx context.Context, reg domain.Registration, passwordHash string) (domain.User, error)
	Get(ctx context.Context, id uint, viewerID uint) (domain.User, error)
	List(ctx context.Context, viewerID uint, page domain.Page) ([]domain.User, int64, error)
	Subscriptions(ctx context.Context, followerID uint, recipesLimit *int, page domain.Page) ([]domain.User, int64, error)
	PasswordHash(ctx context.Context, id uint) (string, error)
	SetPassword(ctx context.Context, id uint, hash string) error
}

type UserUsecase struct {
	repo UserRepository
}

func NewUserUsecase(repo UserRepository) *UserUsecase {
	return &UserUsecase{repo: repo}
}

func (uc *UserUsecase) Register(ctx context.Context, reg domain.Registration) (domain.User, error) {
	if reg.Email == "" {
		return domain.User{}, domain.ValidationError{Message: "email is required"}
	}
	if reg.Username == "" {
		return domain.User{}, domain.ValidationError{Message: "username is required"}
	}
	if reg.Password == "" {
		return domain.User{}, domain.ValidationError{Message: "password is required"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}
	return uc.repo.Create(ctx, reg, string(hash))
}

func (uc *UserUsecase) Get(ctx context.Context, id uint, viewerID uint) (domain.User, error) {
	return uc.repo.Get(ctx, id, viewerID)
}

func (uc *UserUsecase) List(ctx context.Context, viewerID uint, page domain.Page) ([]domain.User, int64, error) {
	return uc.repo.List(ctx, viewerID, page)
}

func (uc *UserUsecase) SetPassword(ctx context.Context, userID uint, current, next string) error {
	if next == "" {
		return domain.ValidationError{Message: "new password is required"}
	}
	hash, err := uc.repo.PasswordHash(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(current)) != nil {
		return domain.ValidationError{Message: "current password is incorrect"}
	}
	newHash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return uc.repo.SetPassword(ctx, userID, string(newHash))
}

// Subscriptions lists followed authors with embedded recipes. A
// negative recipes limit behaves like zero: no recipes embedded.
func (uc *UserUsecase) Subscriptions(ctx context.Context, userID uint, recipesLimit *int, page domain.Page) ([]domain.User, int64, error) {
	if recipesLimit != nil && *recipesLimit < 0 {
		zero := 0
		recipesLimit = &zero
	}
	return uc.repo.Subscriptions(ctx, userID, recipesLimit, page)
}
