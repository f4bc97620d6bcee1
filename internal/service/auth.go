package service

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"golang.org/x/crypto/bcrypt"

	"github.com/platefeed/platefeed/internal/domain"
)

var tracer = otel.Tracer("auth")

const tokenKeyPrefix = "authtoken:"

// CredentialSource resolves a login email into (user id, password hash).
type CredentialSource interface {
	Credentials(ctx context.Context, email string) (uint, string, error)
}

// AuthService issues and resolves opaque bearer tokens backed by redis.
type AuthService struct {
	creds    CredentialSource
	rdb      *redis.Client
	tokenTTL time.Duration
}

func NewAuthService(creds CredentialSource, rdb *redis.Client, tokenTTL time.Duration) *AuthService {
	return &AuthService{creds: creds, rdb: rdb, tokenTTL: tokenTTL}
}

// Login verifies the credentials and issues a token. Wrong email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.Login")
	defer span.End()

	invalid := domain.ValidationError{Message: "unable to log in with provided credentials"}

	id, hash, err := s.creds.Credentials(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return "", invalid
	}
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", invalid
	}

	token := uuid.NewString()
	err = s.rdb.Set(ctx, tokenKeyPrefix+token, strconv.FormatUint(uint64(id), 10), s.tokenTTL).Err()
	if err != nil {
		span.RecordError(err)
		return "", errors.Wrap(err, "store auth token")
	}
	return token, nil
}

// Authenticate resolves a bearer token into a user id.
func (s *AuthService) Authenticate(ctx context.Context, token string) (uint, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.Authenticate")
	defer span.End()

	val, err := s.rdb.Get(ctx, tokenKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return 0, domain.NotFoundError{Resource: "token"}
	}
	if err != nil {
		span.RecordError(err)
		return 0, errors.Wrap(err, "resolve auth token")
	}

	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "corrupt auth token entry")
	}
	return uint(id), nil
}

// Logout revokes the token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	ctx, span := tracer.Start(ctx, "Auth.Service.Logout")
	defer span.End()

	deleted, err := s.rdb.Del(ctx, tokenKeyPrefix+token).Result()
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "revoke auth token")
	}
	if deleted == 0 {
		return domain.NotFoundError{Resource: "token"}
	}
	return nil
}
