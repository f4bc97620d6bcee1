package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/platefeed/platefeed/internal/domain"
	"github.com/platefeed/platefeed/internal/present/rest/presenter"
	"github.com/platefeed/platefeed/internal/service"
)

var tracer = otel.Tracer("auth")

type AuthMiddleware struct {
	auth *service.AuthService
}

func NewAuthMiddleware(auth *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		auth: auth,
	}
}

// IdentifyRequester resolves the bearer token, if any, into a requester
// id on the request context. Anonymous requests pass through untouched.
func (s *AuthMiddleware) IdentifyRequester(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.IdentifyRequester")
		defer span.End()

		authHeader := c.Request().Header.Get("authorization")

		if authHeader != "" {
			split := strings.Split(authHeader, " ")
			if len(split) != 2 {
				span.RecordError(fmt.Errorf("invalid authentication header"))
				goto skipCheckAuthorization
			}

			authType, token := split[0], split[1]
			if !strings.EqualFold(authType, "Bearer") && !strings.EqualFold(authType, "Token") {
				span.RecordError(fmt.Errorf("unsupported authentication scheme"))
				goto skipCheckAuthorization
			}

			requesterID, err := s.auth.Authenticate(ctx, token)
			if err != nil {
				span.RecordError(errors.Wrap(err, "AuthMiddleware.IdentifyRequester: s.auth.Authenticate failed"))
				goto skipCheckAuthorization
			}

			ctx = context.WithValue(ctx, domain.RequesterIDCtxKey, requesterID)
			ctx = context.WithValue(ctx, domain.RequesterTokenCtxKey, token)
			span.SetAttributes(attribute.Int("RequesterId", int(requesterID)))
		}

	skipCheckAuthorization:
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// RequireAuth rejects requests that did not resolve to a requester.
// Must run after IdentifyRequester.
func (s *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if _, ok := ctx.Value(domain.RequesterIDCtxKey).(uint); !ok {
			return presenter.Unauthorized(c, "authentication credentials were not provided")
		}
		return next(c)
	}
}
