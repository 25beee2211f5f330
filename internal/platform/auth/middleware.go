package auth

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/claimease/claimease/internal/platform/apperr"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// Verifier resolves a bearer token to a user id.
type Verifier interface {
	Verify(token string) (int64, error)
}

// RequireUser rejects requests without a valid bearer token before the
// wrapped handler runs. On success the user id is stored on the request
// context and on the echo context under "user_id".
func RequireUser(v Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return err
			}

			userID, err := v.Verify(token)
			if err != nil {
				return err
			}

			c.Set(string(UserIDKey), userID)
			ctx := WithUserID(c.Request().Context(), userID)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", apperr.New(apperr.KindUnauthenticated, "missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperr.New(apperr.KindUnauthenticated, "invalid authorization format")
	}
	return strings.TrimSpace(parts[1]), nil
}

func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	uid, ok := ctx.Value(UserIDKey).(int64)
	return uid, ok && uid > 0
}

// CurrentUser is the handler-side accessor. It fails with Unauthenticated
// when the route was not wrapped by RequireUser.
func CurrentUser(c echo.Context) (int64, error) {
	if uid, ok := UserIDFromContext(c.Request().Context()); ok {
		return uid, nil
	}
	return 0, apperr.New(apperr.KindUnauthenticated, "authentication required")
}
