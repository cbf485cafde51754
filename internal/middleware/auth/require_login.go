package auth

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/contactkeeper/contacts_api/internal/models"
)

// Sessions is the slice of the auth service the middleware needs.
type Sessions interface {
	ResolveSession(ctx context.Context, accessToken string) (*models.User, error)
	RequireAdmin(user *models.User) (*models.User, error)
}

type Guard struct {
	Auth Sessions
}

// RequireLogin resolves the bearer token into a user and stores it on the
// echo context. Every failure collapses into the same 401.
func (g *Guard) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := bearerToken(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
		}
		user, err := g.Auth.ResolveSession(c.Request().Context(), raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
		}
		c.Set(userKey, user)
		return next(c)
	}
}
