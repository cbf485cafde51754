package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/contactkeeper/contacts_api/internal/models"
)

const userKey = "user"

// CurrentUser returns the user set by RequireLogin, or nil outside a
// guarded route.
func CurrentUser(c echo.Context) *models.User {
	if u, ok := c.Get(userKey).(*models.User); ok {
		return u
	}
	return nil
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(raw)
}
