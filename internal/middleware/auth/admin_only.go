package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AdminOnly assumes RequireLogin already ran on the group.
func (g *Guard) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := g.Auth.RequireAdmin(CurrentUser(c)); err != nil {
			return echo.NewHTTPError(http.StatusForbidden, "Not enough rights")
		}
		return next(c)
	}
}
