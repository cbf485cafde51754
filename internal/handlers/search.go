package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	mwauth "github.com/contactkeeper/contacts_api/internal/middleware/auth"
	contactsvc "github.com/contactkeeper/contacts_api/internal/service/contacts"
	"github.com/contactkeeper/contacts_api/internal/util"
)

type SearchHandler struct {
	Contacts *contactsvc.Service
}

func (h *SearchHandler) Search(c echo.Context) error {
	user := mwauth.CurrentUser(c)

	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, size := util.Calculate(page, size)

	total, contacts, err := h.Contacts.Search(c.Request().Context(), user, q, from, size)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "contacts": contacts})
}
