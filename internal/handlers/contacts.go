package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	mwauth "github.com/contactkeeper/contacts_api/internal/middleware/auth"
	"github.com/contactkeeper/contacts_api/internal/models"
	"github.com/contactkeeper/contacts_api/internal/repo"
	contactsvc "github.com/contactkeeper/contacts_api/internal/service/contacts"
)

type ContactHandler struct {
	Contacts *contactsvc.Service
	Producer EventPublisher
}

var earliestBirthDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// contactRequest is the transport shape of a contact; birth_date travels as
// YYYY-MM-DD rather than a full timestamp.
type contactRequest struct {
	Name           string `json:"name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	BirthDate      string `json:"birth_date"`
	AdditionalInfo string `json:"additional_info"`
}

func (r *contactRequest) toModel() (*models.Contact, error) {
	if r.Name == "" || r.LastName == "" || r.Email == "" || r.Phone == "" {
		return nil, fmt.Errorf("name, last_name, email and phone are required")
	}

	contact := &models.Contact{
		Name:           r.Name,
		LastName:       r.LastName,
		Email:          r.Email,
		Phone:          r.Phone,
		AdditionalInfo: r.AdditionalInfo,
	}
	if r.BirthDate != "" {
		t, err := time.Parse("2006-01-02", r.BirthDate)
		if err != nil {
			return nil, fmt.Errorf("birth_date must be YYYY-MM-DD")
		}
		if t.After(time.Now()) {
			return nil, fmt.Errorf("birth_date cannot be in the future")
		}
		if t.Before(earliestBirthDate) {
			return nil, fmt.Errorf("birth_date cannot be before 1900-01-01")
		}
		contact.BirthDate = &t
	}
	return contact, nil
}

func contactID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid contact id")
	}
	return uint(id), nil
}

func (h *ContactHandler) List(c echo.Context) error {
	user := mwauth.CurrentUser(c)

	skip, _ := strconv.Atoi(c.QueryParam("skip"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	filter := repo.ContactFilter{
		Name:     c.QueryParam("name"),
		LastName: c.QueryParam("last_name"),
		Email:    c.QueryParam("email"),
		Skip:     skip,
		Limit:    limit,
	}

	list, err := h.Contacts.List(c.Request().Context(), user, filter)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *ContactHandler) Upcoming(c echo.Context) error {
	user := mwauth.CurrentUser(c)
	days, _ := strconv.Atoi(c.QueryParam("days"))

	list, err := h.Contacts.Upcoming(c.Request().Context(), user, days)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *ContactHandler) Get(c echo.Context) error {
	user := mwauth.CurrentUser(c)
	id, err := contactID(c)
	if err != nil {
		return err
	}

	contact, err := h.Contacts.Get(c.Request().Context(), user, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, contact)
}

func (h *ContactHandler) Create(c echo.Context) error {
	user := mwauth.CurrentUser(c)

	var req contactRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	contact, err := req.toModel()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := h.Contacts.Create(c.Request().Context(), user, contact)
	if err != nil {
		return httpError(err)
	}

	publish(c, h.Producer, contactEventsTopic, fmt.Sprint(created.ID), map[string]interface{}{
		"type":       "contact_created",
		"contact_id": created.ID,
		"user_id":    user.ID,
	})
	return c.JSON(http.StatusCreated, created)
}

func (h *ContactHandler) Update(c echo.Context) error {
	user := mwauth.CurrentUser(c)
	id, err := contactID(c)
	if err != nil {
		return err
	}

	var req contactRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	fields, err := req.toModel()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, err := h.Contacts.Update(c.Request().Context(), user, id, fields)
	if err != nil {
		return httpError(err)
	}

	publish(c, h.Producer, contactEventsTopic, fmt.Sprint(updated.ID), map[string]interface{}{
		"type":       "contact_updated",
		"contact_id": updated.ID,
		"user_id":    user.ID,
	})
	return c.JSON(http.StatusOK, updated)
}

func (h *ContactHandler) Delete(c echo.Context) error {
	user := mwauth.CurrentUser(c)
	id, err := contactID(c)
	if err != nil {
		return err
	}

	deleted, err := h.Contacts.Delete(c.Request().Context(), user, id)
	if err != nil {
		return httpError(err)
	}

	publish(c, h.Producer, contactEventsTopic, fmt.Sprint(deleted.ID), map[string]interface{}{
		"type":       "contact_deleted",
		"contact_id": deleted.ID,
		"user_id":    user.ID,
	})
	return c.JSON(http.StatusOK, deleted)
}
