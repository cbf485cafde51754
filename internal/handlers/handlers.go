package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/contactkeeper/contacts_api/internal/logging"
	"github.com/contactkeeper/contacts_api/internal/repo"
	authsvc "github.com/contactkeeper/contacts_api/internal/service/auth"
	contactsvc "github.com/contactkeeper/contacts_api/internal/service/contacts"
	"github.com/contactkeeper/contacts_api/internal/upload"
)

const (
	userEventsTopic    = "user_events"
	contactEventsTopic = "contact_events"
)

// EventPublisher is the kafka producer slice the handlers use. A nil
// publisher disables events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event interface{}) error
}

// AvatarUploader stores an avatar image and returns its public URL.
type AvatarUploader interface {
	Upload(ctx context.Context, username, contentType string, size int64, r io.Reader) (string, error)
}

// httpError maps the service error taxonomy onto HTTP statuses. Unmapped
// errors surface as 500 without leaking their message.
func httpError(err error) error {
	switch {
	case errors.Is(err, authsvc.ErrEmailNotVerified):
		return echo.NewHTTPError(http.StatusUnauthorized, "Email address not verified")
	case errors.Is(err, authsvc.ErrEmailTaken):
		return echo.NewHTTPError(http.StatusConflict, "A user with this email already exists")
	case errors.Is(err, authsvc.ErrUsernameTaken):
		return echo.NewHTTPError(http.StatusConflict, "A user with this username already exists")
	case errors.Is(err, authsvc.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
	case errors.Is(err, authsvc.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "Not enough rights")
	case errors.Is(err, authsvc.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "Already exists")
	case errors.Is(err, authsvc.ErrUnprocessable):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "Invalid token")
	case errors.Is(err, authsvc.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	case errors.Is(err, contactsvc.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Contact not found")
	case errors.Is(err, repo.ErrDuplicate):
		return echo.NewHTTPError(http.StatusConflict, "Contact already exists")
	case errors.Is(err, upload.ErrUnsupportedType):
		return echo.NewHTTPError(http.StatusBadRequest, "Unsupported image type")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
}

// publish sends a domain event without tying its fate to the response: the
// request may already be done when the broker answers, so the context is
// detached, and a failed publish is only logged.
func publish(c echo.Context, p EventPublisher, topic, key string, event map[string]interface{}) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), 5*time.Second)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish failed",
			"topic", topic, "key", key, "error", err)
	}
}

// requestHost reconstructs the external base URL used in mailed links.
func requestHost(c echo.Context) string {
	return c.Scheme() + "://" + c.Request().Host
}
