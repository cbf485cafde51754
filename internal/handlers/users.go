package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	mwauth "github.com/contactkeeper/contacts_api/internal/middleware/auth"
	authsvc "github.com/contactkeeper/contacts_api/internal/service/auth"
)

// UserHandler serves the account endpoints behind and around the login
// guard: profile, email confirmation, password reset and avatar upload.
type UserHandler struct {
	Auth     *authsvc.Service
	Uploader AvatarUploader
	Producer EventPublisher
	Mailer   *AuthHandler
}

func (h *UserHandler) Me(c echo.Context) error {
	user := mwauth.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) ConfirmEmail(c echo.Context) error {
	already, err := h.Auth.ConfirmEmail(c.Request().Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, authsvc.ErrUnprocessable) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "Invalid token for email verification")
		}
		if errors.Is(err, authsvc.ErrNotFound) {
			// valid token for an account that no longer exists
			return echo.NewHTTPError(http.StatusBadRequest, "Verification error")
		}
		return httpError(err)
	}
	if already {
		return c.JSON(http.StatusOK, echo.Map{"message": "Your email is already verified"})
	}

	publish(c, h.Producer, userEventsTopic, c.Param("token"), map[string]interface{}{
		"type": "email_confirmed",
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "Email has been verified"})
}

// RequestEmail re-sends the verification link. The response never reveals
// whether the address belongs to an account.
func (h *UserHandler) RequestEmail(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	user, err := h.Auth.UserByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, authsvc.ErrNotFound) {
			return c.JSON(http.StatusOK, echo.Map{"message": "Check your email for confirmation"})
		}
		return httpError(err)
	}
	if user.Confirmed {
		return c.JSON(http.StatusOK, echo.Map{"message": "Your email is already verified"})
	}

	if h.Mailer != nil {
		h.Mailer.sendVerification(user, requestHost(c))
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Check your email for confirmation"})
}

// RequestReset mails a password reset link, with the same uniform response
// for unknown addresses.
func (h *UserHandler) RequestReset(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	user, err := h.Auth.UserByEmail(c.Request().Context(), req.Email)
	if err == nil {
		if h.Mailer != nil {
			h.Mailer.sendReset(user, requestHost(c))
		}
	} else if !errors.Is(err, authsvc.ErrNotFound) {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "If the email is registered, a reset link has been sent"})
}

func (h *UserHandler) ResetPassword(c echo.Context) error {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Token == "" || req.NewPassword == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token and new_password are required")
	}

	if err := h.Auth.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, authsvc.ErrUnprocessable) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "Invalid token for password reset")
		}
		return httpError(err)
	}

	publish(c, h.Producer, userEventsTopic, req.Token, map[string]interface{}{
		"type": "password_reset",
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "Password has been reset"})
}

// UpdateAvatar stores the uploaded image and repoints the admin's avatar
// URL at it. The route is admin-only, enforced by the router group.
func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	user := mwauth.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
	}
	if h.Uploader == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "avatar storage is not configured")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot read upload")
	}
	defer f.Close()

	url, err := h.Uploader.Upload(c.Request().Context(), user.Username, fh.Header.Get("Content-Type"), fh.Size, f)
	if err != nil {
		return httpError(err)
	}

	updated, err := h.Auth.UpdateAvatar(c.Request().Context(), user.Email, url)
	if err != nil {
		return httpError(err)
	}

	publish(c, h.Producer, userEventsTopic, user.Username, map[string]interface{}{
		"type":     "avatar_updated",
		"username": user.Username,
	})
	return c.JSON(http.StatusOK, updated)
}
