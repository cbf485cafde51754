package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/contactkeeper/contacts_api/internal/mail"
	"github.com/contactkeeper/contacts_api/internal/models"
	authsvc "github.com/contactkeeper/contacts_api/internal/service/auth"
)

type AuthHandler struct {
	Auth     *authsvc.Service
	Mail     mail.Sender
	Producer EventPublisher
	Log      *slog.Logger
}

func (h *AuthHandler) logger() *slog.Logger {
	if h.Log != nil {
		return h.Log
	}
	return slog.Default()
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username, email and password are required")
	}

	user, err := h.Auth.Register(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}

	h.sendVerification(user, requestHost(c))

	publish(c, h.Producer, userEventsTopic, user.Username, map[string]interface{}{
		"type":     "user_registered",
		"user_id":  user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	pair, err := h.Auth.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		// unknown username and wrong password share one message
		if errors.Is(err, authsvc.ErrUnauthorized) && !errors.Is(err, authsvc.ErrEmailNotVerified) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid username or password")
		}
		return httpError(err)
	}

	publish(c, h.Producer, userEventsTopic, req.Username, map[string]interface{}{
		"type":     "user_logged_in",
		"username": req.Username,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    "bearer",
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	pair, err := h.Auth.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    "bearer",
	})
}

// sendVerification issues a verification token and mails the link in the
// background. The request never waits on SMTP.
func (h *AuthHandler) sendVerification(user *models.User, host string) {
	if h.Mail == nil {
		return
	}
	tok, err := h.Auth.IssueVerificationToken(user.Email)
	if err != nil {
		h.logger().Error("verification token issue failed", "email", user.Email, "error", err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.Mail.SendVerification(ctx, user.Email, user.Username, host, tok); err != nil {
			h.logger().Error("verification mail failed", "email", user.Email, "error", err)
		}
	}()
}

func (h *AuthHandler) sendReset(user *models.User, host string) {
	if h.Mail == nil {
		return
	}
	tok, err := h.Auth.IssueResetToken(user.Email)
	if err != nil {
		h.logger().Error("reset token issue failed", "email", user.Email, "error", err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.Mail.SendReset(ctx, user.Email, user.Username, host, tok); err != nil {
			h.logger().Error("reset mail failed", "email", user.Email, "error", err)
		}
	}()
}
