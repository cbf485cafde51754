package httpserver

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/contactkeeper/contacts_api/internal/handlers"
	"github.com/contactkeeper/contacts_api/internal/logging"
	mwauth "github.com/contactkeeper/contacts_api/internal/middleware/auth"
)

type Deps struct {
	DB             *gorm.DB
	Guard          *mwauth.Guard
	AuthHandler    *handlers.AuthHandler
	UserHandler    *handlers.UserHandler
	ContactHandler *handlers.ContactHandler
	SearchHandler  *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.GET("/confirmed_email/:token", d.UserHandler.ConfirmEmail)
	auth.POST("/request_email", d.UserHandler.RequestEmail)
	auth.POST("/request_reset", d.UserHandler.RequestReset)
	auth.POST("/reset_password", d.UserHandler.ResetPassword)
	auth.GET("/me", d.UserHandler.Me, RateLimiter(rate.Limit(1), 5), d.Guard.RequireLogin)
	auth.PATCH("/avatar", d.UserHandler.UpdateAvatar, d.Guard.RequireLogin, d.Guard.AdminOnly)

	contacts := api.Group("/contacts", d.Guard.RequireLogin)
	contacts.GET("", d.ContactHandler.List)
	contacts.POST("", d.ContactHandler.Create)
	contacts.GET("/upcoming", d.ContactHandler.Upcoming)
	contacts.GET("/search", d.SearchHandler.Search)
	contacts.GET("/:id", d.ContactHandler.Get)
	contacts.PUT("/:id", d.ContactHandler.Update)
	contacts.DELETE("/:id", d.ContactHandler.Delete)
}

// RateLimiter caps a route per client IP: a short burst, then the steady
// rate. Exceeding it answers 429.
func RateLimiter(r rate.Limit, burst int) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      r,
			Burst:     burst,
			ExpiresIn: time.Minute,
		}),
	})
}

// RequestLogger injects the app logger into the request context and writes
// one line per completed request.
func RequestLogger(l *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			reqLog := l.With("request_id", c.Response().Header().Get(echo.HeaderXRequestID))
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), reqLog)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			reqLog.Info("request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return err
		}
	}
}
