// Package router wires the portal's routes and middleware onto echo.
package router

import (
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/sportsvenue-portal/internal/admin"
	"github.com/iliyamo/sportsvenue-portal/internal/config"
	"github.com/iliyamo/sportsvenue-portal/internal/handler"
	"github.com/iliyamo/sportsvenue-portal/internal/middleware"
	"github.com/iliyamo/sportsvenue-portal/internal/model"
	"github.com/iliyamo/sportsvenue-portal/internal/portal"
)

// Deps is everything the routes need.  A nil Redis disables rate limiting.
type Deps struct {
	Registry     *portal.Registry
	Redis        *redis.Client
	RateLimit    config.RateLimitConfig
	SessionTTL   time.Duration
	CookieSecure bool
	Log          zerolog.Logger
}

// New returns an echo instance with every portal route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(d.Log))

	RegisterRoutes(e)
	RegisterPortal(e, d)
	return e
}

// RegisterRoutes registers routes that need no browser session.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPortal registers the session, venue, booking, payment and admin
// pages.  POST routes go through the token bucket.
func RegisterPortal(e *echo.Echo, d Deps) {
	h := handler.New(d.Log)
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log)

	g := e.Group("")
	g.Use(middleware.BrowserSession(d.Registry, d.SessionTTL, d.CookieSecure))

	g.GET("/session", h.Session)
	g.POST("/session/login", h.Login, limit)
	g.POST("/session/logout", h.Logout)

	g.GET("/venues", h.Venues)
	g.GET("/venues/:id/book", h.StartBooking)
	g.POST("/venues/:id/book/quote", h.QuoteBooking)
	g.POST("/venues/:id/book", h.SubmitBooking, limit)

	g.GET("/payment/:bookingId", h.StartPayment)
	g.POST("/payment/:bookingId", h.SubmitPayment, limit)

	g.POST("/admin/users", h.RegisterAdmin, middleware.RequireRole(admin.MsgAccessDenied, model.RoleAdmin), limit)
}
