package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/venue-finder/internal/auth"
	"github.com/octobees/venue-finder/internal/config"
	"github.com/octobees/venue-finder/internal/handler"
	middlewarepkg "github.com/octobees/venue-finder/internal/middleware"
)

// WebhookPath receives Telegram updates in webhook mode.
const WebhookPath = "/telegram/webhook"

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Auth    *handler.AuthHandler
	Search  *handler.SearchHandler
	Webhook *handler.WebhookHandler
}

// Register wires all HTTP routes. The webhook route exists only when a
// webhook handler is supplied; operator routes only when login is configured.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok", "mode": cfg.BotMode})
	})

	if handlers.Webhook != nil {
		e.POST(WebhookPath, handlers.Webhook.Receive)
	}

	if handlers.Auth == nil || handlers.Search == nil {
		return
	}
	e.POST("/auth/login", handlers.Auth.Login)

	api := e.Group("/api", middlewarepkg.JWT(jwtManager), middlewarepkg.RequireRole(auth.RoleOperator))
	api.POST("/search", handlers.Search.Search, middlewarepkg.SearchRateLimiter(cfg.RateLimitSearch))
}
