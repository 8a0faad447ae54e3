package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/hackverse/hackverse-admin-api/internal/config"
	"github.com/hackverse/hackverse-admin-api/internal/handler"
	"github.com/hackverse/hackverse-admin-api/internal/middleware"
	"github.com/hackverse/hackverse-admin-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ModerationHandler *handler.ModerationHandler
	ActivityHandler   *handler.ActivityHandler
	TrustHandler      *handler.TrustHandler
	AnomalyHandler    *handler.AnomalyHandler
	OrganizerHandler  *handler.OrganizerHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// All admin surfaces require an authenticated moderator or admin.
	admin := app.Group("/api/admin", jwtMiddleware, middleware.RequireRole("admin", "moderator"))

	if deps.ModerationHandler != nil {
		// Report submission is the one surface users can hammer.
		moderation := admin.Group("/moderation", middleware.RateLimit("moderation", 120, time.Minute))
		deps.ModerationHandler.Register(moderation)
	}

	if deps.ActivityHandler != nil {
		activities := admin.Group("/activities")
		deps.ActivityHandler.Register(activities)
	}

	if deps.TrustHandler != nil {
		trust := admin.Group("/trust")
		deps.TrustHandler.Register(trust)
	}

	if deps.AnomalyHandler != nil {
		anomalies := admin.Group("/anomalies")
		deps.AnomalyHandler.Register(anomalies)
	}

	if deps.OrganizerHandler != nil {
		organizers := admin.Group("/organizers")
		deps.OrganizerHandler.Register(organizers)
	}
}
