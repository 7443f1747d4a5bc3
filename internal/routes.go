package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	"brightholme/internal/config"
	"brightholme/internal/http"
	"brightholme/internal/http/middleware"
)

// publicCORSConfig is shared by all public endpoints. Tracking beacons and
// lead forms arrive cross-origin from the marketing site.
var publicCORSConfig = &cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Authorization, Referrer, User-Agent",
}

// MountAppRoutes mounts all application routes using cartridge's route API
func MountAppRoutes(srv *cartridge.Server) {
	cfg := config.GetConfig()

	// Rate limiting only in production; in development and test it would
	// interfere with rapid request sequences.
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// 70 req/min per IP is generous for one browser's pageviews while
	// keeping scripted floods off the write path.
	publicRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(70),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// Public config (beacon + lead forms)
	// Rate limiting + CORS; the global SecFetchSite middleware allows
	// cross-site, same-site, same-origin, so browser posts from the
	// marketing site pass while header-less scripted posts are blocked.
	publicAPIConfig := &cartridge.RouteConfig{
		EnableCORS:       true,
		CustomMiddleware: []fiber.Handler{publicRateLimiter},
		CORSConfig:       publicCORSConfig,
	}

	db := srv.GetDBManager().GetConnection()
	logger := srv.GetLogger()

	adminConfig := &cartridge.RouteConfig{
		CustomMiddleware: []fiber.Handler{
			middleware.DashboardAPIKeyAuth(db, logger),
		},
	}

	// === HEALTH ===
	srv.Get("/_health", http.HealthIndexAction)

	// === PUBLIC TRACKING ===
	srv.Post("/analytics/track", http.TrackPageviewAction, publicAPIConfig)
	srv.Options("/analytics/track", func(ctx *cartridge.Context) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	}, publicAPIConfig)

	// === PUBLIC LEAD FORMS ===
	srv.Post("/contact", http.ContactLeadAction, publicAPIConfig)
	srv.Post("/subscribe", http.SubscribeLeadAction, publicAPIConfig)
	srv.Post("/consultations", http.ConsultationLeadAction, publicAPIConfig)

	// === PROTECTED ADMIN ROUTES ===
	srv.Get("/admin/analytics", http.DashboardAnalyticsAction, adminConfig)
	srv.Get("/admin/leads", http.AdminLeadsIndexAction, adminConfig)
	srv.Post("/admin/leads/:id/status", http.AdminLeadStatusAction, adminConfig)
}
