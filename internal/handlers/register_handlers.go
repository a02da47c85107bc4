package handlers

import (
	portssvc "github.com/opmecontrol/opme_backend/internal/core/ports/services"
	"github.com/opmecontrol/opme_backend/internal/middleware"
	"github.com/opmecontrol/opme_backend/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	r.GET("/", getHome)
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	// Register public authentication routes
	registerAuthRoutes(r, services.User, services.Token)

	// Setup API v1 routes with Auth Middleware, passing service interfaces
	setupAPIV1Routes(r, cfg, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	// Apply AuthMiddleware to the entire v1 group
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret))

	// Uploads and provider syncs do real parsing and network work, so both
	// share one IP-scoped limit.
	rate, _ := limiter.NewRateFromFormatted(cfg.IngestRateLimit)
	store := memory.NewStore()
	ingestLimiter := middleware.RateLimit(limiter.New(store, rate))

	registerUserRoutes(v1, services.User)
	RegisterDocumentRoutes(v1, services.Document, ingestLimiter)
	RegisterBalanceRoutes(v1, services.Balance)
	registerMainoRoutes(v1, services.Maino, ingestLimiter)
}
