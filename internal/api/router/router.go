package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/DRegan-dev/downward/config"
	"github.com/DRegan-dev/downward/internal/api/handler"
	"github.com/DRegan-dev/downward/internal/api/middleware"
	"github.com/DRegan-dev/downward/internal/service"
	"github.com/DRegan-dev/downward/pkg/jwt"
	"github.com/DRegan-dev/downward/pkg/redis"
)

// Setup builds the gin engine. rdb may be nil.
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	authz service.Authorizer,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitKB * 1024))

	// ── health ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// typed nils would defeat the nil checks in the middleware
	var (
		blacklist middleware.Blacklist
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	authRateLimit := middleware.RateLimit(limiter, cfg.RateLimit.Requests, cfg.RateLimit.Window, logger)
	requireAuth := middleware.JWTAuth(jwtMgr, blacklist, logger)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// identity, public
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authRateLimit, h.Auth.Register)
			auth.POST("/login", authRateLimit, h.Auth.Login)
			auth.POST("/refresh", authRateLimit, h.Auth.RefreshToken)
		}

		// catalog, public reads
		descentTypes := v1.Group("/descent-types")
		{
			descentTypes.GET("", h.Catalog.ListDescentTypes)
			descentTypes.GET("/:id", h.Catalog.GetDescentType)
			descentTypes.GET("/:id/rituals", h.Catalog.ListRituals)
		}

		authorized := v1.Group("")
		authorized.Use(requireAuth)
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			sessions := authorized.Group("/sessions")
			{
				sessions.POST("", h.Session.StartSession)
				sessions.GET("", h.Session.ListHistory)
				sessions.GET("/export.ics", h.Session.ExportHistory)
				sessions.GET("/:id", h.Session.GetSession)
				sessions.PUT("/:id", h.Session.UpdateNotes)
				sessions.DELETE("/:id", h.Session.DeleteSession)
				sessions.POST("/:id/continue", h.Session.ContinueSession)
				sessions.POST("/:id/complete", h.Session.CompleteSession)
				sessions.POST("/:id/abandon", h.Session.AbandonSession)
				sessions.GET("/:id/entries", h.Entry.ListEntries)
				sessions.POST("/:id/entries", h.Entry.AddEntry)
			}

			entries := authorized.Group("/entries")
			{
				entries.PUT("/:id", h.Entry.EditEntry)
				entries.DELETE("/:id", h.Entry.DeleteEntry)
			}

			admin := authorized.Group("/admin")
			{
				catalog := admin.Group("")
				catalog.Use(middleware.RequireCapability(authz, service.CapCatalogAdmin))
				{
					catalog.GET("/descent-types", h.Catalog.ListDescentTypes)
					catalog.POST("/descent-types", h.Catalog.CreateDescentType)
					catalog.PUT("/descent-types/:id", h.Catalog.UpdateDescentType)
					catalog.DELETE("/descent-types/:id", h.Catalog.DeleteDescentType)
					catalog.POST("/rituals", h.Catalog.CreateRitual)
					catalog.PUT("/rituals/:id", h.Catalog.UpdateRitual)
					catalog.DELETE("/rituals/:id", h.Catalog.DeleteRitual)
				}

				stats := admin.Group("")
				stats.Use(middleware.RequireCapability(authz, service.CapViewStats))
				{
					stats.GET("/stats", h.Admin.Dashboard)
					stats.GET("/stats/export", h.Admin.ExportStats)
					stats.GET("/sessions", h.Admin.ListSessions)
				}

				users := admin.Group("/users")
				users.Use(middleware.RequireCapability(authz, service.CapUserAdmin))
				{
					users.GET("", h.User.ListUsers)
					users.GET("/:id", h.User.GetUser)
					users.PUT("/:id", h.User.UpdateUser)
					users.DELETE("/:id", h.User.DeleteUser)
					users.POST("/:id/reset-password", h.User.ResetPassword)
				}
			}
		}
	}

	return r
}
