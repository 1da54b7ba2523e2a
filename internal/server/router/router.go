package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/herd/internal/config"
	"github.com/mamadbah2/herd/internal/metrics"
	"github.com/mamadbah2/herd/internal/server/handlers"
)

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Farm    *handlers.FarmHandler
	Auth    *handlers.AuthHandler
	Webhook *handlers.WebhookHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, authn Authenticator, cfg config.AuthConfig, logger *zap.Logger) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(metrics.Middleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	guard := requireAuth(authn)

	r.GET("/webhook", h.Webhook.Verify)
	r.POST("/webhook", h.Webhook.Receive)
	r.POST("/send-message", guard, h.Webhook.SendMessage)

	api := r.Group("/api")

	authRoutes := api.Group("/auth", newIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).middleware())
	authRoutes.POST("/signup", h.Auth.SignUp)
	authRoutes.POST("/signin", h.Auth.SignIn)
	authRoutes.POST("/signout", guard, h.Auth.SignOut)
	authRoutes.POST("/reset-request", h.Auth.RequestReset)
	authRoutes.POST("/reset", h.Auth.ResetPassword)

	secured := api.Group("", guard)
	secured.GET("/me", h.Auth.Me)

	secured.GET("/farm", h.Farm.GetFarm)
	secured.GET("/dashboard", h.Farm.GetDashboard)
	secured.POST("/dashboard/refresh", h.Farm.RefreshDashboard)
	secured.GET("/notifications", h.Farm.Notifications)

	animals := secured.Group("/animals")
	animals.GET("", h.Farm.ListAnimals)
	animals.POST("", h.Farm.CreateAnimal)
	animals.GET("/:id", h.Farm.GetAnimal)
	animals.PUT("/:id", h.Farm.UpdateAnimal)
	animals.DELETE("/:id", h.Farm.DeleteAnimal)
	animals.GET("/:id/records", h.Farm.GetAnimalRecords)

	health := secured.Group("/health")
	health.GET("", h.Farm.ListHealth)
	health.POST("", h.Farm.CreateHealth)
	health.GET("/upcoming", h.Farm.UpcomingDoses)
	health.GET("/:id", h.Farm.GetHealth)
	health.PUT("/:id", h.Farm.UpdateHealth)
	health.DELETE("/:id", h.Farm.DeleteHealth)
	health.POST("/:id/applied", h.Farm.MarkDoseApplied)

	production := secured.Group("/production")
	production.GET("", h.Farm.ListProduction)
	production.POST("", h.Farm.CreateProduction)
	production.GET("/totals", h.Farm.ProductionTotals)
	production.POST("/export", h.Farm.ExportProduction)
	production.GET("/:id", h.Farm.GetProduction)
	production.PUT("/:id", h.Farm.UpdateProduction)
	production.DELETE("/:id", h.Farm.DeleteProduction)

	genealogy := secured.Group("/genealogy")
	genealogy.POST("/migrate", h.Farm.MigrateGenealogy)
	genealogy.GET("/:animalId", h.Farm.GetGenealogy)
	genealogy.PUT("/:animalId", h.Farm.SaveGenealogy)
	genealogy.DELETE("/:animalId", h.Farm.DeleteGenealogy)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}
