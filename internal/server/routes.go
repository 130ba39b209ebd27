package server

import (
	"github.com/labstack/echo/v4"

	"example.com/debt-planner/backend/internal/handlers"
)

type routeHandlers struct {
	health        *handlers.HealthHandler
	auth          *handlers.AuthHandler
	simulate      *handlers.SimulateHandler
	plans         *handlers.PlanHandler
	stats         *handlers.StatsHandler
	notifications *handlers.NotificationHandler
	admin         *handlers.AdminHandler
}

type routeMiddleware struct {
	auth          echo.MiddlewareFunc
	optionalAuth  echo.MiddlewareFunc
	admin         echo.MiddlewareFunc
	authLimit     echo.MiddlewareFunc
	simulateLimit echo.MiddlewareFunc
	planLimit     echo.MiddlewareFunc
}

func registerRoutes(e *echo.Echo, h routeHandlers, mw routeMiddleware) {
	e.GET("/health", h.health.Health)

	api := e.Group("/api/v1")

	authGroup := api.Group("/auth", mw.authLimit)
	authGroup.POST("/register", h.auth.Register)
	authGroup.POST("/login", h.auth.Login)
	authGroup.GET("/me", h.auth.Me, mw.auth)

	simulate := api.Group("/simulate", mw.simulateLimit)
	simulate.POST("/prioritize", h.simulate.Prioritize)
	simulate.POST("/allocate", h.simulate.Allocate)
	simulate.POST("/payoff", h.simulate.Payoff)
	simulate.POST("/combined", h.simulate.Combined)
	simulate.POST("/compare", h.simulate.Compare)

	plans := api.Group("/plans")
	plans.POST("", h.plans.Create, mw.planLimit, mw.optionalAuth)
	plans.GET("", h.plans.List, mw.auth)
	plans.GET("/:id", h.plans.Get, mw.auth)
	plans.PATCH("/:id", h.plans.Rename, mw.auth)
	plans.DELETE("/:id", h.plans.Delete, mw.auth)
	plans.POST("/:id/duplicate", h.plans.Duplicate, mw.auth)
	plans.POST("/:id/share", h.plans.Share, mw.auth)
	plans.DELETE("/:id/share", h.plans.RevokeShare, mw.auth)
	plans.GET("/:id/export/json", h.plans.ExportJSON, mw.auth)
	plans.GET("/:id/export/csv", h.plans.ExportCSV, mw.auth)

	api.GET("/shared/:token", h.plans.Shared, mw.simulateLimit)

	stats := api.Group("/stats", mw.auth)
	stats.GET("/overview", h.stats.Overview)
	stats.GET("/by-strategy", h.stats.ByStrategy)
	stats.GET("/debt-trend", h.stats.DebtTrend)

	notifications := api.Group("/notifications", mw.auth)
	notifications.GET("/stream", h.notifications.Stream)

	admin := api.Group("/admin", mw.auth, mw.admin)
	admin.GET("/users", h.admin.ListUsers)
	admin.GET("/ai-requests", h.admin.ListAIRequests)
	admin.GET("/usage", h.admin.Usage)
}
