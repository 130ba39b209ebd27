package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"example.com/debt-planner/backend/internal/allocation"
	"example.com/debt-planner/backend/internal/auth"
	"example.com/debt-planner/backend/internal/config"
	"example.com/debt-planner/backend/internal/handlers"
	"example.com/debt-planner/backend/internal/notifications"
	"example.com/debt-planner/backend/internal/planner"
	"example.com/debt-planner/backend/internal/repository"
)

// Dependencies — собранные в main компоненты, которые сервер раздает обработчикам.
type Dependencies struct {
	DB      *pgxpool.Pool
	Planner *planner.Planner
	Policy  *allocation.Policy
	// AILogEnabled включает журнал обращений к LLM в таблице ai_requests.
	AILogEnabled bool
	Checks       map[string]handlers.HealthCheck
}

// New собирает HTTP-сервер Echo с роутами и зависимостями.
func New(cfg config.Config, logger *slog.Logger, deps Dependencies) *echo.Echo {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL, cfg.Auth.ShareTokenTTL)
	userRepo := repository.NewUserRepository(deps.DB)
	planRepo := repository.NewPlanRepository(deps.DB)
	statsRepo := repository.NewStatsRepository(deps.DB)
	adminRepo := repository.NewAdminRepository(deps.DB)
	notificationHub := notifications.NewHub()

	var aiRepo *repository.AIRepository
	if deps.AILogEnabled {
		aiRepo = repository.NewAIRepository(deps.DB)
	}

	checks := deps.Checks
	if checks == nil {
		checks = map[string]handlers.HealthCheck{"database": deps.DB.Ping}
	}

	routes := routeHandlers{
		health:   handlers.NewHealthHandler(checks),
		auth:     handlers.NewAuthHandler(userRepo, tokenManager),
		simulate: handlers.NewSimulateHandler(deps.Planner.Engine(), deps.Policy),
		plans: handlers.NewPlanHandler(handlers.PlanHandlerOptions{
			Planner:    deps.Planner,
			Plans:      planRepo,
			AILog:      aiRepo,
			Tokens:     tokenManager,
			Notifier:   notificationHub,
			Logger:     logger,
			AIProvider: cfg.AI.Provider,
			AIModel:    cfg.AI.Model,
		}),
		stats:         handlers.NewStatsHandler(statsRepo),
		notifications: handlers.NewNotificationHandler(notificationHub),
		admin:         handlers.NewAdminHandler(adminRepo),
	}

	registerRoutes(e, routes, routeMiddleware{
		auth:          auth.JWTMiddleware(tokenManager),
		optionalAuth:  auth.OptionalJWTMiddleware(tokenManager),
		admin:         handlers.AdminMiddleware(userRepo, cfg.Admin.Emails),
		authLimit:     rateLimiter(cfg.Auth.RateLimitPerMinute, cfg.Auth.RateLimitBurst),
		simulateLimit: rateLimiter(cfg.Server.RateLimitPerMinute, cfg.Server.RateLimitBurst),
		planLimit:     rateLimiter(cfg.AI.RateLimitPerMinute, cfg.AI.RateLimitBurst),
	})

	return e
}

// NewHTTPServer создает net/http сервер с заданными таймаутами.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("request_id", v.RequestID),
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote_ip", v.RemoteIP),
				slog.Duration("latency", v.Latency),
			}

			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}

			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}

			logger.LogAttrs(c.Request().Context(), level, "request completed", attrs...)
			return nil
		},
	})
}

// rateLimiter ограничивает частоту запросов с одного IP; perMinute <= 0 отключает ограничение.
func rateLimiter(perMinute, burst int) echo.MiddlewareFunc {
	if perMinute <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(perMinute) / 60.0),
		Burst:     burst,
		ExpiresIn: time.Minute,
	})

	return middleware.RateLimiter(store)
}
