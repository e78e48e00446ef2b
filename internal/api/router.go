package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/eduka/campus-auth/docs"
	"github.com/eduka/campus-auth/internal/api/handler"
	"github.com/eduka/campus-auth/internal/api/middleware"
	"github.com/eduka/campus-auth/internal/core/ports"
	"github.com/eduka/campus-auth/pkg/roles"
)

// Dependencies are the services and probes the router mounts.
type Dependencies struct {
	Auth   ports.AuthService
	Users  ports.UserService
	Checks map[string]handler.HealthCheck

	CORSOrigins []string
	// WriteRoles limits user create/update/delete; empty allows any
	// authenticated caller.
	WriteRoles []roles.Role
	// Registry receives HTTP metrics; nil uses the default registry.
	Registry *prometheus.Registry
	Log      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: deps.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(httpMetrics(deps.Registry))

	authHandler := handler.NewAuthHandler(deps.Auth, deps.Log)
	userHandler := handler.NewUserHandler(deps.Users)
	requireAuth := middleware.Auth(deps.Auth)

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout, requireAuth)
	auth.GET("/current-user", authHandler.CurrentUser, requireAuth)

	// --- User routes ---
	users := e.Group("/api/users")
	// Inter-service existence check; unauthenticated.
	users.GET("/:id/validate", userHandler.Validate)

	writeGuards := []echo.MiddlewareFunc{requireAuth}
	if len(deps.WriteRoles) > 0 {
		writeGuards = append(writeGuards, middleware.RBAC(deps.WriteRoles...))
	}
	users.GET("", userHandler.List, requireAuth)
	users.GET("/:id", userHandler.Get, requireAuth)
	users.POST("", userHandler.Create, writeGuards...)
	users.PUT("/:id", userHandler.Update, writeGuards...)
	users.DELETE("/:id", userHandler.Delete, writeGuards...)

	// --- Health probes and tooling (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewHealthDependenciesHandler(deps.Checks).Readiness)
	e.GET("/metrics", metricsHandler(deps.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

func httpMetrics(reg *prometheus.Registry) echo.MiddlewareFunc {
	if reg == nil {
		return echoprometheus.NewMiddleware("eduka_http")
	}
	return echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "eduka_http",
		Registerer: reg,
	})
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}
