// Package httpapi is the HTTP boundary of the task service. It authenticates
// requests, decodes input, calls the task core with the acting user, and
// renders results and errors as JSON.
package httpapi

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const metricsSubsystem = "dayplan"

// Config carries the collaborators the routes need.
type Config struct {
	Service TaskService
	Auth    Authenticator
	Health  Pinger
	Logger  *log.Logger

	// HideForeign answers other users' task ids with 404 instead of 403.
	HideForeign bool

	// Metrics enables request metrics and GET /metrics on this registry.
	Metrics *prometheus.Registry

	// AllowOrigins lists CORS origins. Empty allows any origin.
	AllowOrigins []string
}

// New builds an Echo instance with the standard middleware and all routes.
func New(cfg Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	Register(e, cfg)
	return e
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, cfg Config) {
	e.HTTPErrorHandler = errorHandler(cfg.Logger)

	// Metrics wrap the request logger so they see the status written by the
	// error handler.
	if cfg.Metrics != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Subsystem:  metricsSubsystem,
			Registerer: cfg.Metrics,
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/metrics"
			},
		}))
		e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
			Gatherer: cfg.Metrics,
		}))
	}
	e.Use(requestLogger(cfg.Logger))

	e.GET("/healthz", healthz(cfg.Health, cfg.Logger))

	svc := cfg.Service
	hide := cfg.HideForeign

	api := e.Group("/api", requireUser(cfg.Auth))
	api.GET("/user", currentUser())
	api.POST("/logout", logout(cfg.Auth))

	api.GET("/tasks", listTasks(svc))
	api.POST("/tasks", createTask(svc))
	api.GET("/tasks/dates", taskDates(svc))
	api.POST("/tasks/reorder", reorderTasks(svc))
	api.GET("/tasks/:id", getTask(svc, hide))
	api.PUT("/tasks/:id", updateTask(svc, hide))
	api.PATCH("/tasks/:id", updateTask(svc, hide))
	api.DELETE("/tasks/:id", deleteTask(svc, hide))
	api.POST("/tasks/:id/toggle", toggleTask(svc, hide))
}
