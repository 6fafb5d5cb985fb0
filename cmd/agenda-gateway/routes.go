package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/rsvp-agenda/internal/handler"
	"github.com/noah-isme/rsvp-agenda/internal/middleware"
	"github.com/noah-isme/rsvp-agenda/internal/service"
	"github.com/noah-isme/rsvp-agenda/pkg/config"
	"github.com/noah-isme/rsvp-agenda/pkg/logger"
	corsmiddleware "github.com/noah-isme/rsvp-agenda/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/rsvp-agenda/pkg/middleware/requestid"
)

type routeHandlers struct {
	agenda  *handler.AgendaHandler
	events  *handler.EventHandler
	rsvp    *handler.RSVPHandler
	session *handler.SessionHandler
	metrics *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, metricsSvc *service.MetricsService, h routeHandlers, actor middleware.ActorChecker) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/metrics", "/health", "/ready"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc, "/metrics", "/health", "/ready"))

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.GET("/agenda", h.agenda.Get)
	api.POST("/agenda/refresh", h.agenda.Refresh)
	api.POST("/agenda/groups/toggle", h.agenda.ToggleGroup)
	api.GET("/agenda/export", h.agenda.Export)

	admin := api.Group("/events", middleware.RequireAdmin(actor))
	admin.POST("", h.events.Create)
	admin.PUT("/:id", h.events.Update)
	admin.DELETE("/:id", h.events.Delete)

	events := api.Group("/events/:id")
	events.GET("/rsvp", h.rsvp.Get)
	events.POST("/rsvp", h.rsvp.Toggle)
	events.POST("/open", h.rsvp.Open)
	events.GET("/summary", h.rsvp.Summary)
	events.GET("/roster", h.rsvp.Roster)
	events.PUT("/roster", h.rsvp.SetExpanded)

	api.GET("/session", h.session.Get)
	api.PUT("/session", h.session.Set)
	api.DELETE("/session", h.session.Delete)
	api.GET("/users", h.session.Users)

	api.GET("/system/metrics", h.metrics.Snapshot)

	return r
}
