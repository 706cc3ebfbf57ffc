// Package router assembles the gin engine and its route table.
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vitrine-craques/video-moderation-go/internal/handler"
	"github.com/vitrine-craques/video-moderation-go/internal/metrics"
	"github.com/vitrine-craques/video-moderation-go/internal/middleware"
)

// Deps carries everything the route table needs.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Deps struct {
	Service      handler.ModerationService
	Tokens       middleware.TokenParser
	Health       *handler.HealthHandler
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	AllowOrigins []string
}

// New builds the HTTP engine.
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.AllowOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if d.Health != nil {
		r.GET("/health/live", d.Health.LivenessProbe)
		r.GET("/health/ready", d.Health.ReadinessProbe)
	}
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	moderation := handler.NewModerationHandler(d.Service)
	appeals := handler.NewAppealHandler(d.Service)
	notifications := handler.NewNotificationHandler(d.Service)

	api := r.Group("/api/v1")
	api.GET("/videos/:id/visibility", appeals.Visibility)

	session := api.Group("")
	session.Use(middleware.RequireSession(d.Tokens))
	session.POST("/videos/:id/appeal", appeals.FileAppeal)
	session.GET("/notifications", notifications.List)

	admin := api.Group("/admin")
	admin.Use(middleware.RequireSession(d.Tokens), middleware.RequireAdmin())
	admin.POST("/videos/:videoId/block", moderation.Block)
	admin.DELETE("/videos/:videoId/block", moderation.Unblock)
	admin.PATCH("/videos/:videoId/appeal-response", moderation.ResolveAppeal)
	admin.GET("/videos", moderation.ListVideos)
	admin.GET("/summary", moderation.Summary)

	return r
}
