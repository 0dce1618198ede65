package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/config"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/handler"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/middleware"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/repository"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/service"
)

// SetupRouter wires repositories, services and handlers into a gin engine.
// Background work started for the router stops with ctx.
func SetupRouter(ctx context.Context, cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger())

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+middleware.RequestIDHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Route analytics API is running",
		})
	})

	repo := repository.NewDetectionRepository(cfg.AnalysisDir)
	routeService := service.NewRouteService(repo, cfg.DefaultFPS)
	trackerService := service.NewTrackerService(repo, cfg.TrackerCommand, cfg.TrackerHalf)

	routeHandler := handler.NewRouteHandler(routeService)
	analysisHandler := handler.NewAnalysisHandler(routeService)
	trackerHandler := handler.NewTrackerHandler(trackerService)

	api := r.Group("/api")
	api.Use(middleware.RateLimit(ctx, cfg.RateLimit, cfg.RateWindow), middleware.Auth(cfg.JWTSecret))
	{
		routes := api.Group("/routeAnalytics")
		{
			routes.POST("/", routeHandler.RouteAnalytics)
			routes.POST("/chart", routeHandler.Chart)
		}

		api.POST("/routes/", routeHandler.Routes)
		api.GET("/analysis/", analysisHandler.RawDetections)
		api.GET("/streams", analysisHandler.Streams)
		api.POST("/init", trackerHandler.Init)
	}

	return r
}
