package main

import (
	"log"
	"net/http"

	"trotro/internal/config"
	"trotro/internal/feed"
	"trotro/internal/logger"
	"trotro/internal/middleware"
	"trotro/internal/routes"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	// Initialize structured logging to file
	logger.Setup()

	// Connect to the database
	config.InitDB()

	routeID := config.RouteID()
	hub := feed.NewHub()

	// Request logging middleware, tagged with the deployment's route
	requestLogger := ginlog.SetLogger(
		ginlog.WithUTC(true),
		ginlog.WithLogger(func(c *gin.Context, l zerolog.Logger) zerolog.Logger {
			return l.With().Str("route_id", routeID).Logger()
		}),
	)

	// Setup Gin router with recovery + request logging
	r := routes.SetupRouter(config.DB, hub, routeID, gin.Recovery(), requestLogger)

	// Wrap with CORS
	handler := middleware.EnableCORS(r)

	addr := config.ServerAddr()
	log.Printf("🚀 Trotro coordination server running at %s (route %s)", addr, routeID)
	log.Fatal(http.ListenAndServe(addr, handler))
}
