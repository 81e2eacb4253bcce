package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"trotro/internal/catalog"
	"trotro/internal/controllers"
	"trotro/internal/feed"
	"trotro/internal/ledger"
)

// SetupRouter builds the gin engine with all route groups wired to the
// given database, change-feed hub and route identifier. Middleware is
// applied before any group is registered.
func SetupRouter(db *gorm.DB, hub *feed.Hub, routeID string, middleware ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middleware...)

	store := catalog.NewStore(db, routeID)
	led := ledger.New(db, routeID)

	cat := controllers.NewCatalogController(store, hub)
	pass := controllers.NewPassengerController(led, hub, routeID)
	route := controllers.NewRouteController(db, routeID)
	ws := controllers.NewFeedController(hub, routeID)

	DriverRoutes(r, cat, pass)
	PassengerRoutes(r, cat, pass)
	AdminRoutes(r, route)
	WebSocketRoutes(r, ws)

	return r
}
