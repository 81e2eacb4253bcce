package routes

import (
	"github.com/gin-gonic/gin"

	"trotro/internal/controllers"
)

// PassengerRoutes is the passenger console surface: read the catalog, then
// request a pickup.
func PassengerRoutes(r *gin.Engine, cat *controllers.CatalogController, pass *controllers.PassengerController) {
	passenger := r.Group("/passenger")
	{
		passenger.GET("/destinations", cat.ListDestinations)
		passenger.GET("/destinations/:id/stops", cat.ListStops)
		passenger.POST("/pickups", pass.RequestPickup)
	}
}
