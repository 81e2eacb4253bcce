package routes

import (
	"github.com/gin-gonic/gin"

	"trotro/internal/controllers"
)

// DriverRoutes is the driver console surface: catalog management plus the
// live waiting list and pickup acknowledgement.
func DriverRoutes(r *gin.Engine, cat *controllers.CatalogController, pass *controllers.PassengerController) {
	driver := r.Group("/driver")
	{
		driver.GET("/destinations", cat.ListDestinations)
		driver.POST("/destinations", cat.CreateDestination)
		driver.PUT("/destinations/:id", cat.RenameDestination)
		driver.DELETE("/destinations/:id", cat.DeleteDestination)

		driver.GET("/destinations/:id/stops", cat.ListStops)
		driver.POST("/destinations/:id/stops", cat.CreateStop)
		driver.PUT("/stops/:id", cat.RenameStop)
		driver.DELETE("/stops/:id", cat.DeleteStop)

		driver.GET("/passengers", pass.ListLive)
		driver.POST("/passengers/:id/acknowledge", pass.Acknowledge)
	}
}
